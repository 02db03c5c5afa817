package student

import (
	"testing"
	"time"

	"github.com/volatiletech/null/v8"
)

func TestDetectDelays(t *testing.T) {
	today := date(2024, time.August, 1)
	start := date(2024, time.January, 1)

	tests := []struct {
		name string
		rec  Record
		want []DelayNotice
	}{
		{
			name: "derived expected overdue (spec scenario)",
			rec:  record("PhD", start, nil),
			want: []DelayNotice{{
				Key:      MilestoneProposalDefense,
				Label:    "Proposal Defense Endorsed",
				Expected: date(2024, time.July, 1),
				DaysLate: 31,
			}},
		},
		{
			name: "already notified is gated",
			rec: record("PhD", start, map[MilestoneKey]MilestoneDates{
				MilestoneProposalDefense: {DelayNotified: FlagSent},
			}),
			want: nil,
		},
		{
			name: "failed flag does not gate",
			rec: record("PhD", start, map[MilestoneKey]MilestoneDates{
				MilestoneProposalDefense: {DelayNotified: FlagFailed},
			}),
			want: []DelayNotice{{
				Key:      MilestoneProposalDefense,
				Label:    "Proposal Defense Endorsed",
				Expected: date(2024, time.July, 1),
				DaysLate: 31,
			}},
		},
		{
			name: "actual recorded means complete, not late",
			rec: record("PhD", start, map[MilestoneKey]MilestoneDates{
				MilestoneProposalDefense: {Actual: null.TimeFrom(date(2024, time.July, 25))},
			}),
			want: nil,
		},
		{
			name: "no expected and no start date is skipped",
			rec:  Record{Programme: "PhD"},
			want: nil,
		},
		{
			name: "expected today is not overdue",
			rec: record("MSc", start, map[MilestoneKey]MilestoneDates{
				MilestoneProposalDefense: {Expected: null.TimeFrom(today)},
			}),
			want: nil,
		},
		{
			name: "multiple overdue milestones all reported",
			rec: record("MSc", start, map[MilestoneKey]MilestoneDates{
				MilestoneProposalDefense: {Expected: null.TimeFrom(date(2024, time.June, 1))},
				MilestoneEthicsApproval:  {Expected: null.TimeFrom(date(2024, time.July, 15))},
			}),
			want: []DelayNotice{
				{
					Key:      MilestoneProposalDefense,
					Label:    "Proposal Defense Endorsed",
					Expected: date(2024, time.June, 1),
					DaysLate: 61,
				},
				{
					Key:      MilestoneEthicsApproval,
					Label:    "Ethics Approval Obtained",
					Expected: date(2024, time.July, 15),
					DaysLate: 17,
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectDelays(tt.rec, PlanFor(tt.rec), today)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d notices, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i].Key != tt.want[i].Key ||
					got[i].Label != tt.want[i].Label ||
					!got[i].Expected.Equal(tt.want[i].Expected) ||
					got[i].DaysLate != tt.want[i].DaysLate {
					t.Errorf("notice[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDetectDelays_rerunAfterFlagging(t *testing.T) {
	// once flagged sent, a rerun must produce nothing even though the milestone is
	// still overdue
	today := date(2024, time.August, 1)
	rec := record("PhD", date(2024, time.January, 1), nil)

	first := DetectDelays(rec, PlanFor(rec), today)
	if len(first) != 1 {
		t.Fatalf("first run: got %d notices, want 1", len(first))
	}

	rec.Milestones = map[MilestoneKey]MilestoneDates{
		first[0].Key: {DelayNotified: FlagSent, DelayNotifAt: null.TimeFrom(today)},
	}
	if again := DetectDelays(rec, PlanFor(rec), today.AddDate(0, 0, 5)); len(again) != 0 {
		t.Errorf("rerun: got %d notices, want 0", len(again))
	}
}
