package student

import (
	"testing"
	"time"

	"github.com/volatiletech/null/v8"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func record(programme string, start time.Time, milestones map[MilestoneKey]MilestoneDates) Record {
	return Record{
		Matric:          "mpp201234",
		Name:            "Amina Kalala",
		Email:           "amina@test.cd",
		SupervisorEmail: "prof@test.cd",
		Programme:       programme,
		Status:          StatusActive,
		StartDate:       null.TimeFrom(start),
		Milestones:      milestones,
	}
}

func TestPlanFor(t *testing.T) {
	tests := []struct {
		programme string
		want      string
	}{
		{"Master of Project Management", MastersPlan.Name},
		{"PhD in Computer Science", DoctoralPlan.Name},
		{"Doctor of Philosophy (Education)", DoctoralPlan.Name},
		{"doctorate programme", DoctoralPlan.Name},
		{"MSc Data Science", MastersPlan.Name},
	}
	for _, tt := range tests {
		t.Run(tt.programme, func(t *testing.T) {
			if got := PlanFor(Record{Programme: tt.programme}); got.Name != tt.want {
				t.Errorf("PlanFor() = %s, want %s", got.Name, tt.want)
			}
		})
	}
}

func TestBuildTimeline_statuses(t *testing.T) {
	today := date(2024, time.August, 1)
	start := date(2024, time.January, 1)

	tests := []struct {
		name       string
		rec        Record
		key        MilestoneKey
		wantStatus string
		wantRem    null.Int
	}{
		{
			name: "actual present wins even when overdue",
			rec: record("PhD", start, map[MilestoneKey]MilestoneDates{
				MilestoneProposalDefense: {
					Expected: null.TimeFrom(date(2024, time.July, 1)),
					Actual:   null.TimeFrom(date(2024, time.July, 20)),
				},
			}),
			key:        MilestoneProposalDefense,
			wantStatus: StatusCompleted,
		},
		{
			name: "actual present without expected is completed",
			rec: Record{Programme: "PhD", Milestones: map[MilestoneKey]MilestoneDates{
				MilestoneProposalDefense: {Actual: null.TimeFrom(date(2024, time.March, 1))},
			}},
			key:        MilestoneProposalDefense,
			wantStatus: StatusCompleted,
		},
		{
			name:       "derived expected in the past is delayed",
			rec:        record("PhD", start, nil), // proposal defense derives to 2024-07-01
			key:        MilestoneProposalDefense,
			wantStatus: StatusDelayed,
			wantRem:    null.IntFrom(-31),
		},
		{
			name: "stored expected overrides derivation",
			rec: record("PhD", start, map[MilestoneKey]MilestoneDates{
				MilestoneProposalDefense: {Expected: null.TimeFrom(date(2024, time.December, 1))},
			}),
			key:        MilestoneProposalDefense,
			wantStatus: StatusOnTrack,
			wantRem:    null.IntFrom(122),
		},
		{
			name: "within window is due soon",
			rec: record("PhD", start, map[MilestoneKey]MilestoneDates{
				MilestoneEthicsApproval: {Expected: null.TimeFrom(date(2024, time.August, 10))},
			}),
			key:        MilestoneEthicsApproval,
			wantStatus: StatusDueSoon,
			wantRem:    null.IntFrom(9),
		},
		{
			name: "due today is due soon, not delayed",
			rec: record("MSc", start, map[MilestoneKey]MilestoneDates{
				MilestoneProposalDefense: {Expected: null.TimeFrom(today)},
			}),
			key:        MilestoneProposalDefense,
			wantStatus: StatusDueSoon,
			wantRem:    null.IntFrom(0),
		},
		{
			name:       "neither expected nor actual nor start date is pending",
			rec:        Record{Programme: "PhD"},
			key:        MilestoneProposalDefense,
			wantStatus: StatusPending,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := BuildTimeline(tt.rec, PlanFor(tt.rec), today, 14)
			var entry TimelineEntry
			for _, e := range entries {
				if e.Key == tt.key {
					entry = e
					break
				}
			}
			if entry.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", entry.Status, tt.wantStatus)
			}
			if entry.RemainingDays != tt.wantRem {
				t.Errorf("remainingDays = %+v, want %+v", entry.RemainingDays, tt.wantRem)
			}
		})
	}
}

func TestBuildTimeline_orderAndLength(t *testing.T) {
	rec := record("PhD", date(2024, time.January, 1), nil)
	entries := BuildTimeline(rec, DoctoralPlan, date(2024, time.February, 1), 14)

	if len(entries) != len(DoctoralPlan.Milestones) {
		t.Fatalf("len = %d, want %d", len(entries), len(DoctoralPlan.Milestones))
	}
	for i, def := range DoctoralPlan.Milestones {
		if entries[i].Key != def.Key {
			t.Errorf("entries[%d].Key = %s, want %s", i, entries[i].Key, def.Key)
		}
	}
}

func TestBuildTimeline_completedHasNullRemaining(t *testing.T) {
	rec := record("MSc", date(2024, time.January, 1), map[MilestoneKey]MilestoneDates{
		MilestoneProposalDefense: {Actual: null.TimeFrom(date(2024, time.June, 1))},
	})
	entries := BuildTimeline(rec, MastersPlan, date(2024, time.August, 1), 14)
	if entries[0].RemainingDays.Valid {
		t.Errorf("completed milestone must have null remaining days, got %d", entries[0].RemainingDays.Int)
	}
}

func TestBuildTimeline_midnightNormalization(t *testing.T) {
	// a 23:59 clock reading on the expected day must not flip the status to Delayed
	rec := record("MSc", date(2024, time.January, 1), map[MilestoneKey]MilestoneDates{
		MilestoneProposalDefense: {Expected: null.TimeFrom(date(2024, time.August, 1))},
	})
	lateClock := time.Date(2024, time.August, 1, 23, 59, 59, 0, time.UTC)
	entries := BuildTimeline(rec, MastersPlan, lateClock, 14)
	if entries[0].Status != StatusDueSoon {
		t.Errorf("status = %s, want %s", entries[0].Status, StatusDueSoon)
	}
}
