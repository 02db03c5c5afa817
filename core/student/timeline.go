package student

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/hazwanihanafi-commits/PPBMS-sub000/core"
)

// Milestone statuses shown on the progress timeline.
const (
	StatusCompleted = "Completed"
	StatusOnTrack   = "On Track"
	StatusDelayed   = "Delayed"
	StatusDueSoon   = "Due Soon"
	StatusPending   = "Pending"
)

// TimelineEntry is one derived milestone line of a student's progress timeline.
// RemainingDays is negative when the milestone is overdue and null when undefined
// (no expected date, or already completed) — never a silent 0.
type TimelineEntry struct {
	Key           MilestoneKey `json:"key"`
	Activity      string       `json:"activity"`
	Expected      null.Time    `json:"expected"`
	Actual        null.Time    `json:"actual"`
	Status        string       `json:"status"`
	RemainingDays null.Int     `json:"remaining_days"`
}

// expectedDate resolves a milestone's expected date: the stored cell wins; otherwise it
// derives from the student's start date plus the plan's month offset.
func expectedDate(rec Record, def MilestoneDefinition) null.Time {
	dates := rec.Dates(def.Key)
	if dates.Expected.Valid {
		return dates.Expected
	}
	if rec.StartDate.Valid {
		return null.TimeFrom(core.AddMonths(core.Midnight(rec.StartDate.Time), def.OffsetMonths))
	}
	return null.Time{}
}

// BuildTimeline derives the ordered milestone timeline for one student against the
// given plan. All date comparisons are at day granularity; `today` is normalized to
// midnight internally.
func BuildTimeline(rec Record, plan Plan, today time.Time, dueSoonWindowDays int) []TimelineEntry {
	today = core.Midnight(today)
	entries := make([]TimelineEntry, 0, len(plan.Milestones))

	for _, def := range plan.Milestones {
		dates := rec.Dates(def.Key)
		entry := TimelineEntry{
			Key:      def.Key,
			Activity: def.Label,
			Expected: expectedDate(rec, def),
			Actual:   dates.Actual,
		}

		switch {
		case entry.Actual.Valid:
			// an actual date always wins, even when recorded past the expected
			// date; lateness is the delay detector's concern
			entry.Status = StatusCompleted
		case !entry.Expected.Valid:
			entry.Status = StatusPending
		default:
			remaining := core.DaysBetween(today, entry.Expected.Time)
			entry.RemainingDays = null.IntFrom(remaining)
			switch {
			case remaining < 0:
				entry.Status = StatusDelayed
			case remaining <= dueSoonWindowDays:
				entry.Status = StatusDueSoon
			default:
				entry.Status = StatusOnTrack
			}
		}

		entries = append(entries, entry)
	}
	return entries
}
