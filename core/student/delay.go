package student

import (
	"time"

	"github.com/hazwanihanafi-commits/PPBMS-sub000/core"
)

// DelayNotice flags one milestone needing a first-time delay notification.
type DelayNotice struct {
	Key      MilestoneKey `json:"key"`
	Label    string       `json:"label"`
	Expected time.Time    `json:"expected"`
	DaysLate int          `json:"days_late"`
}

// DetectDelays scans one student row and returns the milestones due a first delay
// notification. Per milestone, in this exact order:
//  1. skip when the delay-notified flag is already set (idempotence gate);
//  2. skip when no expected date is stored or derivable;
//  3. skip when an actual date is recorded (complete, not late);
//  4. overdue when expected < today at day granularity.
//
// A FAILED flag does not gate: those sends may be retried.
func DetectDelays(rec Record, plan Plan, today time.Time) []DelayNotice {
	today = core.Midnight(today)
	var notices []DelayNotice

	for _, def := range plan.Milestones {
		dates := rec.Dates(def.Key)
		if dates.DelayNotified == FlagSent {
			continue
		}
		expected := expectedDate(rec, def)
		if !expected.Valid {
			continue
		}
		if dates.Actual.Valid {
			continue
		}
		due := core.Midnight(expected.Time)
		if due.Before(today) {
			notices = append(notices, DelayNotice{
				Key:      def.Key,
				Label:    def.Label,
				Expected: due,
				DaysLate: core.DaysBetween(due, today),
			})
		}
	}
	return notices
}
