package student

import (
	"errors"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

var (
	// errors
	ErrNotFound = errors.New("student not found")
)

// Student statuses as recorded in the tracking sheet.
const (
	StatusActive    = "Active"
	StatusGraduated = "Graduated"
	StatusWithdrawn = "Withdrawn"
)

// Delay-notified flag values. Empty means "never attempted"; FAILED means a send was
// attempted and did not go out, so a later pass may retry.
const (
	FlagSent   = "YES"
	FlagFailed = "FAILED"
)

type (
	// MilestoneDates holds the per-milestone cells of one tracking row, parsed at the
	// store gateway. An absent Expected or Actual is a null time, never a zero default.
	MilestoneDates struct {
		Expected      null.Time
		Actual        null.Time
		DelayNotified string
		DelayNotifAt  null.Time
	}

	// Record is one row of the tracking sheet. Matric and Email are stable once
	// assigned; rows are created at admission and never deleted here.
	Record struct {
		Matric          string    `json:"matric"`
		Name            string    `json:"name"`
		Email           string    `json:"email"`
		SupervisorEmail string    `json:"supervisor_email"`
		Programme       string    `json:"programme"`
		Status          string    `json:"status"`
		StartDate       null.Time `json:"start_date"`

		Milestones map[MilestoneKey]MilestoneDates `json:"-"`

		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}
)

// IsDoctoral reports whether the student follows the doctoral plan, detected from the
// programme name.
func (r Record) IsDoctoral() bool {
	prog := strings.ToLower(r.Programme)
	return strings.Contains(prog, "phd") || strings.Contains(prog, "doctor")
}

func (r Record) IsGraduated() bool {
	return r.Status == StatusGraduated
}

// Dates returns the milestone cells for the given key; zero-valued when the row has
// no data for it.
func (r Record) Dates(key MilestoneKey) MilestoneDates {
	if r.Milestones == nil {
		return MilestoneDates{}
	}
	return r.Milestones[key]
}
