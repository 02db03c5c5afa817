package assessment

import (
	"errors"
	"time"

	"github.com/volatiletech/null/v8"
)

var (
	// errors
	ErrNotFound = errors.New("assessment not found")
)

// NumPLOs is the number of programme learning outcome dimensions scored per assessment.
const NumPLOs = 11

// ScoringType tells how raw PLO scores are expressed.
type ScoringType string

const (
	ScoringPercent ScoringType = "Percent" // 0-100, used as-is
	ScoringScale   ScoringType = "Scale"   // 0-5, normalized via value/5*100
)

// Type is an ordered assessment category. The ordering matters only when a consumer
// needs "the latest available score" for display; averaging weighs all records equally.
type Type string

const (
	TypeTRX500       Type = "TRX500"
	TypeAnnualReview Type = "Annual Review"
	TypeViva         Type = "Viva"
)

var typePriorities = map[Type]int{
	TypeTRX500:       1,
	TypeAnnualReview: 2,
	TypeViva:         3,
}

// Types lists all assessment types in ascending priority order.
var Types = []Type{TypeTRX500, TypeAnnualReview, TypeViva}

// Priority returns the ordering rank of t; unknown types rank lowest.
func Priority(t Type) int {
	return typePriorities[t]
}

// CQI alert flag values, mirroring the delay-notified flags on the tracking sheet.
const (
	FlagSent   = "YES"
	FlagFailed = "FAILED"
)

type (
	// Record is one scoring occasion of one assessment instance for one student.
	// Unscored PLOs are null, never zero.
	Record struct {
		ID         string                `json:"id"`
		Matric     string                `json:"matric"`
		Type       Type                  `json:"assessment_type"`
		Scoring    ScoringType           `json:"scoring_type"`
		Scores     [NumPLOs]null.Float64 `json:"scores"` // PLO1..PLO11
		RecordedAt time.Time             `json:"recorded_at"` // UTC
	}

	// CQIAlert is the persisted at-most-once gate per (student, assessment type).
	CQIAlert struct {
		Matric string    `json:"matric"`
		Type   Type      `json:"assessment_type"`
		Status string    `json:"status"` // "", FlagSent or FlagFailed
		SentAt null.Time `json:"sent_at"`
	}
)

// Score returns the raw value for a 1-based PLO number.
func (r Record) Score(plo int) null.Float64 {
	if plo < 1 || plo > NumPLOs {
		return null.Float64{}
	}
	return r.Scores[plo-1]
}
