package assessment

import (
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/hazwanihanafi-commits/PPBMS-sub000/core"
)

var (
	assessmentTypeTag  = "assessmenttype"
	assessmentTypeText = "invalid assessment type"

	scoringTypeTag  = "scoringtype"
	scoringTypeText = "scoring type must be Percent or Scale"

	scoreRangeTag  = "scorerange"
	scoreRangeText = "score out of range for the scoring type"
)

func init() {
	_ = core.Validate.RegisterValidation(assessmentTypeTag, assessmentTypeValidation)
	core.RegisterCustomTranslation(assessmentTypeTag, assessmentTypeText)

	_ = core.Validate.RegisterValidation(scoringTypeTag, scoringTypeValidation)
	core.RegisterCustomTranslation(scoringTypeTag, scoringTypeText)

	core.Validate.RegisterStructValidation(newRecordStructValidation, NewRecord{})
	core.RegisterCustomTranslation(scoreRangeTag, scoreRangeText)
}

// NewRecord contains the information needed to record a new scoring occasion,
// typically from a progress book upload or an examiner webhook.
type NewRecord struct {
	Matric  string          `json:"matric" validate:"required,matric"`
	Type    string          `json:"assessment_type" validate:"required,assessmenttype"`
	Scoring string          `json:"scoring_type" validate:"required,scoringtype"`
	Scores  []null.Float64  `json:"scores" validate:"required,max=11"`
}

func (nr *NewRecord) Validate() error {
	nr.Matric = core.CleanString(nr.Matric, true /* lower */)
	nr.Type = core.CleanString(nr.Type)
	nr.Scoring = core.CleanString(nr.Scoring)
	return core.Validate.Struct(nr)
}

// Custom Validators

func assessmentTypeValidation(fl validator.FieldLevel) bool {
	_, ok := typePriorities[Type(fl.Field().String())]
	return ok
}

func scoringTypeValidation(fl validator.FieldLevel) bool {
	switch ScoringType(fl.Field().String()) {
	case ScoringPercent, ScoringScale:
		return true
	}
	return false
}

// newRecordStructValidation checks each non-null score against its scoring type's
// bounds: 0-5 for Scale, 0-100 for Percent.
func newRecordStructValidation(sl validator.StructLevel) {
	nr, ok := sl.Current().Interface().(NewRecord)
	if !ok {
		return
	}
	max := 100.0
	if ScoringType(nr.Scoring) == ScoringScale {
		max = 5.0
	}
	for _, score := range nr.Scores {
		if score.Valid && (score.Float64 < 0 || score.Float64 > max) {
			sl.ReportError(nr.Scores, "scores", "Scores", scoreRangeTag, "")
			return
		}
	}
}
