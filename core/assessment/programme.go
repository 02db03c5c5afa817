package assessment

import (
	"github.com/shopspring/decimal"

	"github.com/hazwanihanafi-commits/PPBMS-sub000/core"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/student"
)

// Programme-level PLO attainment statuses.
const (
	AttainmentAchieved    = "Achieved"
	AttainmentBorderline  = "Borderline"
	AttainmentCQIRequired = "CQI Required"
	AttainmentNotAssessed = "Not Assessed"
)

type (
	// PLOAttainment is one PLO's roll-up over a graduate cohort. Total is the
	// attainment denominator; with the cohort policy it is the full graduate count,
	// so a PLO assessed for only a few graduates reads low rather than inflated.
	PLOAttainment struct {
		PLO      int             `json:"plo"`
		Achieved int             `json:"achieved"`
		Total    int             `json:"total"`
		Percent  decimal.Decimal `json:"percent"`
		Status   string          `json:"status"`
	}

	// ProgrammeCQISummary is the per-programme quality assurance report.
	ProgrammeCQISummary struct {
		Programme string          `json:"programme"`
		Graduates int             `json:"graduates"`
		PLOs      []PLOAttainment `json:"plos"`
	}
)

// AggregateProgramme rolls per-graduate PLO results up into programme-level
// attainment. Only graduated students count; records holds each graduate's
// assessment rows keyed by matric. The denominator policy and the status cut
// points come from conf.CQI.
func AggregateProgramme(programme string, graduates []student.Record, records map[string][]Record, conf *core.Config) ProgrammeCQISummary {
	achievedBound := decimal.NewFromFloat(conf.CQI.AchievedPct)
	borderBound := decimal.NewFromFloat(conf.CQI.BorderlinePct)

	summary := ProgrammeCQISummary{
		Programme: programme,
		Graduates: len(graduates),
		PLOs:      make([]PLOAttainment, 0, NumPLOs),
	}

	// per-graduate evaluation, once
	results := make(map[string][]PLOResult, len(graduates))
	for _, grad := range graduates {
		results[grad.Matric] = EvaluatePLOs(records[grad.Matric], conf.CQI.AchievedPct)
	}

	for plo := 1; plo <= NumPLOs; plo++ {
		att := PLOAttainment{PLO: plo}
		var assessed int
		for _, grad := range graduates {
			res := results[grad.Matric][plo-1]
			if !res.Assessed {
				continue
			}
			assessed++
			if res.Achieved {
				att.Achieved++
			}
		}

		if conf.CQI.CohortDenominator {
			att.Total = len(graduates)
		} else {
			att.Total = assessed
		}

		if att.Total == 0 {
			att.Status = AttainmentNotAssessed
			summary.PLOs = append(summary.PLOs, att)
			continue
		}

		att.Percent = decimal.NewFromInt(int64(att.Achieved)).
			Div(decimal.NewFromInt(int64(att.Total))).
			Mul(dec100)
		switch {
		case att.Percent.GreaterThanOrEqual(achievedBound):
			att.Status = AttainmentAchieved
		case att.Percent.GreaterThanOrEqual(borderBound):
			att.Status = AttainmentBorderline
		default:
			att.Status = AttainmentCQIRequired
		}
		summary.PLOs = append(summary.PLOs, att)
	}
	return summary
}
