package assessment

import (
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

var (
	dec100 = decimal.NewFromInt(100)
	dec5   = decimal.NewFromInt(5)
)

// PLOResult is the aggregated outcome of one PLO for one student. Average is a
// normalized percent; it is only meaningful when Assessed is true (at least one
// record contributed a non-null score).
type PLOResult struct {
	PLO      int             `json:"plo"`
	Average  decimal.Decimal `json:"average"`
	Assessed bool            `json:"assessed"`
	Achieved bool            `json:"achieved"`
}

// Normalize converts a raw score to a percent. Scale scores (0-5) go through
// value/5*100 so a 3.5 lands exactly on 70; Percent scores pass through unchanged.
// Scale values are never reinterpreted as percents, or a 3/5 would read as a 3%.
func Normalize(scoring ScoringType, value float64) decimal.Decimal {
	d := decimal.NewFromFloat(value)
	if scoring == ScoringScale {
		return d.Div(dec5).Mul(dec100)
	}
	return d
}

// EvaluatePLOs aggregates all of a student's records into one result per PLO.
// Every record supplying a non-null value contributes equally to the average,
// regardless of assessment type; null scores are ignored. A PLO with zero
// contributions is Not Assessed, never zero.
func EvaluatePLOs(records []Record, achievedPct float64) []PLOResult {
	achieved := decimal.NewFromFloat(achievedPct)
	results := make([]PLOResult, 0, NumPLOs)

	for plo := 1; plo <= NumPLOs; plo++ {
		sum := decimal.Zero
		var count int64
		for _, rec := range records {
			score := rec.Score(plo)
			if !score.Valid {
				continue
			}
			sum = sum.Add(Normalize(rec.Scoring, score.Float64))
			count++
		}

		res := PLOResult{PLO: plo}
		if count > 0 {
			res.Assessed = true
			res.Average = sum.Div(decimal.NewFromInt(count))
			res.Achieved = res.Average.GreaterThanOrEqual(achieved)
		}
		results = append(results, res)
	}
	return results
}

// Issues filters results down to the PLOs requiring CQI: assessed but below the
// achievement bound.
func Issues(results []PLOResult) []PLOResult {
	var issues []PLOResult
	for _, res := range results {
		if res.Assessed && !res.Achieved {
			issues = append(issues, res)
		}
	}
	return issues
}

// LatestScore returns the normalized score of the highest-priority assessment type
// supplying a value for the given PLO; for display only.
func LatestScore(records []Record, plo int) null.Float64 {
	var (
		best     decimal.Decimal
		bestPrio int
		found    bool
	)
	for _, rec := range records {
		score := rec.Score(plo)
		if !score.Valid {
			continue
		}
		if prio := Priority(rec.Type); !found || prio >= bestPrio {
			best = Normalize(rec.Scoring, score.Float64)
			bestPrio = prio
			found = true
		}
	}
	if !found {
		return null.Float64{}
	}
	f, _ := best.Float64()
	return null.Float64From(f)
}
