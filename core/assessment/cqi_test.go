package assessment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

func scores(vals ...interface{}) [NumPLOs]null.Float64 {
	var out [NumPLOs]null.Float64
	for i, v := range vals {
		if i >= NumPLOs {
			break
		}
		if f, ok := v.(float64); ok {
			out[i] = null.Float64From(f)
		}
	}
	return out
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		scoring ScoringType
		value   float64
		want    string
	}{
		{name: "scale 3.5 is exactly 70", scoring: ScoringScale, value: 3.5, want: "70"},
		{name: "scale 3.4999 is below 70", scoring: ScoringScale, value: 3.4999, want: "69.998"},
		{name: "scale 5 is 100", scoring: ScoringScale, value: 5, want: "100"},
		{name: "percent passes through", scoring: ScoringPercent, value: 65, want: "65"},
		{name: "percent 3 stays 3, not 60", scoring: ScoringPercent, value: 3, want: "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, _ := decimal.NewFromString(tt.want)
			if got := Normalize(tt.scoring, tt.value); !got.Equal(want) {
				t.Errorf("Normalize() = %s, want %s", got, want)
			}
		})
	}
}

func TestEvaluatePLOs(t *testing.T) {
	t.Run("scale threshold boundary", func(t *testing.T) {
		recs := []Record{
			{Matric: "m1", Type: TypeTRX500, Scoring: ScoringScale, Scores: scores(3.5, 3.4999)},
		}
		res := EvaluatePLOs(recs, 70)
		if !res[0].Achieved {
			t.Errorf("PLO1 (3.5/5 = 70%%): achieved = false, want true")
		}
		if res[1].Achieved {
			t.Errorf("PLO2 (3.4999/5 < 70%%): achieved = true, want false")
		}
	})

	t.Run("percent 65 is an issue", func(t *testing.T) {
		recs := []Record{
			{Matric: "m1", Type: TypeTRX500, Scoring: ScoringPercent, Scores: scores(65.0)},
		}
		issues := Issues(EvaluatePLOs(recs, 70))
		if len(issues) != 1 || issues[0].PLO != 1 {
			t.Fatalf("issues = %+v, want exactly PLO1", issues)
		}
	})

	t.Run("scale 65 must be normalized, not reinterpreted", func(t *testing.T) {
		// 65 is out of range for a 5-point scale in real data, but the rule matters:
		// a Scale value always goes through /5*100 first
		recs := []Record{
			{Matric: "m1", Type: TypeTRX500, Scoring: ScoringScale, Scores: scores(3.25)},
		}
		res := EvaluatePLOs(recs, 70)
		want, _ := decimal.NewFromString("65")
		if !res[0].Average.Equal(want) {
			t.Errorf("average = %s, want 65", res[0].Average)
		}
		if res[0].Achieved {
			t.Errorf("3.25/5 = 65%% must not be achieved at a 70%% bound")
		}
	})

	t.Run("averages across records and scoring types", func(t *testing.T) {
		recs := []Record{
			{Matric: "m1", Type: TypeTRX500, Scoring: ScoringScale, Scores: scores(4.0)},  // 80
			{Matric: "m1", Type: TypeAnnualReview, Scoring: ScoringPercent, Scores: scores(60.0)}, // 60
		}
		res := EvaluatePLOs(recs, 70)
		want, _ := decimal.NewFromString("70")
		if !res[0].Average.Equal(want) {
			t.Errorf("average = %s, want 70", res[0].Average)
		}
		if !res[0].Achieved {
			t.Errorf("average 70 at a 70 bound must be achieved")
		}
	})

	t.Run("null scores are ignored, not zero", func(t *testing.T) {
		recs := []Record{
			{Matric: "m1", Type: TypeTRX500, Scoring: ScoringPercent, Scores: scores(80.0)},
			{Matric: "m1", Type: TypeViva, Scoring: ScoringPercent}, // all nulls
		}
		res := EvaluatePLOs(recs, 70)
		want, _ := decimal.NewFromString("80")
		if !res[0].Average.Equal(want) {
			t.Errorf("average = %s, want 80 (null must not drag it to 40)", res[0].Average)
		}
	})

	t.Run("no contributions is not assessed, never an issue", func(t *testing.T) {
		res := EvaluatePLOs(nil, 70)
		if len(res) != NumPLOs {
			t.Fatalf("len = %d, want %d", len(res), NumPLOs)
		}
		for _, r := range res {
			if r.Assessed || r.Achieved {
				t.Errorf("PLO%d: assessed/achieved must be false with no records", r.PLO)
			}
		}
		if issues := Issues(res); len(issues) != 0 {
			t.Errorf("issues = %+v, want none", issues)
		}
	})
}

func TestLatestScore(t *testing.T) {
	recs := []Record{
		{Matric: "m1", Type: TypeViva, Scoring: ScoringScale, Scores: scores(4.0)},    // 80, highest priority
		{Matric: "m1", Type: TypeTRX500, Scoring: ScoringPercent, Scores: scores(50.0)},
	}
	got := LatestScore(recs, 1)
	if !got.Valid || got.Float64 != 80 {
		t.Errorf("LatestScore() = %+v, want 80 (Viva outranks TRX500)", got)
	}
	if got := LatestScore(recs, 2); got.Valid {
		t.Errorf("LatestScore() for unscored PLO = %+v, want null", got)
	}
}
