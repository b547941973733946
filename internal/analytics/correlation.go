package analytics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Correlation is the result of correlating two biomarker series at a lag.
type Correlation struct {
	Biomarker1     string  `json:"biomarker1"`
	Biomarker2     string  `json:"biomarker2"`
	R              float64 `json:"r"`
	PValue         float64 `json:"pValue"`
	LagDays        int     `json:"lagDays"`
	N              int     `json:"n"`
	Significant    bool    `json:"significant"`
	Interpretation string  `json:"interpretation"`
}

// CorrelationEngine discovers correlations between biomarker series,
// including lagged correlations and Bonferroni-corrected discovery across
// all biomarker pairs.
type CorrelationEngine struct {
	Alpha      float64
	MinSamples int
	MaxLagDays int
}

// NewCorrelationEngine creates an engine with alpha 0.05, a 30-sample
// minimum and a maximum lag of seven days.
func NewCorrelationEngine() *CorrelationEngine {
	return &CorrelationEngine{Alpha: 0.05, MinSamples: 30, MaxLagDays: 7}
}

// Compute correlates two daily series at the given day lag. A positive lag
// means the first biomarker leads the second. Returns nil when fewer than
// MinSamples paired days remain.
func (e *CorrelationEngine) Compute(s1, s2 Series, b1, b2 string, lagDays int) *Correlation {
	x, y := AlignDaily(s1, s2, lagDays)
	if len(x) < e.MinSamples {
		return nil
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return nil
	}
	p := corrPValue(r, len(x))

	return &Correlation{
		Biomarker1:     b1,
		Biomarker2:     b2,
		R:              r,
		PValue:         p,
		LagDays:        lagDays,
		N:              len(x),
		Significant:    p < e.Alpha,
		Interpretation: interpret(r, b1, b2, lagDays),
	}
}

// FindLagged computes correlations for every lag in [-MaxLagDays,
// +MaxLagDays], strongest first.
func (e *CorrelationEngine) FindLagged(s1, s2 Series, b1, b2 string) []Correlation {
	var out []Correlation
	for lag := -e.MaxLagDays; lag <= e.MaxLagDays; lag++ {
		if c := e.Compute(s1, s2, b1, b2, lag); c != nil {
			out = append(out, *c)
		}
	}
	sortByStrength(out)
	return out
}

// Discover finds all significant correlations between the given biomarkers,
// applying a Bonferroni correction across pairs and lags. Series are looked
// up by biomarker name; missing series are skipped.
func (e *CorrelationEngine) Discover(series map[string]Series, biomarkers []string) []Correlation {
	nPairs := len(biomarkers) * (len(biomarkers) - 1) / 2
	nLags := 2*e.MaxLagDays + 1
	nComparisons := nPairs * nLags
	if nComparisons == 0 {
		return nil
	}
	adjustedAlpha := e.Alpha / float64(nComparisons)

	var out []Correlation
	for i, b1 := range biomarkers {
		for _, b2 := range biomarkers[i+1:] {
			s1, ok1 := series[b1]
			s2, ok2 := series[b2]
			if !ok1 || !ok2 {
				continue
			}
			for _, c := range e.FindLagged(s1, s2, b1, b2) {
				if c.PValue < adjustedAlpha {
					c.Significant = true
					out = append(out, c)
				}
			}
		}
	}
	sortByStrength(out)
	return out
}

// Matrix computes the Pearson correlation matrix (zero lag) for the given
// biomarkers. Entries with insufficient overlap are NaN; the diagonal is 1.
func (e *CorrelationEngine) Matrix(series map[string]Series, biomarkers []string) [][]float64 {
	n := len(biomarkers)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			m[i][j] = math.NaN()
		}
		m[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			x, y := AlignDaily(series[biomarkers[i]], series[biomarkers[j]], 0)
			if len(x) < 3 {
				continue
			}
			r := stat.Correlation(x, y, nil)
			m[i][j] = r
			m[j][i] = r
		}
	}
	return m
}

func sortByStrength(cs []Correlation) {
	sort.SliceStable(cs, func(i, j int) bool {
		return math.Abs(cs[i].R) > math.Abs(cs[j].R)
	})
}

func interpret(r float64, b1, b2 string, lagDays int) string {
	strength := "weak"
	switch {
	case math.Abs(r) > 0.7:
		strength = "strong"
	case math.Abs(r) > 0.4:
		strength = "moderate"
	}
	direction := "negative"
	if r > 0 {
		direction = "positive"
	}

	timing := "at the same time"
	switch {
	case lagDays > 0:
		timing = fmt.Sprintf("%s changes precede %s changes by %d day(s)", b1, b2, lagDays)
	case lagDays < 0:
		timing = fmt.Sprintf("%s changes precede %s changes by %d day(s)", b2, b1, -lagDays)
	}

	return fmt.Sprintf("%s %s correlation (r=%.2f): %s", capitalize(strength), direction, r, timing)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
