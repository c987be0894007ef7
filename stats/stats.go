// Package stats holds the reductions shared by basin summaries. No-data (NaN)
// is always excluded rather than counted as zero.
package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary is a reduction tuple over the valid values of a set.
type Summary struct {
	Mean, SE, Std, Min, Max float64
	N                       int // valid values
}

// Reduce summarises v, skipping NaN. Std is the sample standard deviation
// and SE = Std/sqrt(N).
func Reduce(v []float64) Summary {
	a := Valid(v)
	if len(a) == 0 {
		nan := math.NaN()
		return Summary{Mean: nan, SE: nan, Std: nan, Min: nan, Max: nan}
	}
	s := Summary{
		Mean: stat.Mean(a, nil),
		Min:  floats.Min(a),
		Max:  floats.Max(a),
		N:    len(a),
	}
	if len(a) > 1 {
		s.Std = stat.StdDev(a, nil)
	}
	s.SE = s.Std / math.Sqrt(float64(s.N))
	return s
}

// Valid returns the non-NaN values of v.
func Valid(v []float64) []float64 {
	a := make([]float64, 0, len(v))
	for _, x := range v {
		if !math.IsNaN(x) {
			a = append(a, x)
		}
	}
	return a
}

// Mean of the valid values of v, NaN when none.
func Mean(v []float64) float64 {
	a := Valid(v)
	if len(a) == 0 {
		return math.NaN()
	}
	return stat.Mean(a, nil)
}
