package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Hypsometry is the area–elevation curve of a basin: Fraction[i] is the
// share of the basin at or above Elevation[i].
type Hypsometry struct {
	Elevation, Fraction []float64
	Integral            float64 // (mean - min) / (max - min)
}

// NewHypsometry computes the curve over nbins equal elevation steps.
func NewHypsometry(z []float64, nbins int) Hypsometry {
	a := Valid(z)
	if len(a) == 0 || nbins < 2 {
		return Hypsometry{Integral: math.NaN()}
	}
	zn, zx := floats.Min(a), floats.Max(a)
	h := Hypsometry{
		Elevation: make([]float64, nbins),
		Fraction:  make([]float64, nbins),
		Integral:  math.NaN(),
	}
	floats.Span(h.Elevation, zn, zx)
	for i, e := range h.Elevation {
		n := 0
		for _, v := range a {
			if v >= e {
				n++
			}
		}
		h.Fraction[i] = float64(n) / float64(len(a))
	}
	if zx > zn {
		h.Integral = (Mean(a) - zn) / (zx - zn)
	}
	return h
}
