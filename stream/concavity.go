package stream

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const logBinWidth = .1 // log10 drainage-area bin width of slope-area fits

// SlopeArea fits S = ks·A^-θ to the along-stream slopes of the conditioned
// elevations zc, averaging log slope within log-area bins before the
// regression. It returns NaN when fewer than three bins carry data.
func (n *Network) SlopeArea(zc, area []float64) (theta, ks float64) {
	bins := map[int][2]float64{} // log10 A bin: sum log S, count
	for k, d := range n.Ds {
		if d < 0 || area[k] <= 0. {
			continue
		}
		s := (zc[k] - zc[d]) / n.L[k]
		if s <= 0. || math.IsNaN(s) {
			continue
		}
		b := int(math.Floor(math.Log10(area[k]) / logBinWidth))
		v := bins[b]
		bins[b] = [2]float64{v[0] + math.Log10(s), v[1] + 1}
	}
	if len(bins) < 3 {
		return math.NaN(), math.NaN()
	}
	keys := make([]int, 0, len(bins))
	for b := range bins {
		keys = append(keys, b)
	}
	sort.Ints(keys)
	la, ls := make([]float64, len(keys)), make([]float64, len(keys))
	for i, b := range keys {
		la[i] = (float64(b) + .5) * logBinWidth
		ls[i] = bins[b][0] / bins[b][1]
	}
	alpha, beta := stat.LinearRegression(la, ls, nil, false)
	return -beta, math.Pow(10., alpha)
}

// ChiConcavity scans concavities and returns the one whose chi transform
// makes elevation most linear in chi (largest r²).
func (n *Network) ChiConcavity(zc, area []float64) float64 {
	best, bestr2 := math.NaN(), math.Inf(-1)
	for i := 1; i <= 20; i++ {
		theta := float64(i) * .05
		chi := n.Chi(area, 1., theta)
		alpha, beta := stat.LinearRegression(chi, zc, nil, false)
		r2 := stat.RSquared(chi, zc, nil, alpha, beta)
		if r2 > bestr2 {
			best, bestr2 = theta, r2
		}
	}
	return best
}
