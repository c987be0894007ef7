package ksn

import (
	"sort"

	"github.com/maseology/objfunc"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"
)

// ChiFit returns the slope of elevation against chi for one bin, measured
// from the bin's smallest-chi point and forced through that origin. The
// relation is first resampled onto an even chi spacing with a natural cubic
// spline. ok is false when the bin spans no chi.
func ChiFit(chi, z []float64) (ksn, rmse float64, ok bool) {
	n := len(chi)
	if n < 2 || len(z) != n {
		return 0., 0., false
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return chi[idx[a]] < chi[idx[b]] })
	c0, z0 := chi[idx[0]], z[idx[0]]

	// merge repeated chi values
	xs, ys, cnt := []float64{}, []float64{}, []float64{}
	for _, i := range idx {
		x, y := chi[i]-c0, z[i]-z0
		if m := len(xs) - 1; m >= 0 && x == xs[m] {
			ys[m] += y
			cnt[m]++
			continue
		}
		xs, ys, cnt = append(xs, x), append(ys, y), append(cnt, 1.)
	}
	for i := range ys {
		ys[i] /= cnt[i]
	}
	if len(xs) < 2 || xs[len(xs)-1] <= 0. {
		return 0., 0., false
	}

	var p interp.FittablePredictor = &interp.NaturalCubic{}
	if len(xs) < 3 {
		p = &interp.PiecewiseLinear{}
	}
	if err := p.Fit(xs, ys); err != nil {
		p = &interp.PiecewiseLinear{}
		if err := p.Fit(xs, ys); err != nil {
			return 0., 0., false
		}
	}

	chiF := floats.Span(make([]float64, n), 0., xs[len(xs)-1])
	zF, zfit := make([]float64, n), make([]float64, n)
	for i, x := range chiF {
		zF[i] = p.Predict(x)
	}
	_, ksn = stat.LinearRegression(chiF, zF, nil, true)
	for i, x := range chiF {
		zfit[i] = ksn * x
	}
	return ksn, objfunc.RMSE(zF, zfit), true
}
