package tem

import "math"

// Contributing returns cell cid and every cell draining to it, upstream
// before downstream.
func (t *TEM) Contributing(cid int) []int {
	c := t.climb(cid)
	for i, j := 0, len(c)-1; i < j; i, j = i+1, j-1 {
		c[i], c[j] = c[j], c[i]
	}
	return c
}

// climb collects cells upslope of cid, breadth-first from cid.
func (t *TEM) climb(cid int) []int {
	if cid < 0 || cid >= len(t.TECs) || math.IsNaN(t.G.V[cid]) {
		return nil
	}
	q := []int{cid}
	for k := 0; k < len(q); k++ {
		q = append(q, t.us[q[k]]...)
	}
	return q
}

// Accumulation returns the count of cells (self included) draining through
// every cell; no-data cells are NaN.
func (t *TEM) Accumulation() []float64 {
	a := make([]float64, len(t.TECs))
	for i := range a {
		a[i] = math.NaN()
	}
	for _, i := range t.Order {
		a[i] = 1.
	}
	for _, i := range t.Order {
		if d := t.TECs[i].ds; d >= 0 {
			a[d] += a[i]
		}
	}
	return a
}
