package grid

import "math"

// Relief returns the local relief (max minus min elevation) within a circular
// window of the given radius around every valid cell.
func (g *Grid) Relief(radius float64) *Grid {
	o := g.Like()
	k := int(math.Floor(radius / g.Cwidth))
	type off struct{ r, c int }
	offs := make([]off, 0, (2*k+1)*(2*k+1))
	for r := -k; r <= k; r++ {
		for c := -k; c <= k; c++ {
			if math.Hypot(float64(r), float64(c))*g.Cwidth <= radius {
				offs = append(offs, off{r, c})
			}
		}
	}
	for i, z := range g.V {
		if math.IsNaN(z) {
			continue
		}
		r, c := g.RowCol(i)
		zn, zx := z, z
		for _, d := range offs {
			rr, cc := r+d.r, c+d.c
			if !g.Inside(rr, cc) {
				continue
			}
			v := g.V[g.Index(rr, cc)]
			if math.IsNaN(v) {
				continue
			}
			zn, zx = math.Min(zn, v), math.Max(zx, v)
		}
		o.V[i] = zx - zn
	}
	return o
}
