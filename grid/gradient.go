package grid

import "math"

// Gradient operators.
const (
	SteepestDescent = "steepest"
	PlaneFit        = "planefit"
)

// Gradient returns the local slope (m/m) of every valid cell, using either the
// steepest downward 8-connected drop or a 3x3 plane fit (Horn).
func (g *Grid) Gradient(method string) *Grid {
	if method == PlaneFit {
		return g.planeFit()
	}
	o := g.Like()
	for i, z := range g.V {
		if math.IsNaN(z) {
			continue
		}
		s := 0.
		g.Neighbours(i, func(j int, d float64) {
			if zn := g.V[j]; !math.IsNaN(zn) && (z-zn)/d > s {
				s = (z - zn) / d
			}
		})
		o.V[i] = s
	}
	return o
}

func (g *Grid) planeFit() *Grid {
	o := g.Like()
	for i, z := range g.V {
		if math.IsNaN(z) {
			continue
		}
		r, c := g.RowCol(i)
		v := func(dr, dc int) float64 {
			rr, cc := r+dr, c+dc
			if !g.Inside(rr, cc) {
				return z
			}
			if zn := g.V[g.Index(rr, cc)]; !math.IsNaN(zn) {
				return zn
			}
			return z
		}
		p := ((v(-1, 1) + 2*v(0, 1) + v(1, 1)) - (v(-1, -1) + 2*v(0, -1) + v(1, -1))) / (8 * g.Cwidth)
		q := ((v(1, -1) + 2*v(1, 0) + v(1, 1)) - (v(-1, -1) + 2*v(-1, 0) + v(-1, 1))) / (8 * g.Cwidth)
		o.V[i] = math.Hypot(p, q)
	}
	return o
}
