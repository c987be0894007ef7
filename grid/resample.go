package grid

import (
	"errors"
	"math"
)

// Resampling methods.
const (
	Nearest  = "nearest"
	Bilinear = "bilinear"
)

// ErrNoOverlap is returned when a grid cannot be resampled onto a definition
// it does not cover.
var ErrNoOverlap = errors.New("grids do not overlap")

// Resample samples g at every cell centre of def. Cells of def falling
// outside g become no-data.
func (g *Grid) Resample(def *Grid, method string) (*Grid, error) {
	if g.Aligned(def) {
		return g.Clone(), nil
	}
	a, b := g.Bounds(), def.Bounds()
	if a.Max.X <= b.Min.X || b.Max.X <= a.Min.X || a.Max.Y <= b.Min.Y || b.Max.Y <= a.Min.Y {
		return nil, ErrNoOverlap
	}
	o := def.Like()
	for i := range o.V {
		x, y := def.XY(i)
		switch method {
		case Bilinear:
			o.V[i] = g.bilinear(x, y)
		default:
			if j, ok := g.CellOf(x, y); ok {
				o.V[i] = g.V[j]
			}
		}
	}
	return o, nil
}

func (g *Grid) bilinear(x, y float64) float64 {
	fc := (x-g.Eorig)/g.Cwidth - .5
	fr := (g.Norig-y)/g.Cwidth - .5
	c0, r0 := int(math.Floor(fc)), int(math.Floor(fr))
	tc, tr := fc-float64(c0), fr-float64(r0)

	v, w := 0., 0.
	add := func(r, c int, f float64) {
		if !g.Inside(r, c) || f == 0. {
			return
		}
		z := g.V[g.Index(r, c)]
		if math.IsNaN(z) {
			return
		}
		v += f * z
		w += f
	}
	add(r0, c0, (1-tr)*(1-tc))
	add(r0, c0+1, (1-tr)*tc)
	add(r0+1, c0, tr*(1-tc))
	add(r0+1, c0+1, tr*tc)
	if w == 0. {
		if j, ok := g.CellOf(x, y); ok {
			return g.V[j]
		}
		return math.NaN()
	}
	return v / w
}
