package grid

import "math"

// Window locates a cropped grid inside its parent.
type Window struct {
	R0, C0, Nr, Nc int
	Pnc            int // parent column count
}

// ToParent maps a cell of the cropped grid to the parent grid.
func (w Window) ToParent(i int) int {
	return (i/w.Nc+w.R0)*w.Pnc + i%w.Nc + w.C0
}

// FromParent maps a parent cell into the window, false when it falls outside.
func (w Window) FromParent(p int) (int, bool) {
	r, c := p/w.Pnc-w.R0, p%w.Pnc-w.C0
	if r < 0 || c < 0 || r >= w.Nr || c >= w.Nc {
		return -1, false
	}
	return r*w.Nc + c, true
}

// Crop clips g to the bounding box of cells, leaving every cell outside the
// set as no-data.
func (g *Grid) Crop(cells []int) (*Grid, Window) {
	if len(cells) == 0 {
		return New(0, 0, g.Cwidth, g.Eorig, g.Norig), Window{Pnc: g.Ncol}
	}
	rn, cn, rx, cx := math.MaxInt, math.MaxInt, -1, -1
	for _, i := range cells {
		r, c := g.RowCol(i)
		rn, cn = min(rn, r), min(cn, c)
		rx, cx = max(rx, r), max(cx, c)
	}
	w := Window{R0: rn, C0: cn, Nr: rx - rn + 1, Nc: cx - cn + 1, Pnc: g.Ncol}
	o := New(w.Nr, w.Nc, g.Cwidth, g.Eorig+float64(cn)*g.Cwidth, g.Norig-float64(rn)*g.Cwidth)
	for _, i := range cells {
		j, _ := w.FromParent(i)
		o.V[j] = g.V[i]
	}
	return o, w
}

// CropTo clips g to window w, masking with the no-data cells of ref.
func (g *Grid) CropTo(w Window, ref *Grid) *Grid {
	o := ref.Like()
	for j := range o.V {
		if math.IsNaN(ref.V[j]) {
			continue
		}
		o.V[j] = g.V[w.ToParent(j)]
	}
	return o
}
