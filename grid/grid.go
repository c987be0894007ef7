package grid

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	hgrid "github.com/maseology/goHydro/grid"
)

// Grid is a uniform raster of scalar values laid over a grid definition.
// Eorig,Norig is the upper-left corner; cell i sits at row i/Ncol, column
// i%Ncol. NaN marks no-data.
type Grid struct {
	*hgrid.Definition
	V []float64
}

// New returns a grid filled with NaN.
func New(nr, nc int, cs, xo, yo float64) *Grid {
	return FromDefinition(&hgrid.Definition{Nrow: nr, Ncol: nc, Cwidth: cs, Eorig: xo, Norig: yo})
}

// FromDefinition returns an all-NaN grid over gd.
func FromDefinition(gd *hgrid.Definition) *Grid {
	v := make([]float64, gd.Nrow*gd.Ncol)
	for i := range v {
		v[i] = math.NaN()
	}
	return &Grid{Definition: gd, V: v}
}

// FromRows builds a grid from row-major values (rows[0] is the northern edge).
func FromRows(rows [][]float64, cs, xo, yo float64) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("grid.FromRows: empty input")
	}
	nr, nc := len(rows), len(rows[0])
	g := New(nr, nc, cs, xo, yo)
	for r, row := range rows {
		if len(row) != nc {
			return nil, fmt.Errorf("grid.FromRows: row %d has %d columns, expected %d", r, len(row), nc)
		}
		copy(g.V[r*nc:], row)
	}
	return g, nil
}

// Like returns an all-NaN grid sharing g's definition.
func (g *Grid) Like() *Grid { return FromDefinition(g.Definition) }

// Clone deep-copies g.
func (g *Grid) Clone() *Grid {
	o := *g
	o.V = make([]float64, len(g.V))
	copy(o.V, g.V)
	return &o
}

func (g *Grid) Index(r, c int) int {
	return r*g.Ncol + c
}
func (g *Grid) RowCol(i int) (int, int) { return i / g.Ncol, i % g.Ncol }

// Inside reports whether row r, column c is on the grid.
func (g *Grid) Inside(r, c int) bool { return r >= 0 && c >= 0 && r < g.Nrow && c < g.Ncol }

// At returns the value at cell i; NaN when i is off-grid.
func (g *Grid) At(i int) float64 {
	if i < 0 || i >= len(g.V) {
		return math.NaN()
	}
	return g.V[i]
}

// Valid reports whether cell i carries data.
func (g *Grid) Valid(i int) bool { return !math.IsNaN(g.At(i)) }

// XY returns the cell-centre coordinate of cell i.
func (g *Grid) XY(i int) (float64, float64) {
	r, c := g.RowCol(i)
	return g.Eorig + (float64(c)+.5)*g.Cwidth, g.Norig - (float64(r)+.5)*g.Cwidth
}

// CellOf returns the cell containing (x,y).
func (g *Grid) CellOf(x, y float64) (int, bool) {
	c := int(math.Floor((x - g.Eorig) / g.Cwidth))
	r := int(math.Floor((g.Norig - y) / g.Cwidth))
	if !g.Inside(r, c) {
		return -1, false
	}
	return g.Index(r, c), true
}

// Bounds returns the grid extent.
func (g *Grid) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: g.Eorig, Y: g.Norig - float64(g.Nrow)*g.Cwidth},
		Max: geom.Point{X: g.Eorig + float64(g.Ncol)*g.Cwidth, Y: g.Norig},
	}
}

// Aligned reports whether o shares g's rows, columns, cell size and origin.
func (g *Grid) Aligned(o *Grid) bool {
	const tol = 1e-6
	return g.Nrow == o.Nrow && g.Ncol == o.Ncol &&
		math.Abs(g.Cwidth-o.Cwidth) < tol && math.Abs(g.Eorig-o.Eorig) < tol && math.Abs(g.Norig-o.Norig) < tol
}

// Values returns the data values of g, skipping no-data.
func (g *Grid) Values() []float64 {
	a := make([]float64, 0, len(g.V))
	for _, v := range g.V {
		if !math.IsNaN(v) {
			a = append(a, v)
		}
	}
	return a
}

// Sub returns g-o cell by cell; no-data in either yields no-data.
func (g *Grid) Sub(o *Grid) (*Grid, error) {
	if !g.Aligned(o) {
		return nil, fmt.Errorf("grid.Sub: grids not aligned")
	}
	d := g.Like()
	for i, v := range g.V {
		d.V[i] = v - o.V[i]
	}
	return d, nil
}

// neighbours in D8 order: E, SE, S, SW, W, NW, N, NE
var (
	dr = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
	dc = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
)

// Neighbours calls fn for each on-grid 8-connected neighbour of cell i with its
// centre-to-centre distance.
func (g *Grid) Neighbours(i int, fn func(j int, dist float64)) {
	r, c := g.RowCol(i)
	for k := 0; k < 8; k++ {
		rr, cc := r+dr[k], c+dc[k]
		if !g.Inside(rr, cc) {
			continue
		}
		d := g.Cwidth
		if k%2 == 1 {
			d *= math.Sqrt2
		}
		fn(g.Index(rr, cc), d)
	}
}

// OnEdge reports whether cell i touches the grid boundary or a no-data cell.
func (g *Grid) OnEdge(i int) bool {
	r, c := g.RowCol(i)
	if r == 0 || c == 0 || r == g.Nrow-1 || c == g.Ncol-1 {
		return true
	}
	edge := false
	g.Neighbours(i, func(j int, _ float64) {
		if math.IsNaN(g.V[j]) {
			edge = true
		}
	})
	return edge
}
