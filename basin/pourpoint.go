package basin

import (
	"fmt"
	"math"

	"github.com/jhiga488/Topographic-Analysis-Kit/grid"
	"github.com/jhiga488/Topographic-Analysis-Kit/stream"
)

// PourPoint is the outlet of a basin to extract.
type PourPoint struct {
	X, Y float64
	ID   int
}

// Selection is a parsed pour-point request: explicit points, or an elevation
// at which pour points are generated along the network.
type Selection struct {
	Points    []PourPoint
	Elevation float64 // NaN for explicit points
}

// ByElevation reports whether pour points are generated from an elevation.
func (s Selection) ByElevation() bool { return !math.IsNaN(s.Elevation) }

// Resolve returns the pour points of s on network net.
func (s Selection) Resolve(net *stream.Network, dem *grid.Grid) []PourPoint {
	if s.ByElevation() {
		return PourPointsAtElevation(net, dem, s.Elevation)
	}
	return s.Points
}

// ParsePourPoints reads rows of [x y id], or a single [z] row requesting pour
// points where the network crosses elevation z.
func ParsePourPoints(rows [][]float64) (Selection, error) {
	if len(rows) == 0 {
		return Selection{}, fmt.Errorf("%w: no rows", ErrMalformedPourPoints)
	}
	if len(rows) == 1 && len(rows[0]) == 1 {
		z := rows[0][0]
		if math.IsNaN(z) || math.IsInf(z, 0) {
			return Selection{}, fmt.Errorf("%w: invalid elevation %v", ErrMalformedPourPoints, z)
		}
		return Selection{Elevation: z}, nil
	}

	sel := Selection{Points: make([]PourPoint, len(rows)), Elevation: math.NaN()}
	ids := make(map[int]bool, len(rows))
	for i, r := range rows {
		if len(r) != 3 {
			return Selection{}, fmt.Errorf("%w: row %d has %d columns, expecting [x y id]", ErrMalformedPourPoints, i, len(r))
		}
		for _, v := range r {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Selection{}, fmt.Errorf("%w: row %d has a non-finite value", ErrMalformedPourPoints, i)
			}
		}
		if r[2] != math.Trunc(r[2]) {
			return Selection{}, fmt.Errorf("%w: row %d id %v is not an integer", ErrMalformedPourPoints, i, r[2])
		}
		id := int(r[2])
		if ids[id] {
			return Selection{}, fmt.Errorf("%w: duplicate id %d", ErrMalformedPourPoints, id)
		}
		ids[id] = true
		sel.Points[i] = PourPoint{X: r[0], Y: r[1], ID: id}
	}
	return sel, nil
}

// PourPointsAtElevation places a pour point on every node at or above z whose
// downstream node lies below z. Ids run from 1 in network order.
func PourPointsAtElevation(net *stream.Network, dem *grid.Grid, z float64) []PourPoint {
	pts := []PourPoint{}
	for k, d := range net.Ds {
		if d < 0 {
			continue
		}
		if dem.At(net.Cells[k]) >= z && dem.At(net.Cells[d]) < z {
			pts = append(pts, PourPoint{X: net.X[k], Y: net.Y[k], ID: len(pts) + 1})
		}
	}
	return pts
}
