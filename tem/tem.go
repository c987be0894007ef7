// Package tem builds a topologic elevation model: a D8 flow forest over the
// cells of a DEM, with the derived accumulation, flow distance, drainage masks
// and drainage-basin labels.
package tem

import (
	"errors"

	"github.com/jhiga488/Topographic-Analysis-Kit/grid"
)

// ErrNoData is returned when a DEM has no valid cells to route.
var ErrNoData = errors.New("tem: dem has no valid cells")

// TEM topologic elevation model
type TEM struct {
	G     *grid.Grid    // hydrologically conditioned surface
	TECs  []TEC         // per grid cell
	Order []int         // valid cells, upstream before downstream
	us    map[int][]int // upslope cells
}

// Ds returns the receiver of cell i, -1 for outlets and no-data.
func (t *TEM) Ds(i int) int { return t.TECs[i].ds }

// NumCells number of cells that make up the TEM
func (t *TEM) NumCells() int { return len(t.Order) }

// UpIDs returns the cells draining directly into cell i.
func (t *TEM) UpIDs(i int) []int { return t.us[i] }

func (t *TEM) buildUpslopes() {
	t.us = make(map[int][]int)
	for _, i := range t.Order {
		if d := t.TECs[i].ds; d >= 0 {
			t.us[d] = append(t.us[d], i)
		}
	}
}

// buildOrder sorts valid cells topologically, upstream first.
func (t *TEM) buildOrder(valid []int) {
	nus := make([]int, len(t.TECs))
	for _, i := range valid {
		if d := t.TECs[i].ds; d >= 0 {
			nus[d]++
		}
	}
	q := make([]int, 0, len(valid))
	for _, i := range valid {
		if nus[i] == 0 {
			q = append(q, i)
		}
	}
	for k := 0; k < len(q); k++ {
		if d := t.TECs[q[k]].ds; d >= 0 {
			nus[d]--
			if nus[d] == 0 {
				q = append(q, d)
			}
		}
	}
	t.Order = q
}

// Outlets returns the valid cells that drain off the model.
func (t *TEM) Outlets() []int {
	o := []int{}
	for _, i := range t.Order {
		if t.TECs[i].IsOutlet() {
			o = append(o, i)
		}
	}
	return o
}
