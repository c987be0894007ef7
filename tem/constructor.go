package tem

import (
	"container/heap"
	"math"

	"github.com/jhiga488/Topographic-Analysis-Kit/grid"
)

// Hydrologic conditioning strategies.
const (
	Fill  = "fill"  // raise depressions, route by steepest descent
	Carve = "carve" // keep elevations, route along the least-cost outflow path
)

// New builds the flow forest of dem. Both strategies seed a priority flood at
// the edge of the data; Fill raises every cell to at least just above the cell
// it was reached from and routes by D8 steepest descent over the raised
// surface, Carve keeps raw elevations and routes each cell to the cell that
// reached it.
func New(dem *grid.Grid, conditioning string) (*TEM, error) {
	n := dem.Ncells()
	zc := make([]float64, n)
	copy(zc, dem.V)
	parent := make([]int, n)
	visited := make([]bool, n)
	valid := make([]int, 0, n)

	pq := &cellQueue{}
	for i, z := range dem.V {
		parent[i] = -1
		if math.IsNaN(z) {
			continue
		}
		valid = append(valid, i)
		if dem.OnEdge(i) {
			visited[i] = true
			heap.Push(pq, qcell{i, z})
		}
	}
	if len(valid) == 0 {
		return nil, ErrNoData
	}

	for pq.Len() > 0 {
		c := heap.Pop(pq).(qcell)
		dem.Neighbours(c.i, func(j int, _ float64) {
			if visited[j] || math.IsNaN(dem.V[j]) {
				return
			}
			visited[j] = true
			parent[j] = c.i
			if conditioning != Carve && zc[j] <= zc[c.i] {
				zc[j] = math.Nextafter(zc[c.i], math.Inf(1))
			}
			heap.Push(pq, qcell{j, zc[j]})
		})
	}

	g := dem.Clone()
	g.V = zc
	t := TEM{G: g, TECs: make([]TEC, n)}
	for i := range t.TECs {
		t.TECs[i] = link(zc[i], 0., 0., -1)
	}
	for _, i := range valid {
		ds, s, l := -1, 0., 0.
		if conditioning == Carve {
			if p := parent[i]; p >= 0 {
				ds, l = p, cellDist(dem, i, p)
				s = math.Max(0., (zc[i]-zc[p])/l)
			}
		} else {
			dem.Neighbours(i, func(j int, d float64) {
				if math.IsNaN(zc[j]) {
					return
				}
				if sj := (zc[i] - zc[j]) / d; sj > s {
					ds, s, l = j, sj, d
				}
			})
		}
		t.TECs[i] = link(zc[i], s, l, ds)
	}
	t.buildOrder(valid)
	t.buildUpslopes()
	return &t, nil
}

func cellDist(g *grid.Grid, i, j int) float64 {
	r0, c0 := g.RowCol(i)
	r1, c1 := g.RowCol(j)
	if r0 != r1 && c0 != c1 {
		return g.Cwidth * math.Sqrt2
	}
	return g.Cwidth
}

type qcell struct {
	i int
	z float64
}

// cellQueue is a min-heap on elevation, ties broken on cell index.
type cellQueue []qcell

func (q cellQueue) Len() int { return len(q) }
func (q cellQueue) Less(a, b int) bool {
	if q[a].z == q[b].z {
		return q[a].i < q[b].i
	}
	return q[a].z < q[b].z
}
func (q cellQueue) Swap(a, b int) { q[a], q[b] = q[b], q[a] }
func (q *cellQueue) Push(x any)   { *q = append(*q, x.(qcell)) }
func (q *cellQueue) Pop() any {
	old := *q
	x := old[len(old)-1]
	*q = old[:len(old)-1]
	return x
}
