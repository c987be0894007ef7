// Package stream extracts channel networks from a topologic elevation model
// and carries the per-node transforms used to characterise them: node roles,
// ordered chains, chi, along-stream hydrologic conditioning and concavity.
package stream

import (
	"math"

	"github.com/jhiga488/Topographic-Analysis-Kit/tem"
)

// Network is a stream network in topological order, upstream nodes first.
type Network struct {
	Cells []int     // grid cell per node
	Ds    []int     // downstream node, -1 at outlets
	L     []float64 // flow length to the downstream node
	Dist  []float64 // flow distance to the network outlet
	X, Y  []float64 // cell centres
	Cs    float64

	ix map[int]int
	us [][]int
}

// New builds the network of cells whose upstream area (acc cell counts times
// cellArea) reaches threshold. The result may be empty.
func New(t *tem.TEM, acc []float64, cellArea, threshold float64) *Network {
	return Within(t, t.Order, acc, cellArea, threshold)
}

// Within is New limited to cells, given upstream before downstream. Links
// leaving the set end the network.
func Within(t *tem.TEM, cells []int, acc []float64, cellArea, threshold float64) *Network {
	nc := []int{}
	for _, i := range cells {
		if acc[i]*cellArea >= threshold {
			nc = append(nc, i)
		}
	}
	n := &Network{Cs: t.G.Cwidth}
	n.build(nc, func(c int) (int, float64) {
		return t.Ds(c), t.TECs[c].L
	}, func(c int) (float64, float64) {
		return t.G.XY(c)
	})
	return n
}

// FromLinks builds a network directly from topologically ordered cells, the
// downstream node of each (-1 at outlets), link lengths and coordinates.
func FromLinks(cells, ds []int, l, x, y []float64, cs float64) *Network {
	n := &Network{Cs: cs}
	xr := make(map[int]int, len(cells))
	for k, c := range cells {
		xr[c] = k
	}
	n.build(cells, func(c int) (int, float64) {
		k := xr[c]
		if ds[k] < 0 {
			return -1, 0.
		}
		return cells[ds[k]], l[k]
	}, func(c int) (float64, float64) {
		return x[xr[c]], y[xr[c]]
	})
	return n
}

// build fills the network from topologically ordered cells.
func (n *Network) build(cells []int, ds func(int) (int, float64), xy func(int) (float64, float64)) {
	nn := len(cells)
	n.Cells = cells
	n.Ds, n.L, n.Dist = make([]int, nn), make([]float64, nn), make([]float64, nn)
	n.X, n.Y = make([]float64, nn), make([]float64, nn)
	n.ix = make(map[int]int, nn)
	for k, c := range cells {
		n.ix[c] = k
		n.X[k], n.Y[k] = xy(c)
	}
	for k, c := range cells {
		n.Ds[k] = -1
		if d, l := ds(c); d >= 0 {
			if kd, ok := n.ix[d]; ok {
				n.Ds[k], n.L[k] = kd, l
			}
		}
	}
	n.finalize()
}

func (n *Network) finalize() {
	n.us = make([][]int, len(n.Cells))
	for k, d := range n.Ds {
		if d >= 0 {
			n.us[d] = append(n.us[d], k)
		}
	}
	for k := len(n.Cells) - 1; k >= 0; k-- {
		if d := n.Ds[k]; d >= 0 {
			n.Dist[k] = n.Dist[d] + n.L[k]
		} else {
			n.Dist[k] = 0.
		}
	}
}

// Len returns the number of nodes.
func (n *Network) Len() int { return len(n.Cells) }

// Node returns the node on grid cell c.
func (n *Network) Node(c int) (int, bool) {
	k, ok := n.ix[c]
	return k, ok
}

// UpNodes returns the nodes draining directly into node k.
func (n *Network) UpNodes(k int) []int { return n.us[k] }

// Nearest returns the node closest to (x,y) within radius, -1 when none.
func (n *Network) Nearest(x, y, radius float64) int {
	kk, dd := -1, math.Inf(1)
	for k := range n.Cells {
		if d := math.Hypot(n.X[k]-x, n.Y[k]-y); d <= radius && d < dd {
			kk, dd = k, d
		}
	}
	return kk
}

// Sample gathers per-cell values v onto the nodes.
func (n *Network) Sample(v []float64) []float64 {
	o := make([]float64, n.Len())
	for k, c := range n.Cells {
		o[k] = v[c]
	}
	return o
}

// Labels returns, per node, the position in seeds of the first seed node at
// or downstream of the node; -1 when none.
func (n *Network) Labels(seeds []int) []int {
	xs := make(map[int]int, len(seeds))
	for s, k := range seeds {
		xs[k] = s
	}
	l := make([]int, n.Len())
	for k := n.Len() - 1; k >= 0; k-- {
		if s, ok := xs[k]; ok {
			l[k] = s
		} else if d := n.Ds[k]; d >= 0 {
			l[k] = l[d]
		} else {
			l[k] = -1
		}
	}
	return l
}
