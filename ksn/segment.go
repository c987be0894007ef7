// Package ksn computes normalised channel steepness over a stream network:
// the topological segmentation into reaches, a windowed slope–area estimator
// and a per-reach chi–elevation regression estimator.
package ksn

import (
	"math"
	"sort"

	"github.com/jhiga488/Topographic-Analysis-Kit/stream"
)

// Segment is a reach between an upstream landmark (channel head or
// confluence) and a downstream landmark (b-confluence or outlet).
type Segment struct {
	Up, Down int     // network nodes
	Length   float64 // flow length between the landmarks
	Label    int     // sub-basin of the reach
}

// Segments splits net into non-overlapping reaches. Every node is labelled
// with its nearest downstream b-confluence or outlet; an upstream landmark and
// a downstream landmark bound a reach when their labels match. Reaches
// shorter than two cell widths are dropped.
func Segments(net *stream.Network) []Segment {
	ups := [][]int{net.Heads(), net.Confluences()}
	dns := [][]int{net.BConfluences(), net.Outlets()}

	seeds := append(append([]int{}, dns[0]...), dns[1]...)
	if len(ups[0])+len(ups[1])+len(seeds) < 2 {
		return nil
	}
	sort.Ints(seeds)
	labels := net.Labels(seeds)

	segs := []Segment{}
	for _, up := range ups {
		for _, dn := range dns {
			byLabel := make(map[int]int, len(dn))
			for _, d := range dn {
				byLabel[labels[d]] = d
			}
			for _, u := range up {
				d, ok := byLabel[labels[u]]
				if !ok || labels[u] < 0 {
					continue
				}
				l := math.Abs(net.Dist[u] - net.Dist[d])
				if l < 2.*net.Cs {
					continue
				}
				segs = append(segs, Segment{Up: u, Down: d, Length: l, Label: labels[u]})
			}
		}
	}
	sort.Slice(segs, func(a, b int) bool { return segs[a].Up < segs[b].Up })
	return segs
}

// Nodes returns the nodes of s from its upstream to its downstream landmark.
func (s Segment) Nodes(net *stream.Network) []int {
	o := []int{s.Up}
	for k := s.Up; k != s.Down && net.Ds[k] >= 0; {
		k = net.Ds[k]
		o = append(o, k)
	}
	return o
}
