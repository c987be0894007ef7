package ksn

import "math"

// Trib regresses ksn per segment so chi is never mixed across a confluence.
// Each segment is walked downstream, cut into bins of flow length l and every
// bin of more than two nodes is fitted with ChiFit. Smaller bins are counted
// in Skipped.
func Trib(in Input, chi []float64, theta, l float64) (Result, error) {
	net := in.Net
	segs := Segments(net)
	if len(segs) == 0 {
		return Result{}, ErrNoSegments
	}

	chainOf := make([]int, net.Len())
	chains := net.Chains()
	for ci, c := range chains {
		for _, k := range c {
			chainOf[k] = ci
		}
	}
	perChain := make([][]Segment, len(chains))
	for _, s := range segs {
		if ci := chainOf[s.Up]; ci == chainOf[s.Down] {
			perChain[ci] = append(perChain[ci], s)
		}
	}

	res := Result{Method: TribMethod, Theta: theta, Node: nanSlice(net.Len())}
	for _, cs := range perChain {
		for _, s := range cs {
			nodes := s.Nodes(net)
			d0 := net.Dist[nodes[0]]
			for i := 0; i < len(nodes); {
				b := math.Floor((d0 - net.Dist[nodes[i]]) / l)
				j := i
				for j < len(nodes) && math.Floor((d0-net.Dist[nodes[j]])/l) == b {
					j++
				}
				bin := nodes[i:j]
				i = j
				if len(bin) <= 2 {
					res.Skipped++
					continue
				}
				bc, bz := make([]float64, len(bin)), make([]float64, len(bin))
				for q, k := range bin {
					bc[q], bz[q] = chi[k], in.Zc[k]
				}
				v, rmse, ok := ChiFit(bc, bz)
				if !ok {
					res.Skipped++
					continue
				}
				r := in.record(bin, v)
				r.RMSE = rmse
				res.Records = append(res.Records, r)
				for _, k := range bin {
					res.Node[k] = v
				}
			}
		}
	}
	return res, nil
}
