package ksn

import (
	"math"

	"github.com/jhiga488/Topographic-Analysis-Kit/stats"
)

// Quick computes ksn = S·A^theta at every node and averages it over windows
// of flow length l along each chain of the network. Windows restart at every
// chain boundary.
func Quick(in Input, theta, l float64) Result {
	net := in.Net
	k0 := make([]float64, net.Len())
	for k := range k0 {
		k0[k] = in.Gradient[k] * math.Pow(in.Area[k], theta)
	}

	res := Result{Method: QuickMethod, Theta: theta, Node: nanSlice(net.Len())}
	for _, chain := range net.Chains() {
		w := []int{}
		flush := func() {
			if len(w) == 0 {
				return
			}
			v := make([]float64, len(w))
			for i, k := range w {
				v[i] = k0[k]
			}
			m := stats.Mean(v)
			for _, k := range w {
				res.Node[k] = m
			}
			res.Records = append(res.Records, in.record(w, m))
			w = []int{}
		}
		for _, k := range chain {
			if len(w) > 0 && net.Dist[w[0]]-net.Dist[k] >= l {
				flush()
			}
			w = append(w, k)
		}
		flush()
	}
	return res
}
