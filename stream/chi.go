package stream

import "math"

// Chi integrates (a0/A)^theta upstream from each outlet, where area holds the
// drainage area of every node. Chi is zero at outlets and never decreases
// upstream.
func (n *Network) Chi(area []float64, a0, theta float64) []float64 {
	chi := make([]float64, n.Len())
	for k := n.Len() - 1; k >= 0; k-- {
		d := n.Ds[k]
		if d < 0 {
			continue
		}
		chi[k] = chi[d] + math.Pow(a0/area[k], theta)*n.L[k]
	}
	return chi
}

// ConditionElevation removes reversals from the node elevations z so they
// never rise downstream. The carved profile (upstream minimum) and the filled
// profile (downstream maximum) are blended with weight f on the fill.
func (n *Network) ConditionElevation(z []float64, f float64) []float64 {
	nn := n.Len()
	zc, zf := make([]float64, nn), make([]float64, nn)
	copy(zc, z)
	for k := 0; k < nn; k++ { // carve
		for _, u := range n.us[k] {
			zc[k] = math.Min(zc[k], zc[u])
		}
	}
	for k := nn - 1; k >= 0; k-- { // fill
		zf[k] = z[k]
		if d := n.Ds[k]; d >= 0 {
			zf[k] = math.Max(zf[k], zf[d])
		}
	}
	o := make([]float64, nn)
	for k := range o {
		o[k] = (1.-f)*zc[k] + f*zf[k]
	}
	return o
}
