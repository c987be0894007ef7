package ksn

import (
	"errors"
	"math"

	"github.com/ctessum/geom"

	"github.com/jhiga488/Topographic-Analysis-Kit/stats"
	"github.com/jhiga488/Topographic-Analysis-Kit/stream"
)

// Estimation methods.
const (
	QuickMethod = "quick"
	TribMethod  = "trib"
)

// ErrNoSegments is returned by Trib when the network yields no reach long
// enough to regress; callers fall back to Quick.
var ErrNoSegments = errors.New("ksn: network has no segments")

// Input holds per-node values along a network.
type Input struct {
	Net      *stream.Network
	Z, Zc    []float64 // raw and conditioned elevation
	Area     []float64 // drainage area (m²)
	Gradient []float64 // local channel slope
}

// Record is the steepness of one window or bin along the network.
type Record struct {
	Geometry geom.LineString
	Ksn      float64
	Area     float64 // mean drainage area
	CutFill  float64 // mean conditioned minus raw elevation
	Gradient float64 // mean gradient
	N        int     // nodes
	RMSE     float64 // chi–elevation fit error, tributary mode only
}

// Result of an estimator run.
type Result struct {
	Method  string
	Theta   float64
	Records []Record
	Node    []float64 // ksn per network node, NaN where unassigned
	Skipped int       // bins with too few nodes
}

func (in Input) record(nodes []int, v float64) Record {
	r := Record{
		Geometry: make(geom.LineString, len(nodes)),
		Ksn:      v,
		N:        len(nodes),
	}
	a, cf, g := make([]float64, len(nodes)), make([]float64, len(nodes)), make([]float64, len(nodes))
	for i, k := range nodes {
		r.Geometry[i] = geom.Point{X: in.Net.X[k], Y: in.Net.Y[k]}
		a[i] = in.Area[k]
		cf[i] = in.Zc[k] - in.Z[k]
		g[i] = in.Gradient[k]
	}
	r.Area, r.CutFill, r.Gradient = stats.Mean(a), stats.Mean(cf), stats.Mean(g)
	return r
}

func nanSlice(n int) []float64 {
	a := make([]float64, n)
	for i := range a {
		a[i] = math.NaN()
	}
	return a
}
