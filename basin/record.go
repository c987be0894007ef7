package basin

import (
	"github.com/ctessum/geom"
	"github.com/google/uuid"

	"github.com/jhiga488/Topographic-Analysis-Kit/ksn"
	"github.com/jhiga488/Topographic-Analysis-Kit/stats"
)

// Record is the complete, immutable result of one basin. It owns every field
// from creation and is persisted whole.
type Record struct {
	ID      int
	X, Y    float64 // pour point, after snapping
	Cell    int     // pour-point cell of the dem
	RunID   uuid.UUID // derived from the config and inputs; identical runs share it

	DrainageArea    float64 // km²
	OutletElevation float64
	Centroid        geom.Point

	Threshold  float64 // network threshold actually used, m²
	Retries    int     // threshold halvings
	ClipMethod string
	KsnMethod  string // estimator actually used

	RefConcavity     float64
	BestFitConcavity float64
	KsnBestFit       []ksn.Record
	KsnRef           []ksn.Record

	Ksn, Gradient, Elevation stats.Summary
	Hypsometry               stats.Hypsometry

	Aux         map[string]stats.Summary
	Categorical map[string]stats.Categorical
	Relief      map[string]stats.Summary // keyed by radius

	Profile Profile
}

// Profile holds the stream network of the basin, one entry per node.
type Profile struct {
	X, Y     []float64
	Ds       []int // downstream node, -1 at outlets
	Z, Zc    []float64
	Chi      []float64 // at the reference concavity
	Ksn      []float64 // at the reference concavity
	Area     []float64 // m²
	Gradient []float64 // gradient operator over the conditioned surface
	Distance []float64 // to the outlet
}
