package basin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/ctessum/geom"
	"github.com/google/uuid"
	"github.com/maseology/mmaths"
	"github.com/maseology/mmio"

	"github.com/jhiga488/Topographic-Analysis-Kit/grid"
	"github.com/jhiga488/Topographic-Analysis-Kit/ksn"
	"github.com/jhiga488/Topographic-Analysis-Kit/stats"
	"github.com/jhiga488/Topographic-Analysis-Kit/stream"
	"github.com/jhiga488/Topographic-Analysis-Kit/tem"
)

// extraction carries one basin through the pipeline states.
type extraction struct {
	p     *Pipeline
	pp    PourPoint
	state State
	log   *slog.Logger
}

// frame is the stream network of a basin with the rasters it samples. Cell
// indices of net, acc, dem and cond agree: the cropped basin when clipping,
// the full dem otherwise. surf is the conditioned surface cropped to the basin.
type frame struct {
	net  *stream.Network
	acc  []float64
	dem  *grid.Grid
	cond *grid.Grid
	surf *grid.Grid
	crop func(c int) int // network cell to basin cell
}

func (b *extraction) run(runID uuid.UUID) (*Record, error) {
	p, cfg := b.p, b.p.cfg
	dem := p.in.DEM
	start := time.Now()

	// pour point and drainage mask
	x, y := b.pp.X, b.pp.Y
	if c, ok := dem.CellOf(x, y); cfg.SnapRadius > 0. && !(ok && b.onNetwork(c)) {
		if k := p.in.Network.Nearest(x, y, cfg.SnapRadius); k >= 0 {
			x, y = p.in.Network.X[k], p.in.Network.Y[k]
		}
	}
	cell, ok := dem.CellOf(x, y)
	if !ok || !dem.Valid(cell) {
		return nil, fmt.Errorf("(%.1f, %.1f): %w", x, y, ErrOutsideDEM)
	}
	mask := p.in.TEM.Contributing(cell)
	if len(mask) == 0 {
		return nil, fmt.Errorf("(%.1f, %.1f): %w", x, y, ErrOutsideDEM)
	}
	demc, win := dem.Crop(mask)
	ca := dem.CellArea()
	b.state = MaskBuilt

	// network
	f, thr, retries, err := b.network(mask, demc, win)
	if err != nil {
		return nil, err
	}
	net := f.net
	b.state = NetworkDerived

	// conditioning
	area := make([]float64, net.Len())
	for k, c := range net.Cells {
		area[k] = f.acc[c] * ca
	}
	z := net.Sample(f.dem.V)
	var zc []float64
	if f.cond != nil {
		zc = net.Sample(f.cond.V)
	} else {
		zc = net.ConditionElevation(z, cfg.InterpFraction)
	}
	b.state = Conditioned

	// steepness
	grad := f.gradient(zc, cfg.GradientMethod)
	in := ksn.Input{Net: net, Z: z, Zc: zc, Area: area, Gradient: grad}
	theta := b.concavity(net, zc, area)
	method := cfg.KsnMethod
	akm2 := float64(len(mask)) * ca / 1e6
	if method == ksn.TribMethod && akm2 < cfg.MinTribArea {
		b.log.Info("basin below tributary-mode area, using quick mode", "area_km2", akm2, "min_km2", cfg.MinTribArea)
		method = ksn.QuickMethod
	}
	chi := net.Chi(area, 1., cfg.RefConcavity)
	ref, method := b.estimate(in, method, cfg.RefConcavity, chi)
	best, _ := b.estimate(in, method, theta, net.Chi(area, 1., theta))
	b.state = SegmentedAndScored

	// summaries
	cx, cy := 0., 0.
	for _, c := range mask {
		xx, yy := dem.XY(c)
		cx += xx
		cy += yy
	}
	nm := float64(len(mask))
	r := &Record{
		ID:               b.pp.ID,
		X:                x,
		Y:                y,
		Cell:             cell,
		RunID:            runID,
		DrainageArea:     akm2,
		OutletElevation:  dem.V[cell],
		Centroid:         geom.Point{X: cx / nm, Y: cy / nm},
		Threshold:        thr,
		Retries:          retries,
		ClipMethod:       cfg.ClipMethod,
		KsnMethod:        method,
		RefConcavity:     cfg.RefConcavity,
		BestFitConcavity: theta,
		KsnBestFit:       best.Records,
		KsnRef:           ref.Records,
		Ksn:              stats.Reduce(ref.Node),
		Gradient:         stats.Reduce(p.grad.CropTo(win, demc).V),
		Elevation:        stats.Reduce(demc.V),
		Hypsometry:       stats.NewHypsometry(demc.V, cfg.HypsometryBins),
		Aux:              make(map[string]stats.Summary),
		Categorical:      make(map[string]stats.Categorical),
		Relief:           make(map[string]stats.Summary, len(p.relief)),
		Profile: Profile{
			X:        append([]float64(nil), net.X...),
			Y:        append([]float64(nil), net.Y...),
			Ds:       append([]int(nil), net.Ds...),
			Z:        z,
			Zc:       zc,
			Chi:      chi,
			Ksn:      ref.Node,
			Area:     area,
			Gradient: grad,
			Distance: append([]float64(nil), net.Dist...),
		},
	}
	if err := b.layers(r, demc, win); err != nil {
		return nil, err
	}
	for rad, g := range p.relief {
		r.Relief[strconv.FormatFloat(rad, 'g', -1, 64)] = stats.Reduce(g.CropTo(win, demc).V)
	}
	b.state = StatsAggregated

	b.log.Info("basin extracted", "cells", mmio.Thousands(int64(len(mask))), "nodes", net.Len(),
		"threshold", thr, "retries", retries, "method", method, "theta", theta,
		"ksn", r.Ksn.Mean, "elapsed", time.Since(start))
	return r, nil
}

func (b *extraction) onNetwork(c int) bool {
	_, ok := b.p.in.Network.Node(c)
	return ok
}

// network derives the stream network of the basin, halving the threshold
// until at least one node qualifies or the threshold falls below one cell.
func (b *extraction) network(mask []int, demc *grid.Grid, win grid.Window) (frame, float64, int, error) {
	p, cfg := b.p, b.p.cfg
	ca := demc.CellArea()

	var f frame
	var t *tem.TEM
	if cfg.ClipMethod == ClipSegment {
		f = frame{acc: p.in.Acc, dem: p.in.DEM, cond: p.in.Conditioned}
		f.surf = p.in.TEM.G.CropTo(win, demc)
		if f.cond != nil {
			f.surf = f.cond.CropTo(win, demc)
		}
		f.crop = func(c int) int {
			j, _ := win.FromParent(c)
			return j
		}
	} else {
		var err error
		if t, err = tem.New(demc, cfg.FlowConditioning); err != nil {
			return frame{}, 0., 0, err
		}
		f = frame{acc: t.Accumulation(), dem: demc, surf: t.G}
		if p.in.Conditioned != nil {
			f.cond = p.in.Conditioned.CropTo(win, demc)
			f.surf = f.cond
		}
		f.crop = func(c int) int { return c }
	}

	thr := cfg.ThresholdArea
	for retries := 0; ; retries++ {
		if t != nil {
			f.net = stream.New(t, f.acc, ca, thr)
		} else {
			f.net = stream.Within(p.in.TEM, mask, f.acc, ca, thr)
		}
		if f.net.Len() > 0 {
			return f, thr, retries, nil
		}
		if thr <= ca {
			return frame{}, thr, retries, ErrEmptyNetwork
		}
		thr /= 2.
		b.log.Warn("empty stream network, halving threshold", "threshold", thr, "retry", retries+1)
	}
}

// gradient burns the conditioned node elevations zc into the basin surface
// and samples the gradient operator at every node.
func (f frame) gradient(zc []float64, method string) []float64 {
	s := f.surf.Clone()
	idx := make([]int, f.net.Len())
	for k, c := range f.net.Cells {
		idx[k] = f.crop(c)
		s.V[idx[k]] = zc[k]
	}
	g := s.Gradient(method)
	out := make([]float64, len(idx))
	for k, j := range idx {
		out[k] = g.V[j]
	}
	return out
}

// concavity fits the basin concavity, falling back to the reference value
// when the fit fails.
func (b *extraction) concavity(net *stream.Network, zc, area []float64) float64 {
	var theta float64
	switch b.p.cfg.ConcavityMethod {
	case ConcavityChi:
		theta = net.ChiConcavity(zc, area)
	default:
		theta, _ = net.SlopeArea(zc, area)
	}
	if math.IsNaN(theta) || theta <= 0. {
		b.log.Warn("concavity fit failed, using reference", "method", b.p.cfg.ConcavityMethod, "theta", theta)
		return b.p.cfg.RefConcavity
	}
	return theta
}

// estimate runs the ksn estimator, falling back to quick mode when the
// network has no segments. It returns the method used.
func (b *extraction) estimate(in ksn.Input, method string, theta float64, chi []float64) (ksn.Result, string) {
	l := b.p.cfg.SegmentLength
	if method == ksn.TribMethod {
		res, err := ksn.Trib(in, chi, theta, l)
		if err == nil {
			return res, method
		}
		if errors.Is(err, ksn.ErrNoSegments) {
			b.log.Warn("no segments for tributary mode, using quick mode", "nodes", in.Net.Len())
		}
	}
	return ksn.Quick(in, theta, l), ksn.QuickMethod
}

// layers summarises the auxiliary grids over the basin.
func (b *extraction) layers(r *Record, demc *grid.Grid, win grid.Window) error {
	for _, l := range b.p.in.Layers {
		g, err := cropLayer(l, b.p.in.DEM, demc, win, b.p.cfg.ResampleMethod)
		if err != nil {
			return err
		}
		if l.Kind != Categorical {
			r.Aux[l.Label] = stats.Reduce(g.V)
			continue
		}
		h := stats.NewHistogram(g.V)
		r.Categorical[l.Label] = h.Categorize()
		if b.log.Enabled(context.Background(), slog.LevelDebug) && h.Total() > 0 {
			k, v := mmaths.SortMapInt(h.Counts())
			for i := len(k) - 1; i >= 0; i-- {
				b.log.Debug("class proportion", "layer", l.Label, "code", k[i],
					"pct", float64(v[i])*100./float64(h.Total()))
			}
		}
	}
	return nil
}

// cropLayer brings layer l onto the cropped basin dem demc, window win of
// dem. Grids aligned with the dem are cropped directly; others are resampled
// onto the basin (categorical grids by nearest neighbour).
func cropLayer(l Layer, dem, demc *grid.Grid, win grid.Window, method string) (*grid.Grid, error) {
	if l.Grid.Aligned(dem) {
		return l.Grid.CropTo(win, demc), nil
	}
	if l.Kind == Categorical {
		method = grid.Nearest
	}
	g, err := l.Grid.Resample(demc, method)
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w: %v", l.Label, ErrMisaligned, err)
	}
	for i, z := range demc.V {
		if math.IsNaN(z) {
			g.V[i] = math.NaN()
		}
	}
	return g, nil
}
