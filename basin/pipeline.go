// Package basin extracts drainage basins above pour points and characterises
// each: stream network, channel steepness, concavity and summaries of the dem
// and auxiliary grids. Every basin yields one immutable Record.
package basin

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/maseology/mmio"
	"golang.org/x/sync/errgroup"

	"github.com/jhiga488/Topographic-Analysis-Kit/grid"
	"github.com/jhiga488/Topographic-Analysis-Kit/stream"
	"github.com/jhiga488/Topographic-Analysis-Kit/tem"
)

// Inputs are shared read-only by every basin of a run.
type Inputs struct {
	DEM         *grid.Grid
	TEM         *tem.TEM        // flow model of DEM
	Acc         []float64       // accumulation of TEM in cells; derived when nil
	Network     *stream.Network // base network; derived at the threshold when nil
	Conditioned *grid.Grid      // optional hydrologically conditioned dem
	Layers      []Layer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger, slog.Default() otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithStore persists records to s instead of the store named in the config.
// The caller keeps ownership of s.
func WithStore(s Store) Option {
	return func(p *Pipeline) { p.store, p.storeSet = s, true }
}

// WithObservers adds observers of basin completion.
func WithObservers(o ...Observer) Option {
	return func(p *Pipeline) { p.obs = append(p.obs, o...) }
}

// Pipeline runs basin extraction over sets of pour points.
type Pipeline struct {
	cfg      Config
	in       Inputs
	grad     *grid.Grid
	relief   map[float64]*grid.Grid
	runID    uuid.UUID
	store    Store
	storeSet bool
	obs      []Observer
	log      *slog.Logger
}

// New validates cfg and the inputs and prepares the grids shared by every
// basin.
func New(cfg Config, in Inputs, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("basin: invalid config: %w", err)
	}
	if in.DEM == nil || in.TEM == nil {
		return nil, errors.New("basin: dem and flow model are required")
	}
	if !in.TEM.G.Aligned(in.DEM) {
		return nil, fmt.Errorf("basin: flow model: %w", ErrMisaligned)
	}
	if in.Conditioned != nil && !in.Conditioned.Aligned(in.DEM) {
		return nil, fmt.Errorf("basin: conditioned dem: %w", ErrMisaligned)
	}
	labels := make(map[string]bool, len(in.Layers))
	for i, l := range in.Layers {
		if l.Grid == nil || l.Label == "" {
			return nil, fmt.Errorf("basin: layer %d needs a grid and a label", i)
		}
		if labels[l.Label] {
			return nil, fmt.Errorf("basin: duplicate layer label %q", l.Label)
		}
		labels[l.Label] = true
	}

	cfg.ReliefRadii = append([]float64(nil), cfg.ReliefRadii...)
	in.Layers = append([]Layer(nil), in.Layers...)
	p := &Pipeline{cfg: cfg, in: in, log: slog.Default()}
	for _, o := range opts {
		o(p)
	}

	if p.in.Acc == nil {
		p.in.Acc = in.TEM.Accumulation()
	}
	if p.in.Network == nil {
		p.in.Network = stream.New(in.TEM, p.in.Acc, in.DEM.CellArea(), cfg.ThresholdArea)
	}
	p.runID = runID(cfg, p.in)
	p.grad = in.DEM.Gradient(cfg.GradientMethod)
	p.relief = make(map[float64]*grid.Grid, len(cfg.ReliefRadii))
	for _, r := range cfg.ReliefRadii {
		p.relief[r] = in.DEM.Relief(r)
	}
	if !p.storeSet {
		s, err := OpenStore(cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("basin: %w", err)
		}
		p.store = s
	}
	return p, nil
}

// Config returns the options of the pipeline.
func (p *Pipeline) Config() Config { return p.cfg }

// RunID returns the identifier stamped on every record of the pipeline.
func (p *Pipeline) RunID() uuid.UUID { return p.runID }

// Network returns the base stream network.
func (p *Pipeline) Network() *stream.Network { return p.in.Network }

// Close releases the store opened from the config.
func (p *Pipeline) Close() error {
	if p.storeSet || p.store == nil {
		return nil
	}
	return p.store.Close()
}

// Run extracts a basin above every pour point. Records come back in input
// order; failed basins are left out and their errors joined. Pour points
// already in the store are read back rather than recomputed. Cancelling ctx
// stops new basins from starting.
func (p *Pipeline) Run(ctx context.Context, pts []PourPoint) ([]*Record, error) {
	runID := p.runID
	p.log.Info("extracting basins", "run", runID, "basins", len(pts), "workers", p.cfg.Workers,
		"cells", mmio.Thousands(int64(p.in.TEM.NumCells())), "network nodes", p.in.Network.Len())

	recs, errs := make([]*Record, len(pts)), make([]error, len(pts))
	var mu sync.Mutex
	done := 0
	notify := func(r *Record, err error) {
		mu.Lock()
		defer mu.Unlock()
		done++
		for _, o := range p.obs {
			o.Observe(done, len(pts), r, err)
		}
	}

	var g errgroup.Group
	g.SetLimit(p.cfg.Workers)
	for i, pp := range pts {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			recs[i], errs[i] = p.basin(pp, runID)
			notify(recs[i], errs[i])
			return nil
		})
	}
	werr := g.Wait()
	if err := ctx.Err(); err != nil {
		werr = err
	}

	out := make([]*Record, 0, len(pts))
	for _, r := range recs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, errors.Join(append(errs, werr)...)
}

func (p *Pipeline) basin(pp PourPoint, runID uuid.UUID) (*Record, error) {
	if p.store != nil && p.store.Has(pp.ID) {
		r, err := p.store.Get(pp.ID)
		if err == nil {
			p.log.Debug("basin already stored", "basin", pp.ID)
			return r, nil
		}
		p.log.Warn("stored basin unreadable, recomputing", "basin", pp.ID, "err", err)
	}

	b := &extraction{p: p, pp: pp, log: p.log.With("basin", pp.ID)}
	r, err := b.run(runID)
	if err != nil {
		return nil, &Error{ID: pp.ID, State: b.state, Err: err}
	}
	if p.store != nil {
		if err := p.store.Put(r); err != nil {
			return nil, &Error{ID: pp.ID, State: b.state, Err: err}
		}
	}
	b.state = Persisted
	return r, nil
}

// runID names the result set of cfg over in: the options that shape a record
// and the grids it is computed from. Workers and the store are left out.
func runID(cfg Config, in Inputs) uuid.UUID {
	cfg.Workers, cfg.Store = 0, StoreConfig{}
	h := fnv.New64a()
	fmt.Fprintf(h, "%+v", cfg)
	sum := func(g *grid.Grid) {
		if g == nil {
			h.Write([]byte{0})
			return
		}
		fmt.Fprintf(h, "%d %d %g %g %g;", g.Nrow, g.Ncol, g.Cwidth, g.Eorig, g.Norig)
		b := make([]byte, 8)
		for _, v := range g.V {
			binary.LittleEndian.PutUint64(b, math.Float64bits(v))
			h.Write(b)
		}
	}
	sum(in.DEM)
	sum(in.Conditioned)
	for _, l := range in.Layers {
		fmt.Fprintf(h, "%s %v;", l.Label, l.Kind)
		sum(l.Grid)
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, h.Sum(nil))
}
