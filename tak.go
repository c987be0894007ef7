// Package tak extracts, segments and characterises the river-channel networks
// draining a dem and computes normalised channel steepness per basin and per
// reach.
package tak

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maseology/mmio"

	"github.com/jhiga488/Topographic-Analysis-Kit/basin"
	"github.com/jhiga488/Topographic-Analysis-Kit/grid"
	"github.com/jhiga488/Topographic-Analysis-Kit/stream"
	"github.com/jhiga488/Topographic-Analysis-Kit/tem"
)

// Source holds the grids of an extraction.
type Source struct {
	DEM         *grid.Grid
	Conditioned *grid.Grid // optional hydrologically conditioned dem
	Layers      []basin.Layer
}

// Extract builds the flow model and base stream network of src.DEM and runs
// the basin pipeline over the selected pour points.
func Extract(ctx context.Context, src Source, cfg basin.Config, sel basin.Selection, opts ...basin.Option) ([]*basin.Record, error) {
	if src.DEM == nil {
		return nil, fmt.Errorf("tak.Extract: no dem")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("tak.Extract: invalid config: %w", err)
	}

	tt := mmio.NewTimer()
	t, err := tem.New(src.DEM, cfg.FlowConditioning)
	if err != nil {
		return nil, fmt.Errorf("tak.Extract: %w", err)
	}
	acc := t.Accumulation()
	net := stream.New(t, acc, src.DEM.CellArea(), cfg.ThresholdArea)
	tt.Lap(fmt.Sprintf("flow model built: %s cells, %s stream nodes",
		mmio.Thousands(int64(t.NumCells())), mmio.Thousands(int64(net.Len()))))

	p, err := basin.New(cfg, basin.Inputs{
		DEM:         src.DEM,
		TEM:         t,
		Acc:         acc,
		Network:     net,
		Conditioned: src.Conditioned,
		Layers:      src.Layers,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("tak.Extract: %w", err)
	}
	defer p.Close()

	pts := sel.Resolve(net, src.DEM)
	if len(pts) == 0 {
		slog.Warn("no pour points selected", "elevation", sel.Elevation)
		return nil, nil
	}
	recs, err := p.Run(ctx, pts)
	tt.Print(fmt.Sprintf("%d of %d basins extracted", len(recs), len(pts)))
	return recs, err
}
