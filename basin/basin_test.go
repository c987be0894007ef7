package basin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhiga488/Topographic-Analysis-Kit/grid"
	"github.com/jhiga488/Topographic-Analysis-Kit/ksn"
	"github.com/jhiga488/Topographic-Analysis-Kit/stream"
	"github.com/jhiga488/Topographic-Analysis-Kit/tem"
)

const cs = 10.

// valley is a 10x5 dem of 50 cells draining to (9,2), the cell centred on
// (25, 5).
func valley() *grid.Grid {
	g := grid.New(10, 5, cs, 0., 100.)
	for i := range g.V {
		r, c := g.RowCol(i)
		g.V[i] = float64(g.Nrow-1-r) + 2.*math.Abs(float64(c-2))
	}
	return g
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ThresholdArea = 5. * cs * cs
	cfg.SegmentLength = 30.
	return cfg
}

func pipeline(t *testing.T, cfg Config, layers []Layer, opts ...Option) *Pipeline {
	t.Helper()
	dem := valley()
	tm, err := tem.New(dem, cfg.FlowConditioning)
	require.NoError(t, err)
	p, err := New(cfg, Inputs{DEM: dem, TEM: tm, Layers: layers}, append([]Option{WithLogger(quiet())}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	for name, mod := range map[string]func(*Config){
		"concavity":  func(c *Config) { c.RefConcavity = 1.5 },
		"method":     func(c *Config) { c.KsnMethod = "ksn" },
		"clip":       func(c *Config) { c.ClipMethod = "" },
		"threshold":  func(c *Config) { c.ThresholdArea = -1. },
		"zero L":     func(c *Config) { c.SegmentLength = 0. },
		"fraction":   func(c *Config) { c.InterpFraction = 2. },
		"workers":    func(c *Config) { c.Workers = 0 },
		"radii":      func(c *Config) { c.ReliefRadii = []float64{100., -5.} },
		"store path": func(c *Config) { c.Store = StoreConfig{Kind: StoreGob} },
		"store kind": func(c *Config) { c.Store = StoreConfig{Kind: "csv", Path: "x"} },
		"bins":       func(c *Config) { c.HypsometryBins = 1 },
	} {
		c := DefaultConfig()
		mod(&c)
		assert.Error(t, c.Validate(), name)
	}

	c := DefaultConfig()
	c.ReliefRadii = []float64{250., 500.}
	c.Store = StoreConfig{Kind: StoreSQLite, Path: "basins.db"}
	assert.NoError(t, c.Validate())
}

func TestParsePourPoints(t *testing.T) {
	sel, err := ParsePourPoints([][]float64{{1., 2., 7.}, {3., 4., 8.}})
	require.NoError(t, err)
	assert.False(t, sel.ByElevation())
	assert.Equal(t, []PourPoint{{X: 1., Y: 2., ID: 7}, {X: 3., Y: 4., ID: 8}}, sel.Points)

	sel, err = ParsePourPoints([][]float64{{350.}})
	require.NoError(t, err)
	assert.True(t, sel.ByElevation())
	assert.Equal(t, 350., sel.Elevation)

	for name, rows := range map[string][][]float64{
		"empty":     nil,
		"columns":   {{1., 2.}},
		"duplicate": {{1., 2., 3.}, {4., 5., 3.}},
		"fraction":  {{1., 2., 3.5}},
		"nan":       {{math.NaN(), 2., 3.}},
		"mixed":     {{1., 2., 3.}, {4.}},
	} {
		_, err := ParsePourPoints(rows)
		assert.ErrorIs(t, err, ErrMalformedPourPoints, name)
	}
}

func TestPourPointsAtElevation(t *testing.T) {
	dem, err := grid.FromRows([][]float64{{5., 4., 3., 2., 1.}}, cs, 0., cs)
	require.NoError(t, err)
	x, y := make([]float64, 5), make([]float64, 5)
	for i := range x {
		x[i], y[i] = dem.XY(i)
	}
	l := []float64{cs, cs, cs, cs, 0.}
	net := stream.FromLinks([]int{0, 1, 2, 3, 4}, []int{1, 2, 3, 4, -1}, l, x, y, cs)

	pts := PourPointsAtElevation(net, dem, 2.5)
	require.Len(t, pts, 1)
	assert.Equal(t, PourPoint{X: 25., Y: 5., ID: 1}, pts[0])

	sel := Selection{Elevation: 2.5}
	assert.Equal(t, pts, sel.Resolve(net, dem))
	assert.Empty(t, PourPointsAtElevation(net, dem, 10.))
}

func TestRunValley(t *testing.T) {
	cfg := testConfig()
	cfg.ReliefRadii = []float64{15.}
	p := pipeline(t, cfg, nil)

	recs, err := p.Run(context.Background(), []PourPoint{{X: 25., Y: 5., ID: 1}})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	r := recs[0]

	assert.Equal(t, 1, r.ID)
	assert.InDelta(t, 50.*cs*cs/1e6, r.DrainageArea, 1e-12)
	assert.Equal(t, 0., r.OutletElevation)
	assert.InDelta(t, 25., r.Centroid.X, 1e-9)
	assert.Equal(t, 0, r.Retries)
	assert.Equal(t, cfg.ThresholdArea, r.Threshold)
	assert.Equal(t, ksn.QuickMethod, r.KsnMethod)
	assert.Equal(t, 50, r.Elevation.N)
	assert.Equal(t, 0., r.Elevation.Min)
	assert.Len(t, r.Hypsometry.Fraction, cfg.HypsometryBins)
	assert.NotEmpty(t, r.KsnRef)
	assert.Contains(t, r.Relief, "15")

	n := len(r.Profile.X)
	require.Positive(t, n)
	for _, s := range [][]float64{r.Profile.Z, r.Profile.Zc, r.Profile.Chi, r.Profile.Ksn, r.Profile.Area} {
		assert.Len(t, s, n)
	}
	for k, d := range r.Profile.Ds {
		if d >= 0 {
			assert.LessOrEqual(t, r.Profile.Zc[d], r.Profile.Zc[k])
			assert.Greater(t, r.Profile.Chi[k], r.Profile.Chi[d])
		} else {
			assert.Zero(t, r.Profile.Chi[k])
		}
	}
}

func TestNodeGradientFollowsOperator(t *testing.T) {
	grads, means := map[string][]float64{}, map[string]float64{}
	var r *Record
	for _, m := range []string{grid.SteepestDescent, grid.PlaneFit} {
		cfg := testConfig()
		cfg.GradientMethod = m
		recs, err := pipeline(t, cfg, nil).Run(context.Background(), []PourPoint{{X: 25., Y: 5., ID: 1}})
		require.NoError(t, err)
		r = recs[0]
		require.Len(t, r.Profile.Gradient, len(r.Profile.X))
		grads[m], means[m] = r.Profile.Gradient, r.Ksn.Mean
	}

	for k, d := range r.Profile.Ds {
		switch {
		case d < 0: // (9,2): no lower neighbour, the plane fit still sees the valley floor
			assert.Zero(t, grads[grid.SteepestDescent][k])
			assert.InDelta(t, .1, grads[grid.PlaneFit][k], 1e-12)
		case r.Profile.X[k] == 25. && r.Profile.Y[k] == 45.: // (5,2): both see the 1 m per cell fall
			assert.InDelta(t, .1, grads[grid.SteepestDescent][k], 1e-12)
			assert.InDelta(t, .1, grads[grid.PlaneFit][k], 1e-12)
		}
	}
	assert.NotEqual(t, means[grid.SteepestDescent], means[grid.PlaneFit])
}

func TestThresholdRetries(t *testing.T) {
	for _, clip := range []string{ClipBasin, ClipSegment} {
		cfg := testConfig()
		cfg.ClipMethod = clip
		cfg.ThresholdArea = 8. * 50. * cs * cs // three halvings down to the 50-cell basin
		p := pipeline(t, cfg, nil)

		recs, err := p.Run(context.Background(), []PourPoint{{X: 25., Y: 5., ID: 1}})
		require.NoError(t, err, clip)
		require.Len(t, recs, 1)
		assert.Equal(t, 3, recs[0].Retries, clip)
		assert.Equal(t, cfg.ThresholdArea/8., recs[0].Threshold, clip)
		assert.Len(t, recs[0].Profile.X, 1, clip)
	}
}

func TestSnapToNetwork(t *testing.T) {
	cfg := testConfig()
	cfg.SnapRadius = 15.
	recs, err := pipeline(t, cfg, nil).Run(context.Background(), []PourPoint{
		{X: 15., Y: 5., ID: 1}, // (9,1), beside the outlet
		{X: 24., Y: 45., ID: 2}, // inside a stream cell, kept as given
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 25., recs[0].X)
	assert.InDelta(t, 50.*cs*cs/1e6, recs[0].DrainageArea, 1e-12)
	assert.Equal(t, 24., recs[1].X)
}

func TestOutsideDEM(t *testing.T) {
	p := pipeline(t, testConfig(), nil)
	recs, err := p.Run(context.Background(), []PourPoint{
		{X: 25., Y: 5., ID: 1},
		{X: -100., Y: 5., ID: 2},
	})
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].ID)
	require.ErrorIs(t, err, ErrOutsideDEM)

	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 2, be.ID)
	assert.Equal(t, PourPointLocated, be.State)
}

func TestRunTrib(t *testing.T) {
	for _, clip := range []string{ClipBasin, ClipSegment} {
		cfg := testConfig()
		cfg.ClipMethod = clip
		cfg.KsnMethod = ksn.TribMethod
		cfg.MinTribArea = 0.
		recs, err := pipeline(t, cfg, nil).Run(context.Background(), []PourPoint{{X: 25., Y: 5., ID: 1}})
		require.NoError(t, err, clip)
		r := recs[0]

		// one chain of 8 nodes, rows 2-9 of the valley floor: 30 m bins
		// hold 3, 3 and 2 nodes, the last too few to fit
		assert.Equal(t, ksn.TribMethod, r.KsnMethod, clip)
		require.Len(t, r.Profile.X, 8, clip)
		require.Len(t, r.KsnRef, 2, clip)
		require.Len(t, r.KsnBestFit, 2, clip)
		for _, rec := range r.KsnRef {
			assert.Equal(t, 3, rec.N, clip)
			assert.Len(t, rec.Geometry, 3, clip)
			assert.Positive(t, rec.Ksn, clip)
			assert.False(t, math.IsNaN(rec.RMSE), clip)
			assert.GreaterOrEqual(t, rec.RMSE, 0., clip)
		}
		assert.Equal(t, 6, r.Ksn.N, clip)
		for k, d := range r.Profile.Ds {
			if d < 0 {
				assert.True(t, math.IsNaN(r.Profile.Ksn[k]), clip)
			}
		}
	}
}

func TestTribFallsBackToQuick(t *testing.T) {
	cfg := testConfig()
	cfg.KsnMethod = ksn.TribMethod
	p := pipeline(t, cfg, nil)
	recs, err := p.Run(context.Background(), []PourPoint{{X: 25., Y: 5., ID: 1}})
	require.NoError(t, err)
	assert.Equal(t, ksn.QuickMethod, recs[0].KsnMethod) // below MinTribArea

	// a network of two nodes at most has no segments
	cfg.MinTribArea = 0.
	cfg.ThresholdArea = 39. * cs * cs
	p = pipeline(t, cfg, nil)
	recs, err = p.Run(context.Background(), []PourPoint{{X: 25., Y: 5., ID: 1}})
	require.NoError(t, err)
	require.LessOrEqual(t, len(recs[0].Profile.X), 2)
	assert.Equal(t, ksn.QuickMethod, recs[0].KsnMethod)
	assert.NotEmpty(t, recs[0].KsnRef)
}

// sameRecord compares records whole. Formatting treats NaN as equal to itself
// and prints map keys sorted.
func sameRecord(t *testing.T, a, b *Record) {
	t.Helper()
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, fmt.Sprintf("%+v", *a), fmt.Sprintf("%+v", *b))
}

func TestRunIsIdempotentAndOrdered(t *testing.T) {
	pts := []PourPoint{{X: 25., Y: 85., ID: 3}, {X: 25., Y: 5., ID: 1}, {X: 25., Y: 45., ID: 2}}

	cfg := testConfig()
	cfg.ReliefRadii = []float64{15., 30.}
	a, err := pipeline(t, cfg, nil).Run(context.Background(), pts)
	require.NoError(t, err)
	cfg.Workers = 3
	b, err := pipeline(t, cfg, nil).Run(context.Background(), pts)
	require.NoError(t, err)

	require.Len(t, a, 3)
	require.Len(t, b, 3)
	for i := range pts {
		assert.Equal(t, pts[i].ID, a[i].ID)
		sameRecord(t, a[i], b[i])
	}
	assert.Less(t, a[0].DrainageArea, a[2].DrainageArea)
	assert.Less(t, a[2].DrainageArea, a[1].DrainageArea)
}

func TestRunIDFollowsConfig(t *testing.T) {
	cfg := testConfig()
	a := pipeline(t, cfg, nil)
	cfg.Workers = 4
	assert.Equal(t, a.RunID(), pipeline(t, cfg, nil).RunID())
	cfg.RefConcavity = .45
	assert.NotEqual(t, a.RunID(), pipeline(t, cfg, nil).RunID())
}

func TestRunResumesFromStore(t *testing.T) {
	cfg := testConfig()
	cfg.Store = StoreConfig{Kind: StoreGob, Path: filepath.Join(t.TempDir(), "basins")}
	pts := []PourPoint{{X: 25., Y: 5., ID: 1}, {X: 25., Y: 45., ID: 2}}

	first, err := pipeline(t, cfg, nil).Run(context.Background(), pts)
	require.NoError(t, err)
	second, err := pipeline(t, cfg, nil).Run(context.Background(), pts)
	require.NoError(t, err)

	require.Len(t, second, 2)
	for i := range first {
		sameRecord(t, first[i], second[i])
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	recs, err := pipeline(t, testConfig(), nil).Run(ctx, []PourPoint{{X: 25., Y: 5., ID: 1}})
	assert.Empty(t, recs)
	assert.ErrorIs(t, err, context.Canceled)
}

type counter struct{ done, total, failed int }

func (c *counter) Observe(done, total int, r *Record, err error) {
	c.done, c.total = done, total
	if err != nil {
		c.failed++
	}
}

func TestObservers(t *testing.T) {
	c := &counter{}
	cfg := testConfig()
	cfg.Workers = 2
	p := pipeline(t, cfg, nil, WithObservers(c, LogObserver{Logger: quiet()}))
	_, err := p.Run(context.Background(), []PourPoint{{X: 25., Y: 5., ID: 1}, {X: 1e6, Y: 0., ID: 2}, {X: 25., Y: 45., ID: 3}})
	require.Error(t, err)
	assert.Equal(t, 3, c.done)
	assert.Equal(t, 3, c.total)
	assert.Equal(t, 1, c.failed)
}

func TestCropLayerResamples(t *testing.T) {
	dem := valley()
	tm, err := tem.New(dem, tem.Fill)
	require.NoError(t, err)
	demc, win := dem.Crop(tm.Contributing(dem.Index(5, 2)))

	fine := grid.New(20, 10, cs/2., 0., 100.)
	for i := range fine.V {
		fine.V[i] = 7.
	}
	g, err := cropLayer(Layer{Label: "fine", Grid: fine}, dem, demc, win, grid.Bilinear)
	require.NoError(t, err)
	assert.True(t, g.Aligned(demc))
	for i, z := range demc.V {
		assert.Equal(t, math.IsNaN(z), math.IsNaN(g.V[i]))
		if !math.IsNaN(z) {
			assert.InDelta(t, 7., g.V[i], 1e-12)
		}
	}

	far := grid.New(4, 4, cs, 1e5, 1e5)
	_, err = cropLayer(Layer{Label: "far", Grid: far}, dem, demc, win, grid.Nearest)
	assert.ErrorIs(t, err, ErrMisaligned)
}

func TestLayers(t *testing.T) {
	dem := valley()
	slope := dem.Like()
	classes := grid.New(20, 10, cs/2., 0., 100.) // finer than the dem
	for i := range slope.V {
		slope.V[i] = 2.
	}
	for i := range classes.V {
		if _, c := classes.RowCol(i); c < 5 {
			classes.V[i] = 1.
		} else {
			classes.V[i] = 2.
		}
	}
	p := pipeline(t, testConfig(), []Layer{
		{Label: "slope", Grid: slope, Kind: Continuous},
		{Label: "geology", Grid: classes, Kind: Categorical},
	})
	recs, err := p.Run(context.Background(), []PourPoint{{X: 25., Y: 5., ID: 1}})
	require.NoError(t, err)
	r := recs[0]

	assert.Equal(t, 2., r.Aux["slope"].Mean)
	assert.Equal(t, 50, r.Aux["slope"].N)
	g := r.Categorical["geology"]
	assert.Equal(t, 50, g.N)
	assert.InDelta(t, 1., g.Fractions[1]+g.Fractions[2], 1e-12)
	assert.InDelta(t, .4, g.Fractions[1], 1e-12) // columns 0-1
	assert.Equal(t, 2, g.Majority)
}

func TestNewRejectsMisalignedInputs(t *testing.T) {
	dem := valley()
	tm, err := tem.New(dem, tem.Fill)
	require.NoError(t, err)

	cond := grid.New(5, 5, cs, 0., 100.)
	_, err = New(testConfig(), Inputs{DEM: dem, TEM: tm, Conditioned: cond})
	assert.ErrorIs(t, err, ErrMisaligned)

	cfg := testConfig()
	cfg.Workers = 0
	_, err = New(cfg, Inputs{DEM: dem, TEM: tm})
	assert.Error(t, err)

	_, err = New(testConfig(), Inputs{DEM: dem, TEM: tm, Layers: []Layer{{Label: "a", Grid: dem}, {Label: "a", Grid: dem}}})
	assert.Error(t, err)
}
