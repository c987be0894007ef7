package tem

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhiga488/Topographic-Analysis-Kit/grid"
)

// valley returns a 6x5 DEM draining to the bottom-centre cell.
func valley() *grid.Grid {
	g := grid.New(6, 5, 10., 0., 60.)
	for i := range g.V {
		r, c := g.RowCol(i)
		g.V[i] = float64(g.Nrow-1-r) + 2.*math.Abs(float64(c-2))
	}
	return g
}

func TestNewValley(t *testing.T) {
	for _, cond := range []string{Fill, Carve} {
		t.Run(cond, func(t *testing.T) {
			g := valley()
			tm, err := New(g, cond)
			require.NoError(t, err)
			out := g.Index(5, 2)

			assert.Equal(t, 30, tm.NumCells())
			assert.Contains(t, tm.Outlets(), out)

			pos := make(map[int]int, len(tm.Order))
			for k, i := range tm.Order {
				pos[i] = k
			}
			for _, i := range tm.Order {
				if d := tm.Ds(i); d >= 0 {
					assert.Less(t, pos[i], pos[d], "cell %d must precede its receiver", i)
				}
			}
		})
	}
}

func TestFillValleyTopology(t *testing.T) {
	g := valley()
	tm, err := New(g, Fill)
	require.NoError(t, err)
	out := g.Index(5, 2)

	assert.Equal(t, []int{out}, tm.Outlets())
	acc := tm.Accumulation()
	assert.Equal(t, 30., acc[out])

	c := tm.Contributing(out)
	assert.Len(t, c, 30)
	assert.Equal(t, out, c[len(c)-1])

	assert.Equal(t, 0., tm.TECs[out].L)
	assert.Equal(t, 10., tm.TECs[g.Index(0, 2)].L)
	assert.InDelta(t, 10.*math.Sqrt2, tm.TECs[g.Index(0, 1)].L, 1e-9)

	up := tm.UpIDs(out)
	assert.ElementsMatch(t, []int{g.Index(4, 2), g.Index(5, 1), g.Index(5, 3), g.Index(4, 1), g.Index(4, 3)}, up)
}

func TestFillDepression(t *testing.T) {
	g := valley()
	pit := g.Index(2, 2)
	g.V[pit] = -5.
	tm, err := New(g, Fill)
	require.NoError(t, err)

	assert.Greater(t, tm.TECs[pit].Z, g.V[g.Index(3, 2)])
	assert.NotEqual(t, -1, tm.Ds(pit))
	assert.Equal(t, 30., tm.Accumulation()[g.Index(5, 2)])
	for i, v := range g.V {
		assert.GreaterOrEqual(t, tm.TECs[i].Z, v)
	}
}

func TestNoData(t *testing.T) {
	_, err := New(grid.New(3, 3, 10., 0., 0.), Fill)
	assert.ErrorIs(t, err, ErrNoData)

	g := valley()
	g.V[0] = math.NaN()
	tm, err := New(g, Carve)
	require.NoError(t, err)
	assert.Equal(t, 29, tm.NumCells())
	assert.True(t, math.IsNaN(tm.Accumulation()[0]))
	assert.Empty(t, tm.Contributing(0))
}
