package basin

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhiga488/Topographic-Analysis-Kit/ksn"
	"github.com/jhiga488/Topographic-Analysis-Kit/stats"
)

func sampleRecord(id int) *Record {
	return &Record{
		ID:               id,
		X:                25.,
		Y:                5.,
		RunID:            uuid.New(),
		DrainageArea:     .005,
		KsnMethod:        ksn.TribMethod,
		BestFitConcavity: math.NaN(),
		KsnRef: []ksn.Record{{
			Geometry: geom.LineString{{X: 0., Y: 0.}, {X: 10., Y: 0.}},
			Ksn:      42.,
			N:        2,
		}},
		Ksn:         stats.Summary{Mean: 42., N: 2},
		Aux:         map[string]stats.Summary{"slope": {Mean: 2., N: 50}},
		Categorical: map[string]stats.Categorical{"geology": {Majority: 2, Fractions: map[int]float64{1: .4, 2: .6}, N: 50}},
		Profile:     Profile{X: []float64{0., 10.}, Ds: []int{1, -1}},
	}
}

func testStore(t *testing.T, s Store) {
	t.Helper()
	assert.False(t, s.Has(7))
	_, err := s.Get(7)
	assert.ErrorIs(t, err, ErrNotFound)

	for _, id := range []int{7, 3} {
		require.NoError(t, s.Put(sampleRecord(id)))
	}
	assert.True(t, s.Has(7))
	ids, err := s.IDs()
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7}, ids)

	r := sampleRecord(7)
	r.DrainageArea = 1.5
	require.NoError(t, s.Put(r))
	got, err := s.Get(7)
	require.NoError(t, err)
	assert.Equal(t, 1.5, got.DrainageArea)
	assert.Equal(t, r.RunID, got.RunID)
	assert.Equal(t, r.KsnRef, got.KsnRef)
	assert.Equal(t, r.Categorical, got.Categorical)
	assert.Equal(t, r.Profile.Ds, got.Profile.Ds)
	assert.True(t, math.IsNaN(got.BestFitConcavity))

	ids, err = s.IDs()
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestGobStore(t *testing.T) {
	s, err := NewGobStore(filepath.Join(t.TempDir(), "records"))
	require.NoError(t, err)
	defer s.Close()
	testStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "basins.db"))
	require.NoError(t, err)
	defer s.Close()
	testStore(t, s)
}

func TestOpenStore(t *testing.T) {
	s, err := OpenStore(StoreConfig{Kind: StoreNone})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = OpenStore(StoreConfig{Kind: StoreSQLite, Path: filepath.Join(t.TempDir(), "b.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())
}
