package gisconvert

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mercatorPole = 20037508.34

func TestExtentGrows(t *testing.T) {
	var e Extent
	assert.True(t, e.Empty())

	e.Add(2, 3)
	e.Add(-1, 7)
	e.Add(5, -4)

	assert.False(t, e.Empty())
	assert.Equal(t, -1.0, e.MinX)
	assert.Equal(t, 5.0, e.MaxX)
	assert.Equal(t, -4.0, e.MinY)
	assert.Equal(t, 7.0, e.MaxY)

	x, y := e.Center()
	assert.Equal(t, 2.0, x)
	assert.Equal(t, 1.5, y)
}

func TestMercatorRoundTrip(t *testing.T) {
	cases := []struct {
		name     string
		lon, lat float64
	}{
		{"origin", 0, 0},
		{"bozeman", -111.02523, 45.63856},
		{"southern", 151.2093, -33.8688},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			x, y := ProjectMercator(tc.lon, tc.lat)
			lon, lat := InverseMercator(x, y)
			assert.InDelta(t, tc.lon, lon, 1e-6)
			assert.InDelta(t, tc.lat, lat, 1e-6)
		})
	}

	x, y := ProjectMercator(180, 0)
	assert.InDelta(t, mercatorPole, x, 0.01)
	assert.InDelta(t, 0, y, 1e-6)
}

func TestProjectMercatorClampsPoles(t *testing.T) {
	_, y := ProjectMercator(0, 90)
	_, clamped := ProjectMercator(0, MercatorMaxLat)
	assert.Equal(t, clamped, y)
	assert.InDelta(t, mercatorPole, y, 1)
}

func TestTo3857LeavesMeters(t *testing.T) {
	x, y := To3857(-12359173.21, 5722458.44)
	assert.Equal(t, -12359173.21, x)
	assert.Equal(t, 5722458.44, y)

	x, y = To3857(0, 0)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)

	lon, lat := To4326(-111.02523, 45.63856)
	assert.Equal(t, -111.02523, lon)
	assert.Equal(t, 45.63856, lat)
}

func TestS2Covering(t *testing.T) {
	assert.Empty(t, S2Covering(Extent{}))

	point := S2Covering(NewExtent(-111.0, 45.6, -111.0, 45.6))
	require.Len(t, point, 1)

	box := S2Covering(NewExtent(-111.1, 45.5, -110.9, 45.7))
	require.NotEmpty(t, box)

	seen := make(map[string]bool)
	for _, token := range box {
		assert.False(t, seen[token], "duplicate token %s", token)
		seen[token] = true
	}

	// the same box given in mercator meters covers the same cells
	lx, ly := ProjectMercator(-111.1, 45.5)
	rx, uy := ProjectMercator(-110.9, 45.7)
	assert.ElementsMatch(t, box, S2Covering(NewExtent(lx, ly, rx, uy)))
}

func TestRequireSourceAndAbsent(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.shp")
	present := filepath.Join(dir, "present.shp")
	require.NoError(t, os.WriteFile(present, []byte("x"), 0o644))

	assert.True(t, errors.Is(RequireSource(missing), ErrSourceNotFound))
	assert.NoError(t, RequireSource(present))

	assert.True(t, errors.Is(RequireAbsent(present), ErrOutputExists))
	assert.NoError(t, RequireAbsent(missing))
}
