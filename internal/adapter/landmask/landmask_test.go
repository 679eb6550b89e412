package landmask

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/marine-risk-service/internal/domain"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coastFixture = "testdata/coast.geojson"

type stubFinder map[[2]float64]string

func (s stubFinder) GetTimezoneName(lng, lat float64) string {
	return s[[2]float64{lng, lat}]
}

func fixtureLand(t *testing.T) orb.MultiPolygon {
	t.Helper()
	data, err := os.ReadFile(coastFixture)
	require.NoError(t, err)
	land, err := ParseLand(data)
	require.NoError(t, err)
	return land
}

func TestParseLand(t *testing.T) {
	land := fixtureLand(t)
	assert.Len(t, land, 4, "two polygons plus a two-part multipolygon, line strings skipped")

	_, err := ParseLand([]byte(`{"type":"FeatureCollection","features":[]}`))
	assert.Error(t, err)

	_, err = ParseLand([]byte(`not json`))
	assert.Error(t, err)
}

func TestMask_IsLand(t *testing.T) {
	m := &Mask{finder: stubFinder{}}
	m.setLand(fixtureLand(t))

	tests := []struct {
		name  string
		coord domain.Coordinate
		want  bool
	}{
		{"Denver", domain.Coordinate{Latitude: 39.7392, Longitude: -104.9903}, true},
		{"Kiel city", domain.Coordinate{Latitude: 54.3233, Longitude: 10.1228}, true},
		{"Kiel Bight", domain.Coordinate{Latitude: 54.544587, Longitude: 10.227487}, false},
		{"Singapore", domain.Coordinate{Latitude: 1.35, Longitude: 103.82}, true},
		{"Singapore Strait", domain.Coordinate{Latitude: 1.25, Longitude: 103.85}, false},
		{"Queens", domain.Coordinate{Latitude: 40.7, Longitude: -73.8}, true},
		{"New York Bight", domain.Coordinate{Latitude: 40.55, Longitude: -73.8}, false},
		{"central Mediterranean", domain.Coordinate{Latitude: 35, Longitude: 18}, false},
		{"coastline vertex", domain.Coordinate{Latitude: 37, Longitude: -109.05}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.IsLand(tt.coord))
		})
	}
}

func TestMask_LookupZoneDoesNotDecideLand(t *testing.T) {
	m := &Mask{finder: stubFinder{
		{10.227487, 54.544587}: "Europe/Berlin",
		{-104.99, 39.74}:       "America/Denver",
		{18, 35}:               "Etc/GMT-1",
	}}
	m.setLand(fixtureLand(t))

	zone, land := m.Lookup(domain.Coordinate{Latitude: 54.544587, Longitude: 10.227487})
	assert.Equal(t, "Europe/Berlin", zone)
	assert.False(t, land, "territorial waters carry a land zone but are sea")

	zone, land = m.Lookup(domain.Coordinate{Latitude: 39.74, Longitude: -104.99})
	assert.Equal(t, "America/Denver", zone)
	assert.True(t, land)

	zone, land = m.Lookup(domain.Coordinate{Latitude: 35, Longitude: 18})
	assert.Equal(t, "Etc/GMT-1", zone)
	assert.False(t, land)

	zone, land = m.Lookup(domain.Coordinate{Latitude: 1, Longitude: 1})
	assert.Empty(t, zone)
	assert.False(t, land)
}

func TestMask_NoPolygonsIsAllSea(t *testing.T) {
	m := &Mask{finder: stubFinder{{-104.99, 39.74}: "America/Denver"}}

	zone, land := m.Lookup(domain.Coordinate{Latitude: 39.74, Longitude: -104.99})
	assert.Equal(t, "America/Denver", zone)
	assert.False(t, land)
	assert.Zero(t, m.Polygons())
}

func TestMask_CheckReadiness(t *testing.T) {
	var empty *Mask
	assert.Error(t, empty.CheckReadiness(context.Background()))
	assert.NoError(t, (&Mask{finder: stubFinder{}}).CheckReadiness(context.Background()))
}

func TestNew_LandFileErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("loads the full tzf polygon set")
	}
	_, err := New(filepath.Join(t.TempDir(), "missing.geojson"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.geojson")
	require.NoError(t, os.WriteFile(bad, []byte(`{"type":"FeatureCollection","features":[]}`), 0o600))
	_, err = New(bad)
	assert.Error(t, err)
}

func TestNew_RealPolygons(t *testing.T) {
	if testing.Short() {
		t.Skip("loads the full tzf polygon set")
	}
	m, err := New(coastFixture)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Polygons())

	tests := []struct {
		name     string
		coord    domain.Coordinate
		wantZone string
		wantLand bool
	}{
		{"Denver", domain.Coordinate{Latitude: 39.7392, Longitude: -104.9903}, "America/Denver", true},
		{"Kiel Bight", domain.Coordinate{Latitude: 54.544587, Longitude: 10.227487}, "Europe/Berlin", false},
		{"Singapore Strait", domain.Coordinate{Latitude: 1.25, Longitude: 103.85}, "Asia/Singapore", false},
		{"New York Bight", domain.Coordinate{Latitude: 40.55, Longitude: -73.8}, "America/New_York", false},
		{"central Mediterranean", domain.Coordinate{Latitude: 35, Longitude: 18}, "Etc/GMT-1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zone, land := m.Lookup(tt.coord)
			assert.Equal(t, tt.wantZone, zone)
			assert.Equal(t, tt.wantLand, land)
		})
	}

	_, land := m.Lookup(domain.Coordinate{Latitude: 0, Longitude: -150})
	assert.False(t, land, "mid Pacific is sea")
}
