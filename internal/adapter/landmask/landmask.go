// Package landmask tells land from sea with coastline polygons and names the
// time zone covering a point with tzf.
package landmask

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/couchcryptid/marine-risk-service/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/ringsaturn/tzf"
)

// finder is the subset of tzf.F the mask needs.
type finder interface {
	GetTimezoneName(lng float64, lat float64) string
}

var (
	sharedFinder tzf.F
	sharedErr    error
	loadOnce     sync.Once
)

// loadFinder builds the process-wide tzf finder. The polygon set is large, so
// it is loaded once and shared.
func loadFinder() (tzf.F, error) {
	loadOnce.Do(func() {
		f, err := tzf.NewDefaultFinder()
		if err != nil {
			sharedErr = fmt.Errorf("initialize timezone finder: %w", err)
			return
		}
		sharedFinder = f
	})
	return sharedFinder, sharedErr
}

// Mask implements domain.LandMask. Time zone polygons extend over territorial
// waters, so they only name the zone; land comes from the coastline polygons.
type Mask struct {
	finder finder
	land   []landPolygon
}

type landPolygon struct {
	bound orb.Bound
	poly  orb.Polygon
}

// New returns a Mask backed by the shared tzf finder and the land polygons in
// the GeoJSON file at landPath. With an empty path no point is land and the
// upstream decides.
func New(landPath string) (*Mask, error) {
	f, err := loadFinder()
	if err != nil {
		return nil, err
	}
	m := &Mask{finder: f}
	if landPath == "" {
		return m, nil
	}

	data, err := os.ReadFile(landPath)
	if err != nil {
		return nil, fmt.Errorf("read land polygons: %w", err)
	}
	land, err := ParseLand(data)
	if err != nil {
		return nil, fmt.Errorf("parse land polygons %s: %w", landPath, err)
	}
	m.setLand(land)
	return m, nil
}

// ParseLand collects the Polygon and MultiPolygon geometries of a GeoJSON
// FeatureCollection, such as Natural Earth's land layer. Other geometry types
// are skipped.
func ParseLand(data []byte) (orb.MultiPolygon, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}
	var land orb.MultiPolygon
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			land = append(land, g)
		case orb.MultiPolygon:
			land = append(land, g...)
		}
	}
	if len(land) == 0 {
		return nil, errors.New("no polygons found")
	}
	return land, nil
}

func (m *Mask) setLand(land orb.MultiPolygon) {
	m.land = make([]landPolygon, 0, len(land))
	for _, p := range land {
		if len(p) == 0 {
			continue
		}
		m.land = append(m.land, landPolygon{bound: p.Bound(), poly: p})
	}
}

// Lookup returns the zone covering coord and whether it is land.
func (m *Mask) Lookup(coord domain.Coordinate) (string, bool) {
	zone := m.finder.GetTimezoneName(coord.Longitude, coord.Latitude)
	return zone, m.IsLand(coord)
}

// IsLand reports whether coord falls inside a land polygon. Points on a
// coastline count as land.
func (m *Mask) IsLand(coord domain.Coordinate) bool {
	pt := orb.Point{coord.Longitude, coord.Latitude}
	for _, lp := range m.land {
		if lp.bound.Contains(pt) && planar.PolygonContains(lp.poly, pt) {
			return true
		}
	}
	return false
}

// Polygons returns the number of land polygons loaded.
func (m *Mask) Polygons() int { return len(m.land) }

// CheckReadiness fails until the finder has been loaded.
func (m *Mask) CheckReadiness(_ context.Context) error {
	if m == nil || m.finder == nil {
		return errors.New("land mask not loaded")
	}
	return nil
}
