package domain

import (
	"context"
	"time"
)

// MarineConditions are the current-hour readings the upstream reported for one
// coordinate. Values holds an entry for every requested metric; nil means the
// upstream had no usable reading. Latitude and Longitude locate the grid cell
// the upstream answered for, nil when it did not say.
type MarineConditions struct {
	Values     map[string]*float64
	Latitude   *float64
	Longitude  *float64
	Timezone   string
	ObservedAt time.Time
}

// MarineSource retrieves current marine conditions.
type MarineSource interface {
	Current(ctx context.Context, coord Coordinate, timezone string) (MarineConditions, error)
}

// LandMask tells land from sea. zone is the IANA time zone covering the point,
// empty when unknown.
type LandMask interface {
	Lookup(coord Coordinate) (zone string, land bool)
}

// ForecastPublisher emits a record for each forecast served.
type ForecastPublisher interface {
	Publish(ctx context.Context, record ForecastRecord) error
}
