// Package weather serves marine conditions for a coordinate: it rejects land,
// reads the upstream, cleans the values and publishes what it served.
package weather

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/marine-risk-service/internal/domain"
	"github.com/couchcryptid/marine-risk-service/internal/observability"
)

// EndpointMarine names the upstream endpoint in every report.
const EndpointMarine = "marine"

// Default coordinate used when a request omits one.
const (
	DefaultLatitude  = 54.544587
	DefaultLongitude = 10.227487
)

// ErrUpstream wraps every failure to read the marine upstream.
var ErrUpstream = errors.New(domain.MsgUpstreamFailed)

// Service answers forecast requests.
type Service struct {
	source    domain.MarineSource
	land      domain.LandMask
	publisher domain.ForecastPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLandMask rejects coordinates the mask reports as land.
func WithLandMask(m domain.LandMask) Option {
	return func(s *Service) { s.land = m }
}

// WithPublisher emits a record for each forecast served.
func WithPublisher(p domain.ForecastPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// New creates a Service reading from source.
func New(source domain.MarineSource, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	s := &Service{
		source:  source,
		logger:  logger.With("component", "weather"),
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Forecast returns the cleaned marine report for coord. Errors are a
// *domain.ValidationError, domain.ErrLandCoordinate, or wrap ErrUpstream.
func (s *Service) Forecast(ctx context.Context, coord domain.Coordinate) (domain.MarineReport, error) {
	if err := coord.Validate(); err != nil {
		s.observe("invalid")
		return domain.MarineReport{}, err
	}

	var zone string
	if s.land != nil {
		var land bool
		zone, land = s.land.Lookup(coord)
		if land {
			s.logger.Info("land coordinate rejected", "latitude", coord.Latitude, "longitude", coord.Longitude, "zone", zone)
			s.observe("land")
			return domain.MarineReport{}, domain.ErrLandCoordinate
		}
	}

	conditions, err := s.source.Current(ctx, coord, zone)
	if err != nil {
		s.logger.Error("marine upstream failed", "latitude", coord.Latitude, "longitude", coord.Longitude, "error", err)
		s.observe("error")
		return domain.MarineReport{}, errors.Join(ErrUpstream, err)
	}

	// The upstream snaps to its grid; report the cell it answered for.
	report := domain.MarineReport{
		WeatherData:  make(map[string]*float64, len(domain.MarineMetrics)),
		Latitude:     valueOr(conditions.Latitude, coord.Latitude),
		Longitude:    valueOr(conditions.Longitude, coord.Longitude),
		EndpointUsed: EndpointMarine,
		Timezone:     conditions.Timezone,
		FetchedAt:    domain.Now(),
	}
	for _, name := range domain.MarineMetrics {
		report.WeatherData[name] = domain.CleanValue(conditions.Values[name])
	}
	s.observe("success")

	s.publish(ctx, domain.ForecastRecord{Requested: coord, Report: report})
	return report, nil
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// publish is best effort: a broker outage never fails the request.
func (s *Service) publish(ctx context.Context, record domain.ForecastRecord) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, record); err != nil {
		s.metrics.PublishErrors.Inc()
		s.logger.Warn("publish forecast record failed", "error", err)
	}
}

// CheckReadiness reports whether the land mask, when configured, is loaded.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if r, ok := s.land.(interface{ CheckReadiness(context.Context) error }); ok {
		return r.CheckReadiness(ctx)
	}
	return nil
}

func (s *Service) observe(outcome string) {
	s.metrics.ForecastRequests.WithLabelValues(outcome).Inc()
}
