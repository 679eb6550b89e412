package domain

import (
	"fmt"
	"math"
	"time"
)

// Coordinate is a WGS-84 latitude/longitude pair selected on the map.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate reports whether the coordinate lies within geographic bounds.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return &ValidationError{Field: "latitude", Message: fmt.Sprintf("must be between -90 and 90, got %v", c.Latitude)}
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return &ValidationError{Field: "longitude", Message: fmt.Sprintf("must be between -180 and 180, got %v", c.Longitude)}
	}
	return nil
}

// Key returns a stable string form of the coordinate, rounded to roughly 10 m.
func (c Coordinate) Key() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.Latitude, c.Longitude)
}

// ForecastResult maps a metric name to its numeric value.
type ForecastResult map[string]float64

// MarineMetrics lists the Open-Meteo Marine "current" variables relayed to the page.
var MarineMetrics = []string{
	"wave_height",
	"wave_direction",
	"wave_period",
	"wind_wave_height",
	"wind_wave_direction",
	"wind_wave_period",
	"wind_wave_peak_period",
	"ocean_current_velocity",
	"ocean_current_direction",
}

// maxMarineValue bounds plausible upstream values; anything larger is a grid artefact.
const maxMarineValue = 1e5

// CleanValue returns v when it is a usable marine reading, nil otherwise.
func CleanValue(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > maxMarineValue {
		return nil
	}
	return &f
}

// MarineReport is the backend's response for a single coordinate. WeatherData values
// are nil when the upstream had no usable reading for that metric.
type MarineReport struct {
	WeatherData  map[string]*float64 `json:"weather_data"`
	Latitude     float64             `json:"latitude"`
	Longitude    float64             `json:"longitude"`
	EndpointUsed string              `json:"endpoint_used"`
	Timezone     string              `json:"timezone,omitempty"`
	FetchedAt    time.Time           `json:"fetched_at"`
}

// Result drops unavailable metrics and returns the remaining values.
func (r MarineReport) Result() ForecastResult {
	return ResultFromWire(r.WeatherData)
}

// ResultFromWire converts a nullable metric map into a ForecastResult.
func ResultFromWire(data map[string]*float64) ForecastResult {
	out := make(ForecastResult, len(data))
	for name, v := range data {
		if v == nil {
			continue
		}
		out[name] = *v
	}
	return out
}

// ForecastRecord is the event emitted for every forecast served by the backend.
type ForecastRecord struct {
	Requested Coordinate   `json:"requested"`
	Report    MarineReport `json:"report"`
}
