// Package domain models marine forecasts for a user-selected ocean coordinate.
//
// # Data Source
//
// Forecast values come from the Open-Meteo Marine API (https://open-meteo.com/en/docs/marine-weather-api),
// queried for the "current" block of a grid cell. The backend relays those values to the
// page as a flat metric map:
//
//	{"weather_data": {"wave_height": 1.42, "wave_period": 6.1, ...}}
//
// Values the upstream cannot provide (NaN, infinite, absurdly large, or missing) are
// relayed as null and dropped from a [ForecastResult] on the client side. See [CleanValue].
//
// # Risk Classification
//
// Every metric is classified with the same threshold pair, regardless of its unit:
//
//	value < 2        Safe       (green)
//	2 <= value < 4   Average    (amber)
//	value >= 4       Dangerous  (red)
//
// Thresholds ignore units: 3 m of swell and 3 degrees of wave direction both
// read as Average. Metric-aware thresholds are out of scope. See [Classify].
//
// # Land Coordinates
//
// Clicking a point on land yields no marine data. The backend reports it with the
// explicit error code "land_selected". Older backends only surfaced an integer overflow
// from their data grid ("bad number 4294967382 for type uint32"); both signals are
// translated to [ErrLandCoordinate] by [ClassifyFailure], the single place that policy lives.
package domain
