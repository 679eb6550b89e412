// Package openmeteo reads current sea state from the Open-Meteo Marine API.
package openmeteo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/marine-risk-service/internal/domain"
	"github.com/couchcryptid/marine-risk-service/internal/observability"
	"github.com/couchcryptid/marine-risk-service/internal/retry"
)

// DefaultBaseURL is the public Marine API endpoint.
const DefaultBaseURL = "https://marine-api.open-meteo.com/v1/marine"

// defaultTimezone is sent when the land mask could not name a zone.
const defaultTimezone = "GMT"

// Client implements domain.MarineSource using the Open-Meteo Marine API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     retry.Policy
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Marine API client. attempts counts the first request.
func NewClient(baseURL string, timeout time.Duration, attempts int, metrics *observability.Metrics, logger *slog.Logger) *Client {
	policy := retry.Default
	policy.Attempts = attempts
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		policy:  policy,
		metrics: metrics,
		logger:  logger.With("component", "openmeteo"),
	}
}

// Current returns the current-hour marine readings at coord. Transport errors,
// 429 and 5xx responses are retried; other statuses fail at once.
func (c *Client) Current(ctx context.Context, coord domain.Coordinate, timezone string) (domain.MarineConditions, error) {
	if timezone == "" {
		timezone = defaultTimezone
	}
	params := url.Values{
		"latitude":   {strconv.FormatFloat(coord.Latitude, 'f', -1, 64)},
		"longitude":  {strconv.FormatFloat(coord.Longitude, 'f', -1, 64)},
		"current":    {strings.Join(domain.MarineMetrics, ",")},
		"timeformat": {"unixtime"},
		"timezone":   {timezone},
	}
	fullURL := c.baseURL + "?" + params.Encode()

	start := time.Now()
	defer func() { c.metrics.UpstreamDuration.Observe(time.Since(start).Seconds()) }()

	var conditions domain.MarineConditions
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		var reqErr error
		conditions, reqErr = c.doRequest(ctx, fullURL)
		return reqErr
	}, func(attempt int, wait time.Duration, err error) {
		c.metrics.UpstreamRetries.Inc()
		c.logger.Warn("marine request failed, retrying", "attempt", attempt, "backoff", wait, "error", err)
	})
	if err != nil {
		return domain.MarineConditions{}, err
	}
	return conditions, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.MarineConditions, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.MarineConditions{}, retry.Permanent(fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.MarineConditions{}, fmt.Errorf("marine request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{StatusCode: resp.StatusCode, Reason: reasonFrom(body)}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return domain.MarineConditions{}, apiErr
		}
		return domain.MarineConditions{}, retry.Permanent(apiErr)
	}

	var marineResp response
	if err := json.NewDecoder(resp.Body).Decode(&marineResp); err != nil {
		return domain.MarineConditions{}, retry.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return marineResp.conditions(), nil
}

// APIError is a non-200 answer from the Marine API.
type APIError struct {
	StatusCode int
	Reason     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("open-meteo marine API error: status %d: %s", e.StatusCode, e.Reason)
}

func reasonFrom(body []byte) string {
	var r struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &r); err == nil && r.Reason != "" {
		return r.Reason
	}
	return strings.TrimSpace(string(body))
}

// Marine API response types.

type response struct {
	Latitude  json.RawMessage            `json:"latitude"`
	Longitude json.RawMessage            `json:"longitude"`
	Timezone  string                     `json:"timezone"`
	Current   map[string]json.RawMessage `json:"current"`
}

func (r response) conditions() domain.MarineConditions {
	out := domain.MarineConditions{
		Values:    make(map[string]*float64, len(domain.MarineMetrics)),
		Latitude:  numberOrNil(r.Latitude),
		Longitude: numberOrNil(r.Longitude),
		Timezone:  r.Timezone,
	}
	for _, name := range domain.MarineMetrics {
		out.Values[name] = numberOrNil(r.Current[name])
	}
	if ts := numberOrNil(r.Current["time"]); ts != nil {
		out.ObservedAt = time.Unix(int64(*ts), 0).UTC()
	}
	return out
}

// numberOrNil parses a JSON number. Nulls, strings and anything else yield nil.
func numberOrNil(raw json.RawMessage) *float64 {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	return &f
}
