// Package forecastapi is the page-side client for the backend weather endpoint.
package forecastapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/marine-risk-service/internal/domain"
)

// WeatherPath is the backend route serving marine conditions.
const WeatherPath = "/api/ai/weather/"

// maxErrorBody caps how much of a failure body is read.
const maxErrorBody = 64 << 10

// Client implements controller.Fetcher against the backend weather API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a forecast client for the backend at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Fetch requests the marine conditions at coord. Land coordinates yield
// domain.ErrLandCoordinate; every other failure is a *domain.ForecastError.
func (c *Client) Fetch(ctx context.Context, coord domain.Coordinate) (domain.ForecastResult, error) {
	params := url.Values{
		"latitude":  {strconv.FormatFloat(coord.Latitude, 'f', -1, 64)},
		"longitude": {strconv.FormatFloat(coord.Longitude, 'f', -1, 64)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+WeatherPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &domain.ForecastError{Message: domain.MsgFetchFailed, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ForecastError{Message: domain.MsgFetchFailed, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.failure(resp)
	}

	var body successBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &domain.ForecastError{Message: domain.MsgFetchFailed, Err: fmt.Errorf("decode response: %w", err)}
	}
	if body.WeatherData == nil {
		return nil, &domain.ForecastError{Message: domain.MsgFetchFailed, Err: errors.New("response has no weather_data")}
	}
	return domain.ResultFromWire(body.WeatherData), nil
}

func (c *Client) failure(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		c.logger.Debug("forecast error body is not json", "status", resp.StatusCode, "error", err)
	}
	return domain.ClassifyFailure(body.Code, body.Error, resp.StatusCode)
}

// Backend response types.

type successBody struct {
	WeatherData map[string]*float64 `json:"weather_data"`
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
