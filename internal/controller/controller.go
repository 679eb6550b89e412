// Package controller owns the state of a single map page: the selected coordinate,
// the forecast request lifecycle, and the cards rendered from a successful result.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/marine-risk-service/internal/domain"
	"github.com/couchcryptid/marine-risk-service/internal/observability"
)

// Fetcher retrieves the forecast for a coordinate.
type Fetcher interface {
	Fetch(ctx context.Context, coord domain.Coordinate) (domain.ForecastResult, error)
}

// Status is the request lifecycle position.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	for _, candidate := range []Status{StatusIdle, StatusLoading, StatusSucceeded, StatusFailed} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// State is an immutable snapshot of the page. Version increases with every transition.
type State struct {
	Version    uint64                `json:"version"`
	Coordinate *domain.Coordinate    `json:"coordinate"`
	Status     Status                `json:"status"`
	Result     domain.ForecastResult `json:"result,omitempty"`
	Cards      []domain.Card         `json:"cards,omitempty"`
	Error      string                `json:"error,omitempty"`
	LandError  bool                  `json:"land_error"`
	CanFetch   bool                  `json:"can_fetch"`
	RequestID  uint64                `json:"request_id,omitempty"`
}

var (
	// ErrFetchInFlight is returned when a fetch is triggered while one is loading.
	ErrFetchInFlight = errors.New("a forecast request is already in flight")

	// ErrLandLocked is returned when fetching after a land error without a new selection.
	ErrLandLocked = errors.New("select a new coordinate after a land error")

	// ErrStaleResponse is returned when a response arrives for a superseded request.
	ErrStaleResponse = errors.New("response discarded: selection changed while loading")
)

// Option configures a Controller.
type Option func(*Controller)

// WithThresholds overrides the classification thresholds used for cards.
func WithThresholds(t domain.Thresholds) Option {
	return func(c *Controller) { c.thresholds = t }
}

// WithListener registers a callback invoked after every state transition. Calls may
// come from different goroutines; use State.Version to drop out-of-order snapshots.
func WithListener(fn func(State)) Option {
	return func(c *Controller) { c.listener = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithMetrics records fetch outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// request tags a fetch with the selection it was issued for.
type request struct {
	id     uint64
	coord  domain.Coordinate
	cancel context.CancelFunc
}

// Controller is the page state machine. All state changes go through Select,
// Fetch/Start, and the resolution of the request they issue.
type Controller struct {
	fetcher    Fetcher
	thresholds domain.Thresholds
	listener   func(State)
	logger     *slog.Logger
	metrics    *observability.Metrics

	mu         sync.Mutex
	version    uint64
	coord      *domain.Coordinate
	status     Status
	result     domain.ForecastResult
	errMsg     string
	landLocked bool
	seq        uint64
	inflight   *request
	wg         sync.WaitGroup
}

// New creates a Controller in the Idle state with no coordinate selected.
func New(fetcher Fetcher, opts ...Option) *Controller {
	c := &Controller{
		fetcher:    fetcher,
		thresholds: domain.DefaultThresholds,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "page-controller")
	return c
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Select replaces the selected coordinate. It clears any error, lifts a land
// lockout, and abandons a request issued for the previous selection.
func (c *Controller) Select(coord domain.Coordinate) {
	c.mu.Lock()
	c.coord = &coord
	c.errMsg = ""
	c.landLocked = false
	if c.inflight != nil {
		c.inflight.cancel()
		c.inflight = nil
	}
	if c.status == StatusLoading || c.status == StatusFailed {
		c.status = StatusIdle
	}
	st := c.transitionLocked()
	c.mu.Unlock()

	c.logger.Debug("coordinate selected", "latitude", coord.Latitude, "longitude", coord.Longitude)
	c.notify(st)
}

// Fetch issues a forecast request for the current selection and waits for it to
// resolve. With no coordinate selected it fails immediately without a network call.
func (c *Controller) Fetch(ctx context.Context) (State, error) {
	req, reqCtx, err := c.begin(ctx)
	if err != nil {
		return c.Snapshot(), err
	}
	result, fetchErr := c.fetcher.Fetch(reqCtx, req.coord)
	return c.resolve(req, result, fetchErr)
}

// Start is the asynchronous form of Fetch: validation happens synchronously, the
// request itself resolves in the background.
func (c *Controller) Start(ctx context.Context) error {
	req, reqCtx, err := c.begin(ctx)
	if err != nil {
		return err
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		result, fetchErr := c.fetcher.Fetch(reqCtx, req.coord)
		_, _ = c.resolve(req, result, fetchErr)
	}()
	return nil
}

// Close abandons any in-flight request and waits for background fetches to
// return. An abandoned load is a transition back to Idle.
func (c *Controller) Close() {
	var (
		st      State
		changed bool
	)
	c.mu.Lock()
	if c.inflight != nil {
		c.inflight.cancel()
		c.inflight = nil
		if c.status == StatusLoading {
			c.status = StatusIdle
			st = c.transitionLocked()
			changed = true
		}
	}
	c.mu.Unlock()

	if changed {
		c.notify(st)
	}
	c.wg.Wait()
}

func (c *Controller) begin(ctx context.Context) (*request, context.Context, error) {
	c.mu.Lock()

	switch {
	case c.status == StatusLoading:
		c.mu.Unlock()
		return nil, nil, ErrFetchInFlight
	case c.landLocked:
		c.mu.Unlock()
		return nil, nil, ErrLandLocked
	case c.coord == nil:
		c.status = StatusFailed
		c.result = nil
		c.errMsg = domain.MsgSelectLocation
		st := c.transitionLocked()
		c.mu.Unlock()

		c.observe("missing")
		c.notify(st)
		return nil, nil, domain.ErrMissingCoordinate
	}

	c.seq++
	reqCtx, cancel := context.WithCancel(ctx)
	req := &request{id: c.seq, coord: *c.coord, cancel: cancel}
	c.inflight = req
	c.status = StatusLoading
	c.result = nil
	c.errMsg = ""
	st := c.transitionLocked()
	c.mu.Unlock()

	c.logger.Info("forecast requested", "request_id", req.id, "latitude", req.coord.Latitude, "longitude", req.coord.Longitude)
	c.notify(st)
	return req, reqCtx, nil
}

func (c *Controller) resolve(req *request, result domain.ForecastResult, fetchErr error) (State, error) {
	defer req.cancel()

	c.mu.Lock()
	if c.inflight != req || c.coord == nil || *c.coord != req.coord {
		st := c.snapshotLocked()
		c.mu.Unlock()

		c.logger.Debug("discarding stale forecast response", "request_id", req.id, "error", fetchErr)
		c.observe("stale")
		return st, ErrStaleResponse
	}
	c.inflight = nil

	var outcome string
	switch {
	case fetchErr == nil:
		c.status = StatusSucceeded
		c.result = result
		outcome = "succeeded"
	case errors.Is(fetchErr, domain.ErrLandCoordinate):
		c.status = StatusFailed
		c.errMsg = domain.MsgLandSelected
		c.landLocked = true
		outcome = "land"
	default:
		c.status = StatusFailed
		c.errMsg = domain.UserMessage(fetchErr)
		outcome = "failed"
	}
	st := c.transitionLocked()
	c.mu.Unlock()

	if fetchErr != nil {
		c.logger.Warn("forecast request failed", "request_id", req.id, "outcome", outcome, "error", fetchErr)
	} else {
		c.logger.Info("forecast received", "request_id", req.id, "metrics", len(result))
	}
	c.observe(outcome)
	c.notify(st)
	return st, fetchErr
}

// transitionLocked bumps the version and returns the new snapshot. Caller holds mu.
func (c *Controller) transitionLocked() State {
	c.version++
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	st := State{
		Version:   c.version,
		Status:    c.status,
		Error:     c.errMsg,
		LandError: c.landLocked,
		CanFetch:  c.status != StatusLoading && !c.landLocked,
		RequestID: c.seq,
	}
	if c.coord != nil {
		coord := *c.coord
		st.Coordinate = &coord
	}
	if c.status == StatusSucceeded && len(c.result) > 0 {
		st.Result = make(domain.ForecastResult, len(c.result))
		for k, v := range c.result {
			st.Result[k] = v
		}
		st.Cards = domain.BuildCards(st.Result, c.thresholds)
	}
	return st
}

func (c *Controller) notify(st State) {
	if c.listener != nil {
		c.listener(st)
	}
}

func (c *Controller) observe(outcome string) {
	if c.metrics != nil {
		c.metrics.SessionFetches.WithLabelValues(outcome).Inc()
	}
}
