// Package httpadapter serves the weather API, the map page and the operational endpoints.
package httpadapter

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/marine-risk-service/internal/domain"
	"github.com/couchcryptid/marine-risk-service/internal/weather"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed static
var staticFiles embed.FS

// Forecaster produces the marine report for a coordinate.
type Forecaster interface {
	Forecast(ctx context.Context, coord domain.Coordinate) (domain.MarineReport, error)
}

// Server exposes the weather API, the map page, and health, readiness and metrics endpoints.
type Server struct {
	httpServer *http.Server
	forecaster Forecaster
	logger     *slog.Logger
}

// NewServer creates an HTTP server. sessions, when non-nil, is mounted at /ws.
func NewServer(addr string, forecaster Forecaster, ready sharedobs.ReadinessChecker, sessions http.Handler, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// Upstream requests retry with a 30s timeout each.
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		forecaster: forecaster,
		logger:     logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/ai/weather/", s.handleWeather)

	static, _ := fs.Sub(staticFiles, "static")
	mux.Handle("GET /{$}", http.FileServerFS(static))
	if sessions != nil {
		mux.Handle("GET /ws", sessions)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	lat, err := floatParam(r, "latitude", weather.DefaultLatitude)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	lon, err := floatParam(r, "longitude", weather.DefaultLongitude)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	report, err := s.forecaster.Forecast(r.Context(), domain.Coordinate{Latitude: lat, Longitude: lon})
	var ve *domain.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, report)
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Error()})
	case errors.Is(err, domain.ErrLandCoordinate):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: domain.MsgLandSelected, Code: domain.CodeLandSelected})
	default:
		s.logger.Error("weather request failed", "latitude", lat, "longitude", lon, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: domain.MsgUpstreamFailed})
	}
}

// floatParam reads a numeric query parameter, falling back to def when absent.
func floatParam(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &domain.ValidationError{Field: name, Message: "must be a number"}
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
