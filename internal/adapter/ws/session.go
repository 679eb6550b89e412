// Package ws connects a browser map page to a page controller over a websocket.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/couchcryptid/marine-risk-service/internal/controller"
	"github.com/couchcryptid/marine-risk-service/internal/mapselect"
	"github.com/couchcryptid/marine-risk-service/internal/observability"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// Message types exchanged with the page.
const (
	TypeClick = "click"
	TypeFetch = "fetch"
	TypeState = "state"
	TypeError = "error"
)

// Outbound is a server to page message.
type Outbound struct {
	Type  string            `json:"type"`
	State *controller.State `json:"state,omitempty"`
	Error string            `json:"error,omitempty"`
}

// Handler upgrades requests to map sessions. Each connection gets its own
// controller; the fetcher is shared.
type Handler struct {
	upgrader websocket.Upgrader
	fetcher  controller.Fetcher
	opts     []controller.Option
	metrics  *observability.Metrics
	base     *slog.Logger
	logger   *slog.Logger
}

// NewHandler creates a session handler. opts are applied to every session's controller.
func NewHandler(fetcher controller.Fetcher, metrics *observability.Metrics, logger *slog.Logger, opts ...controller.Option) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		fetcher: fetcher,
		opts:    opts,
		metrics: metrics,
		base:    logger,
		logger:  logger.With("component", "map-session"),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.metrics.ActiveSessions.Inc()
	defer h.metrics.ActiveSessions.Dec()

	s := newSession(conn, h.logger.With("remote", r.RemoteAddr))
	opts := append([]controller.Option{
		controller.WithListener(s.sendState),
		controller.WithLogger(h.base.With("remote", r.RemoteAddr)),
		controller.WithMetrics(h.metrics),
	}, h.opts...)
	s.ctrl = controller.New(h.fetcher, opts...)

	selector := mapselect.New(s.ctrl.Select)
	if err := selector.Attach(s); err != nil {
		h.logger.Error("attach selector", "error", err)
		_ = conn.Close()
		return
	}

	s.logger.Info("map session opened")
	s.run()
	s.logger.Info("map session closed")
}

// session is one connected page. It is the map surface its selector listens to.
type session struct {
	conn    *websocket.Conn
	ctrl    *controller.Controller
	onClick func(mapselect.ClickEvent)
	logger  *slog.Logger

	writeMu  sync.Mutex
	sent     bool
	lastSent uint64
}

func newSession(conn *websocket.Conn, logger *slog.Logger) *session {
	return &session{conn: conn, logger: logger}
}

// OnClick implements mapselect.Surface.
func (s *session) OnClick(handler func(mapselect.ClickEvent)) {
	s.onClick = handler
}

func (s *session) run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.ctrl.Close()
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.sendState(s.ctrl.Snapshot())

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		s.handle(ctx, data)
	}
}

func (s *session) handle(ctx context.Context, data []byte) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		s.sendError("malformed message")
		return
	}

	switch envelope.Type {
	case TypeClick:
		ev, err := mapselect.DecodeClick(data)
		if err != nil {
			s.sendError(err.Error())
			return
		}
		if s.onClick != nil {
			s.onClick(ev)
		}
	case TypeFetch:
		err := s.ctrl.Start(ctx)
		if errors.Is(err, controller.ErrFetchInFlight) || errors.Is(err, controller.ErrLandLocked) {
			s.sendError(err.Error())
		}
	default:
		s.sendError("unknown message type " + envelope.Type)
	}
}

// sendState writes st unless a newer snapshot was already sent. Transitions
// resolve on different goroutines, so snapshots can arrive out of order.
func (s *session) sendState(st controller.State) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.sent && st.Version <= s.lastSent {
		return
	}
	s.sent = true
	s.lastSent = st.Version
	s.writeLocked(Outbound{Type: TypeState, State: &st})
}

func (s *session) sendError(msg string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.writeLocked(Outbound{Type: TypeError, Error: msg})
}

func (s *session) writeLocked(msg Outbound) {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.logger.Debug("websocket write failed", "type", msg.Type, "error", err)
	}
}
