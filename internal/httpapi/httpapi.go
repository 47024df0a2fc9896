// Package httpapi is the REST surface described by the server's external
// interfaces: map listings, join/state/action polling for connected dogs,
// manual ticking, the retired-player leaderboard, and static file serving
// for the web client. Every handler logs a "request received" event on
// entry and a "response sent" event on exit, and is built as one
// net/http.ServeMux with small per-route closures.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"dogloot/server/internal/app"
	"dogloot/server/logging"
)

// Config bundles what the HTTP surface needs to build its mux.
type Config struct {
	Application *app.Application
	WWWRoot     string
	Logger      logging.Publisher
	Stream      *StreamHub // optional; nil disables /api/v1/game/state/stream
}

// NewMux builds the server's complete http.Handler.
func NewMux(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NopPublisher()
	}
	s := &server{app: cfg.Application, logger: logger, stream: cfg.Stream, wwwRoot: cfg.WWWRoot}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/health", s.wrap(s.handleHealth))
	mux.HandleFunc("/api/v1/maps", s.wrap(s.handleMapList))
	mux.HandleFunc("/api/v1/maps/", s.wrap(s.handleMapByID))
	mux.HandleFunc("/api/v1/game/join", s.wrap(s.handleJoin))
	mux.HandleFunc("/api/v1/game/players", s.wrap(s.handlePlayers))
	mux.HandleFunc("/api/v1/game/state", s.wrap(s.handleState))
	mux.HandleFunc("/api/v1/game/player/action", s.wrap(s.handleAction))
	mux.HandleFunc("/api/v1/game/tick", s.wrap(s.handleTick))
	mux.HandleFunc("/api/v1/game/records", s.wrap(s.handleRecords))
	if cfg.Stream != nil {
		mux.HandleFunc("/api/v1/game/state/stream", s.wrap(s.handleStream))
	}
	mux.Handle("/", s.wrap(s.handleStatic))

	return mux
}

type server struct {
	app     *app.Application
	logger  logging.Publisher
	stream  *StreamHub
	wwwRoot string
}

// wrap installs the request/response logging every handler needs, matching
// the two required log events from the server's external interface: one on
// entry, one on exit.
func (s *server) wrap(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := clientIP(r)

		s.logger.Publish(r.Context(), logging.Event{
			Message: "request received",
			Data:    map[string]any{"ip": ip, "uri": r.URL.RequestURI(), "method": r.Method},
		})

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)

		s.logger.Publish(r.Context(), logging.Event{
			Message: "response sent",
			Data: map[string]any{
				"ip":              ip,
				"response_time":   time.Since(start).Milliseconds(),
				"code":            rec.status,
				"content_type":    rec.Header().Get("Content-Type"),
			},
		})
	}
}

func (s *server) logError(ctx context.Context, message string, err error) {
	s.logger.Publish(ctx, logging.Event{
		Message:  message,
		Severity: logging.SeverityError,
		Data:     map[string]any{"error": err.Error()},
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}
	writeJSON(w, http.StatusOK, r.Method, map[string]any{"status": "ok"})
}
