// Package api exposes a running pipeline over HTTP and gRPC health.
package api

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/pathsense/internal/config"
	"github.com/banshee-data/pathsense/internal/httputil"
	"github.com/banshee-data/pathsense/internal/pipeline"
	"github.com/banshee-data/pathsense/internal/store"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

const defaultSessionLimit = 50

// StatsSource is the read side of a pipeline.
type StatsSource interface {
	Stats() pipeline.Stats
}

// SessionLister lists persisted run summaries.
type SessionLister interface {
	Sessions(ctx context.Context, limit int) ([]store.Summary, error)
}

// Server serves pipeline status. Sessions, Events and Report are
// optional; their routes answer 404 when unset.
type Server struct {
	stats    StatsSource
	tuning   *config.TuningConfig
	Sessions SessionLister
	Events   http.Handler
	Report   func(w io.Writer) error
}

func NewServer(stats StatsSource, tuning *config.TuningConfig) *Server {
	return &Server{
		stats:  stats,
		tuning: tuning,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack passes through so /ws can upgrade behind the middleware.
func (lrw *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := lrw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	lrw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/stats", s.showStats)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/report", s.showReport)
	mux.HandleFunc("/ws", s.serveEvents)
	return mux
}

func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.stats.Stats())
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.tuning == nil {
		httputil.NotFound(w, "no tuning config loaded")
		return
	}
	httputil.WriteJSONOK(w, s.tuning)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.Sessions == nil {
		httputil.NotFound(w, "session store not configured")
		return
	}

	limit := defaultSessionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	sessions, err := s.Sessions.Sessions(r.Context(), limit)
	if err != nil {
		httputil.InternalServerError(w, "failed to list sessions: "+err.Error())
		return
	}
	if sessions == nil {
		sessions = []store.Summary{}
	}
	httputil.WriteJSONOK(w, sessions)
}

func (s *Server) showReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.Report == nil {
		httputil.NotFound(w, "live report not enabled")
		return
	}
	var buf bytes.Buffer
	if err := s.Report(&buf); err != nil {
		httputil.InternalServerError(w, "render error: "+err.Error())
		return
	}
	httputil.WriteHTML(w, buf.Bytes())
}

func (s *Server) serveEvents(w http.ResponseWriter, r *http.Request) {
	if s.Events == nil {
		httputil.NotFound(w, "event stream not enabled")
		return
	}
	s.Events.ServeHTTP(w, r)
}
