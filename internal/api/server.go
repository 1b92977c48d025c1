// Package api exposes the HTTP interface for the jobscout service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/avlloyd/jobscout/internal/alerts"
	"github.com/avlloyd/jobscout/internal/scout"
	"github.com/avlloyd/jobscout/internal/service"
)

// JobRunner is the service surface the handlers call into.
type JobRunner interface {
	List(ctx context.Context, limit, offset int, company string) ([]scout.JobPosting, error)
	RunAlert(ctx context.Context, name string, opts service.SearchOptions) (service.SearchResult, error)
}

// AlertStore is the saved-search CRUD surface the handlers call into.
type AlertStore interface {
	List() ([]alerts.Alert, error)
	Create(alerts.Alert) error
	Delete(name string) error
}

// Config tunes server-side limits.
type Config struct {
	// RatePerSecond and RateBurst bound inbound request throughput.
	RatePerSecond float64
	RateBurst     int
	// RequestTimeout caps a single handler invocation.
	RequestTimeout time.Duration
}

// Server wires HTTP handlers to the job service and alert store.
type Server struct {
	router chi.Router
	jobs   JobRunner
	alerts AlertStore
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(jobs JobRunner, store AlertStore, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	s := &Server{jobs: jobs, alerts: store, logger: logger}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(cfg.RequestTimeout))
	if cfg.RatePerSecond > 0 {
		r.Use(rateLimitMiddleware(rate.NewLimiter(rate.Limit(cfg.RatePerSecond), max(cfg.RateBurst, 1))))
	}

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/jobs", s.listJobs)
		r.Get("/alerts", s.listAlerts)
		r.Post("/alerts", s.createAlert)
		r.Delete("/alerts/{name}", s.deleteAlert)
		r.Post("/alerts/{name}/run", s.runAlert)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	if limit <= 0 || limit > 500 || offset < 0 {
		writeError(w, http.StatusBadRequest, "limit must be in (0, 500] and offset >= 0")
		return
	}
	jobs, err := s.jobs.List(r.Context(), limit, offset, r.URL.Query().Get("company"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(jobs), "jobs": jobs})
}

func (s *Server) listAlerts(w http.ResponseWriter, _ *http.Request) {
	all, err := s.alerts.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]alertResponse, 0, len(all))
	for _, a := range all {
		out = append(out, toAlertResponse(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": out})
}

func (s *Server) createAlert(w http.ResponseWriter, r *http.Request) {
	var req alertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	alert, err := req.toAlert()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.alerts.Create(alert); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, alerts.ErrExists) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toAlertResponse(alert))
}

func (s *Server) deleteAlert(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.alerts.Delete(name); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, alerts.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": name})
}

func (s *Server) runAlert(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	opts := service.SearchOptions{
		Persist: r.URL.Query().Get("persist") == "true",
		OnlyNew: r.URL.Query().Get("only_new") == "true",
	}
	result, err := s.jobs.RunAlert(r.Context(), name, opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, alerts.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"alert":    name,
		"count":    len(result.Jobs),
		"inserted": result.Inserted,
		"jobs":     result.Jobs,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

func rateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
