package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/passage"
	"github.com/aretw0/passage/internal/logging"
	"github.com/aretw0/passage/pkg/domain"
	"github.com/aretw0/passage/pkg/ports"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed openapi.yaml
var rawSpec []byte

// Spec returns the embedded OpenAPI document.
func Spec() []byte {
	return rawSpec
}

// Server exposes a Navigator over HTTP.
type Server struct {
	Navigator ports.Navigator
	Streams   *StreamManager

	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures the HTTP handler.
type Option func(*Server)

// WithLogger sets the logger used for request errors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics serves the gatherer's metrics on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewHandler creates a new HTTP handler for the navigator.
// Requests matching the embedded OpenAPI document are validated against it.
func NewHandler(nav ports.Navigator, opts ...Option) (http.Handler, error) {
	s := &Server{
		Navigator: nav,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(WithStreamLogger(s.logger))

	validator, err := newValidator(rawSpec)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(validator.middleware(s.writeError))

		r.Get("/health", s.GetHealth)
		r.Get("/info", s.GetInfo(validator.doc))
		r.Get("/routes", s.ListRoutes)
		r.Post("/navigate", s.Navigate)
		r.Get("/outcomes", s.ListOutcomes)
		r.Get("/outcomes/{id}", s.GetOutcome)
		r.Delete("/outcomes/{id}", s.DeleteOutcome)
		r.Post("/outcomes/{id}/retry", s.RetryOutcome)
		r.Get("/events", s.SubscribeEvents)
	})
	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(doc *openapi3.T) http.HandlerFunc {
	apiVersion := "unknown"
	if doc != nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{
			"app":         "passage-http",
			"version":     strings.TrimSpace(passage.Version),
			"api_version": apiVersion,
		})
	}
}

// ListRoutes handles the GET /routes request.
func (s *Server) ListRoutes(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Navigator.Routes(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"routes": ids})
}

// Navigate handles the POST /navigate request.
func (s *Server) Navigate(w http.ResponseWriter, r *http.Request) {
	var req domain.NavigationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, badRequest(fmt.Errorf("invalid request body: %w", err)))
		return
	}

	outcome, err := s.Navigator.Navigate(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.publish(outcome)
	s.writeJSON(w, http.StatusOK, outcome)
}

// ListOutcomes handles the GET /outcomes request.
func (s *Server) ListOutcomes(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Navigator.Outcomes(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"outcomes": ids})
}

// GetOutcome handles the GET /outcomes/{id} request.
func (s *Server) GetOutcome(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.Navigator.Outcome(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, outcome)
}

// DeleteOutcome handles the DELETE /outcomes/{id} request.
func (s *Server) DeleteOutcome(w http.ResponseWriter, r *http.Request) {
	if err := s.Navigator.DeleteOutcome(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RetryOutcome handles the POST /outcomes/{id}/retry request.
func (s *Server) RetryOutcome(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.Navigator.Retry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.publish(outcome)
	s.writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) publish(outcome *domain.Outcome) {
	if outcome == nil || outcome.Request.SessionID == "" {
		return
	}
	data, err := json.Marshal(outcome)
	if err != nil {
		s.logger.Warn("Failed to encode outcome event", "outcome_id", outcome.ID, "err", err)
		return
	}
	s.Streams.Broadcast(outcome.Request.SessionID, Event{Name: EventOutcome, Data: string(data)})
}

// requestError marks errors caused by the client.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &requestError{err: err}
}

func statusOf(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRouteNotFound), errors.Is(err, domain.ErrOutcomeNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}
