// Package server exposes grading over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/snow-ghost/rubric/autograder"
	"github.com/snow-ghost/rubric/core"
	"github.com/snow-ghost/rubric/pkg/history"
	"github.com/snow-ghost/rubric/pkg/logging"
)

const maxBodyBytes = 10 << 20

// Options configures a Server
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// CORSOrigins enables CORS for browser clients; empty disables it
	CORSOrigins  []string

	// Graders maps strategy names to graders; DefaultStrategy must be a key
	Graders         map[string]autograder.Grader
	DefaultStrategy string
	Model           string

	History  *history.Store
	Logger   *logging.Logger
	Gatherer prometheus.Gatherer
}

// Server represents the HTTP server
type Server struct {
	opts    Options
	logger  *logging.Logger
	router  chi.Router
	started time.Time
}

// GradeRequest is the body of POST /v1/grade
type GradeRequest struct {
	Text     string           `json:"text"`
	Criteria []core.Criterion `json:"criteria"`
	Query    string           `json:"query,omitempty"`
	Strategy string           `json:"strategy,omitempty"`
}

// GradeResponse is the result of POST /v1/grade. ID is set when history is enabled.
type GradeResponse struct {
	ID        string `json:"id,omitempty"`
	RequestID string `json:"request_id"`
	Strategy  string `json:"strategy"`
	core.EvaluationReport
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// New creates a server and its routes
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		opts:    opts,
		logger:  opts.Logger,
		started: time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all the HTTP routes
func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(s.logRequests)
	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"Content-Length"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(v1 chi.Router) {
		v1.Post("/grade", s.handleGrade)
		v1.Get("/strategies", s.handleStrategies)
		v1.Get("/evaluations", s.handleListEvaluations)
		v1.Get("/evaluations/{id}", s.handleGetEvaluation)
	})

	s.router = r
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.WithRequestID(middleware.GetReqID(r.Context())).Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"service":        "rubric",
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"history":        s.opts.History != nil,
	})
}

// handleStrategies lists the configured grading strategies
func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.opts.Graders))
	for name := range s.opts.Graders {
		names = append(names, name)
	}
	sort.Strings(names)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"strategies": names,
		"default":    s.opts.DefaultStrategy,
	})
}

// handleGrade grades one submission
func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	var req GradeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, "Invalid JSON", "INVALID_JSON", http.StatusBadRequest)
		return
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = s.opts.DefaultStrategy
	}
	grader, ok := s.opts.Graders[strategy]
	if !ok {
		s.writeError(w, "Unknown strategy: "+strategy, "UNKNOWN_STRATEGY", http.StatusBadRequest)
		return
	}

	requestID := middleware.GetReqID(r.Context())
	ctx := autograder.WithRequestID(r.Context(), requestID)

	report, err := grader.Grade(ctx, req.Text, req.Criteria, req.Query)
	if err != nil {
		s.writeGradeError(w, requestID, err)
		return
	}

	resp := GradeResponse{RequestID: requestID, Strategy: strategy, EvaluationReport: report}

	if s.opts.History != nil {
		rec := &history.Record{
			RequestID: requestID,
			Strategy:  strategy,
			Model:     s.opts.Model,
			Query:     req.Query,
			Criteria:  req.Criteria,
			Report:    report,
		}
		if err := s.opts.History.Save(r.Context(), rec); err != nil {
			s.logger.WithRequestID(requestID).Warn("failed to save evaluation", "error", err.Error())
		} else {
			resp.ID = rec.ID
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeGradeError(w http.ResponseWriter, requestID string, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidCriterion), errors.Is(err, core.ErrInvalidLengthPenalty):
		s.writeError(w, err.Error(), "INVALID_RUBRIC", http.StatusBadRequest)
	case errors.Is(err, core.ErrMissingGenerator):
		s.writeError(w, err.Error(), "NO_JUDGE", http.StatusInternalServerError)
	case errors.Is(err, context.DeadlineExceeded):
		s.writeError(w, "Judge timed out", "JUDGE_TIMEOUT", http.StatusGatewayTimeout)
	case errors.Is(err, context.Canceled):
		s.writeError(w, "Request cancelled", "CANCELLED", http.StatusServiceUnavailable)
	default:
		s.logger.WithRequestID(requestID).Error("grading failed", "error", err.Error())
		s.writeError(w, err.Error(), "JUDGE_FAILED", http.StatusBadGateway)
	}
}

// handleListEvaluations lists stored evaluations, newest first
func (s *Server) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		s.writeError(w, "History is disabled", "HISTORY_DISABLED", http.StatusNotFound)
		return
	}

	filter := history.Filter{Strategy: r.URL.Query().Get("strategy"), Limit: 50}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			s.writeError(w, "Invalid limit", "INVALID_LIMIT", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	records, err := s.opts.History.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, err.Error(), "HISTORY_FAILED", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*history.Record{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"evaluations": records})
}

// handleGetEvaluation returns one stored evaluation
func (s *Server) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		s.writeError(w, "History is disabled", "HISTORY_DISABLED", http.StatusNotFound)
		return
	}

	rec, err := s.opts.History.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, history.ErrNotFound) {
		s.writeError(w, "Evaluation not found", "NOT_FOUND", http.StatusNotFound)
		return
	}
	if err != nil {
		s.writeError(w, err.Error(), "HISTORY_FAILED", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "error", err.Error())
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, message, code string, statusCode int) {
	s.writeJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}
