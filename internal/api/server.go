// Package api serves the trust pipeline to the dashboard over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"trustcast/internal/inference"
	"trustcast/internal/ingest"
	"trustcast/internal/logs"
	"trustcast/internal/services"
)

const (
	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 90 * time.Second
	defaultIdleTimeout  = 120 * time.Second
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type Server struct {
	router   *mux.Router
	pipeline *services.PipelineService
	audit    *services.AuditService
	log      zerolog.Logger
	now      func() time.Time

	maxUploadBytes int64

	mu  sync.Mutex
	srv *http.Server
}

// NewServer creates a new API server over the pipeline and audit services
func NewServer(pipeline *services.PipelineService, audit *services.AuditService, log zerolog.Logger, options ...func(*Server)) *Server {
	s := &Server{
		router:         mux.NewRouter(),
		pipeline:       pipeline,
		audit:          audit,
		log:            log,
		now:            time.Now,
		maxUploadBytes: 32 << 20,
	}

	for _, o := range options {
		o(s)
	}

	s.setupRoutes()

	return s
}

// WithMaxUploadBytes bounds the size of multipart uploads
func WithMaxUploadBytes(n int64) func(*Server) {
	return func(s *Server) {
		s.maxUploadBytes = n
	}
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/uploads", s.handleUpload).Methods(http.MethodPost)
	api.HandleFunc("/uploads/current", s.handleCurrentUpload).Methods(http.MethodGet)
	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/devices", s.handleDevices).Methods(http.MethodGet)
	api.HandleFunc("/devices/export", s.handleDeviceExport).Methods(http.MethodGet)
	api.HandleFunc("/thresholds", s.handleThresholds).Methods(http.MethodGet)

	api.HandleFunc("/inference", s.handleRunInference).Methods(http.MethodPost)
	api.HandleFunc("/inference", s.handleInferenceSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/notifications", s.handleNotifications).Methods(http.MethodGet)

	api.HandleFunc("/logs", s.handleLogs).Methods(http.MethodGet)
	api.HandleFunc("/logs/export", s.handleLogExport).Methods(http.MethodGet)
	api.HandleFunc("/logs/view", s.handleLogView).Methods(http.MethodGet)
	api.HandleFunc("/logs/view/filter", s.handleLogViewFilter).Methods(http.MethodPost)
	api.HandleFunc("/logs/view/next", s.handleLogViewNext).Methods(http.MethodPost)
	api.HandleFunc("/logs/view/prev", s.handleLogViewPrev).Methods(http.MethodPost)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()

	s.log.Info().Str("addr", addr).Msg("HTTP API listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) encodeJSONResponse(w http.ResponseWriter, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return err
	}

	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	if err := s.encodeJSONResponse(w, data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
		writeError(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(statusCode)

	errResponse := ErrorResponse{
		Message: message,
		Status:  statusCode,
	}

	if err := json.NewEncoder(w).Encode(errResponse); err != nil {
		// Fallback in case encoding fails
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var (
		readErr *ingest.FileReadError
		netErr  *inference.NetworkError
		badErr  *inference.BadResponseError
	)

	switch {
	case errors.As(err, &readErr),
		errors.Is(err, inference.ErrNoFileSelected),
		errors.Is(err, logs.ErrUnknownFilter):
		return http.StatusBadRequest
	case errors.Is(err, inference.ErrSubmissionInFlight):
		return http.StatusConflict
	case errors.As(err, &netErr),
		errors.As(err, &badErr),
		errors.Is(err, services.ErrLogSourceUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
