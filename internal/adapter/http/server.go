package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cwygoda/vidrag/internal/domain"
)

// VideoService is the subset of domain.VideoService the handlers drive.
type VideoService interface {
	Submit(ctx context.Context, rawURL string) (*domain.Record, error)
	Ask(ctx context.Context, videoID, question string) (string, error)
	Status(videoID string) domain.StatusReport
	Inspect(videoID string) (*domain.Record, error)
}

// Options configures the HTTP server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	DebugRoutes  bool
	CORSOrigins  []string
}

// Server is the HTTP adapter for the question-answering service.
type Server struct {
	svc      VideoService
	router   chi.Router
	server   *http.Server
	validate *validator.Validate
	log      *zap.Logger
}

// NewServer creates a new HTTP server.
func NewServer(svc VideoService, opts Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	s := &Server{
		svc:      svc,
		router:   chi.NewRouter(),
		validate: validator.New(),
		log:      log,
	}
	s.routes(opts)
	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  opts.IdleTimeout,
	}
	return s
}

func (s *Server) routes(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(corsOptions(opts.CORSOrigins)))

	s.router.Post("/process", s.handleProcess)
	s.router.Post("/ask", s.handleAsk)
	s.router.Get("/status/{video_id}", s.handleStatus)
	if opts.DebugRoutes {
		s.router.Get("/debug/{video_id}", s.handleDebug)
	}
	s.router.Get("/health", s.handleHealth)
}

// corsOptions allows credentialed requests. A "*" origin list echoes the
// request origin, as browsers refuse a wildcard alongside credentials.
func corsOptions(origins []string) cors.Options {
	o := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		o.AllowedOrigins = nil
		o.AllowOriginFunc = func(r *http.Request, origin string) bool { return true }
	}
	return o
}

// processRequest is the request body for POST /process.
type processRequest struct {
	VideoURL *string `json:"video_url" validate:"required"`
}

type processResponse struct {
	OK      bool          `json:"ok"`
	VideoID string        `json:"video_id"`
	Status  domain.Status `json:"status"`
}

// askRequest is the request body for POST /ask.
type askRequest struct {
	VideoID  *string `json:"video_id" validate:"required"`
	Question *string `json:"question" validate:"required"`
}

type askResponse struct {
	OK     bool   `json:"ok"`
	Answer string `json:"answer"`
}

type notFoundResponse struct {
	OK     bool          `json:"ok"`
	Status domain.Status `json:"status"`
}

type statusResponse struct {
	OK       bool          `json:"ok"`
	Status   domain.Status `json:"status"`
	State    domain.State  `json:"state,omitempty"`
	Error    *string       `json:"error"`
	HasError bool          `json:"has_error"`
}

// errorResponse is the JSON error response.
type errorResponse struct {
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if !s.decode(w, r, &req) {
		return
	}

	rec, err := s.svc.Submit(r.Context(), *req.VideoURL)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, processResponse{OK: true, VideoID: rec.VideoID, Status: domain.StatusProcessing})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !s.decode(w, r, &req) {
		return
	}

	answer, err := s.svc.Ask(r.Context(), *req.VideoID, *req.Question)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, askResponse{OK: true, Answer: answer})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	report := s.svc.Status(chi.URLParam(r, "video_id"))
	if !report.Found {
		s.writeJSON(w, http.StatusOK, notFoundResponse{OK: false, Status: domain.StatusNotFound})
		return
	}

	resp := statusResponse{OK: true, Status: report.Status, State: report.State}
	if report.Error != "" {
		msg := report.Error
		resp.Error = &msg
		resp.HasError = true
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Inspect(chi.URLParam(r, "video_id"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, "video not found")
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode parses and validates a JSON body, writing 422 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			s.writeError(w, http.StatusUnprocessableEntity, fieldName(verrs[0])+" is required")
			return false
		}
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

// fieldName maps a validation error back to its JSON field name.
func fieldName(fe validator.FieldError) string {
	switch fe.Field() {
	case "VideoURL":
		return "video_url"
	case "VideoID":
		return "video_id"
	case "Question":
		return "question"
	}
	return strings.ToLower(fe.Field())
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var answerErr *domain.AnswerError
	switch {
	case errors.Is(err, domain.ErrInvalidURL):
		s.writeError(w, http.StatusBadRequest, "Invalid YouTube URL")
	case errors.Is(err, domain.ErrVideoNotFound):
		s.writeError(w, http.StatusNotFound, "Video not processed")
	case errors.Is(err, domain.ErrNotReady):
		s.writeError(w, http.StatusConflict, "Still processing")
	case errors.Is(err, domain.ErrChainUnavailable):
		s.writeError(w, http.StatusInternalServerError, "RAG chain unavailable")
	case errors.As(err, &answerErr):
		s.writeError(w, http.StatusInternalServerError, answerErr.Error())
	case errors.Is(err, domain.ErrQueueFull):
		s.writeError(w, http.StatusServiceUnavailable, "Server busy, try again later")
	default:
		s.log.Error("unhandled service error", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("write response failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{OK: false, Detail: msg})
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// ServeHTTP implements http.Handler for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Port extracts the port from the address.
func (s *Server) Port() int {
	addr := s.server.Addr
	if idx := strings.LastIndex(addr, ":"); idx >= 0 {
		port, _ := strconv.Atoi(addr[idx+1:])
		return port
	}
	return 0
}
