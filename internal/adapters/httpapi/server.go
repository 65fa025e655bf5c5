package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mikey/phishing-url-filter/internal/core"
	"github.com/mikey/phishing-url-filter/internal/features"
	"github.com/mikey/phishing-url-filter/internal/urlcheck"
)

// Server exposes the classifier over HTTP: a minimal form UI on /, a JSON
// API under /api, and a health endpoint.
type Server struct {
	svc    *core.ClassifierService
	srv    *http.Server
	logger *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(svc *core.ClassifierService, listenAddr string, readTimeout, writeTimeout time.Duration, logger *zap.Logger) *Server {
	s := &Server{
		svc:    svc,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/", s.handleIndex)
	r.Get("/api/classify", s.handleClassify)
	r.Post("/api/classify", s.handleClassify)
	r.Get("/health", s.handleHealth)

	s.srv = &http.Server{
		Addr:         listenAddr,
		Handler:      r,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// Handler returns the server's HTTP handler
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// classifyRequest is the JSON API request body
type classifyRequest struct {
	URL         string `json:"url"`
	WithDomain  bool   `json:"with_domain"`
	PageContent string `json:"page_content"`
	TopK        int    `json:"top_k"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.URL = q.Get("url")
		req.WithDomain = q.Get("with_domain") == "true" || q.Get("with_domain") == "1"
	default:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	result, err := s.svc.Classify(r.Context(), core.Request{
		RawURL:      req.URL,
		WithDomain:  req.WithDomain,
		PageContent: req.PageContent,
		TopK:        req.TopK,
	})
	if err != nil {
		switch {
		case errors.Is(err, urlcheck.ErrInvalidInput):
			s.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, features.ErrSchemaMismatch):
			s.logger.Error("Schema mismatch during classification", zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, "internal error")
		default:
			s.logger.Error("Classification failed", zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
