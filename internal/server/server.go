// Package server provides the HTTP REST API for the ingestion service.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/resume-ingest/internal/pipeline"
	"github.com/jonathan/resume-ingest/internal/types"
)

// Ingester drives one ingestion request to a terminal state.
type Ingester interface {
	Ingest(ctx context.Context, subjectID uuid.UUID, documentRef string) (*pipeline.Result, error)
}

// ProfileReader reads back stored resumes and reports store health.
type ProfileReader interface {
	GetResume(ctx context.Context, subjectID uuid.UUID) (*types.ExtractedResume, error)
	Ping(ctx context.Context) error
}

// DefaultWriteTimeout is used when the caller does not derive one from
// its retry policy. Generous enough for three 60s extraction attempts
// plus backoff.
const DefaultWriteTimeout = 5 * time.Minute

// Config holds server configuration. WriteTimeout must outlast a
// worst-case ingestion including all extraction retries; zero selects
// DefaultWriteTimeout.
type Config struct {
	Port         int
	WriteTimeout time.Duration
}

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	ingester   Ingester
	profiles   ProfileReader
	validate   *validator.Validate
}

// New creates a server over an ingester and a profile reader.
func New(cfg Config, ingester Ingester, profiles ProfileReader) *Server {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}

	s := &Server{
		ingester: ingester,
		profiles: profiles,
		validate: validator.New(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /ingest", s.handleIngest)
	mux.HandleFunc("GET /profiles/{id}/resume", s.handleGetResume)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.withLogging(s.withCORS(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the configured handler chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status, including a store ping.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.profiles.Ping(r.Context()); err != nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "detail": err.Error()})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}
