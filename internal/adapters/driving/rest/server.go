package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/ports/driving"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/logger"
)

// DefaultReadHeaderTimeout bounds how long a client may take to send
// request headers.
const DefaultReadHeaderTimeout = 10 * time.Second

// Config holds HTTP server configuration.
type Config struct {
	// Addr is the listen address.
	Addr string

	// SecretToken is the shared admission credential.
	SecretToken string
}

// Server serves the REST API. Create with New, start with
// ListenAndServe and stop with Shutdown.
type Server struct {
	config       Config
	orchestrator driving.BuildOrchestrator
	httpServer   *http.Server
}

// New creates a server over the build orchestrator.
func New(config Config, orchestrator driving.BuildOrchestrator) *Server {
	s := &Server{
		config:       config,
		orchestrator: orchestrator,
	}

	router := mux.NewRouter()
	router.StrictSlash(true)
	router.Use(s.recoverPanics)
	router.HandleFunc("/build", s.handleBuild).Methods(http.MethodPost)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/evaluate", s.handleEvaluate).Methods(http.MethodPost)

	// The evaluator may call from anywhere, so cross-origin requests
	// are left open.
	handler := cors.New(cors.Options{
		AllowedMethods: []string{"DELETE", "GET", "POST", "PUT"},
		AllowedHeaders: []string{"*"},
	}).Handler(router)

	s.httpServer = &http.Server{
		Addr:              config.Addr,
		Handler:           handler,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
	}
	return s
}

// ListenAndServe blocks serving requests until the server is shut down
// or fails.
func (s *Server) ListenAndServe() error {
	logger.Info("HTTP server listening on %s", s.config.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for in-flight
// requests, bounded by the context.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the wired handler chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// recoverPanics converts handler panics into a 500 response instead of
// tearing down the connection.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				writeError(w, http.StatusInternalServerError, "Internal server error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
