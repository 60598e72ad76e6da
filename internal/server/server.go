// Package server provides the local HTTP control API for the force feedback bridge.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/ffbridge/internal/hands"
	"github.com/ayusman/ffbridge/internal/server/api"
	"github.com/ayusman/ffbridge/internal/store"
)

// shutdownTimeout bounds graceful shutdown in Run.
const shutdownTimeout = 5 * time.Second

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Hands     *hands.Coordinator
	// Dispatcher serializes hand events onto the coordinator loop. When nil,
	// events are handled on the request goroutine.
	Dispatcher api.Dispatcher
	Logger     *zap.Logger
}

// Server represents the HTTP server for the bridge.
type Server struct {
	config  Config
	mux     *http.ServeMux
	start   time.Time
	reports *ReportsHandler
	logger  *zap.Logger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		logger: logger,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Hands != nil {
		handsHandler := api.NewHandsHandler(s.config.Hands, s.config.Dispatcher)
		s.mux.Handle("/api/hands", handsHandler)
		s.mux.Handle("/api/hands/", handsHandler)

		interactables := api.NewInteractablesHandler(s.config.Hands, s.config.Dispatcher, s.config.Store)
		s.mux.Handle("/api/interactables", interactables)
		s.mux.Handle("/api/interactables/", interactables)

		s.reports = NewReportsHandler(s.logger)
		s.config.Hands.OnReport(s.reports.Publish)
		s.mux.Handle("/api/reports", s.reports)
	}

	if s.config.Store != nil {
		poseHandler := api.NewPoseHandler(s.config.Store)
		samplesHandler := api.NewSamplesHandler(s.config.Store)

		// Route /api/poses/{id}/samples and /api/poses/{id}/train to the samples handler
		poseRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/samples") || strings.HasSuffix(r.URL.Path, "/train") {
				samplesHandler.ServeHTTP(w, r)
				return
			}
			poseHandler.ServeHTTP(w, r)
		})

		s.mux.Handle("/api/poses", poseRouter)
		s.mux.Handle("/api/poses/", poseRouter)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Reports returns the report stream handler, or nil without a coordinator.
func (s *Server) Reports() *ReportsHandler {
	return s.reports
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.reports != nil {
		response["report_clients"] = s.reports.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if s.reports != nil {
		s.reports.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
