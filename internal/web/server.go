package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/cnpj-cowork/internal/logger"
	"github.com/cnpj-cowork/internal/metrics"
	"github.com/cnpj-cowork/internal/web/handlers"
	"github.com/cnpj-cowork/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     *Config
	searcher   *handlers.Searcher
	httpServer *http.Server
	router     *mux.Router
}

// NewServer creates a new web server instance
func NewServer(config *Config, searcher *handlers.Searcher) (*Server, error) {
	if searcher == nil || searcher.Service == nil || searcher.Cache == nil {
		return nil, errors.New("web server needs a search service and a cache")
	}

	server := &Server{
		config:   config,
		searcher: searcher,
	}

	server.setupRoutes()

	// searches over large datasets can take a while
	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      server.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return server, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	handlerConfig := &handlers.Config{}
	handlerConfig.Features.ExportEnabled = s.config.Features.ExportEnabled

	apiHandler := &handlers.APIHandler{Searcher: s.searcher, Config: handlerConfig}
	searchHandler := &handlers.SearchHandler{Searcher: s.searcher, Config: handlerConfig}
	exportHandler := &handlers.ExportHandler{Searcher: s.searcher, Config: handlerConfig}
	uiHandler := &handlers.UIHandler{Searcher: s.searcher, Config: handlerConfig}

	var limiter *rate.Limiter
	if s.config.RateLimit.PerSecond > 0 {
		burst := s.config.RateLimit.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(s.config.RateLimit.PerSecond), burst)
	}
	limited := middleware.RateLimit(limiter)

	s.router.HandleFunc("/healthz", apiHandler.Health).Methods("GET")
	s.router.Handle("/metrics", metrics.Handler()).Methods("GET")

	// API routes
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/stats", apiHandler.GetStats).Methods("GET")
	api.HandleFunc("/neighborhoods", apiHandler.ListNeighborhoods).Methods("GET")
	api.Handle("/search", limited(http.HandlerFunc(searchHandler.Search))).Methods("GET")
	if s.config.Features.ExportEnabled {
		api.Handle("/export", limited(http.HandlerFunc(exportHandler.ExportData))).Methods("GET")
	}
	api.Use(middleware.Authentication(s.config.Auth.APIKey))

	s.router.Handle("/", limited(http.HandlerFunc(uiHandler.Index))).Methods("GET")

	// Apply middleware
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.CORS())
	s.router.Use(logger.AccessMiddleware(logger.L()))
}

// Start serves until SIGINT/SIGTERM or ctx cancellation, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("server_starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.L().Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.L().Info("server_stopped")
	return nil
}
