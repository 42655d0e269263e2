package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mockmate/internal/observability"
	"mockmate/internal/prompt"
)

// Start starts the HTTP server with all configured components
func (s *Server) Start() error {
	om, err := s.initializeObservability()
	if err != nil {
		return err
	}
	defer s.shutdownObservability(om)

	s.Orchestrator.SetMetrics(om)
	s.installGenerationTracker(om)

	if err := s.startCatalogWatcher(); err != nil {
		return err
	}

	httpServer, err := s.setupHTTPServer(om)
	if err != nil {
		return err
	}

	if err := s.configureTLS(httpServer); err != nil {
		return err
	}

	s.displayServerInfo()

	return s.startWithGracefulShutdown(httpServer)
}

// initializeObservability sets up observability components
func (s *Server) initializeObservability() (*observability.Manager, error) {
	obsConfig := s.AppConfig.Observability
	if obsConfig.ServiceVersion == "" {
		obsConfig.ServiceVersion = s.Version
	}

	om, err := observability.NewManager(obsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	return om, nil
}

// shutdownObservability handles observability cleanup
func (s *Server) shutdownObservability(om *observability.Manager) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}

// startCatalogWatcher starts hot reload of the focus catalog when configured
func (s *Server) startCatalogWatcher() error {
	promptsCfg := s.AppConfig.Prompts
	if promptsCfg.FocusCatalogFile == "" || !promptsCfg.WatchCatalog {
		return nil
	}

	watcher := prompt.NewCatalogWatcher(
		promptsCfg.FocusCatalogFile,
		s.Orchestrator.Catalog(),
		promptsCfg.DebounceDelay,
		s.Logger,
	)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start focus catalog watcher: %w", err)
	}
	s.CatalogWatcher = watcher

	s.Logger.Info("Focus catalog watcher started",
		"file", promptsCfg.FocusCatalogFile,
		"debounce_delay", promptsCfg.DebounceDelay)
	return nil
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer(om *observability.Manager) (*http.Server, error) {
	mux := s.setupRoutes(om)
	handler := om.HTTPMiddleware()(mux)
	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}, nil
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(server *http.Server) error {
	// Channel to receive OS signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Channel to receive server errors
	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server",
			"address", server.Addr,
			"tls_enabled", server.TLSConfig != nil)

		var err error
		if server.TLSConfig != nil {
			err = server.ListenAndServeTLS(s.TLSConfig.CertFile, s.TLSConfig.KeyFile)
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())

		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.stopCatalogWatcher()
	s.cleanupRateLimiter()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	if err := s.Gateway.Close(); err != nil {
		s.Logger.LogError(err, "Failed to close generation gateway")
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// stopCatalogWatcher stops the focus catalog watcher if it's running
func (s *Server) stopCatalogWatcher() {
	if s.CatalogWatcher != nil {
		if err := s.CatalogWatcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop focus catalog watcher")
		}
	}
}

// cleanupRateLimiter cleans up the rate limiter resources
func (s *Server) cleanupRateLimiter() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}
}
