// Package server runs the HTTP listener and coordinates graceful
// startup/shutdown of it alongside any background daemons (the job
// scheduler).
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/caasmo/fraudgate/config"
	"golang.org/x/sync/errgroup"
)

// Daemon defines the contract for background components managed by the
// server's lifecycle (Start/Stop).
type Daemon interface {
	Name() string
	Start() error
	Stop(ctx context.Context) error
}

// ReloadFunc reloads the configuration from whatever backing store it
// came from (TOML file plus secrets) and returns the new snapshot.
type ReloadFunc func() (*config.Config, error)

type Server struct {
	configProvider *config.Provider
	handler        http.Handler
	logger         *slog.Logger
	daemons        []Daemon
	reload         ReloadFunc
	exitFunc       func(code int)
}

// NewServer constructs a Server. reload may be nil, in which case SIGHUP
// is logged but has no effect.
func NewServer(provider *config.Provider, handler http.Handler, logger *slog.Logger, reload ReloadFunc) *Server {
	return &Server{
		configProvider: provider,
		handler:        handler,
		logger:         logger,
		daemons:        make([]Daemon, 0),
		reload:         reload,
		exitFunc:       os.Exit,
	}
}

// AddDaemon adds a daemon whose lifecycle will be managed by the server.
func (s *Server) AddDaemon(daemon Daemon) {
	if daemon == nil {
		s.logger.Warn("attempted to add a nil daemon")
		return
	}
	s.logger.Info("adding daemon", "daemon_name", daemon.Name())
	s.daemons = append(s.daemons, daemon)
}

func (s *Server) handleSIGHUP() {
	s.logger.Info("received SIGHUP, reloading configuration")
	if s.reload == nil {
		s.logger.Warn("no reload function configured, ignoring SIGHUP")
		return
	}
	newCfg, err := s.reload()
	if err != nil {
		s.logger.Error("configuration reload failed, keeping current config", "error", err)
		return
	}
	s.configProvider.Update(newCfg)
	s.logger.Info("configuration reloaded")
}

// Run starts the HTTP server and every registered daemon, then blocks
// until a termination signal or a fatal error arrives, at which point
// it shuts everything down gracefully.
func (s *Server) Run() {
	serverCfg := s.configProvider.Get().Server
	s.logServerConfig(&serverCfg)

	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           s.handler,
		ReadTimeout:       serverCfg.ReadTimeout.Duration,
		ReadHeaderTimeout: serverCfg.ReadHeaderTimeout.Duration,
		WriteTimeout:      serverCfg.WriteTimeout.Duration,
		IdleTimeout:       serverCfg.IdleTimeout.Duration,
	}

	serverError := make(chan error, 2)
	go func() {
		s.logger.Info("starting HTTP server", "addr", serverCfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", "err", err)
			serverError <- err
		}
	}()

	s.logger.Info("starting daemons")
	var startupFailed bool
	for _, daemon := range s.daemons {
		s.logger.Info("starting daemon", "daemon_name", daemon.Name())
		if err := daemon.Start(); err != nil {
			s.logger.Error("daemon failed to start, initiating shutdown", "daemon_name", daemon.Name(), "error", err)
			serverError <- fmt.Errorf("daemon %q failed to start: %w", daemon.Name(), err)
			startupFailed = true
			break
		}
	}
	if !startupFailed {
		s.logger.Info("all daemons started")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)

	running := true
	var failed bool
	for running {
		select {
		case sig := <-sigChan:
			switch sig {
			case syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				s.logger.Info("received termination signal, shutting down", "signal", sig)
				running = false
			case syscall.SIGHUP:
				s.handleSIGHUP()
			}
		case err := <-serverError:
			s.logger.Error("server error, initiating shutdown", "err", err)
			running = false
			failed = true
		}
	}

	signal.Stop(sigChan)
	close(sigChan)

	shutdownTimeout := s.configProvider.Get().Server.ShutdownGracefulTimeout.Duration
	if shutdownTimeout <= 0 {
		shutdownTimeout = config.DefaultShutdownTimeout
	}
	gracefulCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownGroup, _ := errgroup.WithContext(gracefulCtx)

	shutdownGroup.Go(func() error {
		s.logger.Info("shutting down HTTP server")
		if err := srv.Shutdown(gracefulCtx); err != nil {
			s.logger.Error("HTTP server shutdown error", "err", err)
			return err
		}
		return nil
	})

	for _, d := range s.daemons {
		daemon := d
		shutdownGroup.Go(func() error {
			s.logger.Info("stopping daemon", "daemon_name", daemon.Name())
			if err := daemon.Stop(gracefulCtx); err != nil {
				s.logger.Error("error stopping daemon", "daemon_name", daemon.Name(), "error", err)
				return fmt.Errorf("daemon %q failed to stop gracefully: %w", daemon.Name(), err)
			}
			return nil
		})
	}

	if err := shutdownGroup.Wait(); err != nil {
		s.logger.Error("error during shutdown", "err", err)
		failed = true
	}

	if failed {
		s.exitFunc(1)
		return
	}

	s.logger.Info("all systems stopped gracefully")
	s.exitFunc(0)
}

func (s *Server) logServerConfig(cfg *config.Server) {
	s.logger.Info("server", "address", cfg.Addr)
	s.logger.Info("server",
		"readTimeout", cfg.ReadTimeout.Duration,
		"readHeaderTimeout", cfg.ReadHeaderTimeout.Duration,
		"writeTimeout", cfg.WriteTimeout.Duration,
		"idleTimeout", cfg.IdleTimeout.Duration)
	s.logger.Info("server", "shutdownGracefulTimeout", cfg.ShutdownGracefulTimeout.Duration)
	if cfg.ClientIPProxyHeader != "" {
		s.logger.Info("server", "clientIPProxyHeader", cfg.ClientIPProxyHeader)
	}
	if len(cfg.AllowedOrigins) > 0 {
		s.logger.Info("server", "allowedOrigins", cfg.AllowedOrigins)
	}
}
