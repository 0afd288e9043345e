package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/vk/ocrbridge/internal/ctxlog"
	"github.com/vk/ocrbridge/internal/observability"
	"github.com/vk/ocrbridge/internal/sioscheduler"
)

const (
	serviceName     = "ocrbridge"
	shutdownTimeout = 5 * time.Second
)

// Run starts tracing, connects to the scheduler and serves the HTTP API until
// ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	logger := a.logger

	shutdownTracing, err := observability.InitTracing(ctx, a.settings.Tracing, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("Tracer shutdown failed.", "error", err)
		}
	}()

	if err := a.connectScheduler(ctx); err != nil {
		return err
	}

	errCh, err := a.startServer(ctx)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutdown requested.")
	case err = <-errCh:
		logger.Error("HTTP server failed unexpectedly.", "error", err)
	}

	if cerr := a.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// connectScheduler dials the socket.io scheduler when one is configured and
// no scheduler was injected.
func (a *App) connectScheduler(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if a.schedulerInjected {
		return nil
	}
	if a.settings.Scheduler.URL == "" {
		logger.Warn("No scheduler configured; asynchronous jobs will be rejected.")
		return nil
	}
	client, err := sioscheduler.Dial(ctx, a.settings.Scheduler)
	if err != nil {
		return fmt.Errorf("failed to connect to scheduler: %w", err)
	}
	a.useScheduler(client)
	return nil
}

// startServer binds the listen address and serves the API in the background.
// The returned channel receives the error of a server that stopped on its own.
func (a *App) startServer(ctx context.Context) (<-chan error, error) {
	logger := ctxlog.FromContext(ctx)
	errCh := make(chan error, 1)
	if a.config.Listen == "" {
		logger.Warn("HTTP server not started: disabled")
		return errCh, nil
	}

	ln, err := net.Listen("tcp", a.config.Listen)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", a.config.Listen, err)
	}
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	a.mu.Lock()
	a.listener = ln
	a.httpServer = srv
	a.mu.Unlock()

	go func() {
		logger.Info("HTTP server starting", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh, nil
}

// Addr returns the bound address of the HTTP server, or "" when it is not
// running.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Close shuts the HTTP server down gracefully and releases the scheduler
// connection.
func (a *App) Close(ctx context.Context) error {
	logger := a.logger
	var errs []error

	a.mu.Lock()
	srv := a.httpServer
	a.httpServer, a.listener = nil, nil
	a.mu.Unlock()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down HTTP server...")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if closer, ok := a.scheduler.(interface{ Close() error }); ok && !a.schedulerInjected {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing scheduler: %w", err))
		}
	}

	logger.Debug("Application closed.")
	return errors.Join(errs...)
}
