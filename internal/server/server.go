// Package server binds the HTTP port and handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shashiranjanraj/bazaar/pkg/logger"
)

// ShutdownTimeout bounds how long in-flight requests may take to finish.
const ShutdownTimeout = 15 * time.Second

// New returns an http.Server for handler with sane timeouts.
func New(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort("", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Start serves handler on port until SIGINT/SIGTERM or ctx is done, then
// drains connections.
func Start(ctx context.Context, port string, handler http.Handler) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", net.JoinHostPort("", port))
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", port, err)
	}
	return Serve(ctx, ln, handler)
}

// Serve runs the server on ln until ctx is done.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler) error {
	srv := New("", handler)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
