// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package debugserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Server serves the debug handler on a TCP listener. Serve(ctx)
// blocks until the context is cancelled and active requests drain.
type Server struct {
	address string
	handler http.Handler
	logger  *slog.Logger

	// shutdownTimeout is the maximum time to wait for active
	// requests to complete after the context is cancelled.
	shutdownTimeout time.Duration

	// ready is closed after the listener is bound.
	ready chan struct{}

	// addr is the resolved listen address, valid after ready is
	// closed.
	addr net.Addr
}

// Config configures a Server.
type Config struct {
	// Address is the TCP listen address, e.g. "127.0.0.1:9000".
	// Required.
	Address string

	// Target receives the sync triggers. Required.
	Target Target

	// ShutdownTimeout is the maximum time to wait for in-flight
	// requests during graceful shutdown. Defaults to 10 seconds. A
	// sync in flight is an OS command, so this bounds how long the
	// daemon waits for, say, a slow nmcli on exit.
	ShutdownTimeout time.Duration

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// New creates a server. Call Serve to start accepting connections.
func New(config Config) *Server {
	if config.Address == "" {
		panic("debugserver: Address is required")
	}
	if config.Target == nil {
		panic("debugserver: Target is required")
	}
	if config.Logger == nil {
		panic("debugserver: Logger is required")
	}

	timeout := config.ShutdownTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Server{
		address:         config.Address,
		handler:         NewHandler(config.Target, config.Logger),
		logger:          config.Logger,
		shutdownTimeout: timeout,
		ready:           make(chan struct{}),
	}
}

// Ready returns a channel that is closed once the server is bound
// and accepting connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the resolved listen address. Only valid after Ready()
// is closed.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Serve accepts connections until ctx is cancelled, then stops
// accepting and waits up to ShutdownTimeout for active requests.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.address, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
		// Requests carry the server's lifetime context so that a
		// shutdown cancels in-flight OS commands.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	s.logger.Info("debug server listening", "address", s.addr.String())

	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("debug server shutting down")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("debug server shutdown error", "error", err)
		return fmt.Errorf("debug server shutdown: %w", err)
	}

	s.logger.Info("debug server stopped")
	return nil
}
