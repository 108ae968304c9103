// Package server runs an HTTP server until its context is cancelled.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultShutdownTimeout bounds graceful shutdown when Config.ShutdownTimeout
// is zero.
const DefaultShutdownTimeout = 10 * time.Second

// Config contains the values used for running an HTTP server.
type Config struct {
	// Addr is the address to listen on, e.g. ":8080".
	Addr string
	// Handler serves all requests.
	Handler http.Handler
	// ShutdownTimeout bounds how long in-flight requests may take to drain.
	ShutdownTimeout time.Duration
	// Logger receives lifecycle messages. Nil disables logging.
	Logger *zap.Logger
	// OnListen, if set, is called with the bound address once the listener
	// is open.
	OnListen func(addr net.Addr)
}

// Run serves HTTP traffic and blocks until ctx is cancelled, then shuts the
// server down gracefully. A clean shutdown returns nil.
func Run(ctx context.Context, config Config) error {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	listener, err := net.Listen("tcp", config.Addr)
	if err != nil {
		return err
	}
	if config.OnListen != nil {
		config.OnListen(listener.Addr())
	}

	server := &http.Server{
		Handler:           config.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("http server listening", zap.Stringer("addr", listener.Addr()))
		err := server.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-ctx.Done()
		logger.Info("http server shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return server.Shutdown(ctx)
	})

	return group.Wait()
}
