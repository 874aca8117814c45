// Package server runs the side HTTP endpoints of a storygraph process
// (metrics and health) with graceful shutdown.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Go-Global/storygraph-v0/pkg/logging"
)

// DefaultShutdownTimeout bounds connection draining
const DefaultShutdownTimeout = 5 * time.Second

// GracefulServer wraps an HTTP server with graceful shutdown capabilities
type GracefulServer struct {
	server       *http.Server
	logger       logging.Logger
	shutdownCh   chan struct{}
	shutdownOnce sync.Once

	mu       sync.Mutex
	listener net.Listener
}

// NewGracefulServer creates a new graceful HTTP server
func NewGracefulServer(addr string, handler http.Handler, logger logging.Logger) *GracefulServer {
	return &GracefulServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		logger:     logging.OrNop(logger).With(logging.Component("http")),
		shutdownCh: make(chan struct{}),
	}
}

// Start listens on the configured address and serves until ctx is done or
// Shutdown is called
func (gs *GracefulServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return err
	}
	return gs.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done or Shutdown is called
func (gs *GracefulServer) Serve(ctx context.Context, ln net.Listener) error {
	gs.mu.Lock()
	gs.listener = ln
	gs.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		if err := gs.Shutdown(DefaultShutdownTimeout); err != nil {
			gs.logger.Warn("shutdown incomplete", logging.Error(err))
		}
	})
	defer stop()

	gs.logger.Info("serving", logging.String("addr", ln.Addr().String()))
	if err := gs.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr is the address being served, or "" before Serve
func (gs *GracefulServer) Addr() string {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if gs.listener == nil {
		return ""
	}
	return gs.listener.Addr().String()
}

// Shutdown stops accepting connections and waits up to timeout for open
// ones to finish. Only the first call has an effect.
func (gs *GracefulServer) Shutdown(timeout time.Duration) error {
	var err error
	gs.shutdownOnce.Do(func() {
		close(gs.shutdownCh)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err = gs.server.Shutdown(ctx); err != nil {
			gs.logger.Error("shutdown failed", logging.Error(err))
			return
		}
		gs.logger.Debug("shutdown complete")
	})
	return err
}

// IsShuttingDown returns true if shutdown has been initiated
func (gs *GracefulServer) IsShuttingDown() bool {
	select {
	case <-gs.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownChannel returns a channel that closes when shutdown is initiated
func (gs *GracefulServer) ShutdownChannel() <-chan struct{} {
	return gs.shutdownCh
}
