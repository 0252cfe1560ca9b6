package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	httpopts "github.com/kart-io/astramed/pkg/options/server/http"
	"github.com/kart-io/astramed/pkg/utils/errors"
	"github.com/kart-io/astramed/pkg/utils/response"
)

// HTTPServer is a gin based HTTP server.
type HTTPServer struct {
	opts   *httpopts.Options
	engine *gin.Engine
	server *http.Server
	errCh  chan error

	mu       sync.Mutex
	listener net.Listener
}

var (
	_ Runnable = (*HTTPServer)(nil)
	_ Failer   = (*HTTPServer)(nil)
)

// NewHTTPServer creates an HTTP server. Middlewares are installed in the
// given order, before any route is registered.
func NewHTTPServer(opts *httpopts.Options, middlewares ...gin.HandlerFunc) *HTTPServer {
	if opts == nil {
		opts = httpopts.NewOptions()
	}
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(middlewares...)
	engine.NoRoute(func(c *gin.Context) {
		response.Fail(c, errors.ErrRouteNotFound)
	})
	engine.NoMethod(func(c *gin.Context) {
		response.Fail(c, errors.ErrMethodNotAllowed)
	})

	return &HTTPServer{
		opts:   opts,
		engine: engine,
		server: &http.Server{
			Addr:         opts.Addr,
			Handler:      engine,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
			IdleTimeout:  opts.IdleTimeout,
		},
		errCh: make(chan error, 1),
	}
}

// Name returns the server name.
func (s *HTTPServer) Name() string {
	return "http"
}

// Engine returns the gin engine for route registration.
func (s *HTTPServer) Engine() *gin.Engine {
	return s.engine
}

// Start binds the listen address and serves in the background.
func (s *HTTPServer) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	logger.Infow("HTTP server listening", "addr", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	return nil
}

// Stop shuts the server down, waiting for in-flight requests until ctx ends.
func (s *HTTPServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Err reports a serving failure after Start.
func (s *HTTPServer) Err() <-chan error {
	return s.errCh
}

// Addr returns the bound address, or the configured one before Start.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.opts.Addr
}
