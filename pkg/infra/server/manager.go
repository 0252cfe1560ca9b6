package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kart-io/logger"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// DefaultShutdownTimeout bounds graceful shutdown in Run.
const DefaultShutdownTimeout = 30 * time.Second

// Manager manages multiple servers with unified lifecycle. Servers start in
// registration order and stop in reverse order.
type Manager struct {
	mu              sync.Mutex
	servers         []Runnable
	started         int
	shutdownTimeout time.Duration
	onShutdown      []func(ctx context.Context) error
}

// NewManager creates a new server manager.
func NewManager(shutdownTimeout time.Duration) *Manager {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	return &Manager{shutdownTimeout: shutdownTimeout}
}

// Add adds a server to the manager.
func (m *Manager) Add(server Runnable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.servers = append(m.servers, server)
}

// OnShutdown registers a hook run after every server stopped, e.g. closing
// storage clients. Hooks run in reverse registration order.
func (m *Manager) OnShutdown(fn func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onShutdown = append(m.onShutdown, fn)
}

// Start starts all servers. If one fails, the ones already started are
// stopped before returning.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started > 0 {
		return fmt.Errorf("server manager already started")
	}
	for i, s := range m.servers {
		if err := s.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = m.servers[j].Stop(ctx)
			}
			return fmt.Errorf("failed to start server %s: %w", s.Name(), err)
		}
		m.started = i + 1
		logger.Infow("server started", "name", s.Name())
	}
	return nil
}

// Stop stops all started servers, then runs the shutdown hooks.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for i := m.started - 1; i >= 0; i-- {
		s := m.servers[i]
		if err := s.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop server %s: %w", s.Name(), err))
			continue
		}
		logger.Infow("server stopped", "name", s.Name())
	}
	m.started = 0

	for i := len(m.onShutdown) - 1; i >= 0; i-- {
		if err := m.onShutdown[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	m.onShutdown = nil
	return utilerrors.NewAggregate(errs)
}

// Run starts all servers and blocks until ctx is done, SIGINT/SIGTERM is
// received or a server fails, then shuts down gracefully.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		_ = m.Stop(context.Background())
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := m.wait(sigCtx)
	if runErr != nil {
		logger.Errorw("server failed, shutting down", "error", runErr.Error())
	} else {
		logger.Info("Server shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), m.shutdownTimeout)
	defer cancel()

	if err := m.Stop(shutdownCtx); err != nil {
		return utilerrors.NewAggregate([]error{runErr, err})
	}
	return runErr
}

// wait blocks until ctx is done or the first server failure.
func (m *Manager) wait(ctx context.Context) error {
	m.mu.Lock()
	errCh := make(chan error, len(m.servers))
	for _, s := range m.servers {
		f, ok := s.(Failer)
		if !ok {
			continue
		}
		go func() {
			select {
			case err := <-f.Err():
				errCh <- err
			case <-ctx.Done():
			}
		}()
	}
	m.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}
