package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kart-io/astramed/pkg/infra/pool"
)

// Manager tracks named storage clients. It is safe for concurrent use.
//
//	mgr := storage.NewManager(healthPool)
//	mgr.MustRegister("milvus", milvusClient)
//	statuses := mgr.HealthCheckAll(ctx)
//	defer mgr.CloseAll()
type Manager struct {
	mu      sync.RWMutex
	clients map[string]Client
	order   []string

	// healthPool 并行健康检查使用的协程池，可为 nil
	healthPool *pool.Pool
}

// NewManager creates a manager. healthPool may be nil, in which case health
// checks spawn plain goroutines.
func NewManager(healthPool *pool.Pool) *Manager {
	return &Manager{
		clients:    make(map[string]Client),
		healthPool: healthPool,
	}
}

// Register adds a client under a unique name.
func (m *Manager) Register(name string, client Client) error {
	if name == "" {
		return ErrInvalidConfig.WithMessage("client name cannot be empty")
	}
	if client == nil {
		return ErrInvalidConfig.WithMessage("client cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.clients[name]; exists {
		return ErrClientAlreadyExists.WithMessagef("client '%s' is already registered", name)
	}
	m.clients[name] = client
	m.order = append(m.order, name)
	return nil
}

// MustRegister registers a client and panics on failure.
func (m *Manager) MustRegister(name string, client Client) {
	if err := m.Register(name, client); err != nil {
		panic(fmt.Sprintf("failed to register storage client: %v", err))
	}
}

// Get returns the client registered under name.
func (m *Manager) Get(name string) (Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	client, exists := m.clients[name]
	if !exists {
		return nil, ErrClientNotFound.WithMessagef("client '%s' not found", name)
	}
	return client, nil
}

// List returns registered names sorted alphabetically.
func (m *Manager) List() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.clients))
	for name := range m.clients {
		names = append(names, name)
	}
	m.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Count returns the number of registered clients.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// HealthCheck pings a single client.
func (m *Manager) HealthCheck(ctx context.Context, name string) HealthStatus {
	client, err := m.Get(name)
	if err != nil {
		return HealthStatus{Name: name, Error: err}
	}
	return ping(ctx, name, client)
}

// HealthCheckAll pings every client concurrently.
// 优先使用健康检查池，提交失败时降级为直接创建 goroutine
func (m *Manager) HealthCheckAll(ctx context.Context) map[string]HealthStatus {
	m.mu.RLock()
	clients := make(map[string]Client, len(m.clients))
	for name, client := range m.clients {
		clients[name] = client
	}
	m.mu.RUnlock()

	statuses := make(map[string]HealthStatus, len(clients))
	var statusMu sync.Mutex
	var wg sync.WaitGroup

	for name, client := range clients {
		wg.Add(1)
		n, c := name, client
		task := func() {
			defer wg.Done()
			st := ping(ctx, n, c)
			statusMu.Lock()
			statuses[n] = st
			statusMu.Unlock()
		}

		if m.healthPool != nil {
			if err := m.healthPool.Submit(task); err == nil {
				continue
			}
		}
		go task()
	}

	wg.Wait()
	return statuses
}

// AllHealthy reports whether every registered client answers Ping.
func (m *Manager) AllHealthy(ctx context.Context) bool {
	for _, st := range m.HealthCheckAll(ctx) {
		if !st.Healthy {
			return false
		}
	}
	return true
}

// CloseAll closes clients in reverse registration order and returns the
// first error encountered.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for i := len(m.order) - 1; i >= 0; i-- {
		name := m.order[i]
		client, ok := m.clients[name]
		if !ok {
			continue
		}
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close client '%s': %w", name, err)
		}
		delete(m.clients, name)
	}
	m.order = nil
	return firstErr
}

func ping(ctx context.Context, name string, c Client) HealthStatus {
	start := time.Now()
	err := c.Ping(ctx)
	return HealthStatus{
		Name:    name,
		Healthy: err == nil,
		Latency: time.Since(start),
		Error:   err,
	}
}
