// Package storage defines the common contract for backend clients used by
// AstraMed (vector stores, feedback databases, caches) and a Manager that
// tracks them for health reporting and shutdown.
package storage

import (
	"context"
	"time"
)

// Client is implemented by every backend connection the service holds.
type Client interface {
	// Name returns a lowercase backend identifier such as "milvus" or "redis".
	Name() string

	// Ping performs a lightweight connectivity check.
	Ping(ctx context.Context) error

	// Close releases the connection. It must be safe to call more than once.
	Close() error
}

// HealthStatus is the result of pinging one client.
type HealthStatus struct {
	Name    string        `json:"name"`
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
	Error   error         `json:"-"`
}

// ErrorString returns the error text or "".
func (s HealthStatus) ErrorString() string {
	if s.Error == nil {
		return ""
	}
	return s.Error.Error()
}
