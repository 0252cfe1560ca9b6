// Package server runs the long-lived servers of a binary under one lifecycle.
package server

import "context"

// Runnable is a named server driven by Manager. Start returns once the
// server accepts work and serving continues in the background; Stop drains
// in-flight work until ctx expires.
type Runnable interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Failer is implemented by servers that can die after Start returned.
// Manager treats a value on Err as fatal and shuts everything down.
type Failer interface {
	Err() <-chan error
}
