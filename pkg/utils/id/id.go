// Package id provides unique ID generation for AstraMed.
//
//	reqID := id.NewUUID()  // request identifiers
//	fbID := id.NewULID()  // sortable record identifiers
package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewUUID generates a new UUID v4 string.
func NewUUID() string {
	return uuid.NewString()
}

// NewULID generates a new ULID string. IDs created in the same millisecond
// stay lexicographically ordered.
func NewULID() string {
	return NewULIDAt(time.Now())
}

// NewULIDAt generates a ULID for the given timestamp.
func NewULIDAt(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// IsULID reports whether s is a valid ULID.
func IsULID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}

// IsUUID reports whether s is a valid UUID.
func IsUUID(s string) bool {
	return uuid.Validate(s) == nil
}
