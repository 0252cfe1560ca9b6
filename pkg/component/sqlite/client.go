// Package sqlite opens an embedded SQLite database through the pure-Go
// glebarez driver.
package sqlite

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/astramed/pkg/component/sqldb"
	options "github.com/kart-io/astramed/pkg/options/sqlite"
)

// New opens the SQLite database described by opts.
func New(ctx context.Context, opts *options.Options) (*sqldb.Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("sqlite options cannot be nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, utilerrors.NewAggregate(errs)
	}

	cfg := sqldb.PoolConfig{LogLevel: opts.LogLevel}
	// 内存数据库每个连接独立，限制为单连接保证数据可见
	if opts.Path == ":memory:" {
		cfg.MaxOpenConnections = 1
	}
	return sqldb.Open(ctx, "sqlite", sqlite.Open(opts.Path), cfg)
}
