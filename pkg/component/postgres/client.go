// Package postgres opens PostgreSQL through gorm. The same connection backs
// the pgvector store and the feedback table.
package postgres

import (
	"context"
	"fmt"

	postgresdriver "gorm.io/driver/postgres"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/astramed/pkg/component/sqldb"
	options "github.com/kart-io/astramed/pkg/options/postgres"
)

// NewWithContext validates opts and opens a pooled connection.
func NewWithContext(ctx context.Context, opts *options.Options) (*sqldb.Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("postgres options cannot be nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, utilerrors.NewAggregate(errs)
	}

	return sqldb.Open(ctx, "postgres", postgresdriver.Open(BuildDSN(opts)), sqldb.PoolConfig{
		MaxIdleConnections:    opts.MaxIdleConnections,
		MaxOpenConnections:    opts.MaxOpenConnections,
		MaxConnectionLifeTime: opts.MaxConnectionLifeTime,
		LogLevel:              opts.LogLevel,
	})
}
