// Package mysql opens MySQL through gorm for the feedback table.
package mysql

import (
	"context"
	"fmt"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/astramed/pkg/component/sqldb"
	options "github.com/kart-io/astramed/pkg/options/mysql"
)

// BuildDSN formats opts as a go-sql-driver DSN with parseTime and utf8mb4.
func BuildDSN(opts *options.Options) string {
	cfg := mysqldriver.NewConfig()
	cfg.User = opts.Username
	cfg.Passwd = opts.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	cfg.DBName = opts.Database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// NewWithContext validates opts and opens a pooled connection.
func NewWithContext(ctx context.Context, opts *options.Options) (*sqldb.Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("mysql options cannot be nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, utilerrors.NewAggregate(errs)
	}

	return sqldb.Open(ctx, "mysql", gormmysql.Open(BuildDSN(opts)), sqldb.PoolConfig{
		MaxIdleConnections:    opts.MaxIdleConnections,
		MaxOpenConnections:    opts.MaxOpenConnections,
		MaxConnectionLifeTime: opts.MaxConnectionLifeTime,
		LogLevel:              opts.LogLevel,
	})
}
