// Package sqldb wraps a gorm.DB as a storage.Client. The postgres, mysql and
// sqlite packages build on it with their own dialectors.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kart-io/astramed/pkg/component/storage"
)

// pingTimeout 单次 Ping 的超时上限
const pingTimeout = 5 * time.Second

// PoolConfig describes database/sql pool settings. Zero values leave the
// driver defaults in place.
type PoolConfig struct {
	MaxIdleConnections    int
	MaxOpenConnections    int
	MaxConnectionLifeTime time.Duration
	LogLevel              int
}

// Client wraps gorm.DB and implements storage.Client.
type Client struct {
	name string
	db   *gorm.DB
}

var _ storage.Client = (*Client)(nil)

// LogLevel maps 1-4 to gorm log levels. Unknown values are silent.
func LogLevel(level int) gormlogger.LogLevel {
	switch level {
	case 2:
		return gormlogger.Error
	case 3:
		return gormlogger.Warn
	case 4:
		return gormlogger.Info
	default:
		return gormlogger.Silent
	}
}

// Open opens dialector, applies pool settings and verifies the connection.
func Open(ctx context.Context, name string, dialector gorm.Dialector, cfg PoolConfig) (*Client, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(LogLevel(cfg.LogLevel)),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, storage.ErrConnectionFailed.WithMessagef("failed to connect to %s", name).WithCause(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxIdleConnections > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConnections)
	}
	if cfg.MaxOpenConnections > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConnections)
	}
	if cfg.MaxConnectionLifeTime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.MaxConnectionLifeTime)
	}

	client := &Client{name: name, db: db}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, storage.ErrConnectionFailed.WithMessagef("failed to ping %s", name).WithCause(err)
	}
	return client, nil
}

// DB returns the underlying gorm.DB.
func (c *Client) DB() *gorm.DB {
	return c.db
}

// Name implements storage.Client.
func (c *Client) Name() string {
	return c.name
}

// Ping implements storage.Client.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.sqlDB()
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("%s ping failed: %w", c.name, err)
	}
	return nil
}

// Close implements storage.Client.
func (c *Client) Close() error {
	sqlDB, err := c.sqlDB()
	if err != nil {
		return nil
	}
	return sqlDB.Close()
}

// Stats returns connection statistics.
func (c *Client) Stats() (sql.DBStats, error) {
	sqlDB, err := c.sqlDB()
	if err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}

func (c *Client) sqlDB() (*sql.DB, error) {
	if c.db == nil {
		return nil, storage.ErrNotConnected
	}
	return c.db.DB()
}
