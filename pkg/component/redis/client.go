// Package redis provides the Redis client used for feedback lists and the
// embedding cache.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/astramed/pkg/component/storage"
	options "github.com/kart-io/astramed/pkg/options/redis"
)

// Client wraps a go-redis client and implements storage.Client.
//
//	client, err := redis.NewWithContext(ctx, opts)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	rdb := client.Client()
type Client struct {
	client *goredis.Client
	opts   *options.Options
}

var _ storage.Client = (*Client)(nil)

// NewWithContext validates opts, connects, and pings the server.
func NewWithContext(ctx context.Context, opts *options.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("redis options cannot be nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, storage.ErrInvalidConfig.WithCause(utilerrors.NewAggregate(errs))
	}

	rdb := goredis.NewClient(buildRedisOptions(opts))
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, storage.ErrConnectionFailed.WithMessagef("failed to ping redis at %s", opts.Addr()).WithCause(err)
	}

	return &Client{client: rdb, opts: opts}, nil
}

// NewFromClient wraps an existing go-redis client. It does not ping.
func NewFromClient(rdb *goredis.Client) *Client {
	return &Client{client: rdb}
}

func buildRedisOptions(opts *options.Options) *goredis.Options {
	return &goredis.Options{
		Addr:         opts.Addr(),
		Password:     opts.Password,
		DB:           opts.Database,
		MaxRetries:   opts.MaxRetries,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolTimeout:  opts.PoolTimeout,
	}
}

// Name implements storage.Client.
func (c *Client) Name() string {
	return "redis"
}

// Ping implements storage.Client.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close implements storage.Client.
func (c *Client) Close() error {
	err := c.client.Close()
	if errors.Is(err, goredis.ErrClosed) {
		return nil
	}
	return err
}

// Client returns the underlying go-redis client.
func (c *Client) Client() *goredis.Client {
	return c.client
}

// PoolStats returns connection pool statistics.
func (c *Client) PoolStats() *goredis.PoolStats {
	return c.client.PoolStats()
}
