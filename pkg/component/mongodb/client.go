// Package mongodb provides the MongoDB client used for feedback documents.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/astramed/pkg/component/storage"
	options "github.com/kart-io/astramed/pkg/options/mongodb"
)

// disconnectTimeout 关闭连接的等待上限
const disconnectTimeout = 10 * time.Second

// Client wraps mongo.Client and implements storage.Client.
type Client struct {
	client   *mongo.Client
	database *mongo.Database
	opts     *options.Options
}

var _ storage.Client = (*Client)(nil)

// ClientOptions converts opts into driver options.
func ClientOptions(opts *options.Options) *mongoopts.ClientOptions {
	co := mongoopts.Client().ApplyURI(opts.BuildURI())
	if opts.MaxPoolSize > 0 {
		co.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.MinPoolSize > 0 {
		co.SetMinPoolSize(opts.MinPoolSize)
	}
	if opts.ConnectTimeout > 0 {
		co.SetConnectTimeout(opts.ConnectTimeout)
	}
	if opts.ServerSelectionTimeout > 0 {
		co.SetServerSelectionTimeout(opts.ServerSelectionTimeout)
	}
	if opts.Direct {
		co.SetDirect(true)
	}
	return co
}

// NewWithContext validates opts, connects and pings the primary.
func NewWithContext(ctx context.Context, opts *options.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("mongodb options cannot be nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, storage.ErrInvalidConfig.WithCause(utilerrors.NewAggregate(errs))
	}

	client, err := mongo.Connect(ctx, ClientOptions(opts))
	if err != nil {
		return nil, storage.ErrConnectionFailed.WithMessage("failed to connect to mongodb").WithCause(err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, storage.ErrConnectionFailed.WithMessage("failed to ping mongodb").WithCause(err)
	}

	return &Client{
		client:   client,
		database: client.Database(opts.Database),
		opts:     opts,
	}, nil
}

// Name implements storage.Client.
func (c *Client) Name() string {
	return "mongodb"
}

// Ping implements storage.Client.
func (c *Client) Ping(ctx context.Context) error {
	if c.client == nil {
		return storage.ErrNotConnected
	}
	return c.client.Ping(ctx, nil)
}

// Close implements storage.Client.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	err := c.client.Disconnect(ctx)
	if err == mongo.ErrClientDisconnected {
		return nil
	}
	return err
}

// Database returns the configured database.
func (c *Client) Database() *mongo.Database {
	return c.database
}

// Collection returns a collection in the configured database.
func (c *Client) Collection(name string) *mongo.Collection {
	return c.database.Collection(name)
}
