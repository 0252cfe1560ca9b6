// Package milvus wraps the Milvus v2 SDK for the QA vector collection.
package milvus

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/astramed/pkg/component/storage"
	milvusopts "github.com/kart-io/astramed/pkg/options/milvus"
)

const (
	// FieldID 主键字段
	FieldID = "id"
	// FieldEmbedding 向量字段
	FieldEmbedding = "embedding"

	ivfNList  = 128
	ivfNProbe = "16"
)

// Client wraps the Milvus SDK client bound to one collection.
type Client struct {
	client *milvusclient.Client
	opts   *milvusopts.Options
}

var _ storage.Client = (*Client)(nil)

// NewWithContext connects to Milvus.
func NewWithContext(ctx context.Context, opts *milvusopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("milvus options is nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, storage.ErrInvalidConfig.WithCause(utilerrors.NewAggregate(errs))
	}

	dialCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	c, err := milvusclient.New(dialCtx, &milvusclient.ClientConfig{
		Address:  opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DBName:   opts.Database,
	})
	if err != nil {
		return nil, storage.ErrConnectionFailed.WithMessagef("failed to connect to milvus at %s", opts.Address).WithCause(err)
	}

	return &Client{client: c, opts: opts}, nil
}

// MetricType converts a metric name to the SDK constant. Unknown names map
// to COSINE.
func MetricType(name string) entity.MetricType {
	switch strings.ToUpper(name) {
	case "L2":
		return entity.L2
	case "IP":
		return entity.IP
	default:
		return entity.COSINE
	}
}

// Name implements storage.Client.
func (c *Client) Name() string {
	return "milvus"
}

// Ping implements storage.Client by checking the collection exists.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(c.opts.Collection))
	return err
}

// Close implements storage.Client.
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
	defer cancel()
	return c.client.Close(ctx)
}

// Collection returns the configured collection name.
func (c *Client) Collection() string {
	return c.opts.Collection
}

// Metric returns the configured metric name.
func (c *Client) Metric() string {
	return strings.ToUpper(c.opts.MetricType)
}

// MetaField defines a scalar field stored next to the embedding.
type MetaField struct {
	Name     string
	DataType entity.FieldType
	MaxLen   int // VARCHAR only
}

// EnsureCollection creates, indexes and loads the collection when missing.
func (c *Client) EnsureCollection(ctx context.Context, description string, fields []MetaField) error {
	name := c.opts.Collection
	exists, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return c.load(ctx)
	}

	schema := entity.NewSchema().
		WithName(name).
		WithDescription(description).
		WithAutoID(true)
	schema.WithField(entity.NewField().
		WithName(FieldID).
		WithDataType(entity.FieldTypeInt64).
		WithIsPrimaryKey(true).
		WithIsAutoID(true))
	schema.WithField(entity.NewField().
		WithName(FieldEmbedding).
		WithDataType(entity.FieldTypeFloatVector).
		WithDim(int64(c.opts.Dimension)))
	for _, f := range fields {
		field := entity.NewField().WithName(f.Name).WithDataType(f.DataType)
		if f.DataType == entity.FieldTypeVarChar && f.MaxLen > 0 {
			field.WithMaxLength(int64(f.MaxLen))
		}
		schema.WithField(field)
	}

	if err := c.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(name, schema)); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx := index.NewIvfFlatIndex(MetricType(c.opts.MetricType), ivfNList)
	task, err := c.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(name, FieldEmbedding, idx))
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := task.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for index creation: %w", err)
	}
	return c.load(ctx)
}

func (c *Client) load(ctx context.Context) error {
	task, err := c.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(c.opts.Collection))
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	if err := task.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for collection loading: %w", err)
	}
	return nil
}

// InsertData holds one batch of rows. Every VarChar column must have the
// same length as Embeddings.
type InsertData struct {
	Embeddings [][]float32
	VarChars   map[string][]string
}

// Insert writes a batch and flushes so rows are searchable immediately.
func (c *Client) Insert(ctx context.Context, data *InsertData) ([]int64, error) {
	if data == nil || len(data.Embeddings) == 0 {
		return nil, nil
	}
	n := len(data.Embeddings)

	columns := make([]column.Column, 0, len(data.VarChars)+1)
	columns = append(columns, column.NewColumnFloatVector(FieldEmbedding, len(data.Embeddings[0]), data.Embeddings))
	for name, values := range data.VarChars {
		if len(values) != n {
			return nil, fmt.Errorf("column %s has %d values, want %d", name, len(values), n)
		}
		columns = append(columns, column.NewColumnVarChar(name, values))
	}

	name := c.opts.Collection
	result, err := c.client.Insert(ctx, milvusclient.NewColumnBasedInsertOption(name, columns...))
	if err != nil {
		return nil, fmt.Errorf("failed to insert data: %w", err)
	}

	flushTask, err := c.client.Flush(ctx, milvusclient.NewFlushOption(name))
	if err != nil {
		return nil, fmt.Errorf("failed to flush collection: %w", err)
	}
	if err := flushTask.Await(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for flush: %w", err)
	}

	if ids, ok := result.IDs.(*column.ColumnInt64); ok {
		return ids.Data(), nil
	}
	return nil, nil
}

// SearchResult is one hit. Score is the raw metric value returned by Milvus.
type SearchResult struct {
	ID       int64
	Score    float32
	Metadata map[string]string
}

// Search returns up to topK nearest rows with the requested VarChar fields.
func (c *Client) Search(ctx context.Context, vector []float32, topK int, outputFields []string) ([]SearchResult, error) {
	results, err := c.client.Search(ctx, milvusclient.NewSearchOption(
		c.opts.Collection,
		topK,
		[]entity.Vector{entity.FloatVector(vector)},
	).WithANNSField(FieldEmbedding).
		WithSearchParam("nprobe", ivfNProbe).
		WithOutputFields(outputFields...))
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	if len(results) == 0 {
		return []SearchResult{}, nil
	}

	rs := results[0]
	out := make([]SearchResult, 0, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		hit := SearchResult{
			Score:    rs.Scores[i],
			Metadata: make(map[string]string, len(outputFields)),
		}
		if idCol, ok := rs.IDs.(*column.ColumnInt64); ok {
			hit.ID = idCol.Data()[i]
		}
		for _, field := range rs.Fields {
			if col, ok := field.(*column.ColumnVarChar); ok {
				hit.Metadata[col.Name()] = col.Data()[i]
			}
		}
		out = append(out, hit)
	}
	return out, nil
}

// Count returns the number of rows in the collection.
func (c *Client) Count(ctx context.Context) (int64, error) {
	stats, err := c.client.GetCollectionStats(ctx, milvusclient.NewGetCollectionStatsOption(c.opts.Collection))
	if err != nil {
		return 0, fmt.Errorf("failed to get collection stats: %w", err)
	}
	if val, ok := stats["row_count"]; ok {
		return strconv.ParseInt(val, 10, 64)
	}
	return 0, nil
}

// Drop removes the collection.
func (c *Client) Drop(ctx context.Context) error {
	if err := c.client.DropCollection(ctx, milvusclient.NewDropCollectionOption(c.opts.Collection)); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}
