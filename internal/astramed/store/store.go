// Package store 提供 AstraMed 的向量存储与反馈存储适配器。
//
// 向量存储负责把查询文本嵌入并返回归一化到 [0,1] 的相似度，
// 反馈存储负责持久化用户评分。所有实现都在启动时构建一次，之后只读。
package store

import (
	"context"
	"errors"

	"github.com/kart-io/astramed/internal/model"
)

// ErrDimensionMismatch 查询向量与索引向量维度不一致。
var ErrDimensionMismatch = errors.New("store: embedding dimension mismatch")

// ScoredDocument 带相似度的检索结果，Score 已归一化到 [0,1]。
type ScoredDocument struct {
	Document model.Document
	Score    float64
}

// VectorStore 定义向量检索接口。
type VectorStore interface {
	// Search 返回与 query 最相近的至多 k 条记录，顺序为存储返回的顺序。
	Search(ctx context.Context, query string, k int) ([]ScoredDocument, error)
	// Name 返回存储名称。
	Name() string
	// Close 释放连接。
	Close() error
}

// Indexer 支持写入语料的向量存储，供 astramed-ingest 使用。
type Indexer interface {
	VectorStore
	// EnsureSchema 在集合或表不存在时创建。
	EnsureSchema(ctx context.Context) error
	// Insert 写入一批文档及其向量，两者长度必须一致。
	Insert(ctx context.Context, docs []model.Document, embeddings [][]float32) error
	// Count 返回已入库的记录数。
	Count(ctx context.Context) (int64, error)
}

// FeedbackSink 定义反馈持久化接口。
type FeedbackSink interface {
	Save(ctx context.Context, rec *model.FeedbackRecord) error
	Name() string
	Close() error
}

// Pinger is implemented by stores that can report backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

func checkBatch(docs []model.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return errors.New("store: documents and embeddings length differ")
	}
	return nil
}
