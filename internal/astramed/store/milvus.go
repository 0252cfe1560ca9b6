package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/kart-io/astramed/internal/model"
	"github.com/kart-io/astramed/internal/pkg/textutil"
	"github.com/kart-io/astramed/pkg/component/milvus"
	"github.com/kart-io/astramed/pkg/llm"
)

// Milvus 集合中的标量字段。
const (
	FieldQuestion  = "question"
	FieldAnswer    = "answer"
	FieldSource    = "source"
	FieldFocusArea = "focus_area"
)

var milvusOutputFields = []string{FieldQuestion, FieldAnswer, FieldSource, FieldFocusArea}

// milvusClient is the subset of *milvus.Client used by MilvusStore.
type milvusClient interface {
	EnsureCollection(ctx context.Context, description string, fields []milvus.MetaField) error
	Insert(ctx context.Context, data *milvus.InsertData) ([]int64, error)
	Search(ctx context.Context, vector []float32, topK int, outputFields []string) ([]milvus.SearchResult, error)
	Count(ctx context.Context) (int64, error)
	Metric() string
	Ping(ctx context.Context) error
	Close() error
}

// MilvusStore 基于 Milvus 的向量存储。
type MilvusStore struct {
	client   milvusClient
	embedder llm.EmbeddingProvider
}

var _ Indexer = (*MilvusStore)(nil)

// NewMilvusStore 创建 Milvus 存储实例。
func NewMilvusStore(client *milvus.Client, embedder llm.EmbeddingProvider) *MilvusStore {
	return &MilvusStore{client: client, embedder: embedder}
}

// Name 返回存储名称。
func (s *MilvusStore) Name() string {
	return "milvus"
}

// Ping 检查 Milvus 连接。
func (s *MilvusStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Close 关闭连接。
func (s *MilvusStore) Close() error {
	return s.client.Close()
}

// EnsureSchema 创建问答集合及其索引。
func (s *MilvusStore) EnsureSchema(ctx context.Context) error {
	return s.client.EnsureCollection(ctx, "AstraMed medical QA corpus", []milvus.MetaField{
		{Name: FieldQuestion, DataType: entity.FieldTypeVarChar, MaxLen: 4096},
		{Name: FieldAnswer, DataType: entity.FieldTypeVarChar, MaxLen: 65535},
		{Name: FieldSource, DataType: entity.FieldTypeVarChar, MaxLen: 512},
		{Name: FieldFocusArea, DataType: entity.FieldTypeVarChar, MaxLen: 255},
	})
}

// Insert 写入一批文档。
func (s *MilvusStore) Insert(ctx context.Context, docs []model.Document, embeddings [][]float32) error {
	if err := checkBatch(docs, embeddings); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	cols := map[string][]string{
		FieldQuestion:  make([]string, len(docs)),
		FieldAnswer:    make([]string, len(docs)),
		FieldSource:    make([]string, len(docs)),
		FieldFocusArea: make([]string, len(docs)),
	}
	for i, d := range docs {
		cols[FieldQuestion][i] = d.Content
		cols[FieldAnswer][i] = d.Answer
		cols[FieldSource][i] = d.Source
		cols[FieldFocusArea][i] = d.Topic
	}
	_, err := s.client.Insert(ctx, &milvus.InsertData{Embeddings: embeddings, VarChars: cols})
	return err
}

// Count 返回集合记录数。
func (s *MilvusStore) Count(ctx context.Context) (int64, error) {
	return s.client.Count(ctx)
}

// Search 嵌入查询并检索最近邻。
func (s *MilvusStore) Search(ctx context.Context, query string, k int) ([]ScoredDocument, error) {
	vector, err := s.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.client.Search(ctx, vector, k, milvusOutputFields)
	if err != nil {
		return nil, fmt.Errorf("milvus search: %w", err)
	}

	relevance := milvusRelevance(s.client.Metric())
	out := make([]ScoredDocument, 0, len(hits))
	for _, h := range hits {
		out = append(out, ScoredDocument{
			Document: model.Document{
				Content: h.Metadata[FieldQuestion],
				Answer:  h.Metadata[FieldAnswer],
				Source:  h.Metadata[FieldSource],
				Topic:   h.Metadata[FieldFocusArea],
			},
			Score: relevance(float64(h.Score)),
		})
	}
	return out, nil
}

// milvusRelevance 按度量类型把原始分数转换为 [0,1] 相关度。
// L2 返回的是平方距离。
func milvusRelevance(metric string) func(float64) float64 {
	switch strings.ToUpper(metric) {
	case "L2":
		return textutil.SquaredL2Relevance
	default:
		// COSINE 与 IP（归一化向量）
		return textutil.CosineRelevance
	}
}
