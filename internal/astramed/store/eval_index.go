package store

import (
	"context"

	"github.com/kart-io/astramed/internal/pkg/evaluator"
)

// EvalIndex adapts a VectorStore to the evaluator's k=1 lookup.
type EvalIndex struct {
	store VectorStore
}

var _ evaluator.Index = (*EvalIndex)(nil)

// NewEvalIndex 创建评估用索引适配器。
func NewEvalIndex(s VectorStore) *EvalIndex {
	return &EvalIndex{store: s}
}

// Nearest 返回最相近的一条记录，存储为空时返回 nil。
func (i *EvalIndex) Nearest(ctx context.Context, query string) (*evaluator.Neighbor, error) {
	hits, err := i.store.Search(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}
	d := hits[0].Document
	return &evaluator.Neighbor{
		Question:   d.Content,
		Answer:     d.Answer,
		Source:     d.Source,
		FocusArea:  d.Topic,
		Similarity: hits[0].Score,
	}, nil
}
