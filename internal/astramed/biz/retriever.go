package biz

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kart-io/logger"

	"github.com/kart-io/astramed/internal/astramed/store"
	"github.com/kart-io/astramed/internal/model"
)

// TopK 每次检索请求的最近邻数量，也是候选集上限。
const TopK = 3

// Retriever 负责相似度检索。
type Retriever struct {
	store store.VectorStore
}

// NewRetriever 创建检索器实例。
func NewRetriever(vs store.VectorStore) *Retriever {
	return &Retriever{store: vs}
}

// Retrieve 返回按分数降序排列、分数不低于 threshold 的至多 TopK 条文档。
// 没有近邻或全部低于阈值时返回空切片和 nil。
func (r *Retriever) Retrieve(ctx context.Context, query string, threshold float64) ([]model.Document, error) {
	hits, err := r.store.Search(ctx, query, TopK)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", r.store.Name(), err)
	}

	docs := make([]model.Document, 0, len(hits))
	for _, h := range hits {
		if math.IsNaN(h.Score) {
			continue
		}
		d := h.Document
		d.Score = h.Score
		docs = append(docs, d)
	}

	// 1. 稳定排序，同分保持存储返回的顺序
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Score > docs[j].Score
	})

	// 2. 先截断
	if len(docs) > TopK {
		docs = docs[:TopK]
	}

	// 3. 再按阈值过滤
	kept := docs[:0]
	for _, d := range docs {
		if d.Score < threshold {
			continue
		}
		kept = append(kept, d)
	}

	logger.Debugw("retrieval finished",
		"store", r.store.Name(),
		"hits", len(hits),
		"kept", len(kept),
		"threshold", threshold,
	)
	return kept, nil
}
