package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kart-io/astramed/internal/model"
	"github.com/kart-io/astramed/internal/pkg/textutil"
	"github.com/kart-io/astramed/pkg/llm"
)

type memoryEntry struct {
	doc       model.Document
	embedding []float32
}

// MemoryStore 进程内向量存储，暴力余弦检索。适用于开发、测试和小语料。
type MemoryStore struct {
	mu       sync.RWMutex
	embedder llm.EmbeddingProvider
	entries  []memoryEntry
}

var _ Indexer = (*MemoryStore)(nil)

// NewMemoryStore 创建空的内存存储。
func NewMemoryStore(embedder llm.EmbeddingProvider) *MemoryStore {
	return &MemoryStore{embedder: embedder}
}

// LoadCorpus 读取 YAML 种子文件，缺少向量的记录会批量嵌入。
func (s *MemoryStore) LoadCorpus(ctx context.Context, r io.Reader) error {
	var corpus model.Corpus
	if err := yaml.NewDecoder(r).Decode(&corpus); err != nil && err != io.EOF {
		return fmt.Errorf("decode corpus: %w", err)
	}

	docs := make([]model.Document, len(corpus.Documents))
	embeddings := make([][]float32, len(corpus.Documents))
	var missing []int
	for i, e := range corpus.Documents {
		docs[i] = e.Document
		embeddings[i] = e.Embedding
		if len(e.Embedding) == 0 {
			missing = append(missing, i)
		}
	}

	if len(missing) > 0 {
		texts := make([]string, len(missing))
		for j, i := range missing {
			texts[j] = docs[i].Content
		}
		vecs, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed corpus: %w", err)
		}
		if len(vecs) != len(texts) {
			return fmt.Errorf("embed corpus: got %d embeddings for %d texts", len(vecs), len(texts))
		}
		for j, i := range missing {
			embeddings[i] = vecs[j]
		}
	}

	return s.Insert(ctx, docs, embeddings)
}

// LoadCorpusFile 从文件加载种子语料。
func (s *MemoryStore) LoadCorpusFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.LoadCorpus(ctx, f)
}

// Name 返回存储名称。
func (s *MemoryStore) Name() string {
	return "memory"
}

// Close 无资源需要释放。
func (s *MemoryStore) Close() error {
	return nil
}

// EnsureSchema 内存存储无需建表。
func (s *MemoryStore) EnsureSchema(context.Context) error {
	return nil
}

// Insert 追加文档。
func (s *MemoryStore) Insert(_ context.Context, docs []model.Document, embeddings [][]float32) error {
	if err := checkBatch(docs, embeddings); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range docs {
		s.entries = append(s.entries, memoryEntry{doc: d, embedding: embeddings[i]})
	}
	return nil
}

// Count 返回文档数。
func (s *MemoryStore) Count(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.entries)), nil
}

// Search 计算查询与全部文档的余弦相似度，返回前 k 条。
// 相同分数保持插入顺序。
func (s *MemoryStore) Search(ctx context.Context, query string, k int) ([]ScoredDocument, error) {
	if k <= 0 {
		return []ScoredDocument{}, nil
	}
	vector, err := s.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	scored := make([]ScoredDocument, 0, len(s.entries))
	for _, e := range s.entries {
		if len(e.embedding) != len(vector) {
			continue
		}
		scored = append(scored, ScoredDocument{
			Document: e.doc,
			Score:    textutil.CosineRelevance(textutil.CosineSimilarity(vector, e.embedding)),
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Export 以种子文件格式写出全部文档及向量。
func (s *MemoryStore) Export(w io.Writer) error {
	s.mu.RLock()
	corpus := model.Corpus{Documents: make([]model.CorpusEntry, len(s.entries))}
	for i, e := range s.entries {
		corpus.Documents[i] = model.CorpusEntry{Document: e.doc, Embedding: e.embedding}
	}
	s.mu.RUnlock()

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&corpus); err != nil {
		return err
	}
	return enc.Close()
}
