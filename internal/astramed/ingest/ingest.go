// Package ingest embeds a MedQuAD style dataset and writes it to a vector
// store.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/astramed/internal/astramed/store"
	"github.com/kart-io/astramed/internal/model"
	"github.com/kart-io/astramed/internal/pkg/dataset"
	"github.com/kart-io/astramed/pkg/infra/pool"
	"github.com/kart-io/astramed/pkg/llm"
)

// Config 导入参数。
type Config struct {
	// BatchSize 每次嵌入调用的问题数。
	BatchSize int
	// Concurrency 并发嵌入的批次数。
	Concurrency int
}

// Result 导入统计。
type Result struct {
	Inserted int
	Skipped  int
	Batches  int
	Duration time.Duration
}

// Ingester 批量嵌入问题并写入索引。
type Ingester struct {
	embedder llm.EmbeddingProvider
	indexer  store.Indexer
	cfg      Config
}

// New creates an Ingester.
func New(embedder llm.EmbeddingProvider, indexer store.Indexer, cfg Config) *Ingester {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Ingester{embedder: embedder, indexer: indexer, cfg: cfg}
}

type batch struct {
	docs       []model.Document
	embeddings [][]float32
	err        error
}

// Run embeds the records in batches through a worker pool and inserts them
// in dataset order. Records without question or answer are skipped.
func (in *Ingester) Run(ctx context.Context, records []dataset.Record) (*Result, error) {
	start := time.Now()
	if err := in.indexer.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	docs := make([]model.Document, 0, len(records))
	for _, r := range records {
		if r.Question == "" || r.Answer == "" {
			continue
		}
		docs = append(docs, model.Document{
			Content: r.Question,
			Answer:  r.Answer,
			Source:  r.Source,
			Topic:   r.FocusArea,
		})
	}
	res := &Result{Skipped: len(records) - len(docs)}

	batches := split(docs, in.cfg.BatchSize)
	if err := in.embedAll(ctx, batches); err != nil {
		return nil, err
	}

	for i, b := range batches {
		if b.err != nil {
			return res, fmt.Errorf("embed batch %d: %w", i, b.err)
		}
		if err := in.indexer.Insert(ctx, b.docs, b.embeddings); err != nil {
			return res, fmt.Errorf("insert batch %d: %w", i, err)
		}
		res.Inserted += len(b.docs)
		res.Batches++
		logger.Debugw("batch inserted", "batch", i, "size", len(b.docs))
	}

	res.Duration = time.Since(start)
	logger.Infow("ingestion finished",
		"inserted", res.Inserted,
		"skipped", res.Skipped,
		"batches", res.Batches,
		"store", in.indexer.Name(),
	)
	return res, nil
}

func (in *Ingester) embedAll(ctx context.Context, batches []*batch) error {
	p, err := pool.NewPool("ingest", pool.IngestPool, pool.WorkerPoolConfig(in.cfg.Concurrency))
	if err != nil {
		return err
	}
	defer p.Release()

	var wg sync.WaitGroup
	for _, b := range batches {
		wg.Add(1)
		err := p.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				b.err = err
				return
			}
			b.embeddings, b.err = in.embed(ctx, b.docs)
		})
		if err != nil {
			wg.Done()
			b.err = fmt.Errorf("submit: %w", err)
		}
	}
	wg.Wait()
	return ctx.Err()
}

func (in *Ingester) embed(ctx context.Context, docs []model.Document) ([][]float32, error) {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vecs, err := in.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(vecs), len(texts))
	}
	for i, v := range vecs {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty embedding for %q", llm.ErrEmptyResponse, texts[i])
		}
	}
	return vecs, nil
}

func split(docs []model.Document, size int) []*batch {
	var out []*batch
	for start := 0; start < len(docs); start += size {
		end := min(start+size, len(docs))
		out = append(out, &batch{docs: docs[start:end]})
	}
	return out
}
