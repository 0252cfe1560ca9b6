package ingest

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kart-io/astramed/internal/astramed/store"
	"github.com/kart-io/astramed/internal/model"
	"github.com/kart-io/astramed/internal/pkg/dataset"
	"github.com/kart-io/astramed/pkg/llm"
)

type countingEmbedder struct {
	calls atomic.Int32
	err   error
	short bool
}

func (e *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	n := len(texts)
	if e.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

func (e *countingEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	v, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (e *countingEmbedder) Name() string { return "counting" }

var _ llm.EmbeddingProvider = (*countingEmbedder)(nil)

func records(n int) []dataset.Record {
	out := make([]dataset.Record, n)
	for i := range out {
		out[i] = dataset.Record{
			Question:  strings.Repeat("q", i+1),
			Answer:    "a",
			Source:    "MedQuAD",
			FocusArea: "Diabetes",
		}
	}
	return out
}

func TestRun_BatchesInOrder(t *testing.T) {
	emb := &countingEmbedder{}
	ms := store.NewMemoryStore(emb)

	res, err := New(emb, ms, Config{BatchSize: 3, Concurrency: 2}).Run(context.Background(), records(7))
	require.NoError(t, err)
	assert.Equal(t, 7, res.Inserted)
	assert.Equal(t, 3, res.Batches)
	assert.Equal(t, int32(3), emb.calls.Load())

	n, err := ms.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	var buf bytes.Buffer
	require.NoError(t, ms.Export(&buf))
	var corpus model.Corpus
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &corpus))
	require.Len(t, corpus.Documents, 7)
	for i, d := range corpus.Documents {
		assert.Equal(t, strings.Repeat("q", i+1), d.Content)
		assert.Equal(t, "Diabetes", d.Topic)
		assert.Equal(t, []float32{float32(i + 1), 1}, d.Embedding)
	}
}

func TestRun_SkipsIncompleteRecords(t *testing.T) {
	emb := &countingEmbedder{}
	recs := append(records(2), dataset.Record{Question: "no answer"}, dataset.Record{Answer: "no question"})

	res, err := New(emb, store.NewMemoryStore(emb), Config{}).Run(context.Background(), recs)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 1, res.Batches)
}

func TestRun_EmptyDataset(t *testing.T) {
	emb := &countingEmbedder{}
	res, err := New(emb, store.NewMemoryStore(emb), Config{}).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, res.Inserted)
	assert.Zero(t, emb.calls.Load())
}

func TestRun_EmbedErrors(t *testing.T) {
	boom := errors.New("boom")

	emb := &countingEmbedder{err: boom}
	ms := store.NewMemoryStore(emb)
	_, err := New(emb, ms, Config{BatchSize: 2}).Run(context.Background(), records(3))
	require.ErrorIs(t, err, boom)
	n, _ := ms.Count(context.Background())
	assert.Zero(t, n)

	emb = &countingEmbedder{short: true}
	_, err = New(emb, store.NewMemoryStore(emb), Config{}).Run(context.Background(), records(2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 1 embeddings for 2 texts")
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	emb := &countingEmbedder{}
	_, err := New(emb, store.NewMemoryStore(emb), Config{}).Run(ctx, records(2))
	require.ErrorIs(t, err, context.Canceled)
}

func TestSplit(t *testing.T) {
	docs := make([]model.Document, 5)
	b := split(docs, 2)
	require.Len(t, b, 3)
	assert.Len(t, b[0].docs, 2)
	assert.Len(t, b[2].docs, 1)
	assert.Empty(t, split(nil, 2))
}
