package biz

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/astramed/internal/astramed/store"
	"github.com/kart-io/astramed/internal/model"
)

func answersOf(docs []model.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Answer
	}
	return out
}

func TestRetriever_Retrieve(t *testing.T) {
	tests := []struct {
		name      string
		hits      []store.ScoredDocument
		threshold float64
		want      []string
	}{
		{
			name:      "all above threshold",
			hits:      []store.ScoredDocument{hit("a", 0.81), hit("b", 0.77), hit("c", 0.52)},
			threshold: 0.5,
			want:      []string{"a", "b", "c"},
		},
		{
			name:      "unsorted input",
			hits:      []store.ScoredDocument{hit("c", 0.52), hit("a", 0.81), hit("b", 0.77)},
			threshold: 0.5,
			want:      []string{"a", "b", "c"},
		},
		{
			name:      "partially filtered",
			hits:      []store.ScoredDocument{hit("a", 0.81), hit("b", 0.77), hit("c", 0.52)},
			threshold: 0.8,
			want:      []string{"a"},
		},
		{
			name:      "threshold is inclusive",
			hits:      []store.ScoredDocument{hit("a", 0.5)},
			threshold: 0.5,
			want:      []string{"a"},
		},
		{
			name:      "all below threshold",
			hits:      []store.ScoredDocument{hit("a", 0.6), hit("b", 0.4)},
			threshold: 0.9,
			want:      []string{},
		},
		{
			name:      "no hits",
			threshold: 0.1,
			want:      []string{},
		},
		{
			name:      "truncate before filtering",
			hits:      []store.ScoredDocument{hit("a", 0.9), hit("b", 0.8), hit("c", 0.7), hit("d", 0.6)},
			threshold: 0,
			want:      []string{"a", "b", "c"},
		},
		{
			name:      "ties keep store order",
			hits:      []store.ScoredDocument{hit("x", 0.7), hit("y", 0.7), hit("z", 0.9)},
			threshold: 0,
			want:      []string{"z", "x", "y"},
		},
		{
			name:      "nan scores dropped",
			hits:      []store.ScoredDocument{hit("a", math.NaN()), hit("b", 0.6)},
			threshold: 0,
			want:      []string{"b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeStore{hits: tt.hits}
			r := NewRetriever(fs)

			got, err := r.Retrieve(context.Background(), "diabète", tt.threshold)
			require.NoError(t, err)
			assert.Equal(t, tt.want, answersOf(got))
			assert.Equal(t, TopK, fs.lastK)
			assert.Equal(t, 1, fs.calls)

			for i := 1; i < len(got); i++ {
				assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
			}
			for _, d := range got {
				assert.GreaterOrEqual(t, d.Score, tt.threshold)
			}
		})
	}
}

func TestRetriever_ScoreAndMetadataCarried(t *testing.T) {
	r := NewRetriever(&fakeStore{hits: []store.ScoredDocument{hit("a", 0.81234)}})

	got, err := r.Retrieve(context.Background(), "q", 0.5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0.81234, got[0].Score)
	assert.Equal(t, "src:a", got[0].Source)
	assert.Equal(t, "topic:a", got[0].Topic)
	assert.Equal(t, "q:a", got[0].Content)
}

func TestRetriever_Idempotent(t *testing.T) {
	r := NewRetriever(&fakeStore{hits: []store.ScoredDocument{hit("b", 0.7), hit("a", 0.8)}})

	first, err := r.Retrieve(context.Background(), "q", 0.5)
	require.NoError(t, err)
	second, err := r.Retrieve(context.Background(), "q", 0.5)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRetriever_StoreError(t *testing.T) {
	boom := errors.New("milvus down")
	r := NewRetriever(&fakeStore{err: boom})

	got, err := r.Retrieve(context.Background(), "q", 0.5)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "search fake")
}
