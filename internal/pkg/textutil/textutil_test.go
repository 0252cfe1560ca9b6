package textutil_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kart-io/astramed/internal/pkg/textutil"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{"相同向量", []float32{1, 0, 0}, []float32{1, 0, 0}, 1},
		{"正交向量", []float32{1, 0, 0}, []float32{0, 1, 0}, 0},
		{"相反向量", []float32{1, 0, 0}, []float32{-1, 0, 0}, -1},
		{"空向量", []float32{}, []float32{}, 0},
		{"长度不匹配", []float32{1, 2}, []float32{1}, 0},
		{"零向量", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, textutil.CosineSimilarity(tt.a, tt.b), 1e-4)
		})
	}
}

func TestNormalizedEuclideanSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{"相同向量", []float32{3, 4}, []float32{3, 4}, 1},
		{"相反向量", []float32{1, 0}, []float32{-1, 0}, 0},
		// ‖a-b‖ = sqrt(2), ‖a‖+‖b‖ = 2
		{"正交单位向量", []float32{1, 0}, []float32{0, 1}, 1 - math.Sqrt2/2},
		{"两个零向量", []float32{0, 0}, []float32{0, 0}, 1},
		{"长度不匹配", []float32{1}, []float32{1, 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := textutil.NormalizedEuclideanSimilarity(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1e-6)
			assert.GreaterOrEqual(t, got, 0.0)
		})
	}
}

func TestRelevanceConversions(t *testing.T) {
	assert.Equal(t, 0.0, textutil.CosineRelevance(-0.3))
	assert.InDelta(t, 0.81, textutil.CosineRelevance(0.81), 1e-9)
	assert.Equal(t, 1.0, textutil.CosineRelevance(1.0000001))

	assert.Equal(t, 1.0, textutil.SquaredL2Relevance(0))
	assert.InDelta(t, 0.0, textutil.SquaredL2Relevance(2), 1e-9)
	assert.InDelta(t, 1-1/math.Sqrt2, textutil.SquaredL2Relevance(1), 1e-9)
	assert.Equal(t, 0.0, textutil.SquaredL2Relevance(4))
	assert.Equal(t, 1.0, textutil.SquaredL2Relevance(-0.0001))

	assert.InDelta(t, 0.8, textutil.CosineDistanceRelevance(0.2), 1e-9)
	assert.Equal(t, 0.0, textutil.CosineDistanceRelevance(1.5))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, textutil.Clamp01(math.NaN()))
	assert.Equal(t, 0.0, textutil.Clamp01(-1))
	assert.Equal(t, 0.5, textutil.Clamp01(0.5))
	assert.Equal(t, 1.0, textutil.Clamp01(7))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.8123, textutil.Round(0.81234, 4))
	assert.Equal(t, 0.8124, textutil.Round(0.81236, 4))
	assert.Equal(t, 1.0, textutil.Round(0.99999, 4))
}

func TestFold(t *testing.T) {
	tests := map[string]string{
		"Diabète":        "diabete",
		"FIÈVRE élevée":  "fievre elevee",
		"symptoms":       "symptoms",
		"Hôpital, Noël!": "hopital, noel!",
	}
	for in, want := range tests {
		assert.Equal(t, want, textutil.Fold(in), in)
	}
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "héll", textutil.TruncateString("héllo", 4))
	assert.Equal(t, "abc", textutil.TruncateString("abc", 10))
	assert.Equal(t, "", textutil.TruncateString("abc", -1))
}
