package biz

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/kart-io/astramed/internal/pkg/textutil"
	"github.com/kart-io/astramed/pkg/llm"
)

// DefaultRouterMargin 医疗示例相似度需要领先通用示例的最小差值。
const DefaultRouterMargin = 0.05

// 默认示例问题。
var (
	DefaultMedicalExemplars = []string{
		"Quels sont les symptômes du diabète ?",
		"Comment traiter une migraine ?",
		"What are the side effects of this medication?",
		"What causes high blood pressure?",
		"ما هي أعراض الربو؟",
	}
	DefaultGeneralExemplars = []string{
		"Bonjour, comment ça va ?",
		"Merci beaucoup pour ton aide.",
		"Hello, who are you?",
		"What can you do?",
		"مرحبا، كيف حالك؟",
	}
)

// EmbeddingStrategyConfig 向量路由配置。
type EmbeddingStrategyConfig struct {
	Medical  []string
	General  []string
	Margin   float64
	Fallback Strategy
}

// EmbeddingStrategy 比较问题与两组示例的最大余弦相似度。
// 示例向量在构造时计算，之后只读。
type EmbeddingStrategy struct {
	embedder llm.EmbeddingProvider
	medical  [][]float32
	general  [][]float32
	margin   float64
	fallback Strategy
}

var _ Strategy = (*EmbeddingStrategy)(nil)

// NewEmbeddingStrategy 嵌入两组示例并创建策略。
func NewEmbeddingStrategy(ctx context.Context, embedder llm.EmbeddingProvider, cfg *EmbeddingStrategyConfig) (*EmbeddingStrategy, error) {
	if cfg == nil {
		cfg = &EmbeddingStrategyConfig{}
	}
	medical, general := cfg.Medical, cfg.General
	if len(medical) == 0 {
		medical = DefaultMedicalExemplars
	}
	if len(general) == 0 {
		general = DefaultGeneralExemplars
	}
	margin := cfg.Margin
	if margin < 0 || math.IsNaN(margin) {
		return nil, fmt.Errorf("router margin must be >= 0, got %v", margin)
	}

	vecs, err := embedder.Embed(ctx, append(append([]string{}, medical...), general...))
	if err != nil {
		return nil, fmt.Errorf("embed router exemplars: %w", err)
	}
	if len(vecs) != len(medical)+len(general) {
		return nil, fmt.Errorf("embed router exemplars: got %d vectors for %d texts", len(vecs), len(medical)+len(general))
	}

	return &EmbeddingStrategy{
		embedder: embedder,
		medical:  vecs[:len(medical)],
		general:  vecs[len(medical):],
		margin:   margin,
		fallback: cfg.Fallback,
	}, nil
}

// Name 返回策略名称。
func (s *EmbeddingStrategy) Name() string {
	return "embedding"
}

// Decide 医疗示例最高相似度领先通用示例至少 margin 时为 medical。
func (s *EmbeddingStrategy) Decide(ctx context.Context, query string) (Route, error) {
	vec, err := s.embedder.EmbedSingle(ctx, query)
	if err == nil && len(vec) == 0 {
		err = errors.New("empty query embedding")
	}
	if err != nil {
		return decideWithFallback(ctx, s.Name(), s.fallback, query, fmt.Errorf("embed query: %w", err))
	}

	if bestCosine(vec, s.medical)-bestCosine(vec, s.general) >= s.margin {
		return RouteMedical, nil
	}
	return RouteGeneral, nil
}

func bestCosine(v []float32, set [][]float32) float64 {
	best := math.Inf(-1)
	for _, e := range set {
		if c := textutil.CosineSimilarity(v, e); c > best {
			best = c
		}
	}
	return best
}
