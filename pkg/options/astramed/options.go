// Package astramed provides AstraMed pipeline configuration options.
package astramed

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/astramed/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// 向量存储后端。
const (
	StoreMilvus   = "milvus"
	StorePGVector = "pgvector"
	StoreMemory   = "memory"
)

// 反馈存储后端。
const (
	FeedbackLog      = "log"
	FeedbackMemory   = "memory"
	FeedbackSQLite   = "sqlite"
	FeedbackPostgres = "postgres"
	FeedbackMySQL    = "mysql"
	FeedbackRedis    = "redis"
	FeedbackMongoDB  = "mongodb"
)

// 路由策略。
const (
	StrategyKeyword   = "keyword"
	StrategyEmbedding = "embedding"
	StrategyLLM       = "llm"
)

// Options contains AstraMed-specific configuration.
type Options struct {
	// Store 向量存储后端 (milvus, pgvector, memory)。
	Store string `json:"store" mapstructure:"store"`

	// CorpusPath memory 后端启动时加载的 YAML 语料。
	CorpusPath string `json:"corpus-path" mapstructure:"corpus-path"`

	// PGVectorTable pgvector 表名。
	PGVectorTable string `json:"pgvector-table" mapstructure:"pgvector-table"`

	// PGVectorDimension pgvector 向量维度。
	PGVectorDimension int `json:"pgvector-dimension" mapstructure:"pgvector-dimension"`

	// Feedback 反馈存储后端。
	Feedback string `json:"feedback" mapstructure:"feedback"`

	// FeedbackRedisKey Redis 反馈列表键。
	FeedbackRedisKey string `json:"feedback-redis-key" mapstructure:"feedback-redis-key"`

	// FeedbackMaxLen Redis 反馈列表最大长度，0 表示不裁剪。
	FeedbackMaxLen int64 `json:"feedback-max-len" mapstructure:"feedback-max-len"`

	// Router 路由配置。
	Router *RouterOptions `json:"router" mapstructure:"router"`

	// SynthesisMaxTokens 合成回答的最大 token 数，0 表示供应商默认值。
	SynthesisMaxTokens int `json:"synthesis-max-tokens" mapstructure:"synthesis-max-tokens"`

	// EmbeddingCache 嵌入缓存配置。
	EmbeddingCache *CacheOptions `json:"embedding-cache" mapstructure:"embedding-cache"`

	// CORSOrigins 允许的跨域来源，为空时不启用 CORS。
	CORSOrigins []string `json:"cors-origins" mapstructure:"cors-origins"`

	// MaxBodyBytes 请求体大小上限。
	MaxBodyBytes int64 `json:"max-body-bytes" mapstructure:"max-body-bytes"`

	// MetricsEnabled 是否暴露 /metrics。
	MetricsEnabled bool `json:"metrics-enabled" mapstructure:"metrics-enabled"`

	// SwaggerEnabled 是否在 /swagger/ 下提供 API 文档。
	SwaggerEnabled bool `json:"swagger-enabled" mapstructure:"swagger-enabled"`
}

// RouterOptions 路由配置。
type RouterOptions struct {
	// Enabled 为 false 时所有问题都走检索。
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// Strategy 路由策略 (keyword, embedding, llm)。
	Strategy string `json:"strategy" mapstructure:"strategy"`

	// Margin embedding 策略的医疗领先阈值。
	Margin float64 `json:"margin" mapstructure:"margin"`

	// ExtraTerms 追加到关键词表的医疗词。
	ExtraTerms []string `json:"extra-terms" mapstructure:"extra-terms"`
}

// CacheOptions Redis 嵌入缓存配置。
type CacheOptions struct {
	// Enabled 是否启用缓存。
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// TTL 缓存过期时间。
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`

	// KeyPrefix 缓存键前缀。
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Store:             StoreMilvus,
		PGVectorTable:     "medical_qa",
		PGVectorDimension: 768,
		Feedback:          FeedbackLog,
		FeedbackRedisKey:  "astramed:feedback",
		FeedbackMaxLen:    10000,
		Router: &RouterOptions{
			Enabled:  true,
			Strategy: StrategyKeyword,
			Margin:   0.05,
		},
		EmbeddingCache: &CacheOptions{
			TTL:       24 * time.Hour,
			KeyPrefix: "astramed:emb:",
		},
		MaxBodyBytes:   1 << 20,
		MetricsEnabled: true,
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "astramed."
	fs.StringVar(&o.Store, p+"store", o.Store, "Vector store backend (milvus, pgvector, memory).")
	fs.StringVar(&o.CorpusPath, p+"corpus-path", o.CorpusPath, "YAML corpus loaded by the memory store.")
	fs.StringVar(&o.PGVectorTable, p+"pgvector-table", o.PGVectorTable, "pgvector table name.")
	fs.IntVar(&o.PGVectorDimension, p+"pgvector-dimension", o.PGVectorDimension, "pgvector embedding dimension.")
	fs.StringVar(&o.Feedback, p+"feedback", o.Feedback, "Feedback sink (log, memory, sqlite, postgres, mysql, redis, mongodb).")
	fs.StringVar(&o.FeedbackRedisKey, p+"feedback-redis-key", o.FeedbackRedisKey, "Redis list key for feedback.")
	fs.Int64Var(&o.FeedbackMaxLen, p+"feedback-max-len", o.FeedbackMaxLen, "Maximum Redis feedback list length (0 keeps everything).")
	fs.BoolVar(&o.Router.Enabled, p+"router.enabled", o.Router.Enabled, "Route general questions away from retrieval.")
	fs.StringVar(&o.Router.Strategy, p+"router.strategy", o.Router.Strategy, "Router strategy (keyword, embedding, llm).")
	fs.Float64Var(&o.Router.Margin, p+"router.margin", o.Router.Margin, "Minimum medical lead for the embedding router.")
	fs.StringSliceVar(&o.Router.ExtraTerms, p+"router.extra-terms", o.Router.ExtraTerms, "Extra medical terms for the keyword router.")
	fs.IntVar(&o.SynthesisMaxTokens, p+"synthesis-max-tokens", o.SynthesisMaxTokens, "Maximum tokens for synthesized answers (0 = provider default).")
	fs.BoolVar(&o.EmbeddingCache.Enabled, p+"embedding-cache.enabled", o.EmbeddingCache.Enabled, "Cache query embeddings in Redis.")
	fs.DurationVar(&o.EmbeddingCache.TTL, p+"embedding-cache.ttl", o.EmbeddingCache.TTL, "Embedding cache TTL.")
	fs.StringVar(&o.EmbeddingCache.KeyPrefix, p+"embedding-cache.key-prefix", o.EmbeddingCache.KeyPrefix, "Embedding cache key prefix.")
	fs.StringSliceVar(&o.CORSOrigins, p+"cors-origins", o.CORSOrigins, "Allowed CORS origins (empty disables CORS).")
	fs.Int64Var(&o.MaxBodyBytes, p+"max-body-bytes", o.MaxBodyBytes, "Maximum request body size.")
	fs.BoolVar(&o.MetricsEnabled, p+"metrics-enabled", o.MetricsEnabled, "Expose Prometheus metrics on /metrics.")
	fs.BoolVar(&o.SwaggerEnabled, p+"swagger-enabled", o.SwaggerEnabled, "Serve the OpenAPI document under /swagger/.")
}

// Complete fills defaults left empty by the config file.
func (o *Options) Complete() error {
	if o.Router == nil {
		o.Router = NewOptions().Router
	}
	if o.EmbeddingCache == nil {
		o.EmbeddingCache = NewOptions().EmbeddingCache
	}
	if o.PGVectorTable == "" {
		o.PGVectorTable = "medical_qa"
	}
	return nil
}

// NeedsRedis reports whether any configured component uses Redis.
func (o *Options) NeedsRedis() bool {
	return o.Feedback == FeedbackRedis || (o.EmbeddingCache != nil && o.EmbeddingCache.Enabled)
}

// NeedsPostgres reports whether any configured component uses PostgreSQL.
func (o *Options) NeedsPostgres() bool {
	return o.Store == StorePGVector || o.Feedback == FeedbackPostgres
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Store {
	case StoreMilvus, StorePGVector:
	case StoreMemory:
		if o.CorpusPath == "" {
			errs = append(errs, fmt.Errorf("astramed.corpus-path is required for the memory store"))
		}
	default:
		errs = append(errs, fmt.Errorf("astramed.store must be one of milvus, pgvector, memory, got %q", o.Store))
	}
	if o.Store == StorePGVector && o.PGVectorDimension <= 0 {
		errs = append(errs, fmt.Errorf("astramed.pgvector-dimension must be positive"))
	}

	switch o.Feedback {
	case FeedbackLog, FeedbackMemory, FeedbackSQLite, FeedbackPostgres, FeedbackMySQL, FeedbackRedis, FeedbackMongoDB:
	default:
		errs = append(errs, fmt.Errorf("astramed.feedback %q is not supported", o.Feedback))
	}
	if o.FeedbackMaxLen < 0 {
		errs = append(errs, fmt.Errorf("astramed.feedback-max-len must not be negative"))
	}

	if o.Router != nil {
		switch o.Router.Strategy {
		case StrategyKeyword, StrategyEmbedding, StrategyLLM:
		default:
			errs = append(errs, fmt.Errorf("astramed.router.strategy must be one of keyword, embedding, llm, got %q", o.Router.Strategy))
		}
		if o.Router.Margin < 0 || math.IsNaN(o.Router.Margin) {
			errs = append(errs, fmt.Errorf("astramed.router.margin must be >= 0"))
		}
	}
	if o.SynthesisMaxTokens < 0 {
		errs = append(errs, fmt.Errorf("astramed.synthesis-max-tokens must not be negative"))
	}
	if o.EmbeddingCache != nil && o.EmbeddingCache.Enabled && o.EmbeddingCache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("astramed.embedding-cache.ttl must be positive"))
	}
	if o.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("astramed.max-body-bytes must be positive"))
	}
	return errs
}
