package astramed

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/astramed/internal/astramed/biz"
	"github.com/kart-io/astramed/internal/astramed/store"
	"github.com/kart-io/astramed/pkg/component/milvus"
	"github.com/kart-io/astramed/pkg/component/mongodb"
	"github.com/kart-io/astramed/pkg/component/mysql"
	"github.com/kart-io/astramed/pkg/component/postgres"
	"github.com/kart-io/astramed/pkg/component/redis"
	"github.com/kart-io/astramed/pkg/component/sqldb"
	"github.com/kart-io/astramed/pkg/component/sqlite"
	"github.com/kart-io/astramed/pkg/component/storage"
	"github.com/kart-io/astramed/pkg/llm"
	astramedopts "github.com/kart-io/astramed/pkg/options/astramed"
	"github.com/kart-io/astramed/pkg/utils/errors"
)

// backends 按需创建并登记后端客户端，同一种后端只连接一次。
type backends struct {
	cfg      *Config
	storage  *storage.Manager
	postgres *sqldb.Client
	redis    *redis.Client
}

func (b *backends) register(name string, c storage.Client) error {
	if err := b.storage.Register(name, c); err != nil {
		_ = c.Close()
		return err
	}
	return nil
}

func (b *backends) postgresClient(ctx context.Context) (*sqldb.Client, error) {
	if b.postgres != nil {
		return b.postgres, nil
	}
	c, err := postgres.NewWithContext(ctx, b.cfg.PostgresOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := b.register("postgres", c); err != nil {
		return nil, err
	}
	b.postgres = c
	logger.Infow("PostgreSQL client initialized", "host", b.cfg.PostgresOptions.Host, "database", b.cfg.PostgresOptions.Database)
	return c, nil
}

func (b *backends) redisClient(ctx context.Context) (*goredis.Client, error) {
	if b.redis != nil {
		return b.redis.Client(), nil
	}
	c, err := redis.NewWithContext(ctx, b.cfg.RedisOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	if err := b.register("redis", c); err != nil {
		return nil, err
	}
	b.redis = c
	logger.Infow("Redis client initialized", "addr", b.cfg.RedisOptions.Addr())
	return c.Client(), nil
}

// vectorStore 创建配置的向量存储，返回存储及其健康检查名称。
// loadCorpus 为 false 时 memory 后端保持为空。
func (b *backends) vectorStore(ctx context.Context, embedder llm.EmbeddingProvider, loadCorpus bool) (store.Indexer, string, error) {
	opts := b.cfg.AstraMedOptions
	switch opts.Store {
	case astramedopts.StoreMilvus:
		client, err := milvus.NewWithContext(ctx, b.cfg.MilvusOptions)
		if err != nil {
			return nil, "", fmt.Errorf("failed to initialize milvus: %w", err)
		}
		if err := b.register("milvus", client); err != nil {
			return nil, "", err
		}
		logger.Infow("Milvus client initialized",
			"address", b.cfg.MilvusOptions.Address,
			"collection", client.Collection(),
			"metric", client.Metric(),
		)
		return store.NewMilvusStore(client, embedder), "milvus", nil

	case astramedopts.StorePGVector:
		pg, err := b.postgresClient(ctx)
		if err != nil {
			return nil, "", err
		}
		vs, err := store.NewPGVectorStore(pg.DB(), embedder, opts.PGVectorTable, opts.PGVectorDimension)
		if err != nil {
			return nil, "", err
		}
		return vs, "postgres", nil

	case astramedopts.StoreMemory:
		ms := store.NewMemoryStore(embedder)
		if !loadCorpus {
			return ms, "", nil
		}
		if err := ms.LoadCorpusFile(ctx, opts.CorpusPath); err != nil {
			return nil, "", fmt.Errorf("failed to load corpus %s: %w", opts.CorpusPath, err)
		}
		n, _ := ms.Count(ctx)
		logger.Infow("Memory store loaded", "path", opts.CorpusPath, "documents", n)
		return ms, "", nil
	}
	return nil, "", fmt.Errorf("unknown vector store %q", opts.Store)
}

// feedbackSink 创建配置的反馈存储，返回存储及其健康检查名称。
func (b *backends) feedbackSink(ctx context.Context) (store.FeedbackSink, string, error) {
	opts := b.cfg.AstraMedOptions
	switch opts.Feedback {
	case astramedopts.FeedbackLog:
		return store.LogFeedbackSink{}, "", nil

	case astramedopts.FeedbackMemory:
		return store.NewMemoryFeedbackSink(), "", nil

	case astramedopts.FeedbackSQLite:
		c, err := sqlite.New(ctx, b.cfg.SQLiteOptions)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open sqlite: %w", err)
		}
		if err := b.register("sqlite", c); err != nil {
			return nil, "", err
		}
		sink, err := store.NewGormFeedbackSink(ctx, "sqlite", c.DB())
		return sink, "sqlite", err

	case astramedopts.FeedbackPostgres:
		c, err := b.postgresClient(ctx)
		if err != nil {
			return nil, "", err
		}
		sink, err := store.NewGormFeedbackSink(ctx, "postgres", c.DB())
		return sink, "postgres", err

	case astramedopts.FeedbackMySQL:
		c, err := mysql.NewWithContext(ctx, b.cfg.MySQLOptions)
		if err != nil {
			return nil, "", fmt.Errorf("failed to connect to mysql: %w", err)
		}
		if err := b.register("mysql", c); err != nil {
			return nil, "", err
		}
		sink, err := store.NewGormFeedbackSink(ctx, "mysql", c.DB())
		return sink, "mysql", err

	case astramedopts.FeedbackRedis:
		rdb, err := b.redisClient(ctx)
		if err != nil {
			return nil, "", err
		}
		return store.NewRedisFeedbackSink(rdb, opts.FeedbackRedisKey, opts.FeedbackMaxLen), "redis", nil

	case astramedopts.FeedbackMongoDB:
		c, err := mongodb.NewWithContext(ctx, b.cfg.MongoDBOptions)
		if err != nil {
			return nil, "", fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		if err := b.register("mongodb", c); err != nil {
			return nil, "", err
		}
		return store.NewMongoFeedbackSink(c.Collection(b.cfg.MongoDBOptions.Collection)), "mongodb", nil
	}
	return nil, "", fmt.Errorf("unknown feedback sink %q", opts.Feedback)
}

// embedder 创建嵌入供应商，启用缓存时包一层 Redis 缓存。
func (b *backends) embedder(ctx context.Context) (llm.EmbeddingProvider, error) {
	p, err := llm.NewEmbeddingProvider(b.cfg.EmbeddingOptions.Provider, b.cfg.EmbeddingOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	logger.Infow("Embedding provider initialized",
		"provider", b.cfg.EmbeddingOptions.Provider,
		"model", b.cfg.EmbeddingOptions.Model,
	)

	var out llm.EmbeddingProvider = p
	if cache := b.cfg.AstraMedOptions.EmbeddingCache; cache != nil && cache.Enabled {
		rdb, err := b.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		logger.Infow("Embedding cache enabled", "ttl", cache.TTL, "key_prefix", cache.KeyPrefix)
		out = llm.NewCachedEmbeddingProvider(p, rdb, &llm.EmbeddingCacheConfig{
			TTL:       cache.TTL,
			KeyPrefix: cache.KeyPrefix,
			Namespace: b.cfg.EmbeddingOptions.Model,
		})
	}

	if err := pingProvider(ctx, "embedding", out); err != nil {
		return nil, err
	}
	return out, nil
}

// pingProvider 启动时探测模型服务，不可达时返回 ErrLLMUnavailable。
func pingProvider(ctx context.Context, kind string, p any) error {
	if err := llm.Ping(ctx, p); err != nil {
		return errors.ErrLLMUnavailable.WithCause(fmt.Errorf("%s provider unreachable: %w", kind, err))
	}
	return nil
}

// strategy 创建配置的路由策略。
func (b *backends) strategy(ctx context.Context, chat llm.ChatProvider, embedder llm.EmbeddingProvider) (biz.Strategy, error) {
	ro := b.cfg.AstraMedOptions.Router
	keyword := biz.NewKeywordStrategy(ro.ExtraTerms...)
	switch ro.Strategy {
	case astramedopts.StrategyKeyword, "":
		return keyword, nil
	case astramedopts.StrategyEmbedding:
		s, err := biz.NewEmbeddingStrategy(ctx, embedder, &biz.EmbeddingStrategyConfig{
			Margin:   ro.Margin,
			Fallback: keyword,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedding router: %w", err)
		}
		return s, nil
	case astramedopts.StrategyLLM:
		return biz.NewLLMStrategy(chat, keyword), nil
	}
	return nil, fmt.Errorf("unknown router strategy %q", ro.Strategy)
}

// Tools 离线工具 (astramed-ingest, astramed-eval) 共用的后端。
type Tools struct {
	Embedder llm.EmbeddingProvider
	Indexer  store.Indexer
	storage  *storage.Manager
}

// OpenTools connects the embedding provider and the configured vector store.
// The memory store is seeded from the corpus file only when loadCorpus is set.
func (cfg *Config) OpenTools(ctx context.Context, loadCorpus bool) (*Tools, error) {
	deps := &backends{cfg: cfg, storage: storage.NewManager(nil)}
	embedder, err := deps.embedder(ctx)
	if err != nil {
		_ = deps.storage.CloseAll()
		return nil, err
	}
	idx, _, err := deps.vectorStore(ctx, embedder, loadCorpus)
	if err != nil {
		_ = deps.storage.CloseAll()
		return nil, err
	}
	return &Tools{Embedder: embedder, Indexer: idx, storage: deps.storage}, nil
}

// Healthy pings every connected backend.
func (t *Tools) Healthy(ctx context.Context) error {
	for name, st := range t.storage.HealthCheckAll(ctx) {
		if !st.Healthy {
			return fmt.Errorf("%s is unhealthy: %w", name, st.Error)
		}
	}
	return nil
}

// Close releases every backend connection.
func (t *Tools) Close() error {
	return t.storage.CloseAll()
}
