// Package astramed provides the AstraMed medical QA server implementation.
package astramed

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kart-io/astramed/internal/astramed/biz"
	"github.com/kart-io/astramed/internal/astramed/handler"
	"github.com/kart-io/astramed/internal/astramed/metrics"
	"github.com/kart-io/astramed/internal/astramed/router"
	"github.com/kart-io/astramed/pkg/component/storage"
	"github.com/kart-io/astramed/pkg/infra/app"
	"github.com/kart-io/astramed/pkg/infra/middleware"
	"github.com/kart-io/astramed/pkg/infra/pool"
	"github.com/kart-io/astramed/pkg/infra/server"
	"github.com/kart-io/astramed/pkg/infra/tracing"
	"github.com/kart-io/astramed/pkg/llm"
	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/astramed/pkg/llm/gemini"
	_ "github.com/kart-io/astramed/pkg/llm/ollama"
	_ "github.com/kart-io/astramed/pkg/llm/openai"
	astramedopts "github.com/kart-io/astramed/pkg/options/astramed"
	llmopts "github.com/kart-io/astramed/pkg/options/llm"
	logopts "github.com/kart-io/astramed/pkg/options/logger"
	milvusopts "github.com/kart-io/astramed/pkg/options/milvus"
	mongodbopts "github.com/kart-io/astramed/pkg/options/mongodb"
	mysqlopts "github.com/kart-io/astramed/pkg/options/mysql"
	postgresopts "github.com/kart-io/astramed/pkg/options/postgres"
	redisopts "github.com/kart-io/astramed/pkg/options/redis"
	httpopts "github.com/kart-io/astramed/pkg/options/server/http"
	sqliteopts "github.com/kart-io/astramed/pkg/options/sqlite"
	tracingopts "github.com/kart-io/astramed/pkg/options/tracing"
	"github.com/kart-io/astramed/pkg/utils/json"
)

// Name is the name of the application.
const Name = "astramed"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions      *httpopts.Options
	LogOptions       *logopts.Options
	TracingOptions   *tracingopts.Options
	MilvusOptions    *milvusopts.Options
	PostgresOptions  *postgresopts.Options
	MySQLOptions     *mysqlopts.Options
	SQLiteOptions    *sqliteopts.Options
	RedisOptions     *redisopts.Options
	MongoDBOptions   *mongodbopts.Options
	EmbeddingOptions *llmopts.ProviderOptions
	ChatOptions      *llmopts.ProviderOptions
	AstraMedOptions  *astramedopts.Options
	ShutdownTimeout  time.Duration
}

// Server represents the AstraMed server.
type Server struct {
	mgr     *server.Manager
	http    *server.HTTPServer
	service biz.Service
}

// NewServer initializes and returns a new Server instance. Components opened
// before a failing step are closed again.
func (cfg *Config) NewServer(ctx context.Context) (s *Server, err error) {
	var cleanups []func()
	defer func() {
		if err == nil {
			return
		}
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	printBanner(cfg)

	// 1. 初始化日志
	if cfg.LogOptions != nil {
		if err := cfg.LogOptions.Init(Name); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}
	logger.Infow("Starting AstraMed service...", "version", app.GetVersion())

	// 2. 初始化链路追踪
	tp, err := tracing.NewProvider(ctx, cfg.TracingOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	cleanups = append(cleanups, func() { _ = tp.Shutdown(context.Background()) })
	logger.Infow("Tracing initialized", "enabled", tp.Enabled())

	healthPool, err := pool.NewPool("astramed-health", pool.HealthCheckPool, pool.HealthCheckPoolConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create health check pool: %w", err)
	}
	cleanups = append(cleanups, healthPool.Release)

	storageMgr := storage.NewManager(healthPool)
	cleanups = append(cleanups, func() { _ = storageMgr.CloseAll() })
	deps := &backends{cfg: cfg, storage: storageMgr}

	// 3. 初始化 LLM 供应商
	embedder, err := deps.embedder(ctx)
	if err != nil {
		return nil, err
	}
	chat, err := llm.NewChatProvider(cfg.ChatOptions.Provider, cfg.ChatOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	if err := pingProvider(ctx, "chat", chat); err != nil {
		return nil, err
	}
	logger.Infow("Chat provider initialized",
		"provider", cfg.ChatOptions.Provider,
		"model", cfg.ChatOptions.Model,
	)

	// 4. 初始化向量存储
	vs, storeBackend, err := deps.vectorStore(ctx, embedder, true)
	if err != nil {
		return nil, err
	}
	logger.Infow("Vector store initialized", "store", vs.Name())

	// 5. 初始化反馈存储
	sink, feedbackBackend, err := deps.feedbackSink(ctx)
	if err != nil {
		return nil, err
	}
	logger.Infow("Feedback sink initialized", "sink", sink.Name())

	// 6. 初始化路由策略
	strategy, err := deps.strategy(ctx, chat, embedder)
	if err != nil {
		return nil, err
	}
	opts := cfg.AstraMedOptions
	logger.Infow("Router initialized",
		"enabled", opts.Router.Enabled,
		"strategy", strategy.Name(),
	)

	// 7. 初始化指标与业务层
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	service := biz.NewAnswerService(
		biz.NewRetriever(vs),
		biz.NewSynthesizer(chat, opts.SynthesisMaxTokens),
		biz.NewRouter(strategy),
		sink,
		m,
		&biz.ServiceConfig{RouterEnabled: opts.Router.Enabled},
	)
	logger.Info("Answer service initialized")

	// 8. 初始化 HTTP 服务器与中间件
	httpMetrics, err := middleware.NewHTTPMetrics(Name, reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register http metrics: %w", err)
	}
	chain := []gin.HandlerFunc{middleware.Recovery(), middleware.RequestID()}
	if tp.Enabled() {
		chain = append(chain, middleware.Tracing(cfg.TracingOptions.ServiceName), middleware.SpanRequestID())
	}
	chain = append(chain,
		httpMetrics.Handler(),
		middleware.Logger(),
		middleware.BodyLimit(opts.MaxBodyBytes),
		middleware.Timeout(cfg.HTTPOptions.RequestTimeout),
	)
	if len(opts.CORSOrigins) > 0 {
		chain = append(chain, middleware.CORS(opts.CORSOrigins...))
	}
	httpServer := server.NewHTTPServer(cfg.HTTPOptions, chain...)

	// 9. 注册路由
	var gatherer prometheus.Gatherer
	if opts.MetricsEnabled {
		gatherer = reg
	}
	health := handler.NewHealthHandler(map[string]handler.Checker{
		"store":    backendChecker(storageMgr, storeBackend),
		"feedback": backendChecker(storageMgr, feedbackBackend),
	}, 0)
	router.Register(httpServer.Engine(), handler.NewAnswerHandler(service, cfg.HTTPOptions.RequestTimeout), health, gatherer)
	if opts.SwaggerEnabled {
		router.RegisterSwagger(httpServer.Engine())
	}

	mgr := server.NewManager(cfg.ShutdownTimeout)
	mgr.Add(httpServer)
	mgr.OnShutdown(func(context.Context) error {
		healthPool.Release()
		return nil
	})
	mgr.OnShutdown(tp.Shutdown)
	mgr.OnShutdown(func(context.Context) error { return storageMgr.CloseAll() })

	logger.Infow("AstraMed service is ready", "addr", cfg.HTTPOptions.Addr)
	return &Server{
		mgr:     mgr,
		http:    httpServer,
		service: service,
	}, nil
}

func printBanner(cfg *Config) {
	app.PrintBanner(os.Stdout, Name,
		"Store", cfg.AstraMedOptions.Store,
		"Feedback", cfg.AstraMedOptions.Feedback,
		"Embedding", fmt.Sprintf("%s (%s)", cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.Model),
		"Chat", fmt.Sprintf("%s (%s)", cfg.ChatOptions.Provider, cfg.ChatOptions.Model),
		"Router", fmt.Sprintf("%s (enabled=%t)", cfg.AstraMedOptions.Router.Strategy, cfg.AstraMedOptions.Router.Enabled),
		"JSON", json.Backend(),
	)
}

// backendChecker 返回指定后端的健康检查，name 为空表示进程内组件。
func backendChecker(mgr *storage.Manager, name string) handler.Checker {
	if name == "" {
		return nil
	}
	return handler.CheckerFunc(func(ctx context.Context) error {
		return mgr.HealthCheck(ctx, name).Error
	})
}

// Handler returns the HTTP handler with every route and middleware installed.
func (s *Server) Handler() http.Handler {
	return s.http.Engine()
}

// Service returns the answer service.
func (s *Server) Service() biz.Service {
	return s.service
}

// Run starts the server and blocks until ctx is done or a termination signal
// is received.
func (s *Server) Run(ctx context.Context) error {
	return s.mgr.Run(ctx)
}

// Close releases every component without starting the server.
func (s *Server) Close(ctx context.Context) error {
	return s.mgr.Stop(ctx)
}
