// Package options contains flags and options for initializing the AstraMed server.
package options

import (
	"fmt"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/astramed/internal/astramed"
	cliflag "github.com/kart-io/astramed/pkg/app/cliflag"
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
)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// TracingOptions contains OpenTelemetry configuration.
	TracingOptions *tracingopts.Options `json:"tracing" mapstructure:"tracing"`

	// MilvusOptions contains Milvus database configuration.
	MilvusOptions *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// PostgresOptions is used by the pgvector store and the postgres feedback sink.
	PostgresOptions *postgresopts.Options `json:"postgres" mapstructure:"postgres"`

	MySQLOptions   *mysqlopts.Options   `json:"mysql" mapstructure:"mysql"`
	SQLiteOptions  *sqliteopts.Options  `json:"sqlite" mapstructure:"sqlite"`
	MongoDBOptions *mongodbopts.Options `json:"mongodb" mapstructure:"mongodb"`

	// RedisOptions is used by the embedding cache and the redis feedback sink.
	RedisOptions *redisopts.Options `json:"redis" mapstructure:"redis"`

	// EmbeddingOptions contains embedding provider configuration.
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// ChatOptions contains chat provider configuration.
	ChatOptions *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`

	// AstraMedOptions contains pipeline configuration.
	AstraMedOptions *astramedopts.Options `json:"astramed" mapstructure:"astramed"`

	// ShutdownTimeout is the timeout for graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HTTPOptions:      httpopts.NewOptions(),
		LogOptions:       logopts.NewOptions(),
		TracingOptions:   tracingopts.NewOptions(),
		MilvusOptions:    milvusopts.NewOptions(),
		PostgresOptions:  postgresopts.NewOptions(),
		MySQLOptions:     mysqlopts.NewOptions(),
		SQLiteOptions:    sqliteopts.NewOptions(),
		MongoDBOptions:   mongodbopts.NewOptions(),
		RedisOptions:     redisopts.NewOptions(),
		EmbeddingOptions: llmopts.NewEmbeddingOptions(),
		ChatOptions:      llmopts.NewChatOptions(),
		AstraMedOptions:  astramedopts.NewOptions(),
		ShutdownTimeout:  30 * time.Second,
	}
}

// Flags returns flags for a specific server by section name.
func (o *ServerOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.HTTPOptions.AddFlags(fss.FlagSet("http"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))
	o.AstraMedOptions.AddFlags(fss.FlagSet("astramed"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"), "embedding")
	o.ChatOptions.AddFlags(fss.FlagSet("chat"), "chat")
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.PostgresOptions.AddFlags(fss.FlagSet("postgres"))
	o.MySQLOptions.AddFlags(fss.FlagSet("mysql"))
	o.SQLiteOptions.AddFlags(fss.FlagSet("sqlite"))
	o.MongoDBOptions.AddFlags(fss.FlagSet("mongodb"))
	o.RedisOptions.AddFlags(fss.FlagSet("redis"))

	// misc flags
	fs := fss.FlagSet("misc")
	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout")

	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	if err := o.HTTPOptions.Complete(); err != nil {
		return err
	}
	if err := o.TracingOptions.Complete(); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	if err := o.EmbeddingOptions.Complete(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := o.ChatOptions.Complete(); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	if err := o.AstraMedOptions.Complete(); err != nil {
		return fmt.Errorf("astramed: %w", err)
	}
	if err := o.PostgresOptions.Complete(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if err := o.MySQLOptions.Complete(); err != nil {
		return fmt.Errorf("mysql: %w", err)
	}
	if err := o.MongoDBOptions.Complete(); err != nil {
		return fmt.Errorf("mongodb: %w", err)
	}
	if err := o.RedisOptions.Complete(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

// Validate checks whether the options in ServerOptions are valid. Backend
// sections are only checked when the pipeline uses them.
func (o *ServerOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.HTTPOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.TracingOptions.Validate()...)
	errs = append(errs, o.EmbeddingOptions.Validate()...)
	errs = append(errs, o.ChatOptions.Validate()...)
	errs = append(errs, o.AstraMedOptions.Validate()...)

	am := o.AstraMedOptions
	if am.Store == astramedopts.StoreMilvus {
		errs = append(errs, o.MilvusOptions.Validate()...)
	}
	if am.NeedsPostgres() {
		errs = append(errs, o.PostgresOptions.Validate()...)
	}
	if am.NeedsRedis() {
		errs = append(errs, o.RedisOptions.Validate()...)
	}
	switch am.Feedback {
	case astramedopts.FeedbackMySQL:
		errs = append(errs, o.MySQLOptions.Validate()...)
	case astramedopts.FeedbackSQLite:
		errs = append(errs, o.SQLiteOptions.Validate()...)
	case astramedopts.FeedbackMongoDB:
		errs = append(errs, o.MongoDBOptions.Validate()...)
	}

	return utilerrors.NewAggregate(errs)
}

// Config builds an astramed.Config based on ServerOptions.
func (o *ServerOptions) Config() (*astramed.Config, error) {
	return &astramed.Config{
		HTTPOptions:      o.HTTPOptions,
		LogOptions:       o.LogOptions,
		TracingOptions:   o.TracingOptions,
		MilvusOptions:    o.MilvusOptions,
		PostgresOptions:  o.PostgresOptions,
		MySQLOptions:     o.MySQLOptions,
		SQLiteOptions:    o.SQLiteOptions,
		RedisOptions:     o.RedisOptions,
		MongoDBOptions:   o.MongoDBOptions,
		EmbeddingOptions: o.EmbeddingOptions,
		ChatOptions:      o.ChatOptions,
		AstraMedOptions:  o.AstraMedOptions,
		ShutdownTimeout:  o.ShutdownTimeout,
	}, nil
}
