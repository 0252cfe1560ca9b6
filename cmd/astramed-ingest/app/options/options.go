// Package options contains flags and options for the corpus ingestion tool.
package options

import (
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/astramed/internal/astramed"
	cliflag "github.com/kart-io/astramed/pkg/app/cliflag"
	astramedopts "github.com/kart-io/astramed/pkg/options/astramed"
	ingestopts "github.com/kart-io/astramed/pkg/options/ingest"
	llmopts "github.com/kart-io/astramed/pkg/options/llm"
	logopts "github.com/kart-io/astramed/pkg/options/logger"
	milvusopts "github.com/kart-io/astramed/pkg/options/milvus"
	postgresopts "github.com/kart-io/astramed/pkg/options/postgres"
	redisopts "github.com/kart-io/astramed/pkg/options/redis"
)

// IngestOptions contains the configuration options for ingestion.
type IngestOptions struct {
	LogOptions       *logopts.Options         `json:"log" mapstructure:"log"`
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`
	MilvusOptions    *milvusopts.Options      `json:"milvus" mapstructure:"milvus"`
	PostgresOptions  *postgresopts.Options    `json:"postgres" mapstructure:"postgres"`
	RedisOptions     *redisopts.Options       `json:"redis" mapstructure:"redis"`

	// AstraMedOptions 只使用存储与嵌入缓存相关字段。
	AstraMedOptions *astramedopts.Options `json:"astramed" mapstructure:"astramed"`

	IngestOptions *ingestopts.Options `json:"ingest" mapstructure:"ingest"`
}

// NewIngestOptions creates an IngestOptions instance with default values.
func NewIngestOptions() *IngestOptions {
	return &IngestOptions{
		LogOptions:       logopts.NewOptions(),
		EmbeddingOptions: llmopts.NewEmbeddingOptions(),
		MilvusOptions:    milvusopts.NewOptions(),
		PostgresOptions:  postgresopts.NewOptions(),
		RedisOptions:     redisopts.NewOptions(),
		AstraMedOptions:  astramedopts.NewOptions(),
		IngestOptions:    ingestopts.NewOptions(),
	}
}

// Flags returns flags grouped by section.
func (o *IngestOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.IngestOptions.AddFlags(fss.FlagSet("ingest"))
	o.AstraMedOptions.AddFlags(fss.FlagSet("astramed"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"), "embedding")
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.PostgresOptions.AddFlags(fss.FlagSet("postgres"))
	o.RedisOptions.AddFlags(fss.FlagSet("redis"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	return fss
}

// Complete completes all the required options.
func (o *IngestOptions) Complete() error {
	if err := o.EmbeddingOptions.Complete(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := o.AstraMedOptions.Complete(); err != nil {
		return fmt.Errorf("astramed: %w", err)
	}
	if err := o.PostgresOptions.Complete(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	return o.RedisOptions.Complete()
}

// Validate checks whether the options are valid.
func (o *IngestOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.EmbeddingOptions.Validate()...)
	errs = append(errs, o.IngestOptions.Validate()...)

	am := o.AstraMedOptions
	switch am.Store {
	case astramedopts.StoreMilvus:
		errs = append(errs, o.MilvusOptions.Validate()...)
	case astramedopts.StorePGVector:
		errs = append(errs, o.PostgresOptions.Validate()...)
	case astramedopts.StoreMemory:
		if o.IngestOptions.Output == "" {
			errs = append(errs, fmt.Errorf("ingest.output is required for the memory store"))
		}
	default:
		errs = append(errs, fmt.Errorf("astramed.store must be one of milvus, pgvector, memory, got %q", am.Store))
	}
	if am.EmbeddingCache != nil && am.EmbeddingCache.Enabled {
		errs = append(errs, o.RedisOptions.Validate()...)
	}
	return utilerrors.NewAggregate(errs)
}

// Config builds the backend configuration shared with the server.
func (o *IngestOptions) Config() *astramed.Config {
	return &astramed.Config{
		LogOptions:       o.LogOptions,
		EmbeddingOptions: o.EmbeddingOptions,
		MilvusOptions:    o.MilvusOptions,
		PostgresOptions:  o.PostgresOptions,
		RedisOptions:     o.RedisOptions,
		AstraMedOptions:  o.AstraMedOptions,
	}
}
