// Package options contains flags and options for the offline evaluator.
package options

import (
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/astramed/internal/astramed"
	cliflag "github.com/kart-io/astramed/pkg/app/cliflag"
	astramedopts "github.com/kart-io/astramed/pkg/options/astramed"
	evalopts "github.com/kart-io/astramed/pkg/options/eval"
	llmopts "github.com/kart-io/astramed/pkg/options/llm"
	logopts "github.com/kart-io/astramed/pkg/options/logger"
	milvusopts "github.com/kart-io/astramed/pkg/options/milvus"
	postgresopts "github.com/kart-io/astramed/pkg/options/postgres"
	redisopts "github.com/kart-io/astramed/pkg/options/redis"
)

// EvalOptions contains the configuration options for an evaluation run.
type EvalOptions struct {
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// EmbeddingOptions 检索使用的嵌入模型，需与入库时一致。
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// RelevanceOptions 计算相关度的句向量模型。
	RelevanceOptions *llmopts.ProviderOptions `json:"relevance" mapstructure:"relevance"`

	ChatOptions     *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`
	MilvusOptions   *milvusopts.Options      `json:"milvus" mapstructure:"milvus"`
	PostgresOptions *postgresopts.Options    `json:"postgres" mapstructure:"postgres"`
	RedisOptions    *redisopts.Options       `json:"redis" mapstructure:"redis"`
	AstraMedOptions *astramedopts.Options    `json:"astramed" mapstructure:"astramed"`

	EvalOptions *evalopts.Options `json:"eval" mapstructure:"eval"`
}

// NewEvalOptions creates an EvalOptions instance with default values.
func NewEvalOptions() *EvalOptions {
	return &EvalOptions{
		LogOptions:       logopts.NewOptions(),
		EmbeddingOptions: llmopts.NewEmbeddingOptions(),
		RelevanceOptions: llmopts.NewEmbeddingOptions(),
		ChatOptions:      llmopts.NewChatOptions(),
		MilvusOptions:    milvusopts.NewOptions(),
		PostgresOptions:  postgresopts.NewOptions(),
		RedisOptions:     redisopts.NewOptions(),
		AstraMedOptions:  astramedopts.NewOptions(),
		EvalOptions:      evalopts.NewOptions(),
	}
}

// Flags returns flags grouped by section.
func (o *EvalOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.EvalOptions.AddFlags(fss.FlagSet("eval"))
	o.AstraMedOptions.AddFlags(fss.FlagSet("astramed"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"), "embedding")
	o.RelevanceOptions.AddFlags(fss.FlagSet("relevance"), "relevance")
	o.ChatOptions.AddFlags(fss.FlagSet("chat"), "chat")
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.PostgresOptions.AddFlags(fss.FlagSet("postgres"))
	o.RedisOptions.AddFlags(fss.FlagSet("redis"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	return fss
}

// Complete completes all the required options.
func (o *EvalOptions) Complete() error {
	for name, p := range map[string]*llmopts.ProviderOptions{
		"embedding": o.EmbeddingOptions,
		"relevance": o.RelevanceOptions,
		"chat":      o.ChatOptions,
	} {
		if err := p.Complete(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
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
func (o *EvalOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.EmbeddingOptions.Validate()...)
	errs = append(errs, o.RelevanceOptions.Validate()...)
	errs = append(errs, o.ChatOptions.Validate()...)
	errs = append(errs, o.AstraMedOptions.Validate()...)
	errs = append(errs, o.EvalOptions.Validate()...)

	switch o.AstraMedOptions.Store {
	case astramedopts.StoreMilvus:
		errs = append(errs, o.MilvusOptions.Validate()...)
	case astramedopts.StorePGVector:
		errs = append(errs, o.PostgresOptions.Validate()...)
	}
	if c := o.AstraMedOptions.EmbeddingCache; c != nil && c.Enabled {
		errs = append(errs, o.RedisOptions.Validate()...)
	}
	return utilerrors.NewAggregate(errs)
}

// Config builds the backend configuration shared with the server.
func (o *EvalOptions) Config() *astramed.Config {
	return &astramed.Config{
		LogOptions:       o.LogOptions,
		EmbeddingOptions: o.EmbeddingOptions,
		ChatOptions:      o.ChatOptions,
		MilvusOptions:    o.MilvusOptions,
		PostgresOptions:  o.PostgresOptions,
		RedisOptions:     o.RedisOptions,
		AstraMedOptions:  o.AstraMedOptions,
	}
}
