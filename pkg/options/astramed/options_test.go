package astramed

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptions_Valid(t *testing.T) {
	o := NewOptions()
	require.NoError(t, o.Complete())
	assert.Empty(t, o.Validate())
	assert.False(t, o.NeedsRedis())
	assert.False(t, o.NeedsPostgres())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(o *Options)
	}{
		{"unknown store", func(o *Options) { o.Store = "faiss" }},
		{"memory without corpus", func(o *Options) { o.Store = StoreMemory }},
		{"pgvector without dimension", func(o *Options) { o.Store = StorePGVector; o.PGVectorDimension = 0 }},
		{"unknown feedback", func(o *Options) { o.Feedback = "kafka" }},
		{"negative max len", func(o *Options) { o.FeedbackMaxLen = -1 }},
		{"unknown strategy", func(o *Options) { o.Router.Strategy = "agent" }},
		{"negative margin", func(o *Options) { o.Router.Margin = -0.1 }},
		{"negative max tokens", func(o *Options) { o.SynthesisMaxTokens = -1 }},
		{"cache without ttl", func(o *Options) { o.EmbeddingCache.Enabled = true; o.EmbeddingCache.TTL = 0 }},
		{"zero body limit", func(o *Options) { o.MaxBodyBytes = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptions()
			tt.modify(o)
			assert.Len(t, o.Validate(), 1)
		})
	}
}

func TestNeeds(t *testing.T) {
	o := NewOptions()
	o.Feedback = FeedbackRedis
	assert.True(t, o.NeedsRedis())

	o = NewOptions()
	o.EmbeddingCache.Enabled = true
	assert.True(t, o.NeedsRedis())

	o = NewOptions()
	o.Store = StorePGVector
	assert.True(t, o.NeedsPostgres())

	o = NewOptions()
	o.Feedback = FeedbackPostgres
	assert.True(t, o.NeedsPostgres())
}

func TestAddFlags(t *testing.T) {
	o := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--astramed.store=memory",
		"--astramed.corpus-path=corpus.yaml",
		"--astramed.router.strategy=llm",
		"--astramed.router.enabled=false",
		"--astramed.router.extra-terms=mucoviscidose,drépanocytose",
		"--astramed.swagger-enabled",
	}))
	assert.Equal(t, StoreMemory, o.Store)
	assert.Equal(t, "corpus.yaml", o.CorpusPath)
	assert.Equal(t, StrategyLLM, o.Router.Strategy)
	assert.False(t, o.Router.Enabled)
	assert.Equal(t, []string{"mucoviscidose", "drépanocytose"}, o.Router.ExtraTerms)
	assert.True(t, o.SwaggerEnabled)
	assert.Empty(t, o.Validate())
}

func TestComplete_RestoresNilSections(t *testing.T) {
	o := &Options{Store: StoreMilvus, Feedback: FeedbackLog, MaxBodyBytes: 1}
	require.NoError(t, o.Complete())
	require.NotNil(t, o.Router)
	require.NotNil(t, o.EmbeddingCache)
	assert.Equal(t, "medical_qa", o.PGVectorTable)
	assert.Empty(t, o.Validate())
}
