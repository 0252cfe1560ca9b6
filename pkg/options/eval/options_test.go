package eval

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptions(t *testing.T) {
	o := NewOptions()
	assert.Empty(t, o.Validate())
	assert.Equal(t, int64(42), o.Seed)
	assert.Equal(t, 10, o.Samples)

	cfg := o.Config()
	assert.Equal(t, 0.2, cfg.Cutoff)
	assert.Equal(t, 0.5, cfg.Temperature)
	assert.Equal(t, 1, cfg.Concurrency)
}

func TestAddFlags(t *testing.T) {
	o := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"--eval.samples=50",
		"--eval.concurrency=4",
		"--eval.simulated-latency=250ms",
		"--eval.output=report.yaml",
	}))
	assert.Equal(t, 50, o.Samples)
	assert.Equal(t, 4, o.Config().Concurrency)
	assert.Equal(t, 250*time.Millisecond, o.Config().SimulatedLatency)
	assert.Equal(t, "report.yaml", o.Output)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(o *Options)
	}{
		{"no dataset", func(o *Options) { o.Dataset = "" }},
		{"zero samples", func(o *Options) { o.Samples = 0 }},
		{"negative cutoff", func(o *Options) { o.Cutoff = -0.1 }},
		{"temperature too high", func(o *Options) { o.Temperature = 2.5 }},
		{"negative latency", func(o *Options) { o.SimulatedLatency = -time.Second }},
		{"zero concurrency", func(o *Options) { o.Concurrency = 0 }},
		{"negative detailed", func(o *Options) { o.Detailed = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptions()
			tt.modify(o)
			assert.Len(t, o.Validate(), 1)
		})
	}
}
