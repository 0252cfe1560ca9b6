// Package eval provides options for the offline evaluator.
package eval

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/astramed/internal/pkg/dataset"
	"github.com/kart-io/astramed/internal/pkg/evaluator"
	"github.com/kart-io/astramed/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains evaluation run configuration.
type Options struct {
	// Dataset MedQuAD 格式的 CSV 数据集路径。
	Dataset string `json:"dataset" mapstructure:"dataset"`

	// Samples 抽样数量。
	Samples int `json:"samples" mapstructure:"samples"`

	// Seed 抽样随机种子。
	Seed int64 `json:"seed" mapstructure:"seed"`

	Cutoff           float64       `json:"cutoff" mapstructure:"cutoff"`
	Temperature      float64       `json:"temperature" mapstructure:"temperature"`
	SimulatedLatency time.Duration `json:"simulated-latency" mapstructure:"simulated-latency"`
	Concurrency      int           `json:"concurrency" mapstructure:"concurrency"`

	// Output 报告文件 (.json/.yaml)，为空时只输出控制台摘要。
	Output string `json:"output" mapstructure:"output"`

	// Detailed 控制台摘要中展示的样本行数。
	Detailed int `json:"detailed" mapstructure:"detailed"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	def := evaluator.DefaultConfig()
	return &Options{
		Dataset:          "./downloaded_files/medquadd.csv",
		Samples:          10,
		Seed:             dataset.DefaultSeed,
		Cutoff:           def.Cutoff,
		Temperature:      def.Temperature,
		SimulatedLatency: def.SimulatedLatency,
		Concurrency:      def.Concurrency,
		Detailed:         3,
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "eval."
	fs.StringVar(&o.Dataset, p+"dataset", o.Dataset, "CSV dataset with question and answer columns.")
	fs.IntVar(&o.Samples, p+"samples", o.Samples, "Number of samples drawn from the dataset.")
	fs.Int64Var(&o.Seed, p+"seed", o.Seed, "Sampling seed.")
	fs.Float64Var(&o.Cutoff, p+"cutoff", o.Cutoff, "Distance below which the reference answer is reused.")
	fs.Float64Var(&o.Temperature, p+"temperature", o.Temperature, "Generation temperature.")
	fs.DurationVar(&o.SimulatedLatency, p+"simulated-latency", o.SimulatedLatency, "Extra delay added to each sample.")
	fs.IntVar(&o.Concurrency, p+"concurrency", o.Concurrency, "Samples evaluated concurrently.")
	fs.StringVar(&o.Output, p+"output", o.Output, "Report file (.json, .yaml).")
	fs.IntVar(&o.Detailed, p+"detailed", o.Detailed, "Sample rows printed in the console summary.")
}

// Config returns the evaluator configuration.
func (o *Options) Config() evaluator.Config {
	return evaluator.Config{
		Cutoff:           o.Cutoff,
		Temperature:      o.Temperature,
		SimulatedLatency: o.SimulatedLatency,
		Concurrency:      o.Concurrency,
	}
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Dataset == "" {
		errs = append(errs, fmt.Errorf("eval.dataset is required"))
	}
	if o.Samples <= 0 {
		errs = append(errs, fmt.Errorf("eval.samples must be positive"))
	}
	if o.Cutoff < 0 || o.Cutoff > 2 {
		errs = append(errs, fmt.Errorf("eval.cutoff must be in [0, 2]"))
	}
	if o.Temperature < 0 || o.Temperature > 2 {
		errs = append(errs, fmt.Errorf("eval.temperature must be in [0, 2]"))
	}
	if o.SimulatedLatency < 0 {
		errs = append(errs, fmt.Errorf("eval.simulated-latency must not be negative"))
	}
	if o.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("eval.concurrency must be positive"))
	}
	if o.Detailed < 0 {
		errs = append(errs, fmt.Errorf("eval.detailed must not be negative"))
	}
	return errs
}
