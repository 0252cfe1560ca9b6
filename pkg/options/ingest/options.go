// Package ingest provides options for corpus ingestion.
package ingest

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/astramed/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains corpus ingestion configuration.
type Options struct {
	// Dataset MedQuAD 格式的 CSV 数据集路径。
	Dataset string `json:"dataset" mapstructure:"dataset"`

	// BatchSize 每次嵌入调用的问题数。
	BatchSize int `json:"batch-size" mapstructure:"batch-size"`

	// Concurrency 并发嵌入的批次数。
	Concurrency int `json:"concurrency" mapstructure:"concurrency"`

	// Limit 最多导入的记录数，0 表示全部。
	Limit int `json:"limit" mapstructure:"limit"`

	// Output memory 后端写出的 YAML 种子文件。
	Output string `json:"output" mapstructure:"output"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Dataset:     "./downloaded_files/medquadd.csv",
		BatchSize:   64,
		Concurrency: 4,
		Output:      "corpus.yaml",
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "ingest."
	fs.StringVar(&o.Dataset, p+"dataset", o.Dataset, "CSV dataset with question and answer columns.")
	fs.IntVar(&o.BatchSize, p+"batch-size", o.BatchSize, "Questions embedded per provider call.")
	fs.IntVar(&o.Concurrency, p+"concurrency", o.Concurrency, "Batches embedded concurrently.")
	fs.IntVar(&o.Limit, p+"limit", o.Limit, "Maximum records ingested (0 = all).")
	fs.StringVar(&o.Output, p+"output", o.Output, "YAML seed file written for the memory store.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Dataset == "" {
		errs = append(errs, fmt.Errorf("ingest.dataset is required"))
	}
	if o.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("ingest.batch-size must be positive"))
	}
	if o.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("ingest.concurrency must be positive"))
	}
	if o.Limit < 0 {
		errs = append(errs, fmt.Errorf("ingest.limit must not be negative"))
	}
	return errs
}
