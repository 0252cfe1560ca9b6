// Package sqlite provides SQLite options.
package sqlite

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/astramed/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options defines configuration options for an embedded SQLite database.
type Options struct {
	// Path 数据库文件路径，":memory:" 表示内存数据库
	Path string `json:"path" mapstructure:"path"`

	// LogLevel GORM 日志级别 (1 silent, 2 error, 3 warn, 4 info)
	LogLevel int `json:"log-level" mapstructure:"log-level"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Path:     "astramed.db",
		LogLevel: 1,
	}
}

// Validate checks if the options are valid.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	var errs []error
	if o.Path == "" {
		errs = append(errs, fmt.Errorf("sqlite.path is required"))
	}
	if o.LogLevel < 1 || o.LogLevel > 4 {
		errs = append(errs, fmt.Errorf("sqlite.log-level must be in 1-4"))
	}
	return errs
}

// AddFlags adds flags for SQLite options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "sqlite."
	fs.StringVar(&o.Path, p+"path", o.Path, "SQLite database file (\":memory:\" for in-memory).")
	fs.IntVar(&o.LogLevel, p+"log-level", o.LogLevel, "GORM log level (1 silent, 2 error, 3 warn, 4 info)")
}
