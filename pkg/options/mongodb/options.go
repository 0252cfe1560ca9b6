// Package mongodb provides MongoDB options.
package mongodb

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/astramed/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

const redactedPassword = "[REDACTED]"

// Options defines configuration options for MongoDB.
type Options struct {
	URI      string `json:"-" mapstructure:"uri"`
	Host     string `json:"host" mapstructure:"host"`
	Port     int    `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"-" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`

	// Collection 反馈记录集合名称
	Collection string `json:"collection" mapstructure:"collection"`

	MaxPoolSize            uint64        `json:"max-pool-size" mapstructure:"max-pool-size"`
	MinPoolSize            uint64        `json:"min-pool-size" mapstructure:"min-pool-size"`
	ConnectTimeout         time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`
	ServerSelectionTimeout time.Duration `json:"server-selection-timeout" mapstructure:"server-selection-timeout"`

	ReplicaSet string `json:"replica-set" mapstructure:"replica-set"`
	AuthSource string `json:"auth-source" mapstructure:"auth-source"`
	Direct     bool   `json:"direct" mapstructure:"direct"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Host:                   "127.0.0.1",
		Port:                   27017,
		Database:               "astramed",
		Collection:             "feedback",
		MaxPoolSize:            50,
		MinPoolSize:            0,
		ConnectTimeout:         10 * time.Second,
		ServerSelectionTimeout: 10 * time.Second,
		AuthSource:             "admin",
	}
}

// String returns a string representation with password redacted.
func (o *Options) String() string {
	password := redactedPassword
	if o.Password == "" {
		password = ""
	}
	return fmt.Sprintf("MongoDB{host=%s, port=%d, user=%s, password=%s, database=%s}",
		o.Host, o.Port, o.Username, password, o.Database)
}

// Complete reads the password from MONGODB_PASSWORD when unset.
func (o *Options) Complete() error {
	if o.Password == "" {
		o.Password = os.Getenv("MONGODB_PASSWORD")
	}
	return nil
}

// Validate checks if the options are valid.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	var errs []error
	if o.URI == "" && o.Host == "" {
		errs = append(errs, fmt.Errorf("mongodb.uri or mongodb.host is required"))
	}
	if o.Database == "" {
		errs = append(errs, fmt.Errorf("mongodb.database is required"))
	}
	if o.Collection == "" {
		errs = append(errs, fmt.Errorf("mongodb.collection is required"))
	}
	if o.MinPoolSize > o.MaxPoolSize {
		errs = append(errs, fmt.Errorf("mongodb.min-pool-size must not exceed max-pool-size"))
	}
	return errs
}

// AddFlags adds flags for MongoDB options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "mongodb."
	fs.StringVar(&o.URI, p+"uri", o.URI, "MongoDB URI (mongodb://...). Overrides host/port when set.")
	fs.StringVar(&o.Host, p+"host", o.Host, "MongoDB host.")
	fs.IntVar(&o.Port, p+"port", o.Port, "MongoDB port.")
	fs.StringVar(&o.Username, p+"username", o.Username, "MongoDB username.")
	fs.StringVar(&o.Password, p+"password", o.Password, "MongoDB password (prefer MONGODB_PASSWORD env var).")
	fs.StringVar(&o.Database, p+"database", o.Database, "MongoDB database.")
	fs.StringVar(&o.Collection, p+"collection", o.Collection, "MongoDB collection for feedback records.")
	fs.Uint64Var(&o.MaxPoolSize, p+"max-pool-size", o.MaxPoolSize, "Maximum number of connections in the pool.")
	fs.Uint64Var(&o.MinPoolSize, p+"min-pool-size", o.MinPoolSize, "Minimum number of connections in the pool.")
	fs.DurationVar(&o.ConnectTimeout, p+"connect-timeout", o.ConnectTimeout, "Connect timeout.")
	fs.DurationVar(&o.ServerSelectionTimeout, p+"server-selection-timeout", o.ServerSelectionTimeout, "Server selection timeout.")
	fs.StringVar(&o.ReplicaSet, p+"replica-set", o.ReplicaSet, "Replica set name.")
	fs.StringVar(&o.AuthSource, p+"auth-source", o.AuthSource, "Authentication database.")
	fs.BoolVar(&o.Direct, p+"direct", o.Direct, "Use a direct connection.")
}

// BuildURI returns URI when set, otherwise assembles one from the parts.
func (o *Options) BuildURI() string {
	if o.URI != "" {
		return o.URI
	}

	var b strings.Builder
	b.WriteString("mongodb://")
	if o.Username != "" {
		b.WriteString(url.QueryEscape(o.Username))
		if o.Password != "" {
			b.WriteString(":")
			b.WriteString(url.QueryEscape(o.Password))
		}
		b.WriteString("@")
	}
	b.WriteString(o.Host)
	if o.Port != 0 {
		fmt.Fprintf(&b, ":%d", o.Port)
	}
	b.WriteString("/")

	params := url.Values{}
	if o.Username != "" && o.AuthSource != "" {
		params.Add("authSource", o.AuthSource)
	}
	if o.ReplicaSet != "" {
		params.Add("replicaSet", o.ReplicaSet)
	}
	if o.Direct {
		params.Add("directConnection", "true")
	}
	if len(params) > 0 {
		b.WriteString("?")
		b.WriteString(params.Encode())
	}
	return b.String()
}
