// Package options holds the option sections shared by the AstraMed binaries.
// Every section binds its flags under a dotted prefix such as "redis." or
// "relevance.embedding.".
package options

import (
	"strings"

	"github.com/spf13/pflag"
)

// Join builds a flag prefix from prefixes, e.g. Join("relevance") == "relevance.".
// Empty prefixes are skipped, so Join() and Join("") yield "".
func Join(prefixes ...string) string {
	var b strings.Builder
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		b.WriteString(p)
		b.WriteByte('.')
	}
	return b.String()
}

// IOptions is implemented by every option section.
type IOptions interface {
	// Validate reports every invalid field.
	Validate() []error

	// AddFlags binds the section's fields to fs under prefixes.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}
