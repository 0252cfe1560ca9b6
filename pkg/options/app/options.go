// Package app defines the contract between command options and the
// application bootstrap.
package app

import cliflag "github.com/kart-io/astramed/pkg/app/cliflag"

// CliOptions abstracts configuration options for reading parameters from the
// command line.
type CliOptions interface {
	// Flags returns the flag sets grouped by section.
	Flags() cliflag.NamedFlagSets
	// Complete fills derived values once config and flags are merged.
	Complete() error
	// Validate checks the merged options.
	Validate() error
}
