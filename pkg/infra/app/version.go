package app

import (
	"fmt"
	"io"

	"github.com/kart-io/version"
)

// GetVersion returns the git version the binary was built from.
func GetVersion() string {
	return version.Get().GitVersion
}

// PrintBanner writes the application name, version and the given key/value
// pairs, one per line.
func PrintBanner(w io.Writer, name string, kv ...string) {
	fmt.Fprintf(w, "Starting %s %s...\n", name, GetVersion())
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(w, "  %s: %s\n", kv[i], kv[i+1])
	}
}
