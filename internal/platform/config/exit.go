package config

import (
	"fmt"
	"os"
)

// Exitf prints a formatted message to stderr and exits with code 1. The
// tumorboard utility commands (seed, token) use it for fatal errors instead
// of log.Fatalf so their diagnostics stay free of log prefixes.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
