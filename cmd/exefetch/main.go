package main

import (
	"errors"
	"fmt"
	"os"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

// exitError carries a non-zero exit code for outcomes that are not failures
// of the command itself, such as detected drift.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
