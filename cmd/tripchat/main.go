// Package main provides the tripchat CLI: an interactive travel planning chat
// on top of a bounded tripsession, plus commands to replay, inspect and
// export stored sessions.
package main

import (
	"fmt"
	"os"
)

var version = "0.1.0" // set at build time with -ldflags "-X main.version=..."

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
