// Command livetree renders, diffs and serves livetree snapshots.
package main

import (
	"context"
	"os"

	"github.com/vango-dev/livetree/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	c := newCLI(os.Stdout, os.Stderr)
	if err := c.rootCmd().ExecuteContext(context.Background()); err != nil {
		errors.Print(os.Stderr, err)
		c.close()
		os.Exit(1)
	}
	c.close()
}
