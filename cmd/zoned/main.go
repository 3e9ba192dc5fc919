// Command zoned is the entry point for the behaviour-tree AI agent
// runtime: it loads a YAML world definition, runs the zone scheduler, and
// serves the remote debug protocol (spec §4.7, §4.8).
package main

import (
	"fmt"
	"os"

	"github.com/zoneai/zoneai/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
