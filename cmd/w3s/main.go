// w3s - command-line client for web3.storage
package main

import (
	"fmt"
	"os"

	"github.com/w3s-cli/w3s/internal/cli"
	"github.com/w3s-cli/w3s/internal/version"
)

// Version information, injected with -ldflags.
var (
	Version   = "v0.1.0-dev"
	BuildTime = "unknown"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
