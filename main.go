package main

import (
	"fmt"
	"os"

	"github.com/qahub/qa-hub/cmd"
	"github.com/qahub/qa-hub/internal/conf"
	"github.com/qahub/qa-hub/internal/logging"
)

// Populated via ldflags at build time.
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	settings.Version = version
	settings.BuildDate = buildDate

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
