package main

import (
	"fmt"
	"os"

	"github.com/voicediary/composite/cmd"
	"github.com/voicediary/composite/internal/conf"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	settings := &conf.Settings{}
	rootCmd := cmd.RootCommand(settings, version)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
