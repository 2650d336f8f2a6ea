// Package main provides the entry point for the pluginkit CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/pluginkit/cmd/pluginkit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
