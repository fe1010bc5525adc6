// Package main provides the entry point for the wipecert CLI.
package main

import (
	"context"
	"os"

	"github.com/mrz1836/wipecert/internal/cli"
)

// Set via ldflags at build time.
//
//nolint:gochecknoglobals // Build metadata injected by the linker
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	ctx := context.Background()
	info := cli.BuildInfo{Version: version, Commit: commit, Date: date}
	if err := cli.Execute(ctx, info); err != nil {
		os.Exit(cli.ExitCodeForError(err))
	}
}
