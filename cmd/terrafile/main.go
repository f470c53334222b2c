// Package main provides the terrafile CLI entrypoint.
//
// Usage:
//
//	terrafile [sync] [path] [options]
//
// Exit codes for `sync`:
//   - 0: all modules synchronized
//   - 1: one or more module tasks failed
//   - 2: configuration error
//   - 3: registry lookup error
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/terrafile/cli/cmd"
	"github.com/justapithecus/terrafile/terrafile"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "terrafile",
		Usage:          "Synchronize Terraform module dependencies from a Terrafile",
		Version:        fmt.Sprintf("%s (commit: %s)", terrafile.Version, commit),
		DefaultCommand: "sync",
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.SyncCommand(),
			cmd.ListCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit() so sync outcomes
// map onto the documented codes.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N"; skip those.
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
