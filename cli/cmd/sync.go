package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/terrafile/cli/render"
	"github.com/justapithecus/terrafile/log"
	"github.com/justapithecus/terrafile/metrics"
	"github.com/justapithecus/terrafile/source"
	"github.com/justapithecus/terrafile/sync"
	"github.com/justapithecus/terrafile/terrafile"
)

// Exit codes.
const (
	exitSuccess       = 0
	exitModuleFailure = 1
	exitConfigError   = 2
	exitRegistryError = 3
)

// SyncCommand returns the sync command, the default when no subcommand
// is given. The optional path argument is a Terrafile or a directory to
// search (current directory by default, walking up parents).
func SyncCommand() *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Synchronize declared modules into local checkouts",
		ArgsUsage: "[path]",
		Flags: append(OutputFlags(),
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Usage:   "Concurrent sync workers (overrides setup.jobs)",
			},
			&cli.BoolFlag{
				Name:  "shallow",
				Usage: "Clone with --depth=1 --single-branch",
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Credential injected into GitHub clone URLs",
				EnvVars: []string{"GITHUB_TOKEN"},
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress result output",
			},
		),
		Action: syncAction,
	}
}

func syncAction(c *cli.Context) error {
	renderer, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	tf, err := terrafile.DiscoverAndLoad(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	runID := uuid.New().String()
	logger := log.NewLogger(runID, tf.Path)

	workers := c.Int("jobs")
	if workers <= 0 {
		workers = tf.Setup.Jobs
	}
	if workers <= 0 {
		workers = sync.DefaultWorkers
	}

	orchestrator, err := sync.NewOrchestrator(&sync.Config{
		Terrafile: tf,
		Workers:   workers,
		Shallow:   c.Bool("shallow"),
		Token:     c.String("token"),
		Logger:    logger,
		Collector: metrics.NewCollector(runID, tf.Path, workers),
	})
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	run := orchestrator.Run(ctx)

	if !c.Bool("quiet") {
		if err := renderer.RenderRun(run); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}

	return cli.Exit("", runExitCode(run))
}

// runExitCode maps a run outcome to the process exit code.
func runExitCode(run *sync.RunResult) int {
	if run.Fatal != nil {
		switch {
		case errors.Is(run.Fatal, source.ErrRegistryLookup):
			return exitRegistryError
		case errors.Is(run.Fatal, terrafile.ErrConfig):
			return exitConfigError
		default:
			return exitModuleFailure
		}
	}
	if run.Failed() {
		return exitModuleFailure
	}
	return exitSuccess
}
