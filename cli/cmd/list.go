package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/terrafile/cli/render"
	"github.com/justapithecus/terrafile/terrafile"
)

// ListCommand returns the list command. It reads and reports the module
// declarations without contacting any registry or running git.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List declared modules without syncing",
		ArgsUsage: "[path]",
		Flags:     OutputFlags(),
		Action:    listAction,
	}
}

func listAction(c *cli.Context) error {
	renderer, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	tf, err := terrafile.DiscoverAndLoad(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	return renderer.RenderModules(tf.Modules)
}
