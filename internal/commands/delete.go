package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{
		Name:      "delete",
		Usage:     "Delete one analysis",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id := c.Args().Get(0)
			if id == "" {
				return cli.NewExitError("Specify an analysis id", 1)
			}
			if err := newClient(c).Delete(context.Background(), id); err != nil {
				return exitErr(err)
			}
			fmt.Fprintf(c.App.Writer, "Deleted %s\n", id)
			return nil
		},
	}
	bootstrapCommands(command)
}
