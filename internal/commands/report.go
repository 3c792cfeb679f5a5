package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{
		Name:      "report",
		Usage:     "Request the report of one analysis",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id := c.Args().Get(0)
			if id == "" {
				return cli.NewExitError("Specify an analysis id", 1)
			}
			stub, err := newClient(c).Report(context.Background(), id)
			if err != nil {
				return exitErr(err)
			}
			fmt.Fprintf(c.App.Writer, "%s (%s)\n", stub.Message, stub.Filename)
			return nil
		},
	}
	bootstrapCommands(command)
}
