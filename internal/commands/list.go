package commands

import (
	"context"
	"time"

	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{
		Name:  "list",
		Usage: "Print every stored analysis, newest first",
		Flags: []cli.Flag{humanFlag},
		Action: func(c *cli.Context) error {
			list, err := newClient(c).List(context.Background())
			if err != nil {
				return exitErr(err)
			}
			if len(list) == 0 {
				return cli.NewExitError("No analyses were found", 1)
			}

			rows := make([][]string, 0, len(list))
			for _, a := range list {
				rows = append(rows, []string{
					string(a.ID),
					a.Filename,
					i(a.Filesize),
					a.UploadedAt.Format(time.RFC3339),
					a.Prediction,
					f(a.Confidence),
				})
			}
			return writeRows(c.App.Writer, c.Bool("human-readable"),
				[]string{"ID", "Filename", "Size", "Uploaded", "Prediction", "Confidence %"}, rows)
		},
	}
	bootstrapCommands(command)
}
