package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli"
)

func init() {
	command := cli.Command{
		Name:      "analyze",
		Usage:     "Upload a capture and print its summary",
		ArgsUsage: "<file.pcap|file.pcapng>",
		Flags:     []cli.Flag{humanFlag},
		Action: func(c *cli.Context) error {
			path := c.Args().Get(0)
			if path == "" {
				return cli.NewExitError("Specify a capture file", 1)
			}

			v, err := newClient(c).Analyze(context.Background(), path)
			if err != nil {
				return exitErr(err)
			}

			fmt.Fprintf(c.App.Writer, "Analysis %s\n", v.ID)
			return writeRows(c.App.Writer, c.Bool("human-readable"),
				[]string{"Packets", "Unique IPs", "Prediction", "Malicious %", "Confidence %", "IOCs"},
				[][]string{{
					i(int64(v.Summary.Packets)),
					i(int64(v.Summary.UniqueIPs)),
					v.Summary.Prediction,
					f(v.Summary.MaliciousPercent),
					f(v.Summary.Confidence),
					i(int64(len(v.IOCs))),
				}})
		},
	}
	bootstrapCommands(command)
}
