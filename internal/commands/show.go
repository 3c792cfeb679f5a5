package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli"

	domain "github.com/bryanwahyu/pcap-insight/internal/domain/analyses"
)

func init() {
	command := cli.Command{
		Name:      "show",
		Usage:     "Print the indicators of compromise of one analysis",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			humanFlag,
			cli.StringFlag{
				Name:  "search, q",
				Usage: "only IOCs whose value contains `TEXT`",
			},
			cli.StringFlag{
				Name:  "type, t",
				Usage: "only IOCs of `TYPE` (IP, Domain, Hash)",
			},
			cli.StringFlag{
				Name:  "sort",
				Usage: "sort by threatScore, count, firstSeen, value or type",
				Value: domain.SortThreatScore,
			},
			cli.BoolFlag{
				Name:  "asc",
				Usage: "sort ascending instead of descending",
			},
		},
		Action: func(c *cli.Context) error {
			id := c.Args().Get(0)
			if id == "" {
				return cli.NewExitError("Specify an analysis id", 1)
			}

			q := domain.IOCQuery{
				Search: c.String("search"),
				SortBy: c.String("sort"),
				Asc:    c.Bool("asc"),
			}
			if raw := c.String("type"); raw != "" {
				t, ok := domain.ParseIOCType(raw)
				if !ok {
					return cli.NewExitError(fmt.Sprintf("Unknown IOC type %q", raw), 1)
				}
				q.Type = t
			}
			if err := q.Validate(); err != nil {
				return exitErr(err)
			}

			v, err := newClient(c).Show(context.Background(), id, q)
			if err != nil {
				return exitErr(err)
			}

			rows := make([][]string, 0, len(v.IOCs))
			for _, ioc := range v.IOCs {
				rows = append(rows, []string{
					string(ioc.Type),
					ioc.Value,
					i(int64(ioc.ThreatScore)),
					domain.ThreatLevel(ioc.ThreatScore),
					ioc.FirstSeen,
					i(int64(ioc.Count)),
				})
			}
			return writeRows(c.App.Writer, c.Bool("human-readable"),
				[]string{"Type", "Value", "Threat Score", "Level", "First Seen", "Count"}, rows)
		},
	}
	bootstrapCommands(command)
}
