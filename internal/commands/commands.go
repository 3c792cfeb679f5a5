package commands

import (
	"io"

	"github.com/urfave/cli"

	"github.com/bryanwahyu/pcap-insight/internal/client"
)

// Version is stamped at build time.
var Version = "dev"

var allCommands []cli.Command

var humanFlag = cli.BoolFlag{
	Name:  "human-readable, H",
	Usage: "print a table instead of CSV",
}

// GlobalFlags are the application-wide options.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:   "server, s",
			Usage:  "analysis API at `URL`",
			Value:  client.DefaultServer,
			EnvVar: "PCAPCTL_SERVER",
		},
		cli.StringFlag{
			Name:   "api-key, k",
			Usage:  "API `KEY` for destructive commands",
			EnvVar: "PCAPCTL_API_KEY",
		},
	}
}

// NewApp builds the pcapctl application writing its output to w.
func NewApp(w io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "pcapctl"
	app.Usage = "Upload captures and browse their analyses."
	app.Version = Version
	app.Flags = GlobalFlags()
	app.Commands = Commands()
	if w != nil {
		app.Writer = w
	}
	return app
}

// Commands provides all of the defined commands to the front end
func Commands() []cli.Command {
	return append([]cli.Command(nil), allCommands...)
}

// bootstrapCommands adds commands defined in the other files
func bootstrapCommands(commands ...cli.Command) {
	allCommands = append(allCommands, commands...)
}

func newClient(c *cli.Context) *client.Client {
	return client.New(c.GlobalString("server"), c.GlobalString("api-key"))
}

func exitErr(err error) error {
	return cli.NewExitError(err.Error(), 1)
}
