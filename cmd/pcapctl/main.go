package main

import (
	"os"

	"github.com/bryanwahyu/pcap-insight/internal/commands"
)

// Entry point of pcapctl
func main() {
	app := commands.NewApp(os.Stdout)
	app.Run(os.Args)
}
