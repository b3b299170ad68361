package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/socialpilot/cmd/socialpilot/commands"
	"git.home.luguber.info/inful/socialpilot/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("socialpilot"),
		kong.Description("Humanized, quota-governed social automation engine"),
		kong.Vars{"version": version.Version},
		kong.UsageOnError(),
	)

	if err := ctx.Run(&commands.Global{}, cli); err != nil {
		ctx.Errorf("%v", err)
		os.Exit(1)
	}
}
