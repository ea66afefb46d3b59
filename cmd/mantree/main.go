package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mantree/cmd/mantree/commands"
	ferrors "git.home.luguber.info/inful/mantree/internal/foundation/errors"
	"git.home.luguber.info/inful/mantree/internal/version"
)

func main() {
	var cli commands.CLI
	parser := kong.Must(&cli,
		kong.Name("mantree"),
		kong.Description("Restructure generated CLI reference pages into a nested documentation tree."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := kctx.Run(&commands.Global{Logger: slog.Default()}, &cli); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
