// Package main is the entry point for the plugtree CLI.
package main

import (
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/vinayprograms/plugtree/internal/report"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func init() {
	// Load .env for PLUGTREE_* settings
	_ = godotenv.Load()
}

func main() {
	rep := report.New()
	defer rep.Recover()

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("plugtree"),
		kong.Description("Run a tree of monitoring checks and report one status line."),
		kongVars(),
	)
	if err != nil {
		rep.Eject("cli", err)
		return
	}
	ctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		rep.Eject("cli", err)
		return
	}

	app, err := newApp(cli.Config, rep)
	if err != nil {
		rep.Eject("config", err)
		return
	}
	defer app.Close()

	if err := ctx.Run(app); err != nil {
		// Eject exits, so flush telemetry and logs first.
		app.Close()
		rep.Eject(strings.Fields(ctx.Command())[0], err)
	}
}
