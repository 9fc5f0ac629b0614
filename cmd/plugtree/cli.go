// Package main defines the CLI structure using kong.
package main

import "github.com/alecthomas/kong"

// CLI defines the command-line interface.
type CLI struct {
	Config string `help:"Config file path (default: $PLUGTREE_CONFIG or ./plugtree.toml)"`

	Run      RunCmd      `cmd:"" help:"Run a plugin tree and report its status"`
	Validate ValidateCmd `cmd:"" help:"Validate a definition file"`
	Inspect  InspectCmd  `cmd:"" help:"Show the plugin tree of a definition"`
	Watch    WatchCmd    `cmd:"" help:"Re-run a plugin tree whenever its definition changes"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

// RunCmd executes a plugin tree once.
type RunCmd struct {
	File       string            `short:"f" help:"Definition file (default from config)"`
	Arg        map[string]string `short:"a" help:"Argument tag.key=value (repeatable)"`
	Thresholds string            `help:"Thresholds as JSON, e.g. {\"disk\":\":80:90:\"}"`
	Plugin     string            `help:"Run only the plugin at this dotted path (fs.root or main.fs.root)"`
	LongText   bool              `help:"Print long text after the report line"`
}

// ValidateCmd validates a definition file.
type ValidateCmd struct {
	File string `arg:"" optional:"" help:"Definition file (default from config)"`
}

// InspectCmd shows the plugin tree.
type InspectCmd struct {
	File  string `arg:"" optional:"" help:"Definition file (default from config)"`
	Width int    `default:"80" help:"Wrap descriptions at this width"`
}

// WatchCmd re-runs a plugin tree on definition changes.
type WatchCmd struct {
	File     string            `short:"f" help:"Definition file (default from config)"`
	Arg      map[string]string `short:"a" help:"Argument tag.key=value (repeatable)"`
	Interval string            `default:"0s" help:"Also re-run on this interval (0 disables)"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

// kongVars returns variables for kong (version info).
func kongVars() kong.Vars {
	return kong.Vars{
		"version": version,
	}
}
