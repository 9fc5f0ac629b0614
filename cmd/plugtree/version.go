package main

import "fmt"

// Run prints version information.
func (c *VersionCmd) Run(app *App) error {
	fmt.Fprintf(app.reporter.Out, "plugtree version %s (commit: %s, built: %s)\n", version, commit, buildTime)
	return nil
}
