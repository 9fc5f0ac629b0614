package main

import (
	"fmt"

	"github.com/vinayprograms/plugtree/internal/definition"
)

// Run validates the definition and prints a summary.
func (c *ValidateCmd) Run(app *App) error {
	path, err := app.definitionPath(c.File)
	if err != nil {
		return err
	}
	def, err := definition.Load(path)
	if err != nil {
		return err
	}
	if err := def.Validate(app.registry); err != nil {
		return err
	}
	// Build catches what only the tree itself can report.
	if _, err := def.Build(app.registry); err != nil {
		return err
	}

	count := 0
	def.Walk(func(string, *definition.Node) { count++ })
	fmt.Fprintf(app.reporter.Out, "Valid: %s (%d plugins)\n", path, count)
	return nil
}
