package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Run executes the tree once, publishes the result and exits with its status.
func (c *RunCmd) Run(app *App) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, err := app.loadTree(c.File, c.Arg, c.Thresholds)
	if err != nil {
		return err
	}
	target := c.Plugin
	if target == "" {
		target = app.cfg.Plugin.Target
	}
	n, err := app.execute(ctx, root, target)
	if err != nil {
		return err
	}

	app.publish(ctx, n)
	app.Close()

	if c.LongText {
		app.reporter.LongText = true
	}
	app.reporter.Report(n)
	return nil
}
