package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vinayprograms/plugtree/internal/report"
)

// Run re-runs the tree whenever the definition file changes, printing one
// report line per run, until interrupted.
func (c *WatchCmd) Run(app *App) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval, err := time.ParseDuration(c.Interval)
	if err != nil {
		return fmt.Errorf("invalid interval: %w", err)
	}
	path, err := app.definitionPath(c.File)
	if err != nil {
		return err
	}
	return app.watch(ctx, path, c.Arg, interval)
}

func (a *App) watch(ctx context.Context, path string, pairs map[string]string, interval time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are noticed too.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	target := filepath.Clean(path)

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	a.runOnce(ctx, path, pairs)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			a.runOnce(ctx, path, pairs)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// Debounce: wait a bit for writes to settle
			time.Sleep(100 * time.Millisecond)
			drain(watcher.Events)
			a.runOnce(ctx, path, pairs)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("watch_error", map[string]interface{}{"error": err.Error()})
		}
	}
}

// runOnce loads, runs and prints one report line. Definition errors are
// printed as an UNKNOWN line and watching continues.
func (a *App) runOnce(ctx context.Context, path string, pairs map[string]string) {
	a.newRun()
	root, err := a.loadTree(path, pairs, "")
	if err != nil {
		fmt.Fprintf(a.reporter.Out, "UNKNOWN: definition: %v\n", err)
		return
	}
	n, err := a.execute(ctx, root, a.cfg.Plugin.Target)
	if err != nil {
		fmt.Fprintf(a.reporter.Out, "UNKNOWN: plugin: %v\n", err)
		return
	}
	a.publish(ctx, n)
	fmt.Fprintln(a.reporter.Out, report.Line(n))
}

func drain(events <-chan fsnotify.Event) {
	for {
		select {
		case <-events:
		default:
			return
		}
	}
}
