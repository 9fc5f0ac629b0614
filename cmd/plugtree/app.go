package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/vinayprograms/plugtree/internal/args"
	"github.com/vinayprograms/plugtree/internal/checks"
	"github.com/vinayprograms/plugtree/internal/config"
	"github.com/vinayprograms/plugtree/internal/definition"
	"github.com/vinayprograms/plugtree/internal/executor"
	"github.com/vinayprograms/plugtree/internal/logging"
	"github.com/vinayprograms/plugtree/internal/plugin"
	"github.com/vinayprograms/plugtree/internal/publish"
	"github.com/vinayprograms/plugtree/internal/report"
	"github.com/vinayprograms/plugtree/internal/telemetry"
	"github.com/vinayprograms/plugtree/internal/thresholds"
)

// App holds what every command needs: configuration, logging, the check
// registry and the reporter.
type App struct {
	cfg       *config.Config
	base      *logging.Logger // logger without a trace ID
	logger    *logging.Logger
	registry  *checks.Registry
	reporter  *report.Reporter
	publisher publish.Publisher
	telemetry *telemetry.Provider
	runID     string
	logFile   *os.File
}

func newApp(configPath string, rep *report.Reporter) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := logging.New()
	logger.SetLevel(cfg.LogLevel())
	var logFile *os.File
	if cfg.Log.File != "" {
		logFile, err = os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.SetOutput(logFile)
	}

	tp, err := telemetry.Setup(context.Background(), cfg.Telemetry, version)
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, err
	}

	rep.LongText = cfg.Report.LongText
	a := &App{
		cfg:       cfg,
		base:      logger,
		reporter:  rep,
		telemetry: tp,
		logFile:   logFile,
	}
	a.newRun()
	return a, nil
}

// newRun starts a run with a fresh ID, so log lines and published results
// carry the same trace_id.
func (a *App) newRun() {
	a.runID = uuid.NewString()
	a.logger = a.base.WithTraceID(a.runID)
	a.registry = checks.NewRegistry(checks.Options{Timeout: a.cfg.CheckTimeout(), Logger: a.logger})
}

// Close flushes pending spans and releases the publisher and the log file.
func (a *App) Close() {
	if a.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.telemetry.Shutdown(ctx); err != nil {
			a.logger.Warn("telemetry_shutdown", map[string]interface{}{"error": err.Error()})
		}
		cancel()
		a.telemetry = nil
	}
	if a.publisher != nil {
		a.publisher.Close()
		a.publisher = nil
	}
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
}

func (a *App) definitionPath(file string) (string, error) {
	if file != "" {
		return file, nil
	}
	if a.cfg.Plugin.Definition != "" {
		return a.cfg.Plugin.Definition, nil
	}
	return "", fmt.Errorf("no definition file given (use -f or [plugin] definition)")
}

// loadTree reads the definition and builds the tree with definition
// arguments, then command-line arguments and thresholds applied on top.
func (a *App) loadTree(file string, pairs map[string]string, thresholdsJSON string) (*plugin.Node, error) {
	path, err := a.definitionPath(file)
	if err != nil {
		return nil, err
	}
	def, err := definition.Load(path)
	if err != nil {
		return nil, err
	}
	root, err := def.Build(a.registry)
	if err != nil {
		return nil, err
	}

	cli, err := args.FromPairs(pairs)
	if err != nil {
		return nil, err
	}
	if thresholdsJSON != "" {
		th, err := thresholds.Parse(thresholdsJSON)
		if err != nil {
			return nil, err
		}
		cli = args.DeepMerge(cli, th)
	}
	if len(cli) > 0 {
		if err := root.ApplyArgs(cli); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func (a *App) executor() *executor.Executor {
	e := executor.New()
	e.SetLogger(a.logger)
	return e
}

// execute runs the whole tree, or only target when set, and returns the
// plugin whose result is reported.
func (a *App) execute(ctx context.Context, root *plugin.Node, target string) (*plugin.Node, error) {
	e := a.executor()
	if target == "" {
		e.Run(ctx, root)
		return root, nil
	}
	return e.RunStandalone(ctx, root, target)
}

// publish sends n's result to the configured collector. Failures are logged
// and never change the report.
func (a *App) publish(ctx context.Context, n *plugin.Node) {
	if a.publisher == nil {
		p, err := publish.New(a.cfg.GetNATSURL(), a.cfg.Publish.Subject, a.cfg.PublishTimeout())
		if err != nil {
			a.logger.Published(a.cfg.GetNATSURL(), a.cfg.Publish.Subject, err)
			a.publisher = publish.Nop{}
			return
		}
		a.publisher = p
	}
	if _, nop := a.publisher.(publish.Nop); nop {
		return
	}
	err := a.publisher.Publish(ctx, publish.NewResult(a.runID, n, time.Now()))
	a.logger.Published(a.cfg.GetNATSURL(), a.publisher.Target(), err)
}
