package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/pflag"

	"github.com/rogersrj/cycle-analyzer/pkg/analysis"
	"github.com/rogersrj/cycle-analyzer/pkg/config"
	"github.com/rogersrj/cycle-analyzer/pkg/cycles"
	"github.com/rogersrj/cycle-analyzer/pkg/edges"
	"github.com/rogersrj/cycle-analyzer/pkg/logging"
	"github.com/rogersrj/cycle-analyzer/pkg/watcher"
	"github.com/rogersrj/cycle-analyzer/pkg/web"
)

func main() {
	f := pflag.NewFlagSet("cycle-analyzer", pflag.ExitOnError)
	f.Int("limit", -1, "Max vertices per cycle, -1 for unlimited")
	f.String("limittype", "", "Vertex type counted against the limit (e.g. person)")
	f.String("delimiter", ";", "Edge list column separator")
	f.Bool("web", false, "Serve results over HTTP instead of exiting after the run")
	f.Int("port", 8080, "Port for the web server (only used with --web)")
	f.Bool("watch", false, "Re-run the search whenever the edge list changes")
	f.Bool("verbose", false, "Enable debug logging")
	f.Bool("jsonlogs", false, "Emit logs as JSON")
	f.Usage = func() { usage(f) }
	f.Parse(os.Args[1:])

	cfg, err := config.Load(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := applyPositionals(cfg, f.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		usage(f)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	if cfg.JSONLogs {
		logging.SetJSONOutput(level)
	} else {
		logging.SetLevel(level)
	}

	delim, err := cfg.DelimiterRune()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	source := edges.NewCSVSource(cfg.Input, delim)
	opts := analysis.Options{
		Input:     cfg.Input,
		Output:    cfg.Output,
		LimitLen:  cfg.LimitLen,
		LimitType: cfg.LimitType,
		RunLog:    cfg.RunLogPath(),
		Reason:    "initial run",
	}

	if cfg.WebMode {
		runWithServer(cfg, source, opts)
		return
	}

	ctx := context.Background()
	runner := analysis.NewRunner(source, nil)
	if _, err := runner.Run(ctx, opts); err != nil {
		os.Exit(1)
	}

	if cfg.Watch {
		watchLoop(ctx, runner, cfg.Input, opts)
	}
}

// applyPositionals maps the positional CLI contract onto the config:
// input and output are required, limit and limit type optional.
func applyPositionals(cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("need an edge list and an output destination")
	}
	if len(args) > 4 {
		return fmt.Errorf("too many arguments")
	}

	cfg.Input = args[0]
	cfg.Output = args[1]
	if len(args) >= 3 {
		limit, err := cycles.ParseLimit(args[2])
		if err != nil {
			return err
		}
		cfg.LimitLen = limit
	}
	if len(args) == 4 {
		cfg.LimitType = args[3]
	}
	return nil
}

// runWithServer starts the HTTP server, kicks off the first run in the
// background and keeps serving. With --watch the edge list re-triggers
// further runs.
func runWithServer(cfg *config.Config, source edges.Source, opts analysis.Options) {
	server := web.NewServer()
	runner := analysis.NewRunner(source, server)
	ctx := context.Background()

	go func() {
		url := fmt.Sprintf("http://localhost:%d", cfg.Port)
		time.Sleep(500 * time.Millisecond)
		openBrowser(url)
	}()

	go func() {
		runner.Run(ctx, opts)
		if cfg.Watch {
			watchLoop(ctx, runner, cfg.Input, opts)
		}
	}()

	if err := server.Start(cfg.Port); err != nil {
		logging.Fatal("web server failed", "error", err)
	}
}

// watchLoop blocks, re-running the search every time the edge list
// settles after a change. Failed runs are reported and watched past.
func watchLoop(ctx context.Context, runner *analysis.Runner, input string, opts analysis.Options) {
	w, err := watcher.New(input, watcher.DefaultQuietPeriod)
	if err != nil {
		logging.Fatal("could not watch edge list", "path", input, "error", err)
	}
	w.Start(ctx)

	for change := range w.Events() {
		opts.Reason = "edge list changed"
		logging.Info("edge list changed, re-running", "at", change.Timestamp.Format("15:04:05"))
		runner.Run(ctx, opts)
	}
}

func usage(f *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Usage: cycle-analyzer [flags] <edges.csv> <cycles.txt> [limit-len [limit-type]]

Finds all elementary cycles of the directed graph described by the edge
list and appends them to the output file, one cycle per line. Diagnostics
go to <cycles.txt>.log.

Arguments:
  edges.csv   delimited edge list with source and target columns
  cycles.txt  destination for discovered cycles (appended)
  limit-len   optional max vertices per cycle, -1 for unlimited
  limit-type  optional vertex type counted against the limit

Flags:
%s`, f.FlagUsages())
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Debug("cannot open browser on platform", "platform", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Debug("failed to open browser", "error", err)
	}
}
