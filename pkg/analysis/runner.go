// Package analysis orchestrates one search run end to end: load the
// edge list, decompose and search the graph, persist cycles and report
// the outcome.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rogersrj/cycle-analyzer/pkg/cycles"
	"github.com/rogersrj/cycle-analyzer/pkg/edges"
	"github.com/rogersrj/cycle-analyzer/pkg/logging"
	"github.com/rogersrj/cycle-analyzer/pkg/model"
	"github.com/rogersrj/cycle-analyzer/pkg/output"
	"github.com/rogersrj/cycle-analyzer/pkg/web"
)

// Options configures a single search run.
type Options struct {
	Input     string // edge list path, for reporting; defaults to the source name
	Output    string // cycle destination path, appended to
	LimitLen  int    // max (typed) vertices per cycle, -1 = unlimited
	LimitType string // vertex type counted against the limit
	RunLog    string // diagnostics log path, empty = console only
	Reason    string // e.g. "initial run", "edge list changed"
}

// Runner executes search runs against an edge source. An optional web
// server receives live progress and the finished results. Runs are
// serialized; a watcher retrigger waits for the previous run to finish.
type Runner struct {
	source edges.Source
	server *web.Server
	mu     sync.Mutex
}

// NewRunner creates a runner. The server may be nil for console-only use.
func NewRunner(source edges.Source, server *web.Server) *Runner {
	return &Runner{source: source, server: server}
}

// Run performs one complete search run and returns its summary. The
// summary is also printed to the console and, when a server is attached,
// published to it. A non-nil error always carries a summary describing
// how far the run got.
func (r *Runner) Run(ctx context.Context, opts Options) (model.RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	logging.Info("starting run", "reason", opts.Reason, "source", r.source.Name())

	input := opts.Input
	if input == "" {
		input = r.source.Name()
	}
	summary := model.RunSummary{
		Input:     input,
		Output:    opts.Output,
		LimitLen:  opts.LimitLen,
		LimitType: opts.LimitType,
	}

	r.publishStatus("loading", "Loading edge list...", 1, 3)

	list, err := r.source.Load(ctx)
	if err != nil {
		return r.fail(summary, start, fmt.Errorf("loading edges: %w", err))
	}

	g := edges.BuildGraph(list)
	summary.Vertices = g.VertexCount()
	summary.Edges = g.EdgeCount()
	logging.Info("graph loaded", "vertices", summary.Vertices, "edges", summary.Edges)

	if r.server != nil {
		r.server.SetSnapshot(model.Snapshot(g))
		r.server.ResetCycles()
	}

	r.publishStatus("searching", "Searching for cycles...", 2, 3)

	runLog := logging.NewRunLog(opts.RunLog)
	finder, err := cycles.NewFinder(g, cycles.Options{
		LimitLen:  opts.LimitLen,
		LimitType: opts.LimitType,
		Recorder:  runLog,
	})
	if err != nil {
		return r.fail(summary, start, err)
	}

	writer, err := output.NewCycleWriter(opts.Output)
	if err != nil {
		return r.fail(summary, start, err)
	}

	for finder.Next() {
		if err := ctx.Err(); err != nil {
			writer.Close()
			return r.fail(summary, start, err)
		}

		c := finder.Cycle()
		if err := writer.Write(c); err != nil {
			writer.Close()
			return r.fail(summary, start, err)
		}
		if len(c.IDs) > summary.LongestCycle {
			summary.LongestCycle = len(c.IDs)
		}
		if r.server != nil {
			r.server.AddCycle(model.NewCycleRecord(finder.Count(), c, g))
			r.server.PublishCycleProgress(finder.Count(), false)
		}
	}
	summary.CycleCount = finder.Count()

	if err := writer.Close(); err != nil {
		return r.fail(summary, start, err)
	}
	if err := finder.Err(); err != nil {
		return r.fail(summary, start, err)
	}

	summary.Elapsed = time.Since(start)
	runLog.Event("run complete",
		"cycles", summary.CycleCount,
		"elapsed", summary.Elapsed.Round(time.Millisecond))

	if r.server != nil {
		r.server.SetSummary(summary)
		r.server.PublishCycleProgress(summary.CycleCount, true)
	}
	r.publishStatus("done", fmt.Sprintf("Found %d cycle(s)", summary.CycleCount), 3, 3)

	output.PrintRunReport(summary)
	return summary, nil
}

// fail finalizes a summary for a run that did not complete.
func (r *Runner) fail(summary model.RunSummary, start time.Time, err error) (model.RunSummary, error) {
	summary.Elapsed = time.Since(start)
	summary.Error = err.Error()

	logging.Error("run failed", "error", err)
	if r.server != nil {
		r.server.SetSummary(summary)
	}
	r.publishStatus("error", err.Error(), 0, 3)

	if errors.Is(err, context.Canceled) {
		return summary, err
	}
	return summary, fmt.Errorf("run failed: %w", err)
}

func (r *Runner) publishStatus(state, message string, step, total int) {
	if r.server == nil {
		return
	}
	if err := r.server.PublishRunStatus(state, message, step, total); err != nil {
		logging.Warn("could not publish run status", "state", state, "error", err)
	}
}
