// Package cycles enumerates the elementary cycles of a directed graph
// using a nonrecursive variant of Johnson's algorithm over a strongly
// connected component decomposition.
package cycles

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rogersrj/cycle-analyzer/pkg/graph"
)

// MinSCCSize is the smallest strongly connected component the search
// considers. At 2, single-vertex components (self-relationships) never
// produce cycles.
const MinSCCSize = 2

var (
	// ErrConfig marks configuration problems detected before a search
	// starts: a missing graph or an unparsable length limit. Fatal to
	// the run, never retried.
	ErrConfig = errors.New("cycles: invalid configuration")

	// ErrSearch marks an internal invariant violation, such as a path
	// or component referencing a vertex identity that is no longer in
	// the graph. It aborts the run.
	ErrSearch = errors.New("cycles: internal search error")
)

// Cycle is one elementary cycle: a closed directed walk that starts and
// ends at the same vertex with no interior repetition. The anchor vertex
// appears once, at position 0.
type Cycle struct {
	IDs   []int64
	Names []string
}

// String renders the cycle in its stable textual form: vertex names in
// walk order joined by " -> ", the anchor first and not repeated at the
// end. Downstream records rely on this exact shape.
//
//	person-1 -> company-7 -> person-3
func (c Cycle) String() string {
	return strings.Join(c.Names, " -> ")
}

// Options configures a cycle search.
type Options struct {
	// LimitLen bounds discovered cycles. Negative means unlimited.
	// Without LimitType it bounds the total number of vertices in a
	// cycle; with LimitType it bounds only the number of vertices
	// whose type tag equals LimitType.
	LimitLen int

	// LimitType restricts which vertices count against LimitLen.
	// Empty means all vertices count.
	LimitType string

	// Recorder receives progress events. Nil disables diagnostics.
	Recorder Recorder
}

// Recorder is the diagnostics side channel of a search. The engine only
// ever records events; where they go is the caller's business.
type Recorder interface {
	Event(msg string, args ...any)
}

type nopRecorder struct{}

func (nopRecorder) Event(string, ...any) {}

// ParseLimit parses a cycle length limit given as text, e.g. from a
// command line argument.
func ParseLimit(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: limit %q is not an integer", ErrConfig, s)
	}
	return n, nil
}

// Find runs a complete search and returns every elementary cycle of g.
// The graph is consumed: it is pruned vertex by vertex as the search
// progresses. See Finder for the incremental variant.
func Find(g *graph.Graph, opts Options) ([]Cycle, error) {
	f, err := NewFinder(g, opts)
	if err != nil {
		return nil, err
	}

	var found []Cycle
	for f.Next() {
		found = append(found, f.Cycle())
	}
	return found, f.Err()
}
