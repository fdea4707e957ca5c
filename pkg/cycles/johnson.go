package cycles

import (
	"fmt"

	"github.com/rogersrj/cycle-analyzer/pkg/graph"
)

// frame is one level of the explicit depth-first search stack: the
// vertex it stands on and the out-neighbors not yet tried from it.
type frame struct {
	node int64
	nbrs []int64
}

// Finder enumerates elementary cycles one at a time, in the style of
// bufio.Scanner:
//
//	f, err := cycles.NewFinder(g, opts)
//	for f.Next() {
//		use(f.Cycle())
//	}
//	err = f.Err()
//
// The sequence is finite and single-pass; abandoning it early is safe
// but a second pass needs a freshly built graph, because the search
// consumes g by deleting processed vertices.
//
// The search follows Johnson's algorithm: for each strongly connected
// component a single anchor vertex is fully explored with an explicit
// stack and blocked/unblock bookkeeping, then permanently deleted, and
// the component's residue is re-split into sub-components that go back
// on the worklist. Every elementary cycle is emitted exactly once,
// anchored at the earliest-processed of its vertices.
type Finder struct {
	g    *graph.Graph
	opts Options
	rec  Recorder

	sccs [][]int64 // component worklist, popped from the end

	// State of the anchor currently being explored.
	active    bool
	anchor    int64
	residual  []int64 // rest of the anchor's component
	path      []int64
	frames    []frame
	blocked   map[int64]bool
	closed    map[int64]bool
	blockedBy map[int64][]int64 // unblocking a key must also unblock these

	totalVertices int
	totalEdges    int
	iteration     int
	found         int

	cycle Cycle
	err   error
	done  bool
}

// NewFinder validates the search configuration and computes the initial
// component decomposition. Configuration problems surface here, before
// any search work happens.
func NewFinder(g *graph.Graph, opts Options) (*Finder, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: no graph", ErrConfig)
	}

	rec := opts.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}

	sccs, err := StronglyConnectedComponents(g, MinSCCSize)
	if err != nil {
		return nil, err
	}

	return &Finder{
		g:             g,
		opts:          opts,
		rec:           rec,
		sccs:          sccs,
		totalVertices: g.VertexCount(),
		totalEdges:    g.EdgeCount(),
	}, nil
}

// Next advances to the next elementary cycle. It returns false when the
// graph is exhausted or the search failed; check Err afterwards.
func (f *Finder) Next() bool {
	if f.done {
		return false
	}

	for {
		if !f.active {
			if len(f.sccs) == 0 {
				f.done = true
				return false
			}
			if err := f.startAnchor(); err != nil {
				f.fail(err)
				return false
			}
		}

		emitted, err := f.advance()
		if err != nil {
			f.fail(err)
			return false
		}
		if emitted {
			f.found++
			return true
		}

		if err := f.finishAnchor(); err != nil {
			f.fail(err)
			return false
		}
	}
}

// Cycle returns the cycle discovered by the last successful Next call.
// The returned slices are owned by the caller.
func (f *Finder) Cycle() Cycle {
	return f.cycle
}

// Err returns the first error encountered, if any. ErrConfig never shows
// up here; a non-nil result wraps ErrSearch and means the emitted cycle
// set is incomplete.
func (f *Finder) Err() error {
	return f.err
}

// Count returns the number of cycles emitted so far.
func (f *Finder) Count() int {
	return f.found
}

func (f *Finder) fail(err error) {
	f.err = err
	f.done = true
}

// startAnchor pops a component off the worklist and sets up the search
// state for its smallest vertex.
func (f *Finder) startAnchor() error {
	scc := f.sccs[len(f.sccs)-1]
	f.sccs = f.sccs[:len(f.sccs)-1]

	f.iteration++
	f.anchor = scc[0]
	f.residual = scc[1:]

	nbrs, err := f.g.OutNeighbors(f.anchor)
	if err != nil {
		return fmt.Errorf("%w: anchor: %v", ErrSearch, err)
	}

	f.path = []int64{f.anchor}
	f.frames = []frame{{node: f.anchor, nbrs: nbrs}}
	f.blocked = map[int64]bool{f.anchor: true}
	f.closed = make(map[int64]bool)
	f.blockedBy = make(map[int64][]int64)
	f.active = true

	return nil
}

// advance resumes the depth-first exploration of the current anchor.
// It returns true with f.cycle set when a cycle closes, or false when
// the anchor's search space is exhausted.
func (f *Finder) advance() (bool, error) {
	for len(f.frames) > 0 {
		top := &f.frames[len(f.frames)-1]
		inLimit := f.pathWithinLimit()

		if len(top.nbrs) > 0 && inLimit {
			next := top.nbrs[len(top.nbrs)-1]
			top.nbrs = top.nbrs[:len(top.nbrs)-1]

			if next == f.anchor {
				// The walk closed back to the anchor.
				f.cycle = f.snapshot()
				for _, v := range f.path {
					f.closed[v] = true
				}
				f.rec.Event("cycle found",
					"iteration", f.iteration,
					"length", len(f.cycle.IDs),
					"cycle", f.cycle.Names)
				return true, nil
			}
			if !f.blocked[next] {
				nbrs, err := f.g.OutNeighbors(next)
				if err != nil {
					return false, fmt.Errorf("%w: extend: %v", ErrSearch, err)
				}
				f.path = append(f.path, next)
				f.frames = append(f.frames, frame{node: next, nbrs: nbrs})
				delete(f.closed, next)
				f.blocked[next] = true
				continue
			}
			// next is blocked: fall through and re-check this frame.
		}

		if len(top.nbrs) == 0 || !inLimit {
			node := top.node
			if f.closed[node] {
				f.unblock(node)
			} else {
				nbrs, err := f.g.OutNeighbors(node)
				if err != nil {
					return false, fmt.Errorf("%w: retreat: %v", ErrSearch, err)
				}
				for _, nbr := range nbrs {
					if !containsID(f.blockedBy[nbr], node) {
						f.blockedBy[nbr] = append(f.blockedBy[nbr], node)
					}
				}
			}
			f.frames = f.frames[:len(f.frames)-1]
			f.path = f.path[:len(f.path)-1]
		}
	}

	return false, nil
}

// finishAnchor deletes the processed anchor, re-splits the residue of
// its component and feeds surviving sub-components back to the worklist.
// Vertices of sub-components below MinSCCSize can no longer participate
// in any cycle and are deleted outright.
func (f *Finder) finishAnchor() error {
	f.active = false
	f.g.DeleteVertex(f.anchor)

	sub := f.g.InducedSubgraph(f.residual)
	subSCCs, err := StronglyConnectedComponents(sub, 1)
	if err != nil {
		return err
	}

	for _, scc := range subSCCs {
		if len(scc) >= MinSCCSize {
			f.sccs = append(f.sccs, scc)
		} else {
			for _, id := range scc {
				f.g.DeleteVertex(id)
			}
		}
	}

	liveV, liveE := f.g.VertexCount(), f.g.EdgeCount()
	f.rec.Event("component processed",
		"iteration", f.iteration,
		"vertices", fmt.Sprintf("%d/%d", liveV, f.totalVertices),
		"verticesProcessedPct", processedPct(liveV, f.totalVertices),
		"edges", fmt.Sprintf("%d/%d", liveE, f.totalEdges),
		"edgesProcessedPct", processedPct(liveE, f.totalEdges))

	return nil
}

// pathWithinLimit applies the length/type limit policy to the current
// candidate prefix. Limiting only prunes extension; it never affects
// which of the surviving cycles are emitted.
func (f *Finder) pathWithinLimit() bool {
	if f.opts.LimitLen < 0 {
		return true
	}
	if f.opts.LimitType == "" {
		return len(f.path) <= f.opts.LimitLen
	}

	count := 0
	for _, id := range f.path {
		if f.g.Type(id) == f.opts.LimitType {
			count++
			if count > f.opts.LimitLen {
				return false
			}
		}
	}
	return true
}

// unblock removes a vertex from the blocked set and cascades through
// every vertex recorded as blocked on it.
func (f *Finder) unblock(id int64) {
	stack := []int64{id}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.blocked[node] {
			delete(f.blocked, node)
			stack = append(stack, f.blockedBy[node]...)
			delete(f.blockedBy, node)
		}
	}
}

// snapshot copies the current path into a Cycle the caller can keep.
func (f *Finder) snapshot() Cycle {
	c := Cycle{
		IDs:   make([]int64, len(f.path)),
		Names: make([]string, len(f.path)),
	}
	copy(c.IDs, f.path)
	for i, id := range f.path {
		c.Names[i] = f.g.Name(id)
	}
	return c
}

func processedPct(live, total int) float64 {
	if total == 0 {
		return 100
	}
	return (1 - float64(live)/float64(total)) * 100
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
