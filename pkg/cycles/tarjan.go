package cycles

import (
	"fmt"
	"sort"

	"github.com/rogersrj/cycle-analyzer/pkg/graph"
)

// tarjanSCC finds strongly connected components using Tarjan's algorithm
type tarjanSCC struct {
	g       *graph.Graph
	index   int
	stack   []int64
	onStack map[int64]bool
	indices map[int64]int
	lowLink map[int64]int
	sccs    [][]int64
	err     error
}

// StronglyConnectedComponents partitions the live vertices of g into
// maximal mutually reachable sets, dropping components with fewer than
// minSize vertices. Each component is sorted by ascending identity and
// the result is ordered by each component's smallest member, so the
// output is deterministic for a given graph.
func StronglyConnectedComponents(g *graph.Graph, minSize int) ([][]int64, error) {
	t := &tarjanSCC{
		g:       g,
		onStack: make(map[int64]bool),
		indices: make(map[int64]int),
		lowLink: make(map[int64]int),
	}

	for _, id := range g.VertexIDs() {
		if _, visited := t.indices[id]; !visited {
			t.strongConnect(id)
			if t.err != nil {
				return nil, t.err
			}
		}
	}

	kept := make([][]int64, 0, len(t.sccs))
	for _, scc := range t.sccs {
		if len(scc) >= minSize {
			sort.Slice(scc, func(i, j int) bool { return scc[i] < scc[j] })
			kept = append(kept, scc)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i][0] < kept[j][0] })

	return kept, nil
}

// strongConnect performs the recursive Tarjan descent from one vertex
func (t *tarjanSCC) strongConnect(id int64) {
	t.indices[id] = t.index
	t.lowLink[id] = t.index
	t.index++

	t.stack = append(t.stack, id)
	t.onStack[id] = true

	nbrs, err := t.g.OutNeighbors(id)
	if err != nil {
		t.err = fmt.Errorf("%w: %v", ErrSearch, err)
		return
	}
	for _, next := range nbrs {
		if _, visited := t.indices[next]; !visited {
			t.strongConnect(next)
			if t.err != nil {
				return
			}
			t.lowLink[id] = min(t.lowLink[id], t.lowLink[next])
		} else if t.onStack[next] {
			t.lowLink[id] = min(t.lowLink[id], t.indices[next])
		}
	}

	// id roots a component: pop the stack down to it.
	if t.lowLink[id] == t.indices[id] {
		var scc []int64
		for {
			w := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == id {
				break
			}
		}
		t.sccs = append(t.sccs, scc)
	}
}
