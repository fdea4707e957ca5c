package cycles

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"testing"

	"github.com/rogersrj/cycle-analyzer/pkg/graph"
)

func buildGraph(edges [][2]string) *graph.Graph {
	g := graph.New()
	for _, e := range edges {
		g.AddEdge(e[0], e[1])
	}
	return g
}

// canonicalSet renders cycles rotation-independently (smallest identity
// first) and sorts them, so two enumerations compare as sets.
func canonicalSet(cs [][]int64) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, rotateMinFirst(c))
	}
	sort.Strings(out)
	return out
}

func rotateMinFirst(ids []int64) string {
	minAt := 0
	for i, id := range ids {
		if id < ids[minAt] {
			minAt = i
		}
	}
	s := ""
	for i := 0; i < len(ids); i++ {
		s += fmt.Sprintf("%d,", ids[(minAt+i)%len(ids)])
	}
	return s
}

// bruteForceCycles enumerates elementary cycles the slow, obviously
// correct way: a DFS from every vertex that only visits identities
// greater than the start, so each cycle is found exactly once with its
// smallest identity first. Usable as an oracle on small graphs only.
func bruteForceCycles(g *graph.Graph) [][]int64 {
	adj := make(map[int64][]int64)
	ids := g.VertexIDs()
	for _, id := range ids {
		nbrs, err := g.OutNeighbors(id)
		if err != nil {
			panic(err)
		}
		adj[id] = nbrs
	}

	var out [][]int64
	var path []int64
	onPath := make(map[int64]bool)

	var dfs func(start, cur int64)
	dfs = func(start, cur int64) {
		for _, next := range adj[cur] {
			if next == start {
				out = append(out, append([]int64(nil), path...))
			} else if next > start && !onPath[next] {
				path = append(path, next)
				onPath[next] = true
				dfs(start, next)
				path = path[:len(path)-1]
				delete(onPath, next)
			}
		}
	}

	for _, s := range ids {
		path = []int64{s}
		onPath = map[int64]bool{s: true}
		dfs(s, s)
	}
	return out
}

func findIDs(t *testing.T, edges [][2]string, opts Options) [][]int64 {
	t.Helper()
	found, err := Find(buildGraph(edges), opts)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	out := make([][]int64, 0, len(found))
	for _, c := range found {
		out = append(out, c.IDs)
	}
	return out
}

func TestFind_TwoCycle(t *testing.T) {
	got := findIDs(t, [][2]string{{"A", "B"}, {"B", "A"}}, Options{LimitLen: -1})

	if len(got) != 1 {
		t.Fatalf("expected exactly one cycle, got %d", len(got))
	}
	if len(got[0]) != 2 {
		t.Errorf("expected a 2-cycle, got %v", got[0])
	}
}

func TestFind_ThreeCycle(t *testing.T) {
	got := findIDs(t, [][2]string{{"A", "B"}, {"B", "C"}, {"C", "A"}}, Options{LimitLen: -1})

	if len(got) != 1 {
		t.Fatalf("expected exactly one cycle, got %d", len(got))
	}
	if len(got[0]) != 3 {
		t.Errorf("expected a 3-cycle, got %v", got[0])
	}
}

func TestFind_DisjointComponents(t *testing.T) {
	edges := [][2]string{
		{"A", "B"}, {"B", "A"},
		{"X", "Y"}, {"Y", "Z"}, {"Z", "X"},
	}
	g := buildGraph(edges)
	found, err := Find(g, Options{LimitLen: -1})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	if len(found) != 2 {
		t.Fatalf("expected 2 cycles, got %d", len(found))
	}
	for _, c := range found {
		names := make(map[string]bool)
		for _, n := range c.Names {
			names[n[:1]] = true
		}
		if names["A"] && names["X"] {
			t.Errorf("cycle spans both components: %v", c.Names)
		}
	}
}

func TestFind_SelfLoopOnly(t *testing.T) {
	got := findIDs(t, [][2]string{{"A", "A"}}, Options{LimitLen: -1})
	if len(got) != 0 {
		t.Errorf("self-loop produced cycles: %v", got)
	}
}

func TestFind_LengthLimit(t *testing.T) {
	// One 2-cycle and one 4-cycle; limit 2 keeps only the former.
	edges := [][2]string{
		{"A", "B"}, {"B", "A"},
		{"P", "Q"}, {"Q", "R"}, {"R", "S"}, {"S", "P"},
	}
	got := findIDs(t, edges, Options{LimitLen: 2})

	if len(got) != 1 {
		t.Fatalf("expected only the 2-cycle, got %d cycles", len(got))
	}
	if len(got[0]) != 2 {
		t.Errorf("expected a 2-cycle, got %v", got[0])
	}
}

func TestFind_TypedLengthLimit(t *testing.T) {
	// A 4-cycle with two "rel" vertices and two "obj" vertices. With
	// LimitLen=2 restricted to "rel" the cycle survives even though its
	// total length exceeds the limit; restricted to limit 1 it does not.
	edges := [][2]string{
		{"rel-1", "obj-1"}, {"obj-1", "rel-2"},
		{"rel-2", "obj-2"}, {"obj-2", "rel-1"},
	}

	got := findIDs(t, edges, Options{LimitLen: 2, LimitType: "rel"})
	if len(got) != 1 || len(got[0]) != 4 {
		t.Fatalf("typed limit 2 should keep the 4-cycle, got %v", got)
	}

	got = findIDs(t, edges, Options{LimitLen: 1, LimitType: "rel"})
	if len(got) != 0 {
		t.Errorf("typed limit 1 should prune the cycle, got %v", got)
	}

	// Plain limit 2 prunes it: all four vertices count.
	got = findIDs(t, edges, Options{LimitLen: 2})
	if len(got) != 0 {
		t.Errorf("plain limit 2 should prune the 4-cycle, got %v", got)
	}
}

var oracleGraphs = map[string][][2]string{
	"complete_k4": {
		{"a", "b"}, {"a", "c"}, {"a", "d"},
		{"b", "a"}, {"b", "c"}, {"b", "d"},
		{"c", "a"}, {"c", "b"}, {"c", "d"},
		{"d", "a"}, {"d", "b"}, {"d", "c"},
	},
	"overlapping_cycles": {
		{"a", "b"}, {"b", "c"}, {"c", "a"},
		{"b", "d"}, {"d", "e"}, {"e", "b"},
		{"c", "d"}, {"d", "a"},
	},
	"two_sccs_with_bridge": {
		{"a", "b"}, {"b", "a"},
		{"b", "x"},
		{"x", "y"}, {"y", "z"}, {"z", "x"}, {"y", "x"},
	},
	"dag_no_cycles": {
		{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"},
	},
	"figure_eight": {
		{"a", "b"}, {"b", "a"}, {"a", "c"}, {"c", "a"},
	},
	"self_loops_mixed": {
		{"a", "a"}, {"a", "b"}, {"b", "a"}, {"b", "b"},
	},
}

func TestFind_MatchesBruteForceOracle(t *testing.T) {
	for name, edges := range oracleGraphs {
		t.Run(name, func(t *testing.T) {
			want := canonicalSet(bruteForceCycles(buildGraph(edges)))
			got := canonicalSet(findIDs(t, edges, Options{LimitLen: -1}))

			if !reflect.DeepEqual(got, want) {
				t.Errorf("cycle sets differ\n got: %v\nwant: %v", got, want)
			}
		})
	}
}

func TestFind_TypedLimitMatchesFilteredOracle(t *testing.T) {
	// Typed pruning interacts with the post-deletion component resplit;
	// check it against the oracle filtered by typed count.
	edges := [][2]string{
		{"rel-a", "obj-a"}, {"obj-a", "rel-b"}, {"rel-b", "rel-a"},
		{"rel-b", "obj-b"}, {"obj-b", "rel-a"},
		{"obj-a", "obj-b"}, {"obj-b", "obj-a"},
	}
	const limit = 2

	g := buildGraph(edges)
	var want [][]int64
	for _, c := range bruteForceCycles(g) {
		typed := 0
		for _, id := range c {
			if g.Type(id) == "rel" {
				typed++
			}
		}
		if typed <= limit {
			want = append(want, c)
		}
	}

	got := findIDs(t, edges, Options{LimitLen: limit, LimitType: "rel"})
	if !reflect.DeepEqual(canonicalSet(got), canonicalSet(want)) {
		t.Errorf("typed cycle sets differ\n got: %v\nwant: %v", canonicalSet(got), canonicalSet(want))
	}
}

func TestFind_NoDuplicates(t *testing.T) {
	for name, edges := range oracleGraphs {
		t.Run(name, func(t *testing.T) {
			seen := make(map[string]bool)
			for _, c := range findIDs(t, edges, Options{LimitLen: -1}) {
				key := rotateMinFirst(c)
				if seen[key] {
					t.Errorf("cycle emitted twice: %s", key)
				}
				seen[key] = true
			}
		})
	}
}

func TestFind_NoLengthOneCycles(t *testing.T) {
	for _, c := range findIDs(t, oracleGraphs["self_loops_mixed"], Options{LimitLen: -1}) {
		if len(c) < 2 {
			t.Errorf("emitted a length-%d cycle: %v", len(c), c)
		}
	}
}

func TestFind_LimitUpperBoundsAllCycles(t *testing.T) {
	const limit = 3
	for name, edges := range oracleGraphs {
		t.Run(name, func(t *testing.T) {
			for _, c := range findIDs(t, edges, Options{LimitLen: limit}) {
				if len(c) > limit {
					t.Errorf("cycle longer than limit %d: %v", limit, c)
				}
			}
		})
	}
}

func TestFind_Deterministic(t *testing.T) {
	edges := oracleGraphs["overlapping_cycles"]

	first := findIDs(t, edges, Options{LimitLen: -1})
	second := findIDs(t, edges, Options{LimitLen: -1})

	if !reflect.DeepEqual(first, second) {
		t.Errorf("two runs emitted different sequences\nfirst:  %v\nsecond: %v", first, second)
	}
}

func TestFinder_AbandonMidStream(t *testing.T) {
	f, err := NewFinder(buildGraph(oracleGraphs["complete_k4"]), Options{LimitLen: -1})
	if err != nil {
		t.Fatalf("NewFinder: %v", err)
	}

	if !f.Next() {
		t.Fatalf("expected at least one cycle, err=%v", f.Err())
	}
	got := f.Cycle()
	if len(got.IDs) < 2 || len(got.IDs) != len(got.Names) {
		t.Errorf("malformed cycle: %+v", got)
	}
	if f.Count() != 1 {
		t.Errorf("Count() = %d after one Next", f.Count())
	}
	// Walk away without draining; nothing to assert beyond no panic and
	// a clean error state.
	if f.Err() != nil {
		t.Errorf("abandoned finder reports error: %v", f.Err())
	}
}

func TestFinder_AnchorAppearsFirst(t *testing.T) {
	f, err := NewFinder(buildGraph([][2]string{{"A", "B"}, {"B", "C"}, {"C", "A"}}), Options{LimitLen: -1})
	if err != nil {
		t.Fatalf("NewFinder: %v", err)
	}
	if !f.Next() {
		t.Fatalf("expected a cycle, err=%v", f.Err())
	}
	c := f.Cycle()
	for _, id := range c.IDs[1:] {
		if id < c.IDs[0] {
			t.Errorf("anchor %d is not the smallest identity in %v", c.IDs[0], c.IDs)
		}
	}
}

func TestNewFinder_NilGraph(t *testing.T) {
	_, err := NewFinder(nil, Options{LimitLen: -1})
	if !errors.Is(err, ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestParseLimit(t *testing.T) {
	if n, err := ParseLimit(" 8 "); err != nil || n != 8 {
		t.Errorf("ParseLimit(\" 8 \") = %d, %v", n, err)
	}
	if n, err := ParseLimit("-1"); err != nil || n != -1 {
		t.Errorf("ParseLimit(\"-1\") = %d, %v", n, err)
	}
	if _, err := ParseLimit("eight"); !errors.Is(err, ErrConfig) {
		t.Errorf("expected ErrConfig for non-integer limit, got %v", err)
	}
}

type captureRecorder struct {
	events []string
}

func (c *captureRecorder) Event(msg string, args ...any) {
	c.events = append(c.events, msg)
}

func TestFinder_RecordsProgressEvents(t *testing.T) {
	rec := &captureRecorder{}
	g := buildGraph([][2]string{{"A", "B"}, {"B", "A"}})

	if _, err := Find(g, Options{LimitLen: -1, Recorder: rec}); err != nil {
		t.Fatalf("Find: %v", err)
	}

	var cycles, components int
	for _, e := range rec.events {
		switch e {
		case "cycle found":
			cycles++
		case "component processed":
			components++
		}
	}
	if cycles != 1 {
		t.Errorf("expected 1 cycle event, got %d", cycles)
	}
	if components == 0 {
		t.Error("expected at least one component progress event")
	}
}
