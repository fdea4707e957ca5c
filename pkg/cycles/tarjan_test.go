package cycles

import (
	"reflect"
	"testing"
)

func TestSCC_AcyclicGraph(t *testing.T) {
	g := buildGraph([][2]string{{"a", "b"}, {"b", "c"}})

	sccs, err := StronglyConnectedComponents(g, MinSCCSize)
	if err != nil {
		t.Fatalf("StronglyConnectedComponents: %v", err)
	}
	if len(sccs) != 0 {
		t.Errorf("acyclic graph produced components: %v", sccs)
	}
}

func TestSCC_MinSizeOneKeepsSingletons(t *testing.T) {
	g := buildGraph([][2]string{{"a", "b"}, {"b", "c"}})

	sccs, err := StronglyConnectedComponents(g, 1)
	if err != nil {
		t.Fatalf("StronglyConnectedComponents: %v", err)
	}
	if len(sccs) != 3 {
		t.Errorf("expected 3 singleton components, got %v", sccs)
	}
}

func TestSCC_PartitionAndFilter(t *testing.T) {
	// Two real components and one stray vertex.
	g := buildGraph([][2]string{
		{"a", "b"}, {"b", "a"},
		{"c", "d"}, {"d", "e"}, {"e", "c"},
		{"e", "f"},
	})

	sccs, err := StronglyConnectedComponents(g, MinSCCSize)
	if err != nil {
		t.Fatalf("StronglyConnectedComponents: %v", err)
	}

	if len(sccs) != 2 {
		t.Fatalf("expected 2 components, got %v", sccs)
	}

	sizes := map[int]int{}
	for _, scc := range sccs {
		sizes[len(scc)]++
	}
	if sizes[2] != 1 || sizes[3] != 1 {
		t.Errorf("expected one 2-component and one 3-component, got %v", sccs)
	}
}

func TestSCC_DeterministicOrder(t *testing.T) {
	edges := [][2]string{
		{"m", "n"}, {"n", "m"},
		{"p", "q"}, {"q", "p"},
		{"x", "y"}, {"y", "x"},
	}

	first, err := StronglyConnectedComponents(buildGraph(edges), MinSCCSize)
	if err != nil {
		t.Fatalf("StronglyConnectedComponents: %v", err)
	}
	second, err := StronglyConnectedComponents(buildGraph(edges), MinSCCSize)
	if err != nil {
		t.Fatalf("StronglyConnectedComponents: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("orders differ: %v vs %v", first, second)
	}
	for _, scc := range first {
		for i := 1; i < len(scc); i++ {
			if scc[i-1] >= scc[i] {
				t.Errorf("component not in ascending identity order: %v", scc)
			}
		}
	}
}

func TestSCC_SurvivesDeletion(t *testing.T) {
	g := buildGraph([][2]string{
		{"a", "b"}, {"b", "c"}, {"c", "a"}, {"b", "a"},
	})
	a, _ := g.Lookup("a")
	g.DeleteVertex(a)

	sccs, err := StronglyConnectedComponents(g, MinSCCSize)
	if err != nil {
		t.Fatalf("StronglyConnectedComponents: %v", err)
	}
	if len(sccs) != 0 {
		t.Errorf("deleting the hinge vertex should break all components, got %v", sccs)
	}
}
