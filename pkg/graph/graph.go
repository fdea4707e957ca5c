package graph

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
)

// TypeDelimiter separates the type prefix from the rest of a vertex name.
// A vertex named "person-123" has type "person"; a name without the
// delimiter is its own type.
const TypeDelimiter = "-"

// ErrUnknownVertex is returned when an operation references a vertex
// identity that is not (or no longer) part of the graph.
var ErrUnknownVertex = fmt.Errorf("graph: unknown vertex identity")

// TypeOf derives the type tag of a vertex from its external name
func TypeOf(name string) string {
	if i := strings.Index(name, TypeDelimiter); i >= 0 {
		return name[:i]
	}
	return name
}

// Graph is a mutable directed graph over named, typed vertices.
// Vertex identities are int64 values interned on first sight and remain
// stable for the lifetime of the graph: deleting a vertex never renumbers
// or reuses the identities of the survivors.
//
// The graph is built once and then exclusively owned (and shrunk) by a
// single cycle search; it is not safe for concurrent use.
type Graph struct {
	dg     *simple.DirectedGraph
	ids    map[string]int64 // vertex name -> identity (kept across deletion)
	names  map[int64]string // live identity -> vertex name
	types  map[int64]string // live identity -> type tag
	nextID int64
}

// New creates a new empty directed graph
func New() *Graph {
	return &Graph{
		dg:    simple.NewDirectedGraph(),
		ids:   make(map[string]int64),
		names: make(map[int64]string),
		types: make(map[int64]string),
	}
}

// AddVertex interns a vertex by name and returns its identity.
// Adding a name that is already known returns the existing identity.
func (g *Graph) AddVertex(name string) int64 {
	if id, ok := g.ids[name]; ok {
		return id
	}

	id := g.nextID
	g.nextID++

	g.ids[name] = id
	g.names[id] = name
	g.types[id] = TypeOf(name)
	g.dg.AddNode(simple.Node(id))

	return id
}

// AddEdge adds a directed edge between two vertex names, interning both
// as needed. Duplicate edges are collapsed. Self-edges are recorded as
// vertices but carry no edge: a length-1 loop can never be part of an
// elementary cycle of two or more vertices, which is all the search
// considers (MinSCCSize).
func (g *Graph) AddEdge(source, target string) {
	from := g.AddVertex(source)
	to := g.AddVertex(target)

	if from == to {
		return
	}
	if !g.dg.HasEdgeFromTo(from, to) {
		g.dg.SetEdge(g.dg.NewEdge(g.dg.Node(from), g.dg.Node(to)))
	}
}

// Has reports whether the identity is a live vertex of the graph
func (g *Graph) Has(id int64) bool {
	return g.dg.Node(id) != nil
}

// Lookup returns the identity interned for a vertex name
func (g *Graph) Lookup(name string) (int64, bool) {
	id, ok := g.ids[name]
	return id, ok
}

// Name returns the external name of a live vertex, or "" if unknown
func (g *Graph) Name(id int64) string {
	return g.names[id]
}

// Type returns the type tag of a live vertex, or "" if unknown
func (g *Graph) Type(id int64) string {
	return g.types[id]
}

// VertexCount returns the number of live vertices
func (g *Graph) VertexCount() int {
	return len(g.names)
}

// EdgeCount returns the number of live edges
func (g *Graph) EdgeCount() int {
	return g.dg.Edges().Len()
}

// VertexIDs returns the identities of all live vertices in ascending order
func (g *Graph) VertexIDs() []int64 {
	ids := make([]int64, 0, len(g.names))
	for id := range g.names {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// OutNeighbors returns the identities reachable from id over a single
// edge, in ascending identity order. The order is fixed so that repeated
// runs over the same edge list enumerate cycles identically.
func (g *Graph) OutNeighbors(id int64) ([]int64, error) {
	if g.dg.Node(id) == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVertex, id)
	}

	var nbrs []int64
	it := g.dg.From(id)
	for it.Next() {
		nbrs = append(nbrs, it.Node().ID())
	}
	sort.Slice(nbrs, func(i, j int) bool { return nbrs[i] < nbrs[j] })

	return nbrs, nil
}

// DeleteVertex removes a vertex and all its incident edges. Deleting an
// identity that is not in the graph is a no-op. The identities of the
// remaining vertices are unaffected.
func (g *Graph) DeleteVertex(id int64) {
	if g.dg.Node(id) == nil {
		return
	}
	g.dg.RemoveNode(id)
	delete(g.names, id)
	delete(g.types, id)
}

// InducedSubgraph returns a new graph containing the given live vertices
// and every edge of g whose endpoints are both in the set. Identities,
// names and type tags carry over unchanged.
func (g *Graph) InducedSubgraph(ids []int64) *Graph {
	in := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if g.dg.Node(id) != nil {
			in[id] = true
		}
	}

	sub := New()
	sub.nextID = g.nextID
	for id := range in {
		name := g.names[id]
		sub.ids[name] = id
		sub.names[id] = name
		sub.types[id] = g.types[id]
		sub.dg.AddNode(simple.Node(id))
	}
	for id := range in {
		it := g.dg.From(id)
		for it.Next() {
			to := it.Node().ID()
			if in[to] && !sub.dg.HasEdgeFromTo(id, to) {
				sub.dg.SetEdge(sub.dg.NewEdge(sub.dg.Node(id), sub.dg.Node(to)))
			}
		}
	}

	return sub
}
