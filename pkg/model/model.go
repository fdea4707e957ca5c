// Package model holds the JSON-facing data model shared by the web
// layer, the console report and the run orchestration.
package model

import (
	"time"

	"github.com/rogersrj/cycle-analyzer/pkg/cycles"
	"github.com/rogersrj/cycle-analyzer/pkg/graph"
)

// VertexRef identifies one vertex of the analyzed graph.
type VertexRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// EdgeRef is one directed edge between two vertex identities.
type EdgeRef struct {
	Source int64 `json:"source"`
	Target int64 `json:"target"`
}

// GraphSnapshot is a point-in-time copy of the graph for display. The
// search mutates its graph, so snapshots are taken before it starts.
type GraphSnapshot struct {
	Nodes []VertexRef `json:"nodes"`
	Edges []EdgeRef   `json:"edges"`
}

// CycleRecord is one discovered cycle as presented to consumers.
type CycleRecord struct {
	Index    int         `json:"index"` // 1-based discovery order
	Length   int         `json:"length"`
	Vertices []VertexRef `json:"vertices"`
	Rendered string      `json:"rendered"`
}

// RunSummary describes one completed (or failed) search run.
type RunSummary struct {
	Input        string        `json:"input"`
	Output       string        `json:"output"`
	LimitLen     int           `json:"limitLen"`
	LimitType    string        `json:"limitType,omitempty"`
	Vertices     int           `json:"vertices"`
	Edges        int           `json:"edges"`
	CycleCount   int           `json:"cycleCount"`
	LongestCycle int           `json:"longestCycle"`
	Elapsed      time.Duration `json:"elapsedNs"`
	Error        string        `json:"error,omitempty"`
}

// Snapshot captures the live vertices and edges of a graph.
func Snapshot(g *graph.Graph) GraphSnapshot {
	snap := GraphSnapshot{
		Nodes: make([]VertexRef, 0, g.VertexCount()),
		Edges: make([]EdgeRef, 0, g.EdgeCount()),
	}
	for _, id := range g.VertexIDs() {
		snap.Nodes = append(snap.Nodes, VertexRef{
			ID:   id,
			Name: g.Name(id),
			Type: g.Type(id),
		})
		nbrs, err := g.OutNeighbors(id)
		if err != nil {
			continue
		}
		for _, to := range nbrs {
			snap.Edges = append(snap.Edges, EdgeRef{Source: id, Target: to})
		}
	}
	return snap
}

// NewCycleRecord converts an emitted cycle. The graph must still hold
// the cycle's vertices, so records are built at emission time.
func NewCycleRecord(index int, c cycles.Cycle, g *graph.Graph) CycleRecord {
	rec := CycleRecord{
		Index:    index,
		Length:   len(c.IDs),
		Vertices: make([]VertexRef, len(c.IDs)),
		Rendered: c.String(),
	}
	for i, id := range c.IDs {
		rec.Vertices[i] = VertexRef{ID: id, Name: c.Names[i], Type: g.Type(id)}
	}
	return rec
}
