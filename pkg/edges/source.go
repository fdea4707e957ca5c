// Package edges loads directed edge lists from external tabular sources
// and turns them into graphs ready for a cycle search.
package edges

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rogersrj/cycle-analyzer/pkg/graph"
)

// DefaultDelimiter is the column separator of exported edge lists.
const DefaultDelimiter = ';'

// Edge is one directed source -> target record from an edge list.
// Both fields are external vertex names; identities are assigned when
// the graph is built.
type Edge struct {
	Source string
	Target string
}

// Source provides directed edges for graph construction. Implementations
// encapsulate where the edges come from (a CSV export, a mock in tests).
type Source interface {
	// Name returns the unique name of the source (e.g. "CSV").
	Name() string

	// Load reads the full edge list. It should respect the context for
	// cancellation.
	Load(ctx context.Context) ([]Edge, error)
}

// CSVSource reads edges from a delimited text file with a header row
// naming a "source" and a "target" column (any order, extra columns
// ignored, matching is case-insensitive). A leading UTF-8 byte order
// mark is tolerated, since spreadsheet exports tend to carry one.
type CSVSource struct {
	Path      string
	Delimiter rune
}

// NewCSVSource creates a CSV edge source. A zero delimiter falls back
// to DefaultDelimiter.
func NewCSVSource(path string, delimiter rune) *CSVSource {
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}
	return &CSVSource{Path: path, Delimiter: delimiter}
}

func (s *CSVSource) Name() string {
	return "CSV"
}

// Load reads and validates the whole edge list.
func (s *CSVSource) Load(ctx context.Context) ([]Edge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening edge list: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = s.Delimiter
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading edge list header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	srcCol, tgtCol := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "source":
			srcCol = i
		case "target":
			tgtCol = i
		}
	}
	if srcCol < 0 || tgtCol < 0 {
		return nil, fmt.Errorf("edge list %s: header must name source and target columns, got %v", s.Path, header)
	}

	var list []Edge
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading edge list %s: %w", s.Path, err)
		}
		list = append(list, Edge{
			Source: record[srcCol],
			Target: record[tgtCol],
		})
	}

	return list, nil
}

// BuildGraph interns every vertex name on first sight and adds all
// edges. Type tags are derived from the names as the graph grows.
func BuildGraph(list []Edge) *graph.Graph {
	g := graph.New()
	for _, e := range list {
		g.AddEdge(e.Source, e.Target)
	}
	return g
}
