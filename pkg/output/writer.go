// Package output persists discovered cycles and renders run summaries.
package output

import (
	"bufio"
	"fmt"
	"os"

	"github.com/rogersrj/cycle-analyzer/pkg/cycles"
)

// CycleWriter appends cycles to a destination file, one record per
// line in the stable rendering of cycles.Cycle.String. The file is
// opened in append mode so interrupted runs can be told apart from
// truncated ones.
type CycleWriter struct {
	f *os.File
	w *bufio.Writer
	n int
}

// NewCycleWriter opens (or creates) the destination for appending.
func NewCycleWriter(path string) (*CycleWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening cycle destination: %w", err)
	}
	return &CycleWriter{f: f, w: bufio.NewWriter(f)}, nil
}

// Write appends one cycle record.
func (cw *CycleWriter) Write(c cycles.Cycle) error {
	if _, err := cw.w.WriteString(c.String() + "\n"); err != nil {
		return fmt.Errorf("writing cycle: %w", err)
	}
	cw.n++
	return nil
}

// Count returns the number of cycles written so far.
func (cw *CycleWriter) Count() int {
	return cw.n
}

// Close flushes buffered records and closes the destination.
func (cw *CycleWriter) Close() error {
	if err := cw.w.Flush(); err != nil {
		cw.f.Close()
		return fmt.Errorf("flushing cycle destination: %w", err)
	}
	return cw.f.Close()
}
