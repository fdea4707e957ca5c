package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// RunLog is the diagnostics sink of a search run. Every event becomes a
// timestamped line appended to the run log file, mirrored to the console
// logger. When the run log cannot be written, the failure and the
// intended message are captured in a timestamped fallback error file
// next to it, so diagnostics are never silently lost.
//
// RunLog satisfies the search engine's Recorder interface.
type RunLog struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewRunLog creates a run log appending to the given path. An empty
// path logs to the console only.
func NewRunLog(path string) *RunLog {
	return &RunLog{path: path, now: time.Now}
}

// Event records one diagnostic event: a message plus key=value pairs.
func (l *RunLog) Event(msg string, args ...any) {
	Info(msg, args...)

	if l == nil || l.path == "" {
		return
	}

	line := "[" + l.now().Format("02/01/2006 15:04:05") + "] " + formatEvent(msg, args)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := appendLine(l.path, line); err != nil {
		fallback := fmt.Sprintf("%s.%s.err", l.path, l.now().Format("2006.01.02.15.04.05.000000"))
		if ferr := appendLine(fallback, err.Error()+"\n"+line); ferr != nil {
			Error("run log and fallback both unwritable", "error", ferr)
		}
	}
}

func formatEvent(msg string, args []any) string {
	if len(args) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	return b.String()
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}
