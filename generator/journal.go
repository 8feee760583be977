package generator

import (
	"fmt"
	"io"
	"slices"
	"sync"

	"neo-midi/debug"
)

// defaultJournalCap bounds memory for long sessions
const defaultJournalCap = 1000

// Journal is the append-only status log shown to the user. It is safe for
// concurrent use; the worker appends and the UI reads.
type Journal struct {
	mu    sync.Mutex
	lines []string
	cap   int
	out   io.Writer

	// Notify the UI of new lines
	UpdateChan chan struct{}
}

// NewJournal creates a journal. If out is non-nil every line is also
// written to it.
func NewJournal(out io.Writer) *Journal {
	return &Journal{
		cap:        defaultJournalCap,
		out:        out,
		UpdateChan: make(chan struct{}, 1),
	}
}

// Printf appends one formatted line
func (j *Journal) Printf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	debug.Log("journal", "%s", line)

	j.mu.Lock()
	j.lines = append(j.lines, line)
	if len(j.lines) > j.cap {
		j.lines = slices.Delete(j.lines, 0, len(j.lines)-j.cap)
	}
	if j.out != nil {
		fmt.Fprintln(j.out, line)
	}
	j.mu.Unlock()

	j.notify()
}

// Lines returns a copy of the current lines
func (j *Journal) Lines() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.lines)
}

// Tail returns at most the last n lines
func (j *Journal) Tail(n int) []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	if n >= len(j.lines) {
		return slices.Clone(j.lines)
	}
	return slices.Clone(j.lines[len(j.lines)-n:])
}

// Clear drops all lines
func (j *Journal) Clear() {
	j.mu.Lock()
	j.lines = nil
	j.mu.Unlock()
	j.notify()
}

func (j *Journal) notify() {
	select {
	case j.UpdateChan <- struct{}{}:
	default:
	}
}
