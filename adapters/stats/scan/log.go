package scan

import (
	"sync"

	"gofit/domain/stats"
)

// LogEntry is one evaluated point, tagged with the evaluator that produced it
type LogEntry struct {
	Evaluator string           `json:"evaluator"`
	Point     stats.ScorePoint `json:"point"`
}

// Log is an append-only record of evaluated points owned by the caller.
// Attaching the same Log to repeated scans accumulates across calls.
type Log struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewLog creates an empty scan log
func NewLog() *Log {
	return &Log{}
}

// Append records an evaluated point
func (l *Log) Append(evaluator string, p stats.ScorePoint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Evaluator: evaluator, Point: p})
}

// Len returns the number of recorded points
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Entries returns a copy of all recorded entries in insertion order
func (l *Log) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Points returns the recorded points of a single evaluator in insertion order
func (l *Log) Points(evaluator string) []stats.ScorePoint {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []stats.ScorePoint
	for _, e := range l.entries {
		if e.Evaluator == evaluator {
			out = append(out, e.Point)
		}
	}
	return out
}
