// Package history keeps a bounded, insertion-ordered in-memory log of
// successful transcripts for diagnostics and UI replay.
package history

import (
	"sync"
	"time"
)

// Timestamp layout matches the display format used by the frontend
const timestampLayout = "2006-01-02 15:04:05"

// Entry is one recorded transcript. Entries are never mutated after
// insertion.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

// Log is a fixed-capacity FIFO of recent transcripts shared by all requests.
// Append and eviction are atomic with respect to concurrent appends.
type Log struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	now      func() time.Time
}

// NewLog creates a log retaining at most capacity entries
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = 100
	}
	return &Log{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
		now:      time.Now,
	}
}

// Record appends a transcript with the current wall-clock time, evicting the
// oldest entry once capacity is exceeded
func (l *Log) Record(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, Entry{
		Timestamp: l.now().Format(timestampLayout),
		Text:      text,
	})
	if len(l.entries) > l.capacity {
		l.entries = l.entries[1:]
	}
}

// Recent returns up to n entries in most-recent-first order
func (l *Log) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(l.entries) - 1; i >= len(l.entries)-n; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// Latest returns the newest entry, or false when the log is empty
func (l *Log) Latest() (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Len returns the number of retained entries
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
