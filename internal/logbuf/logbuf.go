// Package logbuf provides a fixed-capacity in-memory ring of recent log
// entries. It implements io.Writer so it can sit behind a
// zerolog.MultiLevelWriter next to the console writer, and it serves the
// diagnostics endpoint that returns the most recent entries.
package logbuf

import (
	"sync"
	"time"
)

// DefaultCapacity bounds the ring when no explicit capacity is given.
const DefaultCapacity = 1000

// Entry is one captured log line.
type Entry struct {
	Time time.Time `json:"time"`
	Line string    `json:"line"`
}

// Ring is a concurrency-safe circular buffer of log entries. Once full, each
// write evicts the oldest entry.
type Ring struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

// New returns a Ring holding at most capacity entries. Non-positive
// capacities fall back to DefaultCapacity.
func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{entries: make([]Entry, capacity)}
}

// Write records one log line. It never fails; the signature satisfies
// io.Writer.
func (r *Ring) Write(p []byte) (int, error) {
	line := string(p)
	// zerolog terminates each event with a newline.
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}

	r.mu.Lock()
	r.entries[r.next] = Entry{Time: time.Now().UTC(), Line: line}
	r.next++
	if r.next == len(r.entries) {
		r.next = 0
		r.full = true
	}
	r.mu.Unlock()
	return len(p), nil
}

// Len reports how many entries are currently held.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.entries)
	}
	return r.next
}

// Snapshot returns the held entries oldest-first. The returned slice is a
// copy and safe to retain.
func (r *Ring) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]Entry, r.next)
		copy(out, r.entries[:r.next])
		return out
	}
	out := make([]Entry, 0, len(r.entries))
	out = append(out, r.entries[r.next:]...)
	out = append(out, r.entries[:r.next]...)
	return out
}

// Tail returns up to n of the most recent entries, oldest-first. n <= 0
// returns everything.
func (r *Ring) Tail(n int) []Entry {
	all := r.Snapshot()
	if n <= 0 || n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}
