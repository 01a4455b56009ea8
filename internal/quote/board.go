package quote

import (
	"sync"
	"time"
)

// Board holds the most recently accepted quotation per kind. It is the only
// shared mutable state in the core: orchestrators write, everything else
// reads snapshots.
type Board struct {
	mu      sync.RWMutex
	current map[Kind]Quotation
}

// NewBoard constructs an empty Board.
func NewBoard() *Board {
	return &Board{current: make(map[Kind]Quotation)}
}

// Put stores q as the current value for its kind. Writes carrying a
// FetchedAt older than the stored value are rejected, so an overlapping
// fetch that completes late cannot clobber a newer result. Returns whether
// the write was accepted.
func (b *Board) Put(q Quotation) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if prev, ok := b.current[q.Kind]; ok && q.FetchedAt.Before(prev.FetchedAt) {
		return false
	}
	b.current[q.Kind] = q
	return true
}

// Get returns the current quotation for kind, if any.
func (b *Board) Get(kind Kind) (Quotation, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	q, ok := b.current[kind]
	return q, ok
}

// Snapshot copies the full current state. Derived computations (deals,
// variance alerts) work from a snapshot and never touch the board itself.
func (b *Board) Snapshot() map[Kind]Quotation {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[Kind]Quotation, len(b.current))
	for k, q := range b.current {
		out[k] = q
	}
	return out
}

// LastUpdated returns the newest FetchedAt across all kinds, zero if empty.
func (b *Board) LastUpdated() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var latest time.Time
	for _, q := range b.current {
		if q.FetchedAt.After(latest) {
			latest = q.FetchedAt
		}
	}
	return latest
}
