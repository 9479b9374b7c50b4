package transposition

import (
	"sync"
)

// Bound describes how a stored score relates to the true value of the position
type Bound uint8

const (
	// Exact means the search of the node completed inside its window
	Exact Bound = iota
	// LowerBound means the search failed high, the true value is at least Score
	LowerBound
	// UpperBound means the search failed low, the true value is at most Score
	UpperBound
)

func (b Bound) String() string {
	switch b {
	case Exact:
		return "exact"
	case LowerBound:
		return "lower"
	case UpperBound:
		return "upper"
	}
	return "unknown"
}

// Policy decides whether a store may overwrite an existing entry for the same key
type Policy uint8

const (
	// AlwaysReplace lets the last write win
	AlwaysReplace Policy = iota
	// DepthPreferred keeps an existing entry that was searched deeper than the new one
	DepthPreferred
)

// DefaultCapacity is the entry budget used when a Config leaves it at zero
const DefaultCapacity = 1 << 20

// Config holds the replacement policy and the memory budget of a Table
type Config struct {
	Policy   Policy
	Capacity int // Maximum number of entries before the table is cleared
}

// Entry is the result of a completed search of one position
type Entry[M any] struct {
	Key     uint64 // The identity of the position
	Depth   int    // The remaining depth the position was searched to
	Score   int32  // The result of the search, ply-relative for mate scores
	Bound   Bound  // Whether Score is exact or a one-sided bound
	Move    M      // The best or refuting move found
	HasMove bool   // Whether Move is meaningful
}

// Cutoff reports whether the entry settles a node searched with the window
// (alpha, beta). Bounds are only usable when they fall outside the window.
func (e Entry[M]) Cutoff(alpha, beta int32) (int32, bool) {
	switch e.Bound {
	case Exact:
		return e.Score, true
	case LowerBound:
		if e.Score >= beta {
			return e.Score, true
		}
	case UpperBound:
		if e.Score <= alpha {
			return e.Score, true
		}
	}
	return 0, false
}

// Stats counts table traffic since the last ResetStats
type Stats struct {
	Hits       uint64
	Misses     uint64
	Stores     uint64
	Overwrites uint64
	Rejected   uint64 // Stores dropped by DepthPreferred
	Clears     uint64
}

// Table maps position keys to search results. A single table must not be
// shared by concurrent searches; the lock only protects diagnostics.
type Table[M any] struct {
	mu      sync.RWMutex
	entries map[uint64]Entry[M]
	cfg     Config
	stats   Stats
}

// New returns an empty table
func New[M any](cfg Config) *Table[M] {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	return &Table[M]{
		entries: make(map[uint64]Entry[M]),
		cfg:     cfg,
	}
}

// Lookup returns the entry for key if it was searched to at least depth
func (t *Table[M]) Lookup(key uint64, depth int) (Entry[M], bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok || e.Depth < depth {
		t.stats.Misses++
		return Entry[M]{}, false
	}
	t.stats.Hits++
	return e, true
}

// Probe returns the entry for key regardless of its depth
func (t *Table[M]) Probe(key uint64) (Entry[M], bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[key]
	return e, ok
}

// Store commits an entry according to the table's policy. If the table is
// full and the key is new, the table is cleared first.
func (t *Table[M]) Store(e Entry[M]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	stored, exists := t.entries[e.Key]
	if exists {
		if t.cfg.Policy == DepthPreferred && stored.Depth > e.Depth {
			t.stats.Rejected++
			return
		}
		t.stats.Overwrites++
	} else if len(t.entries) >= t.cfg.Capacity {
		t.clear()
	}
	t.entries[e.Key] = e
	t.stats.Stores++
}

// Clear drops every entry
func (t *Table[M]) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clear()
}

func (t *Table[M]) clear() {
	t.entries = make(map[uint64]Entry[M])
	t.stats.Clears++
}

// Len returns the number of stored entries
func (t *Table[M]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Stats returns a snapshot of the traffic counters
func (t *Table[M]) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stats
}

// ResetStats zeroes the traffic counters
func (t *Table[M]) ResetStats() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats = Stats{}
}
