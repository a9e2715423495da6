// Package shared holds the cross-task state one venue adapter publishes and
// the spread monitor reads: a reader-writer locked book-by-symbol map plus
// an edge-triggered notifier. The lock-free top-of-book cell lives in
// internal/models (AtomicBestPrices) since adapters own one per symbol and
// hand out clones of the pointer, not of the map.
package shared

import (
	"sync"

	"arbengine/internal/models"
)

// SharedOrderbooks is a symbol -> Orderbook map behind a reader-writer lock.
// One instance per venue. The adapter's reader task is the single writer;
// the spread monitor and any other consumer are readers.
type SharedOrderbooks struct {
	mu    sync.RWMutex
	books map[string]*models.Orderbook
}

// NewSharedOrderbooks returns an empty map ready for use.
func NewSharedOrderbooks() *SharedOrderbooks {
	return &SharedOrderbooks{books: make(map[string]*models.Orderbook)}
}

// Upsert applies a single level update to symbol's book, creating the book
// on first touch. Malformed prices are rejected by Orderbook.InsertLevel
// itself, not here.
func (s *SharedOrderbooks) Upsert(symbol string, side models.Side, price, quantity float64, timestampMs int64) {
	s.mu.Lock()
	book, ok := s.books[symbol]
	if !ok {
		book = models.NewOrderbook()
		s.books[symbol] = book
	}
	book.InsertLevel(side, price, quantity)
	book.TimestampMs = timestampMs
	s.mu.Unlock()
}

// Replace swaps in a freshly built book, used for full-depth snapshots
// where rebuilding off-lock and then installing is cheaper than many
// individual inserts under the write guard.
func (s *SharedOrderbooks) Replace(symbol string, book *models.Orderbook) {
	s.mu.Lock()
	s.books[symbol] = book
	s.mu.Unlock()
}

// Snapshot clones the current book for symbol. The read guard is held only
// long enough to clone, never across network I/O or further computation.
func (s *SharedOrderbooks) Snapshot(symbol string) (*models.Orderbook, bool) {
	s.mu.RLock()
	book, ok := s.books[symbol]
	if !ok {
		s.mu.RUnlock()
		return nil, false
	}
	clone := book.Clone()
	s.mu.RUnlock()
	return clone, true
}

// Symbols returns the set of symbols currently tracked.
func (s *SharedOrderbooks) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.books))
	for sym := range s.books {
		out = append(out, sym)
	}
	return out
}

// Delete drops a symbol's book, e.g. on unsubscribe.
func (s *SharedOrderbooks) Delete(symbol string) {
	s.mu.Lock()
	delete(s.books, symbol)
	s.mu.Unlock()
}

// Clear drops every book. The adapter calls this when its connection goes
// down so readers see a missing book instead of silently consuming the
// last pre-outage snapshot.
func (s *SharedOrderbooks) Clear() {
	s.mu.Lock()
	s.books = make(map[string]*models.Orderbook)
	s.mu.Unlock()
}
