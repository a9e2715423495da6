package models

import "sync/atomic"

// PositionState holds the single open-position slot for one pair. Only one
// position may be open at a time; OpenIfClosed is the sole entry
// point that flips isOpen, implemented as a CAS so concurrent entry
// attempts from the detector and a manual trigger can't both win.
type PositionState struct {
	isOpen    atomic.Bool
	direction atomic.Int32 // SpreadDirection, valid only while isOpen

	// The remaining fields are only meaningful while isOpen is true and
	// are written once by the goroutine that won OpenIfClosed, after the
	// CAS, then read by the exit monitor. They are not atomics and no mutex
	// guards them: the supervisor starts the exit monitor only after
	// Execute has returned, so the writes happen before any read.
	EntrySpread float64
	EntryPriceA float64
	EntryPriceB float64
	LongVenue   string
	ShortVenue  string
	Size        float64
	OpenedAtMs  int64
}

// OpenIfClosed attempts to transition from closed to open, returning true
// only for the caller that won the race. Losers must not place any order.
func (p *PositionState) OpenIfClosed(direction SpreadDirection) bool {
	if !p.isOpen.CompareAndSwap(false, true) {
		return false
	}
	p.direction.Store(int32(direction))
	return true
}

// Close transitions back to closed. Only the goroutine owning the open
// position (executor or exit monitor) may call this.
func (p *PositionState) Close() {
	p.direction.Store(int32(DirectionNone))
	p.isOpen.Store(false)
}

// IsOpen reports the current state.
func (p *PositionState) IsOpen() bool {
	return p.isOpen.Load()
}

// Direction returns the entry direction, valid only while IsOpen is true.
func (p *PositionState) Direction() SpreadDirection {
	return SpreadDirection(p.direction.Load())
}
