// Package models holds the data types shared across the ingestion, spread,
// and execution layers of the cross-venue arbitrage engine.
package models

import "math"

// MaxDepth bounds how many price levels are retained per side. Venues that
// stream full-depth snapshots have their tails trimmed on insert.
const MaxDepth = 20

// Side identifies which side of the book a level belongs to.
type Side int

const (
	SideBid Side = iota
	SideAsk
)

// OrderbookLevel is one price/quantity point in a book.
type OrderbookLevel struct {
	Price    float64
	Quantity float64
}

// NewOrderbookLevel is a small convenience constructor used heavily by tests.
func NewOrderbookLevel(price, quantity float64) OrderbookLevel {
	return OrderbookLevel{Price: price, Quantity: quantity}
}

// Orderbook is a per-symbol top-of-book/depth snapshot for one venue.
//
// Invariants: Bids is sorted descending by price, Asks ascending; a level
// with Quantity == 0 is never stored (insertion with qty 0 removes the
// level instead). TimestampMs is stamped at write time.
type Orderbook struct {
	Bids        []OrderbookLevel
	Asks        []OrderbookLevel
	TimestampMs int64
}

// NewOrderbook returns an empty book.
func NewOrderbook() *Orderbook {
	return &Orderbook{
		Bids: make([]OrderbookLevel, 0, MaxDepth),
		Asks: make([]OrderbookLevel, 0, MaxDepth),
	}
}

// BestBid returns the top bid level, or false if the book has no bids.
func (ob *Orderbook) BestBid() (OrderbookLevel, bool) {
	if len(ob.Bids) == 0 {
		return OrderbookLevel{}, false
	}
	return ob.Bids[0], true
}

// BestAsk returns the top ask level, or false if the book has no asks.
func (ob *Orderbook) BestAsk() (OrderbookLevel, bool) {
	if len(ob.Asks) == 0 {
		return OrderbookLevel{}, false
	}
	return ob.Asks[0], true
}

// isRejectedPrice implements the "malformed frames are expected" failure
// semantics: NaN, negative, and zero prices are silently rejected rather
// than crashing the ingester.
func isRejectedPrice(price float64) bool {
	return math.IsNaN(price) || price <= 0
}

// InsertLevel maintains sort order on insert and removes the level when
// quantity is zero. Malformed prices (NaN/<=0) are dropped silently.
func (ob *Orderbook) InsertLevel(side Side, price, quantity float64) {
	if isRejectedPrice(price) || math.IsNaN(quantity) || quantity < 0 {
		return
	}

	switch side {
	case SideBid:
		ob.Bids = insertLevel(ob.Bids, price, quantity, true)
		if len(ob.Bids) > MaxDepth {
			ob.Bids = ob.Bids[:MaxDepth]
		}
	case SideAsk:
		ob.Asks = insertLevel(ob.Asks, price, quantity, false)
		if len(ob.Asks) > MaxDepth {
			ob.Asks = ob.Asks[:MaxDepth]
		}
	}
}

// insertLevel performs an ordered upsert/delete on a slice of levels.
// descending selects bid ordering (highest price first); ascending (false)
// is used for asks.
func insertLevel(levels []OrderbookLevel, price, quantity float64, descending bool) []OrderbookLevel {
	idx := -1
	for i, lvl := range levels {
		if lvl.Price == price {
			idx = i
			break
		}
	}

	if quantity == 0 {
		if idx >= 0 {
			levels = append(levels[:idx], levels[idx+1:]...)
		}
		return levels
	}

	if idx >= 0 {
		levels[idx].Quantity = quantity
		return levels
	}

	// Find insertion point preserving sort order.
	pos := len(levels)
	for i, lvl := range levels {
		if (descending && price > lvl.Price) || (!descending && price < lvl.Price) {
			pos = i
			break
		}
	}

	levels = append(levels, OrderbookLevel{})
	copy(levels[pos+1:], levels[pos:])
	levels[pos] = OrderbookLevel{Price: price, Quantity: quantity}
	return levels
}

// DepthQuantity walks the requested side accumulating quantity up to
// targetQty and returns the volume-weighted average price across those
// levels. Returns false if the book does not carry enough depth.
func (ob *Orderbook) DepthQuantity(side Side, targetQty float64) (vwap float64, ok bool) {
	levels := ob.Asks
	if side == SideBid {
		levels = ob.Bids
	}

	var filled, notional float64
	for _, lvl := range levels {
		take := lvl.Quantity
		remaining := targetQty - filled
		if take > remaining {
			take = remaining
		}
		notional += take * lvl.Price
		filled += take
		if filled >= targetQty {
			break
		}
	}

	if filled < targetQty || filled == 0 {
		return 0, false
	}
	return notional / filled, true
}

// Clone returns a deep copy, sized for the short read-lock window the
// shared-state fabric holds while cloning out of SharedOrderbooks.
func (ob *Orderbook) Clone() *Orderbook {
	out := &Orderbook{
		Bids:        make([]OrderbookLevel, len(ob.Bids)),
		Asks:        make([]OrderbookLevel, len(ob.Asks)),
		TimestampMs: ob.TimestampMs,
	}
	copy(out.Bids, ob.Bids)
	copy(out.Asks, ob.Asks)
	return out
}
