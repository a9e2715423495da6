package venue

import (
	"context"
	"fmt"
	"sync"

	"arbengine/internal/models"
	"arbengine/internal/shared"
	"arbengine/pkg/utils"
)

// Adapter owns exactly one inbound WebSocket for a venue and translates its
// wire dialect into Orderbook updates published into SharedOrderbooks and
// AtomicBestPrices. One Adapter instance is built per venue via
// NewAdapter; the wire-format differences between venues live entirely
// behind the Dialect passed to it.
type Adapter struct {
	dialect Dialect
	log     *utils.Logger

	transport *wsTransport
	books     *shared.SharedOrderbooks

	bestMu sync.RWMutex
	best   map[string]*models.AtomicBestPrices

	notify *shared.OrderbookNotify

	trading Trader // nil when the venue has no order-placement support wired
}

// Trader is the optional order-execution surface a Dialect's venue may
// additionally support. Not every venue used purely for market data
// implements it.
type Trader interface {
	PlaceOrder(ctx context.Context, req models.OrderRequest) (*models.OrderResponse, error)
	CancelOrder(ctx context.Context, orderID string) error
	GetPosition(ctx context.Context, symbol string) (*models.PositionState, error)
	SetLeverage(ctx context.Context, symbol string, leverage float64) error
}

// NewAdapter builds an adapter around one venue's Dialect. trading may be
// nil for a market-data-only venue.
func NewAdapter(d Dialect, trading Trader, log *utils.Logger) *Adapter {
	a := &Adapter{
		dialect: d,
		log:     log.WithComponent("venue.adapter").WithExchange(d.Name()),
		books:   shared.NewSharedOrderbooks(),
		best:    make(map[string]*models.AtomicBestPrices),
		trading: trading,
	}
	a.transport = newWSTransport(d, log)
	a.transport.onFrame = a.handleFrame
	a.transport.onDown = a.books.Clear
	return a
}

// Connect opens the WebSocket, subscribes to any symbols queued via
// SubscribeOrderbook before Connect was called, and starts the adapter's
// reconnect-on-disconnect supervisor goroutine.
func (a *Adapter) Connect(ctx context.Context) error {
	if err := a.transport.connect(ctx); err != nil {
		return err
	}
	go a.transport.reconnectSupervisor(ctx)
	return nil
}

// Disconnect gracefully tears down the connection and stops the reconnect
// supervisor and keepalive loop.
func (a *Adapter) Disconnect() {
	a.transport.disconnect()
}

// SubscribeOrderbook is idempotent: calling it twice for the same symbol is
// a no-op on the second call.
func (a *Adapter) SubscribeOrderbook(symbol string) error {
	a.GetSharedBestPrices(symbol)
	return a.transport.subscribe(symbol)
}

// GetOrderbook returns a synchronous snapshot of symbol's last known book.
func (a *Adapter) GetOrderbook(symbol string) (*models.Orderbook, bool) {
	return a.books.Snapshot(symbol)
}

// GetSharedOrderbooks hands out the shared map handle for readers that
// want to poll multiple symbols without per-call allocation.
func (a *Adapter) GetSharedOrderbooks() *shared.SharedOrderbooks {
	return a.books
}

// GetSharedBestPrices returns the lock-free top-of-book cell for symbol,
// creating it (still zero-valued/stale) if SubscribeOrderbook was never
// called for it.
func (a *Adapter) GetSharedBestPrices(symbol string) *models.AtomicBestPrices {
	a.bestMu.RLock()
	cell, ok := a.best[symbol]
	a.bestMu.RUnlock()
	if ok {
		return cell
	}

	a.bestMu.Lock()
	defer a.bestMu.Unlock()
	if cell, ok = a.best[symbol]; ok {
		return cell
	}
	cell = &models.AtomicBestPrices{}
	a.best[symbol] = cell
	return cell
}

// SetOrderbookNotify registers an edge-triggered notifier pulsed on every
// applied update.
func (a *Adapter) SetOrderbookNotify(n *shared.OrderbookNotify) {
	a.notify = n
}

// IsConnected reports current liveness.
func (a *Adapter) IsConnected() bool {
	return a.transport.IsConnected()
}

// IsStale reports whether the feed has gone silent past the staleness
// threshold or is otherwise not usable.
func (a *Adapter) IsStale() bool {
	return a.transport.IsStale(utils.UnixMillis())
}

// Reconnect forces an immediate reconnect cycle rather than waiting for the
// reader loop to notice a dead socket, preserving the subscription set
// (resubscribe happens inside connect()).
func (a *Adapter) Reconnect(ctx context.Context) error {
	a.transport.onDisconnect(nil)
	return nil
}

// PlaceOrder delegates to the venue's Trader, or returns a typed error if
// this venue carries no order-execution wiring.
func (a *Adapter) PlaceOrder(ctx context.Context, req models.OrderRequest) (*models.OrderResponse, error) {
	if a.trading == nil {
		return nil, NewError(KindInvalidResponse, a.dialect.Name(), "venue has no order execution wired", nil)
	}
	return a.trading.PlaceOrder(ctx, req)
}

// CancelOrder delegates to the venue's Trader.
func (a *Adapter) CancelOrder(ctx context.Context, orderID string) error {
	if a.trading == nil {
		return NewError(KindInvalidResponse, a.dialect.Name(), "venue has no order execution wired", nil)
	}
	return a.trading.CancelOrder(ctx, orderID)
}

// GetPosition delegates to the venue's Trader.
func (a *Adapter) GetPosition(ctx context.Context, symbol string) (*models.PositionState, error) {
	if a.trading == nil {
		return nil, NewError(KindInvalidResponse, a.dialect.Name(), "venue has no order execution wired", nil)
	}
	return a.trading.GetPosition(ctx, symbol)
}

// SetLeverage delegates to the venue's Trader.
func (a *Adapter) SetLeverage(ctx context.Context, symbol string, leverage float64) error {
	if a.trading == nil {
		return NewError(KindInvalidResponse, a.dialect.Name(), "venue has no order execution wired", nil)
	}
	return a.trading.SetLeverage(ctx, symbol, leverage)
}

// handleFrame is the transport's onFrame callback: decode via the dialect,
// apply to SharedOrderbooks/AtomicBestPrices, pulse the notifier. Parse
// errors are logged and dropped, never panicking the reader loop.
func (a *Adapter) handleFrame(raw []byte) {
	update, err := a.dialect.Parse(raw)
	if err != nil {
		parseErrorsTotal.WithLabelValues(a.dialect.Name()).Inc()
		a.log.Warn("dropping unparsable frame", utils.Err(err))
		return
	}
	if update == nil || update.IsHeartbeat {
		return
	}

	switch update.Kind {
	case FrameSnapshot, FrameMark:
		book := models.NewOrderbook()
		for _, lvl := range update.Bids {
			book.InsertLevel(models.SideBid, lvl.Price, lvl.Quantity)
		}
		for _, lvl := range update.Asks {
			book.InsertLevel(models.SideAsk, lvl.Price, lvl.Quantity)
		}
		book.TimestampMs = update.TimestampMs
		a.books.Replace(update.Symbol, book)
	case FrameIncremental, FrameBestOnly:
		for _, lvl := range update.Bids {
			a.books.Upsert(update.Symbol, models.SideBid, lvl.Price, lvl.Quantity, update.TimestampMs)
		}
		for _, lvl := range update.Asks {
			a.books.Upsert(update.Symbol, models.SideAsk, lvl.Price, lvl.Quantity, update.TimestampMs)
		}
	default:
		return
	}

	a.publishBest(update.Symbol)
	a.notify.Pulse()
}

// publishBest recomputes the AtomicBestPrices cell for symbol from the
// just-updated book, under the book's own read guard.
func (a *Adapter) publishBest(symbol string) {
	book, ok := a.books.Snapshot(symbol)
	if !ok {
		return
	}
	bestBid, hasBid := book.BestBid()
	bestAsk, hasAsk := book.BestAsk()
	if !hasBid && !hasAsk {
		return
	}
	var bidP, bidQ, askP, askQ float64
	if hasBid {
		bidP, bidQ = bestBid.Price, bestBid.Quantity
	}
	if hasAsk {
		askP, askQ = bestAsk.Price, bestAsk.Quantity
	}
	a.GetSharedBestPrices(symbol).Store(bidP, bidQ, askP, askQ)
}

// Name returns the venue name this adapter was built from.
func (a *Adapter) Name() string { return a.dialect.Name() }

// String supports using an Adapter directly in log/error formatting.
func (a *Adapter) String() string { return fmt.Sprintf("Adapter(%s)", a.dialect.Name()) }
