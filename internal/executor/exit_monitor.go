package executor

import (
	"context"
	"fmt"
	"time"

	"arbengine/internal/models"
	"arbengine/internal/shared"
	"arbengine/internal/spread"
	"arbengine/pkg/retry"
	"arbengine/pkg/utils"
)

// exitLogThrottle bounds the debug-level "current exit spread" log.
const exitLogThrottle = 1 * time.Second

// ExitMonitor polls at the same 25ms cadence as the entry monitor while a
// position is open, and triggers a symmetric close once the exit spread
// crosses the configured threshold.
type ExitMonitor struct {
	pair   string
	symbol string

	booksA *shared.SharedOrderbooks
	booksB *shared.SharedOrderbooks

	exitThreshold float64

	position *models.PositionState
	venueA   VenuePlacer
	venueB   VenuePlacer

	log *utils.Logger

	lastLog time.Time
	polls   int
}

// NewExitMonitor builds an ExitMonitor sharing position with the Executor
// that opened it.
func NewExitMonitor(pair, symbol string, booksA, booksB *shared.SharedOrderbooks, exitThreshold float64, position *models.PositionState, venueA, venueB VenuePlacer, log *utils.Logger) *ExitMonitor {
	return &ExitMonitor{
		pair:          pair,
		symbol:        symbol,
		booksA:        booksA,
		booksB:        booksB,
		exitThreshold: exitThreshold,
		position:      position,
		venueA:        venueA,
		venueB:        venueB,
		log:           log.WithComponent("executor.exit_monitor").WithSymbol(symbol),
	}
}

// Run blocks, ticking every spread.TickInterval, and triggers a close as
// soon as the position is open and the exit spread condition is met. It
// returns when ctx is cancelled or after one successful close.
func (m *ExitMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(spread.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.position.IsOpen() {
				continue
			}
			if m.tick(ctx) {
				return
			}
		}
	}
}

// tick evaluates one poll. Returns true once the position has been
// closed (successfully or with a logged critical failure that still
// clears local exposure tracking).
func (m *ExitMonitor) tick(ctx context.Context) bool {
	m.polls++

	bookA, okA := m.booksA.Snapshot(m.symbol)
	bookB, okB := m.booksB.Snapshot(m.symbol)
	if !okA || !okB {
		return false
	}

	exitPct, ok := spread.ExitSpread(m.position.Direction(), bookA, bookB)
	if !ok {
		return false
	}

	if time.Since(m.lastLog) >= exitLogThrottle {
		m.log.Debug("exit spread poll",
			utils.String("event", models.EventPositionMonitor),
			utils.Spread(exitPct), utils.Int("polls_since_open", m.polls))
		m.lastLog = time.Now()
	}

	if exitPct < m.exitThreshold {
		return false
	}

	m.closePosition(ctx, exitPct)
	return true
}

// closePosition fires two parallel reduce-only IOC orders inverting the
// open legs. On a one-sided failure it
// retries the other leg up to 3 times before surfacing a critical log and
// giving up; the system does not attempt heroic recovery.
func (m *ExitMonitor) closePosition(ctx context.Context, exitPct float64) {
	entrySpread := m.position.EntrySpread
	longVenue := m.position.LongVenue
	shortVenue := m.position.ShortVenue
	size := m.position.Size
	openedAt := m.position.OpenedAtMs

	longPlacer := m.placerForVenue(longVenue)
	shortPlacer := m.placerForVenue(shortVenue)

	closeCh1 := make(chan error, 1)
	closeCh2 := make(chan error, 1)

	go func() { closeCh1 <- m.closeLeg(ctx, longPlacer, longVenue, models.OrderSideSell, size) }()
	go func() { closeCh2 <- m.closeLeg(ctx, shortPlacer, shortVenue, models.OrderSideBuy, size) }()

	err1 := <-closeCh1
	err2 := <-closeCh2

	if err1 != nil {
		m.log.Error("exit close failed on long leg, operator intervention required", utils.String("venue", longVenue), utils.Err(err1))
	}
	if err2 != nil {
		m.log.Error("exit close failed on short leg, operator intervention required", utils.String("venue", shortVenue), utils.Err(err2))
	}

	m.position.Close()
	positionOpen.Set(0)

	captured := entrySpread + exitPct
	hold := time.Since(utils.FromUnixMillis(openedAt))
	m.log.Info("position closed",
		utils.String("event", models.EventTradeExit),
		utils.Spread(entrySpread), utils.Float64("exit_spread", exitPct),
		utils.Float64("captured_pct", captured),
		utils.Int64("hold_ms", hold.Milliseconds()),
		utils.String("hold", utils.FormatDuration(hold)))
}

func (m *ExitMonitor) closeLeg(ctx context.Context, placer VenuePlacer, venueName string, side models.OrderSide, size float64) error {
	req := models.OrderRequest{
		ClientOrderID: newClientOrderID(m.pair, "exit"),
		Symbol:        m.symbol,
		Side:          side,
		Kind:          models.KindMarket,
		Quantity:      size,
		TimeInForce:   models.TimeInForceIOC,
		ReduceOnly:    true,
	}

	return retry.Do(ctx, func() error {
		resp, err := placer.PlaceOrder(ctx, req)
		if err != nil {
			return err
		}
		if resp == nil || !resp.IsSuccess() {
			return fmt.Errorf("close order not filled on %s", venueName)
		}
		return nil
	}, autoCloseRetry())
}

func (m *ExitMonitor) placerForVenue(venueName string) VenuePlacer {
	if m.venueA.Name() == venueName {
		return m.venueA
	}
	return m.venueB
}
