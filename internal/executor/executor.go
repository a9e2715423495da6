// Package executor fires both legs of an arbitrage entry in parallel
// across two venues, enforces the at-most-one-open-position rule, and
// auto-closes an exposed leg when the other side fails, so the process
// never rests with net directional exposure.
package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"arbengine/internal/models"
	"arbengine/pkg/retry"
	"arbengine/pkg/utils"
)

// VenuePlacer is the narrow order-execution surface the executor needs
// from a venue adapter. internal/venue's Adapter satisfies this directly.
type VenuePlacer interface {
	PlaceOrder(ctx context.Context, req models.OrderRequest) (*models.OrderResponse, error)
	Name() string
}

// slippageMargin is the aggressive cross-the-book adjustment applied to
// the just-observed opposite top when building an entry limit price. 0.2%
// is enough to cross on both venues without giving away the whole spread.
const slippageMargin = 0.002

// autoCloseRetry bounds the auto-close and exit-close retry loops: three
// attempts with a fixed 2s delay between them, no jitter. Flattening an
// exposed leg is the one order path where predictable pacing beats the
// backoff curves retry's stock configs apply.
func autoCloseRetry() retry.Config {
	return retry.Config{
		MaxRetries:   3,
		InitialDelay: 2 * time.Second,
		MaxDelay:     2 * time.Second,
		Multiplier:   1.0,
	}
}

// cooldown blocks re-entry for a short window after each completed
// execution, regardless of opportunity flow.
const cooldown = 5 * time.Second

// LegOutcome classifies how one leg of an entry attempt resolved.
type LegOutcome int

const (
	LegFilled LegOutcome = iota
	LegPartial
	LegFailed
)

// LegResult records one leg's placement outcome with enough detail for
// the executor's outcome table and for logging/metrics.
type LegResult struct {
	Venue     string
	Response  *models.OrderResponse
	Err       error
	Outcome   LegOutcome
	SentAtMs  int64
	RecvAtMs  int64
}

// DeltaNeutralResult is returned once per accepted opportunity: which leg
// is long, which is short, how each resolved, and the total elapsed time.
type DeltaNeutralResult struct {
	Opened      bool
	LongVenue   string
	ShortVenue  string
	Long        LegResult
	Short       LegResult
	ElapsedMs   int64
	AutoClosed  bool
	Err         error
}

// Executor owns the one PositionState for a pair plus the two venue
// adapters used for trading that pair's legs.
type Executor struct {
	pair   string
	symbol string
	size   float64

	venueA VenuePlacer
	venueB VenuePlacer

	position *models.PositionState

	log *utils.Logger

	lastCloseMu sync.Mutex
	lastCloseAt time.Time
}

// NewExecutor builds an Executor for one pair. position is shared with the
// exit monitor so both sides observe the same open/closed flag.
func NewExecutor(pair, symbol string, size float64, venueA, venueB VenuePlacer, position *models.PositionState, log *utils.Logger) *Executor {
	return &Executor{
		pair:     pair,
		symbol:   symbol,
		size:     size,
		venueA:   venueA,
		venueB:   venueB,
		position: position,
		log:      log.WithComponent("executor").WithSymbol(symbol),
	}
}

// Execute runs one delta-neutral entry attempt for an accepted
// opportunity. It is safe to call concurrently with itself and with the exit
// monitor; the CAS on PositionState.is_open is the sole arbiter of who
// gets to place orders.
func (e *Executor) Execute(ctx context.Context, opp models.SpreadOpportunity) *DeltaNeutralResult {
	if e.inCooldown() {
		return &DeltaNeutralResult{Err: fmt.Errorf("executor: cooldown active")}
	}

	if !e.position.OpenIfClosed(opp.Direction) {
		return &DeltaNeutralResult{Err: fmt.Errorf("executor: position already open")}
	}

	start := time.Now()

	longVenueName, shortVenueName, longPlacer, shortPlacer, longPrice, shortPrice := e.legRoles(opp)

	longReq := models.OrderRequest{
		ClientOrderID: newClientOrderID(e.pair, "long"),
		Symbol:        e.symbol,
		Side:          models.OrderSideBuy,
		Kind:          models.KindLimit,
		Price:         longPrice,
		Quantity:      e.size,
		TimeInForce:   models.TimeInForceIOC,
	}
	shortReq := models.OrderRequest{
		ClientOrderID: newClientOrderID(e.pair, "short"),
		Symbol:        e.symbol,
		Side:          models.OrderSideSell,
		Kind:          models.KindLimit,
		Price:         shortPrice,
		Quantity:      e.size,
		TimeInForce:   models.TimeInForceIOC,
	}

	longCh := make(chan LegResult, 1)
	shortCh := make(chan LegResult, 1)

	go func() {
		longCh <- e.placeLeg(ctx, longPlacer, longVenueName, longReq)
	}()
	go func() {
		shortCh <- e.placeLeg(ctx, shortPlacer, shortVenueName, shortReq)
	}()

	long := <-longCh
	short := <-shortCh

	legOutcomes.WithLabelValues(longVenueName, legOutcomeLabel(long.Outcome)).Inc()
	legOutcomes.WithLabelValues(shortVenueName, legOutcomeLabel(short.Outcome)).Inc()

	result := e.classify(ctx, opp, longVenueName, shortVenueName, long, short)
	result.ElapsedMs = time.Since(start).Milliseconds()
	entryLatency.Observe(float64(result.ElapsedMs))

	if result.Opened && long.Response != nil && short.Response != nil {
		e.log.Debug("entry slippage",
			utils.String("event", models.EventSlippageAnalysis),
			utils.Float64("long_limit", longPrice), utils.Float64("long_fill", long.Response.AvgFillPrice),
			utils.Float64("short_limit", shortPrice), utils.Float64("short_fill", short.Response.AvgFillPrice))
	}

	if !result.Opened {
		e.position.Close()
		e.markClosed()
	}

	return result
}

// legRoles maps the opportunity's direction onto (long venue, short venue,
// long placer, short placer, long limit price, short limit price):
// AOverB means long B / short A; BOverA is the mirror.
// Limit prices cross the book aggressively off the just-observed opposite
// top with slippageMargin room.
func (e *Executor) legRoles(opp models.SpreadOpportunity) (longVenue, shortVenue string, longPlacer, shortPlacer VenuePlacer, longPrice, shortPrice float64) {
	if opp.Direction == models.DirectionAOverB {
		return opp.VenueB, opp.VenueA, e.venueB, e.venueA,
			opp.BAsk * (1 + slippageMargin),
			opp.ABid * (1 - slippageMargin)
	}
	return opp.VenueA, opp.VenueB, e.venueA, e.venueB,
		opp.AAsk * (1 + slippageMargin),
		opp.BBid * (1 - slippageMargin)
}

func (e *Executor) placeLeg(ctx context.Context, placer VenuePlacer, venueName string, req models.OrderRequest) LegResult {
	e.log.Debug("placing leg",
		utils.String("event", models.EventOrderPlaced),
		utils.String("venue", venueName), utils.Side(req.Side.String()),
		utils.Price(req.Price), utils.Volume(req.Quantity))

	sentAt := utils.UnixMillis()
	resp, err := placer.PlaceOrder(ctx, req)
	recvAt := utils.UnixMillis()

	result := LegResult{Venue: venueName, Response: resp, Err: err, SentAtMs: sentAt, RecvAtMs: recvAt}
	result.Outcome = classifyLeg(resp, err)

	switch result.Outcome {
	case LegFilled, LegPartial:
		e.log.Debug("leg filled",
			utils.String("event", models.EventOrderFilled),
			utils.String("venue", venueName), utils.Volume(resp.FilledQty),
			utils.Price(resp.AvgFillPrice), utils.Int64("round_trip_ms", recvAt-sentAt))
	default:
		e.log.Warn("leg failed",
			utils.String("event", models.EventOrderFailed),
			utils.String("venue", venueName), utils.Err(err))
	}
	return result
}

func legOutcomeLabel(o LegOutcome) string {
	switch o {
	case LegFilled:
		return "filled"
	case LegPartial:
		return "partial"
	default:
		return "failed"
	}
}

// classifyLeg maps one leg's response and transport error to its outcome
// class.
func classifyLeg(resp *models.OrderResponse, err error) LegOutcome {
	if err != nil || resp == nil {
		return LegFailed
	}
	switch resp.Outcome {
	case models.OutcomeFilled:
		return LegFilled
	case models.OutcomePartial:
		return LegPartial
	default:
		return LegFailed
	}
}

// classify resolves the leg outcome table: both filled opens the
// position; a partial on either side flattens whatever both legs filled
// rather than retrying, because market movement during a retry window
// would compound exposure; a one-sided fill triggers auto-close of the
// filled leg; both failed leaves no exposure.
func (e *Executor) classify(ctx context.Context, opp models.SpreadOpportunity, longVenue, shortVenue string, long, short LegResult) *DeltaNeutralResult {
	result := &DeltaNeutralResult{LongVenue: longVenue, ShortVenue: shortVenue, Long: long, Short: short}

	longOK := long.Outcome == LegFilled
	shortOK := short.Outcome == LegFilled

	switch {
	case longOK && shortOK:
		result.Opened = true
		e.stampPosition(opp, longVenue, shortVenue)
		positionOpen.Set(1)
		return result

	case long.Outcome == LegPartial || short.Outcome == LegPartial:
		// autoClose skips a leg with no fill, so this flattens exactly the
		// quantity each leg actually holds.
		e.autoClose(ctx, e.placerForVenue(longVenue), longVenue, long, models.OrderSideSell)
		e.autoClose(ctx, e.placerForVenue(shortVenue), shortVenue, short, models.OrderSideBuy)
		result.AutoClosed = true
		return result

	case longOK && !shortOK:
		e.log.Warn("short leg failed with long leg filled",
			utils.String("event", models.EventSecondLegFail), utils.String("venue", shortVenue))
		e.autoClose(ctx, e.placerForVenue(longVenue), longVenue, long, models.OrderSideSell)
		result.AutoClosed = true
		return result

	case !longOK && shortOK:
		e.log.Warn("long leg failed with short leg filled",
			utils.String("event", models.EventSecondLegFail), utils.String("venue", longVenue))
		e.autoClose(ctx, e.placerForVenue(shortVenue), shortVenue, short, models.OrderSideBuy)
		result.AutoClosed = true
		return result

	default:
		// Both failed: no exposure, nothing to close.
		return result
	}
}

// placerForVenue resolves the VenuePlacer for a venue name already known
// to be one of the executor's two configured venues.
func (e *Executor) placerForVenue(venueName string) VenuePlacer {
	if e.venueA.Name() == venueName {
		return e.venueA
	}
	return e.venueB
}

// autoClose fires an opposing reduce-only IOC order sized to whatever the
// original leg actually filled, retrying per autoCloseRetry.
func (e *Executor) autoClose(ctx context.Context, placer VenuePlacer, venueName string, original LegResult, closingSide models.OrderSide) {
	if original.Response == nil || original.Response.FilledQty <= 0 {
		return
	}

	req := models.OrderRequest{
		ClientOrderID: newClientOrderID(e.pair, "autoclose"),
		Symbol:        e.symbol,
		Side:          closingSide,
		Kind:          models.KindMarket,
		Quantity:      original.Response.FilledQty,
		TimeInForce:   models.TimeInForceIOC,
		ReduceOnly:    true,
	}

	err := retry.Do(ctx, func() error {
		resp, err := placer.PlaceOrder(ctx, req)
		if err != nil {
			return err
		}
		if resp == nil || !resp.IsSuccess() {
			return fmt.Errorf("close order not filled on %s", venueName)
		}
		return nil
	}, autoCloseRetry())
	if err == nil {
		e.log.Warn("auto-closed exposed leg", utils.String("venue", venueName), utils.Volume(original.Response.FilledQty))
		return
	}

	autoCloseFailures.Inc()
	e.log.Error("auto-close failed, leg left exposed, operator intervention required",
		utils.String("event", models.EventOrderFailed),
		utils.String("venue", venueName), utils.Volume(original.Response.FilledQty), utils.Err(err))
}

func (e *Executor) stampPosition(opp models.SpreadOpportunity, longVenue, shortVenue string) {
	e.position.EntrySpread = opp.SpreadPct
	e.position.EntryPriceA = opp.ABid
	e.position.EntryPriceB = opp.BBid
	e.position.LongVenue = longVenue
	e.position.ShortVenue = shortVenue
	e.position.Size = e.size
	e.position.OpenedAtMs = opp.DetectedAtMs
}

func (e *Executor) inCooldown() bool {
	e.lastCloseMu.Lock()
	defer e.lastCloseMu.Unlock()
	return time.Since(e.lastCloseAt) < cooldown
}

func (e *Executor) markClosed() {
	e.lastCloseMu.Lock()
	e.lastCloseAt = time.Now()
	e.lastCloseMu.Unlock()
}

// MarkClosed starts the re-entry cooldown. The supervisor calls it when
// the exit monitor finishes closing a position, so a fresh opportunity on
// the very next tick cannot re-enter immediately.
func (e *Executor) MarkClosed() {
	e.markClosed()
}

var clientOrderSeq atomic.Uint64

func newClientOrderID(pair, tag string) string {
	n := clientOrderSeq.Add(1)
	return fmt.Sprintf("%s-%s-%d", pair, tag, n)
}
