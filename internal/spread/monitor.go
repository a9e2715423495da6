package spread

import (
	"context"
	"time"

	"arbengine/internal/models"
	"arbengine/internal/shared"
	"arbengine/pkg/utils"
)

// TickInterval is the polling cadence for both the entry and exit
// monitors.
const TickInterval = 25 * time.Millisecond

// missingBookLogThrottle and detectedLogThrottle bound how often the
// monitor logs at warn/info respectively, so a persistently missing book
// or a sustained opportunity streak does not flood the log.
const (
	missingBookLogThrottle = 10 * time.Second
	detectedLogThrottle    = 2 * time.Second
	rawSpreadLogThrottle   = 1 * time.Second
)

// Monitor is the single cooperative task per trading pair that polls
// SharedOrderbooks, calls Calculate, and try-sends SpreadOpportunity
// values onto a bounded, capacity-1 channel the executor reads from.
type Monitor struct {
	pair   string
	venueA string
	venueB string

	booksA *shared.SharedOrderbooks
	booksB *shared.SharedOrderbooks
	symbol string

	entryThreshold float64
	opportunities  chan models.SpreadOpportunity

	log *utils.Logger

	lastMissingLog time.Time
	lastDetectLog  time.Time
	lastRawLog     time.Time
}

// NewMonitor builds a Monitor for one pair. opportunities must be a
// capacity-1 channel; the executor is the sole reader.
func NewMonitor(pair, venueA, venueB, symbol string, booksA, booksB *shared.SharedOrderbooks, entryThreshold float64, opportunities chan models.SpreadOpportunity, log *utils.Logger) *Monitor {
	return &Monitor{
		pair:           pair,
		venueA:         venueA,
		venueB:         venueB,
		symbol:         symbol,
		booksA:         booksA,
		booksB:         booksB,
		entryThreshold: entryThreshold,
		opportunities:  opportunities,
		log:            log.WithComponent("spread.monitor").WithSymbol(symbol),
	}
}

// Run blocks, ticking every TickInterval, until ctx is cancelled;
// shutdown and the tick are polled concurrently and either wins.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

func (m *Monitor) tick() {
	bookA, okA := m.booksA.Snapshot(m.symbol)
	bookB, okB := m.booksB.Snapshot(m.symbol)
	if !okA || !okB {
		missingBookTicks.Inc()
		if time.Since(m.lastMissingLog) >= missingBookLogThrottle {
			m.log.Warn("spread tick skipped, missing book", utils.Bool("have_a", okA), utils.Bool("have_b", okB))
			m.lastMissingLog = time.Now()
		}
		return
	}

	start := time.Now()
	result, ok := Calculate(bookA, bookB)
	calculationLatency.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	if !ok {
		return
	}

	if time.Since(m.lastRawLog) >= rawSpreadLogThrottle {
		m.log.Debug("spread tick", utils.Spread(result.Magnitude), utils.String("direction", result.Direction.String()))
		m.lastRawLog = time.Now()
	}

	if result.Magnitude < m.entryThreshold {
		return
	}

	bestBidA, _ := bookA.BestBid()
	bestAskA, _ := bookA.BestAsk()
	bestBidB, _ := bookB.BestBid()
	bestAskB, _ := bookB.BestAsk()

	opp := models.SpreadOpportunity{
		Pair:         m.pair,
		VenueA:       m.venueA,
		VenueB:       m.venueB,
		Direction:    result.Direction,
		SpreadPct:    result.Magnitude,
		DetectedAtMs: utils.UnixMillis(),
		AAsk:         bestAskA.Price,
		ABid:         bestBidA.Price,
		BAsk:         bestAskB.Price,
		BBid:         bestBidB.Price,
	}

	select {
	case m.opportunities <- opp:
		opportunitiesEmitted.Inc()
		if time.Since(m.lastDetectLog) >= detectedLogThrottle {
			m.log.Info("spread opportunity detected",
				utils.String("event", models.EventSpreadDetected),
				utils.Spread(opp.SpreadPct), utils.String("direction", opp.Direction.String()))
			m.lastDetectLog = time.Now()
		}
	default:
		opportunitiesDropped.Inc()
	}
}
