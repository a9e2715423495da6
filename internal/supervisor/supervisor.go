// Package supervisor wires one bot's adapters, spread monitor, executor,
// and exit monitor together and owns the process-wide graceful-shutdown
// broadcast.
package supervisor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"arbengine/internal/config"
	"arbengine/internal/executor"
	"arbengine/internal/models"
	"arbengine/internal/shared"
	"arbengine/internal/spread"
	"arbengine/internal/venue"
	"arbengine/pkg/utils"
)

// ChannelBundle groups the one bot process's cross-task communication
// primitives instead of passing raw channels through every constructor.
type ChannelBundle struct {
	Opportunities chan models.SpreadOpportunity
	Notifications chan models.Notification
	NotifyA       *shared.OrderbookNotify
	NotifyB       *shared.OrderbookNotify
}

// NewChannelBundle builds a bundle. The opportunity channel's capacity of
// 1 is deliberate: the most recent opportunity is strictly more valuable
// than any queued one. The notification channel is buffered and lossy
// (see tryNotify) so operational events never back-pressure trading.
func NewChannelBundle() *ChannelBundle {
	return &ChannelBundle{
		Opportunities: make(chan models.SpreadOpportunity, 1),
		Notifications: make(chan models.Notification, 64),
		NotifyA:       shared.NewOrderbookNotify(),
		NotifyB:       shared.NewOrderbookNotify(),
	}
}

// Bot owns every long-lived task for one configured pair: two market-data
// adapters (feeding the monitor), two trading adapters (feeding the
// executor, kept as separate instances so hot-path read load never shares
// a connection with order round-trips), the monitor, the executor, and
// the exit monitor.
type Bot struct {
	cfg models.BotConfig

	marketA *venue.Adapter
	marketB *venue.Adapter
	tradeA  *venue.Adapter
	tradeB  *venue.Adapter

	rates *venue.USDCRateCache

	channels *ChannelBundle
	position *models.PositionState

	monitor  *spread.Monitor
	executor *executor.Executor

	log *utils.Logger

	metricsAddr string
}

// BuildOptions carries everything Build needs beyond the bot's own YAML
// entry: venue credentials and the logger/metrics wiring.
type BuildOptions struct {
	CredsA      config.VenueCredentials
	CredsB      config.VenueCredentials
	Log         *utils.Logger
	MetricsAddr string // empty disables the /metrics HTTP exposition
}

// Build constructs a Bot ready to Run, wiring one market-data adapter and
// one trading adapter per venue.
func Build(cfg models.BotConfig, opts BuildOptions) (*Bot, error) {
	log := opts.Log.WithComponent("supervisor").With(utils.String("pair", cfg.Pair))

	var rates *venue.USDCRateCache
	if needsUSDCNormalization(cfg.DexA, cfg.DexB) {
		source := venue.NewPythRateSource("https://hermes.pyth.network/v2/updates/price/latest", nil)
		rates = venue.NewUSDCRateCache(source, 15*time.Minute, log)
	}

	marketA, err := venue.NewAdapterForVenue(cfg.DexA, config.VenueCredentials{}, rates, log)
	if err != nil {
		return nil, fmt.Errorf("supervisor: build market adapter A: %w", err)
	}
	marketB, err := venue.NewAdapterForVenue(cfg.DexB, config.VenueCredentials{}, rates, log)
	if err != nil {
		return nil, fmt.Errorf("supervisor: build market adapter B: %w", err)
	}

	tradeA, err := venue.NewAdapterForVenue(cfg.DexA, opts.CredsA, rates, log)
	if err != nil {
		return nil, fmt.Errorf("supervisor: build trading adapter A: %w", err)
	}
	tradeB, err := venue.NewAdapterForVenue(cfg.DexB, opts.CredsB, rates, log)
	if err != nil {
		return nil, fmt.Errorf("supervisor: build trading adapter B: %w", err)
	}

	channels := NewChannelBundle()
	marketA.SetOrderbookNotify(channels.NotifyA)
	marketB.SetOrderbookNotify(channels.NotifyB)

	position := &models.PositionState{}

	monitor := spread.NewMonitor(
		cfg.ID, cfg.DexA, cfg.DexB, cfg.Pair,
		marketA.GetSharedOrderbooks(), marketB.GetSharedOrderbooks(),
		cfg.SpreadEntry, channels.Opportunities, log,
	)

	exec := executor.NewExecutor(cfg.ID, cfg.Pair, cfg.PositionSize, tradeA, tradeB, position, log)

	return &Bot{
		cfg:         cfg,
		marketA:     marketA,
		marketB:     marketB,
		tradeA:      tradeA,
		tradeB:      tradeB,
		rates:       rates,
		channels:    channels,
		position:    position,
		monitor:     monitor,
		executor:    exec,
		log:         log,
		metricsAddr: opts.MetricsAddr,
	}, nil
}

// Run connects every adapter, starts the monitor/executor-consumer/exit-
// monitor loop, and blocks until ctx is cancelled, at which point all
// tasks drain and the adapters disconnect.
func (b *Bot) Run(ctx context.Context) error {
	for _, a := range []*venue.Adapter{b.marketA, b.marketB, b.tradeA, b.tradeB} {
		if err := a.Connect(ctx); err != nil {
			return fmt.Errorf("supervisor: connect %s: %w", a.Name(), err)
		}
	}
	defer func() {
		for _, a := range []*venue.Adapter{b.marketA, b.marketB, b.tradeA, b.tradeB} {
			a.Disconnect()
		}
	}()

	if err := b.marketA.SubscribeOrderbook(b.cfg.Pair); err != nil {
		return fmt.Errorf("supervisor: subscribe A: %w", err)
	}
	if err := b.marketB.SubscribeOrderbook(b.cfg.Pair); err != nil {
		return fmt.Errorf("supervisor: subscribe B: %w", err)
	}

	if b.cfg.Leverage > 0 {
		if err := b.tradeA.SetLeverage(ctx, b.cfg.Pair, b.cfg.Leverage); err != nil {
			b.log.Warn("set leverage failed on venue A", utils.Err(err))
		}
		if err := b.tradeB.SetLeverage(ctx, b.cfg.Pair, b.cfg.Leverage); err != nil {
			b.log.Warn("set leverage failed on venue B", utils.Err(err))
		}
	}

	var srv *http.Server
	if b.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv = &http.Server{Addr: b.metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				b.log.Error("metrics server stopped", utils.Err(err))
			}
		}()
	}

	if b.rates != nil {
		go b.rates.Run(ctx)
	}

	go b.monitor.Run(ctx)
	go b.consumeOpportunities(ctx)
	go b.watchStaleness(ctx)
	go b.drainNotifications(ctx)

	b.tryNotify(models.Notification{
		Type:     models.EventBotStarted,
		Severity: models.SeverityInfo,
		BotID:    b.cfg.ID,
		Message:  "bot started",
		Meta:     map[string]interface{}{"pair": b.cfg.Pair, "dex_a": b.cfg.DexA, "dex_b": b.cfg.DexB},
	})

	<-ctx.Done()

	b.tryNotify(models.Notification{
		Type:     models.EventBotShutdown,
		Severity: models.SeverityInfo,
		BotID:    b.cfg.ID,
		Message:  "bot shutdown signalled",
	})
	b.flushNotifications()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	return nil
}

// consumeOpportunities is the executor's consumer loop: it is the sole
// reader of the opportunity channel and, on each accepted opportunity,
// runs Execute and, if a position opened, spins up the exit monitor for
// it.
func (b *Bot) consumeOpportunities(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case opp := <-b.channels.Opportunities:
			result := b.executor.Execute(ctx, opp)
			if result.Err != nil {
				continue
			}
			if result.Opened {
				b.tryNotify(models.Notification{
					Type:     models.EventTradeEntry,
					Severity: models.SeverityInfo,
					Message:  "trade entry",
					Meta: map[string]interface{}{
						"long_venue":  result.LongVenue,
						"short_venue": result.ShortVenue,
						"spread_pct":  opp.SpreadPct,
						"elapsed_ms":  result.ElapsedMs,
					},
				})
				exitMon := executor.NewExitMonitor(
					b.cfg.ID, b.cfg.Pair,
					b.marketA.GetSharedOrderbooks(), b.marketB.GetSharedOrderbooks(),
					b.cfg.SpreadExit, b.position, b.tradeA, b.tradeB, b.log,
				)
				go func() {
					exitMon.Run(ctx)
					b.executor.MarkClosed()
					if !b.position.IsOpen() {
						b.tryNotify(models.Notification{
							Type:     models.EventTradeExit,
							Severity: models.SeverityInfo,
							Message:  "trade exit",
							Meta:     map[string]interface{}{"pair": b.cfg.Pair},
						})
					}
				}()
			}
		}
	}
}

// tryNotify enqueues an operational event without ever blocking the
// caller; a full buffer drops the event (trading never waits on
// observability).
func (b *Bot) tryNotify(n models.Notification) {
	n.Timestamp = time.Now()
	if n.BotID == "" {
		n.BotID = b.cfg.ID
	}
	select {
	case b.channels.Notifications <- n:
	default:
	}
}

// drainNotifications is the single consumer of the notification channel,
// rendering each event as a structured log line.
func (b *Bot) drainNotifications(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-b.channels.Notifications:
			b.logNotification(n)
		}
	}
}

// flushNotifications synchronously drains whatever is still buffered,
// used on shutdown after the drain goroutine may have already exited.
func (b *Bot) flushNotifications() {
	for {
		select {
		case n := <-b.channels.Notifications:
			b.logNotification(n)
		default:
			return
		}
	}
}

func (b *Bot) logNotification(n models.Notification) {
	fields := []zap.Field{
		utils.String("event", n.Type),
		utils.String("bot_id", n.BotID),
	}
	for k, v := range n.Meta {
		fields = append(fields, utils.Any(k, v))
	}
	switch n.Severity {
	case models.SeverityError:
		b.log.Error(n.Message, fields...)
	case models.SeverityWarn:
		b.log.Warn(n.Message, fields...)
	default:
		b.log.Info(n.Message, fields...)
	}
}

// staleCheckInterval paces the staleness watchdog. A dead socket that
// errors out reconnects via the transport's own reader loop; this sweep
// catches the silent case where the peer simply stops sending frames.
const staleCheckInterval = 5 * time.Second

// watchStaleness periodically checks the market-data feeds' liveness and
// forces a reconnect on any that has gone silent past its threshold.
// Trading adapters are excluded: they subscribe to no stream, so frame
// silence is their normal state; their sockets recover via the reader's
// own error path. During the reconnect window the monitor keeps ticking
// and simply sees a missing book, so no opportunities are emitted off
// stale data.
func (b *Bot) watchStaleness(ctx context.Context) {
	ticker := time.NewTicker(staleCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, a := range []*venue.Adapter{b.marketA, b.marketB} {
				if !a.IsStale() {
					continue
				}
				b.log.Warn("venue feed stale, forcing reconnect", utils.String("venue", a.Name()))
				if err := a.Reconnect(ctx); err != nil {
					b.log.Error("forced reconnect failed", utils.String("venue", a.Name()), utils.Err(err))
				}
			}
		}
	}
}

// needsUSDCNormalization reports whether this pair of venues needs the
// USDC/USD rate cache: true whenever either venue is paradex (USD-quoted),
// whatever the other venue is.
func needsUSDCNormalization(dexA, dexB string) bool {
	return dexA == "paradex" || dexB == "paradex"
}
