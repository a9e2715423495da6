package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"arbengine/pkg/utils"
)

// usdcRateMin and usdcRateMax sanity-bound the fetched USDC/USD rate: a
// venue quoted in USD needs multiplying by this scalar before it can be
// compared against a venue quoted in USDC, and a feed glitch must not
// silently de-peg the spread calculation.
const (
	usdcRateMin      = 0.90
	usdcRateMax      = 1.10
	usdcRateFallback = 1.0
)

// RateSource fetches the current USDC/USD rate from an external oracle
// (e.g. Pyth). Kept as a narrow interface so tests can inject a canned
// source instead of hitting a network endpoint.
type RateSource interface {
	FetchRate(ctx context.Context) (float64, error)
}

// PythRateSource is a minimal HTTP RateSource against Pyth's REST price
// endpoint. Only the one numeric field the core needs is decoded; the full
// Pyth payload carries confidence intervals and publish-time metadata this
// scalar cache does not use.
type PythRateSource struct {
	endpoint string
	client   *HTTPClient
}

// NewPythRateSource builds a RateSource against endpoint, falling back to
// the process-wide pooled HTTP client if client is nil.
func NewPythRateSource(endpoint string, client *HTTPClient) *PythRateSource {
	if client == nil {
		client = GetGlobalHTTPClient()
	}
	return &PythRateSource{endpoint: endpoint, client: client}
}

type pythPriceResponse struct {
	Price struct {
		Price string `json:"price"`
		Expo  int    `json:"expo"`
	} `json:"price"`
}

// FetchRate retrieves and decodes the scalar price from the configured
// Pyth endpoint.
func (s *PythRateSource) FetchRate(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	var decoded pythPriceResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return 0, fmt.Errorf("decode pyth response: %w", err)
	}

	var mantissa float64
	if _, err := fmt.Sscanf(decoded.Price.Price, "%f", &mantissa); err != nil {
		return 0, fmt.Errorf("parse pyth mantissa: %w", err)
	}
	rate := mantissa
	for i := 0; i < -decoded.Price.Expo; i++ {
		rate /= 10
	}
	return rate, nil
}

// USDCRateCache holds a single sanity-bounded USDC/USD scalar, refreshed on
// a fixed interval from a RateSource. Reads never block on network I/O:
// Rate() always returns the last accepted value (or the 1.0 fallback
// before the first successful fetch).
type USDCRateCache struct {
	mu       sync.RWMutex
	rate     float64
	lastGood time.Time

	source   RateSource
	interval time.Duration
	log      *utils.Logger
}

// NewUSDCRateCache builds a cache that refreshes every interval from
// source.
func NewUSDCRateCache(source RateSource, interval time.Duration, log *utils.Logger) *USDCRateCache {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &USDCRateCache{
		rate:     usdcRateFallback,
		source:   source,
		interval: interval,
		log:      log.WithComponent("venue.usdc_rate"),
	}
}

// Rate returns the currently cached scalar.
func (c *USDCRateCache) Rate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rate
}

// Run blocks, refreshing the cache every interval until ctx is cancelled.
// It fetches once immediately before entering the ticker loop so the first
// real spread computation does not run on the unconditioned fallback
// longer than necessary.
func (c *USDCRateCache) Run(ctx context.Context) {
	c.refresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refresh(ctx)
		}
	}
}

// refresh fetches a new rate and applies it only if it passes the sanity
// bounds; an out-of-band rate or a fetch error both leave the last-good
// value (or 1.0 fallback) in place.
func (c *USDCRateCache) refresh(ctx context.Context) {
	rate, err := c.source.FetchRate(ctx)
	if err != nil {
		c.log.Warn("usdc rate fetch failed, keeping last-good", utils.Err(err))
		return
	}
	if rate < usdcRateMin || rate > usdcRateMax {
		c.log.Warn("usdc rate out of sanity bounds, rejecting", utils.Float64("rate", rate))
		return
	}

	c.mu.Lock()
	c.rate = rate
	c.lastGood = time.Now()
	c.mu.Unlock()
}
