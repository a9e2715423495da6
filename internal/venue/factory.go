package venue

import (
	"fmt"
	"strings"

	"arbengine/internal/config"
	"arbengine/internal/models"
	"arbengine/pkg/ratelimit"
	"arbengine/pkg/retry"
	"arbengine/pkg/utils"
)

// SupportedVenues lists the dialects this build knows how to construct.
// New venues differ only in wire details Dialect already isolates, so
// adding one is a new dialect file plus a case here.
var SupportedVenues = []string{"vest", "paradex"}

// IsSupported reports whether name has a registered dialect.
func IsSupported(name string) bool {
	name = strings.ToLower(name)
	for _, v := range SupportedVenues {
		if v == name {
			return true
		}
	}
	return false
}

// NewAdapterForVenue builds a fully wired Adapter for name: its Dialect,
// and — when credentials are present — a RESTTrader so the executor can
// place orders against it. rates is only consulted by dialects that need
// USDC normalization (currently paradex); pass nil when the pair's two
// venues already share a quote currency.
func NewAdapterForVenue(name string, creds config.VenueCredentials, rates *USDCRateCache, log *utils.Logger) (*Adapter, error) {
	name = strings.ToLower(name)

	switch name {
	case "vest":
		dialect := NewVestDialect()
		trader := newVestTrader(creds, log)
		return NewAdapter(dialect, trader, log), nil
	case "paradex":
		dialect := NewParadexDialect(rates)
		trader := newParadexTrader(creds, log)
		return NewAdapter(dialect, trader, log), nil
	default:
		return nil, fmt.Errorf("venue: unsupported venue %q", name)
	}
}

// newVestTrader wires a RESTTrader for the vest venue's order endpoints,
// signing requests with an HMAC-keyed signer over the account's private
// key material. Returns nil (no trading surface) if no credentials were
// supplied, e.g. for a venue used purely as a market-data leg.
func newVestTrader(creds config.VenueCredentials, log *utils.Logger) Trader {
	if creds.PrivateKey == "" {
		return nil
	}
	return NewRESTTrader(RESTTraderConfig{
		Venue:   "vest",
		BaseURL: "https://api.vest.exchange",
		Signer:  NewHMACKeyedSigner(creds.PrivateKey),
		Limiter: ratelimit.NewRateLimiter(10, 20),
		Retry:   retry.AggressiveConfig(),

		BuildOrder: func(req models.OrderRequest) (string, map[string]interface{}) {
			return "/v1/orders", map[string]interface{}{
				"client_order_id": req.ClientOrderID,
				"symbol":          req.Symbol,
				"side":            req.Side.String(),
				"type":            req.Kind.String(),
				"price":           req.Price,
				"quantity":        req.Quantity,
				"time_in_force":   req.TimeInForce.String(),
				"reduce_only":     req.ReduceOnly,
			}
		},
		ParseOrder: parseVestOrderResponse,

		BuildCancel: func(orderID string) (string, map[string]interface{}) {
			return "/v1/orders/" + orderID, map[string]interface{}{}
		},
		BuildPosition: func(symbol string) (string, map[string]string) {
			return "/v1/positions", map[string]string{"symbol": symbol}
		},
		ParsePosition: parseVestPositionResponse,
		BuildLeverage: func(symbol string, leverage float64) (string, map[string]interface{}) {
			return "/v1/leverage", map[string]interface{}{"symbol": symbol, "leverage": leverage}
		},
	}, log)
}

// newParadexTrader mirrors newVestTrader for the paradex venue's endpoint
// shapes; the two differ only in path and field naming, not in the
// retry/rate-limit/signing plumbing RESTTrader already provides.
func newParadexTrader(creds config.VenueCredentials, log *utils.Logger) Trader {
	if creds.PrivateKey == "" {
		return nil
	}
	return NewRESTTrader(RESTTraderConfig{
		Venue:   "paradex",
		BaseURL: "https://api.prod.paradex.trade",
		Signer:  NewHMACKeyedSigner(creds.PrivateKey),
		Limiter: ratelimit.NewRateLimiter(20, 40),
		Retry:   retry.AggressiveConfig(),

		BuildOrder: func(req models.OrderRequest) (string, map[string]interface{}) {
			return "/v1/orders", map[string]interface{}{
				"client_id":   req.ClientOrderID,
				"market":      req.Symbol,
				"side":        strings.ToUpper(req.Side.String()),
				"type":        strings.ToUpper(req.Kind.String()),
				"price":       req.Price,
				"size":        req.Quantity,
				"instruction": req.TimeInForce.String(),
				"reduce_only": req.ReduceOnly,
			}
		},
		ParseOrder: parseParadexOrderResponse,

		BuildCancel: func(orderID string) (string, map[string]interface{}) {
			return "/v1/orders/" + orderID, map[string]interface{}{}
		},
		BuildPosition: func(symbol string) (string, map[string]string) {
			return "/v1/positions", map[string]string{"market": symbol}
		},
		ParsePosition: parseParadexPositionResponse,
		BuildLeverage: func(symbol string, leverage float64) (string, map[string]interface{}) {
			return "/v1/account/leverage", map[string]interface{}{"market": symbol, "leverage": leverage}
		},
	}, log)
}
