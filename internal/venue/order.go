package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"arbengine/internal/models"
	"arbengine/pkg/ratelimit"
	"arbengine/pkg/retry"
	"arbengine/pkg/utils"
)

var fastJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// RESTTrader is a Trader built around one venue's REST order-entry
// endpoint: sign, rate-limit, retry, and decode a JSON response into an
// OrderResponse. Venue differences live in the RESTTraderConfig's
// request/response shaping callbacks rather than one hardcoded wire
// format per exchange.
type RESTTrader struct {
	venue   string
	baseURL string
	signer  Signer
	http    *HTTPClient
	limiter *ratelimit.RateLimiter
	retry   retry.Config

	buildOrder  func(req models.OrderRequest) (endpoint string, body map[string]interface{})
	parseOrder  func(raw []byte) (*models.OrderResponse, error)
	buildCancel func(orderID string) (endpoint string, body map[string]interface{})
	buildPos    func(symbol string) (endpoint string, query map[string]string)
	parsePos    func(raw []byte) (*models.PositionState, error)
	buildLev    func(symbol string, leverage float64) (endpoint string, body map[string]interface{})

	log *utils.Logger
}

// RESTTraderConfig wires one venue's endpoint/shape callbacks into a
// RESTTrader. Any of the callbacks may be nil; calling the corresponding
// method then returns a typed "not supported" error.
type RESTTraderConfig struct {
	Venue   string
	BaseURL string
	Signer  Signer
	Client  *HTTPClient
	Limiter *ratelimit.RateLimiter
	Retry   retry.Config

	BuildOrder    func(req models.OrderRequest) (endpoint string, body map[string]interface{})
	ParseOrder    func(raw []byte) (*models.OrderResponse, error)
	BuildCancel   func(orderID string) (endpoint string, body map[string]interface{})
	BuildPosition func(symbol string) (endpoint string, query map[string]string)
	ParsePosition func(raw []byte) (*models.PositionState, error)
	BuildLeverage func(symbol string, leverage float64) (endpoint string, body map[string]interface{})
}

// NewRESTTrader builds a RESTTrader from cfg, filling unset pool/limiter
// fields with process-wide defaults.
func NewRESTTrader(cfg RESTTraderConfig, log *utils.Logger) *RESTTrader {
	client := cfg.Client
	if client == nil {
		client = GetGlobalHTTPClient()
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.NewRateLimiter(10, 20)
	}
	rcfg := cfg.Retry
	if rcfg.MaxRetries == 0 {
		rcfg = retry.ConservativeConfig()
	}

	return &RESTTrader{
		venue:       cfg.Venue,
		baseURL:     cfg.BaseURL,
		signer:      cfg.Signer,
		http:        client,
		limiter:     limiter,
		retry:       rcfg,
		buildOrder:  cfg.BuildOrder,
		parseOrder:  cfg.ParseOrder,
		buildCancel: cfg.BuildCancel,
		buildPos:    cfg.BuildPosition,
		parsePos:    cfg.ParsePosition,
		buildLev:    cfg.BuildLeverage,
		log:         log.WithComponent("venue.order").WithExchange(cfg.Venue),
	}
}

// PlaceOrder signs and sends req, retrying failed sends as the trader's
// retry.Config allows and waiting on the shared rate limiter first.
func (t *RESTTrader) PlaceOrder(ctx context.Context, req models.OrderRequest) (*models.OrderResponse, error) {
	if t.buildOrder == nil || t.parseOrder == nil {
		return nil, NewError(KindInvalidResponse, t.venue, "order placement not wired for this venue", nil)
	}
	endpoint, body := t.buildOrder(req)

	raw, err := retry.DoWithResult(ctx, func() ([]byte, error) {
		return t.doSigned(ctx, http.MethodPost, endpoint, nil, body)
	}, t.retry)
	if err != nil {
		return nil, NewError(KindOrderRejected, t.venue, "place_order failed", err)
	}

	resp, err := t.parseOrder(raw)
	if err != nil {
		return nil, NewError(KindInvalidResponse, t.venue, "decode order response", err)
	}
	resp.ClientOrderID = req.ClientOrderID
	return resp, nil
}

// CancelOrder signs and sends a cancel request for orderID.
func (t *RESTTrader) CancelOrder(ctx context.Context, orderID string) error {
	if t.buildCancel == nil {
		return NewError(KindInvalidResponse, t.venue, "cancel not wired for this venue", nil)
	}
	endpoint, body := t.buildCancel(orderID)

	_, err := retry.DoWithResult(ctx, func() ([]byte, error) {
		return t.doSigned(ctx, http.MethodPost, endpoint, nil, body)
	}, t.retry)
	if err != nil {
		return NewError(KindOrderRejected, t.venue, "cancel_order failed", err)
	}
	return nil
}

// GetPosition fetches and decodes the current position for symbol.
func (t *RESTTrader) GetPosition(ctx context.Context, symbol string) (*models.PositionState, error) {
	if t.buildPos == nil || t.parsePos == nil {
		return nil, NewError(KindInvalidResponse, t.venue, "get_position not wired for this venue", nil)
	}
	endpoint, query := t.buildPos(symbol)

	raw, err := retry.DoWithResult(ctx, func() ([]byte, error) {
		return t.doSigned(ctx, http.MethodGet, endpoint, query, nil)
	}, t.retry)
	if err != nil {
		return nil, NewError(KindNetworkTimeout, t.venue, "get_position failed", err)
	}

	return t.parsePos(raw)
}

// SetLeverage adjusts account leverage for symbol.
func (t *RESTTrader) SetLeverage(ctx context.Context, symbol string, leverage float64) error {
	if t.buildLev == nil {
		return NewError(KindInvalidResponse, t.venue, "set_leverage not wired for this venue", nil)
	}
	endpoint, body := t.buildLev(symbol, leverage)

	_, err := retry.DoWithResult(ctx, func() ([]byte, error) {
		return t.doSigned(ctx, http.MethodPost, endpoint, nil, body)
	}, t.retry)
	if err != nil {
		return NewError(KindOrderRejected, t.venue, "set_leverage failed", err)
	}
	return nil
}

// doSigned waits for a rate-limit token, builds and signs one request, and
// returns its raw response body.
func (t *RESTTrader) doSigned(ctx context.Context, method, endpoint string, query map[string]string, body map[string]interface{}) ([]byte, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = fastJSON.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	reqURL := t.baseURL + endpoint
	if method == http.MethodGet && len(query) > 0 {
		q := "?"
		first := true
		for k, v := range query {
			if !first {
				q += "&"
			}
			q += k + "=" + v
			first = false
		}
		reqURL += q
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	timestamp := strconv.FormatInt(utils.UnixMillis(), 10)
	if t.signer != nil {
		signature, err := t.signer.Sign(timestamp + method + endpoint + string(bodyBytes))
		if err != nil {
			return nil, fmt.Errorf("sign request: %w", err)
		}
		req.Header.Set("X-Venue-Timestamp", timestamp)
		req.Header.Set("X-Venue-Signature", signature)
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("venue http %d: %s", resp.StatusCode, string(raw))
	}

	return raw, nil
}

// decodeJSON is a small helper so venue-specific ParseOrder/ParsePosition
// callbacks don't each import encoding/json directly.
func decodeJSON(raw []byte, v interface{}) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}
