package venue

import (
	"strings"
)

// paradexPriceScale is the fixed-point scale this venue's wire frames use
// for price and quantity.
const paradexPriceScale = 1_000_000

// ParadexDialect implements Dialect for a derivatives venue quoted in USD
// that streams best-bid/best-ask-only updates with prices and quantities
// encoded as scaled integers rather than strings.
type ParadexDialect struct {
	rates *USDCRateCache // nil disables quote normalization
}

// NewParadexDialect returns a Dialect for the venue B side of one pair.
// rates may be nil if this pair's quote currencies already match.
func NewParadexDialect(rates *USDCRateCache) *ParadexDialect {
	return &ParadexDialect{rates: rates}
}

func (d *ParadexDialect) Name() string { return "paradex" }

func (d *ParadexDialect) WSURL() string { return "wss://ws.api.paradex.trade/v1" }

func (d *ParadexDialect) SubscribeMessages(symbol string) ([]string, error) {
	msg, err := fastJSON.MarshalToString(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "subscribe",
		"params":  map[string]string{"channel": "bbo." + symbol},
	})
	if err != nil {
		return nil, err
	}
	return []string{msg}, nil
}

func (d *ParadexDialect) KeepaliveInterval() int64 { return 15_000 }

func (d *ParadexDialect) PingMessage() []byte { return nil } // relies on WS control-frame ping

type paradexFrame struct {
	Method string `json:"method"`
	Params struct {
		Channel string `json:"channel"`
		Data    struct {
			Symbol   string `json:"symbol"`
			BidPrice int64  `json:"bid_price"`
			BidSize  int64  `json:"bid_size"`
			AskPrice int64  `json:"ask_price"`
			AskSize  int64  `json:"ask_size"`
			Ts       int64  `json:"seq_ts"`
		} `json:"data"`
	} `json:"params"`
}

// Parse decodes one paradex best-bid/ask frame, converting the scaled
// integer wire prices to float64 and, when a rate cache was supplied,
// multiplying by the cached USDC/USD rate to normalize against a
// USDC-quoted counterparty venue.
func (d *ParadexDialect) Parse(raw []byte) (*FrameUpdate, error) {
	var frame paradexFrame
	if err := fastJSON.Unmarshal(raw, &frame); err != nil {
		return nil, NewError(KindInvalidResponse, d.Name(), "decode frame", err)
	}
	if frame.Method != "subscription" || !strings.HasPrefix(frame.Params.Channel, "bbo.") {
		return nil, nil
	}

	rate := 1.0
	if d.rates != nil {
		rate = d.rates.Rate()
	}

	data := frame.Params.Data
	bidPrice := float64(data.BidPrice) / paradexPriceScale * rate
	askPrice := float64(data.AskPrice) / paradexPriceScale * rate
	bidQty := float64(data.BidSize) / paradexPriceScale
	askQty := float64(data.AskSize) / paradexPriceScale

	return &FrameUpdate{
		Symbol:      data.Symbol,
		Kind:        FrameBestOnly,
		Bids:        []WireLevel{{Price: bidPrice, Quantity: bidQty}},
		Asks:        []WireLevel{{Price: askPrice, Quantity: askQty}},
		TimestampMs: data.Ts,
	}, nil
}
