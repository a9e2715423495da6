package venue

import (
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// VestDialect implements Dialect for a spot-style venue quoted in USDC
// that streams full-depth snapshots followed by incremental level updates
// and encodes prices as JSON strings.
type VestDialect struct {
	symbols map[string]bool
}

// NewVestDialect returns a Dialect for the venue A side of one pair.
func NewVestDialect() *VestDialect {
	return &VestDialect{symbols: make(map[string]bool)}
}

func (d *VestDialect) Name() string { return "vest" }

func (d *VestDialect) WSURL() string { return "wss://ws.vest.exchange/v1" }

func (d *VestDialect) SubscribeMessages(symbol string) ([]string, error) {
	d.symbols[symbol] = true
	msg, err := fastJSON.MarshalToString(map[string]interface{}{
		"op":   "subscribe",
		"args": []string{"orderbook." + symbol},
	})
	if err != nil {
		return nil, err
	}
	return []string{msg}, nil
}

func (d *VestDialect) KeepaliveInterval() int64 { return 20_000 }

func (d *VestDialect) PingMessage() []byte {
	return []byte(`{"op":"ping"}`)
}

type vestLevel struct {
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

type vestFrame struct {
	Topic string `json:"topic"`
	Type  string `json:"type"` // "snapshot" or "delta"
	Data  struct {
		Symbol string      `json:"symbol"`
		Bids   []vestLevel `json:"bids"`
		Asks   []vestLevel `json:"asks"`
		Ts     int64       `json:"ts"`
	} `json:"data"`
}

// Parse decodes one vest orderbook frame. A pong returns a heartbeat
// update (IsHeartbeat set); other non-orderbook topics (subscription acks)
// return (nil, nil) so the adapter does not log noise for every control
// frame.
func (d *VestDialect) Parse(raw []byte) (*FrameUpdate, error) {
	if isVestPong(raw) {
		return &FrameUpdate{IsHeartbeat: true}, nil
	}

	var frame vestFrame
	if err := fastJSON.Unmarshal(raw, &frame); err != nil {
		return nil, NewError(KindInvalidResponse, d.Name(), "decode frame", err)
	}
	if !strings.HasPrefix(frame.Topic, "orderbook.") {
		return nil, nil
	}

	kind := FrameIncremental
	if frame.Type == "snapshot" {
		kind = FrameSnapshot
	}

	bids, err := decodeVestLevels(frame.Data.Bids)
	if err != nil {
		return nil, NewError(KindInvalidResponse, d.Name(), "decode bid levels", err)
	}
	asks, err := decodeVestLevels(frame.Data.Asks)
	if err != nil {
		return nil, NewError(KindInvalidResponse, d.Name(), "decode ask levels", err)
	}

	return &FrameUpdate{
		Symbol:      frame.Data.Symbol,
		Kind:        kind,
		Bids:        bids,
		Asks:        asks,
		TimestampMs: frame.Data.Ts,
	}, nil
}

func decodeVestLevels(raw []vestLevel) ([]WireLevel, error) {
	out := make([]WireLevel, 0, len(raw))
	for _, lvl := range raw {
		price, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil {
			return nil, fmt.Errorf("parse price %q: %w", lvl.Price, err)
		}
		qty, err := strconv.ParseFloat(lvl.Quantity, 64)
		if err != nil {
			return nil, fmt.Errorf("parse quantity %q: %w", lvl.Quantity, err)
		}
		out = append(out, WireLevel{Price: price, Quantity: qty})
	}
	return out, nil
}

func isVestPong(raw []byte) bool {
	var ack struct {
		Op string `json:"op"`
	}
	if jsoniter.ConfigFastest.Unmarshal(raw, &ack) != nil {
		return false
	}
	return ack.Op == "pong"
}
