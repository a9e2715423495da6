package venue

// FrameKind classifies one decoded inbound WS frame into the wire dialect
// families every adapter has to handle.
type FrameKind int

const (
	// FrameUnknown frames are counted and dropped.
	FrameUnknown FrameKind = iota
	// FrameSnapshot replaces the full depth of one side (or both).
	FrameSnapshot
	// FrameIncremental carries (price, qty) upserts/deletes.
	FrameIncremental
	// FrameBestOnly carries only the top bid/ask.
	FrameBestOnly
	// FrameMark is a single-level synthetic book built from a bare
	// mark/oracle/ticker price.
	FrameMark
)

// WireLevel is one decoded (price, quantity) pair, already converted to
// float64 regardless of whether the venue sent a string, a float, or a
// scaled fixed-point integer.
type WireLevel struct {
	Price    float64
	Quantity float64
}

// FrameUpdate is what a Dialect.Parse call produces: enough information
// for the adapter to apply the update to SharedOrderbooks without the
// adapter needing to know anything about the venue's wire format.
type FrameUpdate struct {
	Symbol      string
	Kind        FrameKind
	Bids        []WireLevel
	Asks        []WireLevel
	TimestampMs int64
	// IsHeartbeat frames still count as data for staleness purposes but
	// carry no book content.
	IsHeartbeat bool
}

// Dialect isolates one venue's wire format from the adapter that owns the
// connection, the reconnect policy, and the health tracking. Venues differ
// in channel names, depth conventions, compression, and keepalive cadence;
// only this interface's shape is fixed.
type Dialect interface {
	// Name identifies the venue for logging and metrics.
	Name() string
	// WSURL is the public market-data WebSocket endpoint.
	WSURL() string
	// SubscribeMessages returns the raw WS text frames to send to
	// subscribe to symbol's orderbook channel. Some venues need more
	// than one frame (e.g. separate depth and best-price channels).
	SubscribeMessages(symbol string) ([]string, error)
	// Parse decodes one inbound frame. A frame unrelated to orderbook
	// data (e.g. a subscription ack) returns (nil, nil) rather than an
	// error so the adapter does not log noise for every control frame.
	Parse(raw []byte) (*FrameUpdate, error)
	// KeepaliveInterval is the application-level ping cadence, typically
	// 15-30s depending on venue convention.
	KeepaliveInterval() int64 // milliseconds
	// PingMessage returns the bytes to send as an application-level ping,
	// or nil to rely on the WS control-frame ping instead.
	PingMessage() []byte
}
