package models

import (
	"sync/atomic"
	"time"
)

// ConnectionHealth tracks liveness of a single venue's market-data stream.
// LastMessageMs is updated on every inbound frame (including heartbeats);
// the venue adapter's staleness check compares it against a wall-clock
// threshold rather than relying on the transport layer to notice a dead
// socket.
type ConnectionHealth struct {
	connected     atomic.Bool
	lastMessageMs atomic.Int64
	reconnects    atomic.Int64
}

// MarkConnected flips the connected flag and stamps the current time.
func (h *ConnectionHealth) MarkConnected(nowMs int64) {
	h.connected.Store(true)
	h.lastMessageMs.Store(nowMs)
}

// MarkDisconnected flips the connected flag off without touching the last
// message timestamp, so staleness checks after a detected disconnect still
// reflect how long the feed has actually been silent.
func (h *ConnectionHealth) MarkDisconnected() {
	h.connected.Store(false)
}

// Touch records that a frame (data or heartbeat) was just received.
func (h *ConnectionHealth) Touch(nowMs int64) {
	h.lastMessageMs.Store(nowMs)
}

// IncrReconnect bumps the reconnect counter, surfaced via metrics.
func (h *ConnectionHealth) IncrReconnect() {
	h.reconnects.Add(1)
}

// Reconnects returns the lifetime reconnect count.
func (h *ConnectionHealth) Reconnects() int64 {
	return h.reconnects.Load()
}

// Connected reports the last-known connection state.
func (h *ConnectionHealth) Connected() bool {
	return h.connected.Load()
}

// IsStale reports whether no frame has arrived within staleness.
func (h *ConnectionHealth) IsStale(nowMs int64, staleness time.Duration) bool {
	last := h.lastMessageMs.Load()
	if last == 0 {
		return true
	}
	return time.Duration(nowMs-last)*time.Millisecond > staleness
}
