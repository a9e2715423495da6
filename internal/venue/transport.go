package venue

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"arbengine/internal/models"
	"arbengine/pkg/utils"
)

// transportState is the adapter's connection state machine:
// disconnected -> connecting -> connected -> {reconnecting | disconnected}.
type transportState int32

const (
	stateDisconnected transportState = iota
	stateConnecting
	stateConnected
	stateReconnecting
)

func (s transportState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateConnected:
		return "connected"
	case stateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// wsTransport owns exactly one inbound WebSocket for one venue: dial,
// reader loop, keepalive loop, and a supervisor-driven indefinite
// reconnect loop built on top of ReconnectWithBackoff's bounded cycle.
type wsTransport struct {
	dialect Dialect
	health  *models.ConnectionHealth

	mu      sync.RWMutex
	conn    *websocket.Conn
	state   transportState
	started time.Time

	subsMu sync.RWMutex
	subs   map[string]bool // symbols currently subscribed

	onFrame func([]byte)
	onDown  func()

	closeCh   chan struct{}
	closeOnce sync.Once

	// reconnectSignal wakes reconnectSupervisor whenever onDisconnect fires.
	// Buffered at 1 so a disconnect detected before the supervisor goroutine
	// reaches its select is never lost.
	reconnectSignal chan struct{}

	reconnectCfg ReconnectConfig

	log *utils.Logger
}

func newWSTransport(d Dialect, log *utils.Logger) *wsTransport {
	return &wsTransport{
		dialect:         d,
		health:          &models.ConnectionHealth{},
		subs:            make(map[string]bool),
		closeCh:         make(chan struct{}),
		reconnectSignal: make(chan struct{}, 1),
		reconnectCfg:    DefaultReconnectConfig(),
		log:             log.WithComponent("venue.transport").WithExchange(d.Name()),
	}
}

func (t *wsTransport) setState(s transportState) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
	connectionState.WithLabelValues(t.dialect.Name()).Set(float64(s))
}

func (t *wsTransport) getState() transportState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *wsTransport) IsConnected() bool {
	return t.getState() == stateConnected && t.health.Connected()
}

// startupGrace suppresses stale detection for a short window after
// connect() so the supervisor does not loop-close an in-progress
// connection.
const startupGrace = 12 * time.Second

// staleThreshold is the no-data window after which a feed counts as dead.
const staleThreshold = 10 * time.Second

func (t *wsTransport) IsStale(nowMs int64) bool {
	t.mu.RLock()
	started := t.started
	t.mu.RUnlock()

	if time.Since(started) < startupGrace {
		return false
	}
	if !t.IsConnected() {
		return true
	}
	return t.health.IsStale(nowMs, staleThreshold)
}

// connect dials once, performs no retry of its own (callers use
// ReconnectWithBackoff / Reconnect for that), and starts the reader and
// keepalive goroutines on success.
func (t *wsTransport) connect(ctx context.Context) error {
	t.setState(stateConnecting)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, t.dialect.WSURL(), nil)
	if err != nil {
		t.setState(stateDisconnected)
		return NewError(KindConnectionFailed, t.dialect.Name(), "dial failed", err)
	}

	t.mu.Lock()
	t.conn = conn
	t.started = time.Now()
	t.mu.Unlock()

	if err := t.resubscribe(); err != nil {
		t.log.Warn("resubscribe after connect failed", utils.Err(err))
	}

	t.setState(stateConnected)
	t.health.MarkConnected(utils.UnixMillis())

	go t.readLoop()
	go t.keepaliveLoop()

	return nil
}

// subscribe adds symbol to the resubscribe set and sends its subscribe
// frames if currently connected. Idempotent.
func (t *wsTransport) subscribe(symbol string) error {
	t.subsMu.Lock()
	alreadySubbed := t.subs[symbol]
	t.subs[symbol] = true
	t.subsMu.Unlock()

	if alreadySubbed || !t.IsConnected() {
		return nil
	}

	msgs, err := t.dialect.SubscribeMessages(symbol)
	if err != nil {
		return NewError(KindSubscriptionFailed, t.dialect.Name(), "build subscribe message", err)
	}
	return t.send(msgs)
}

func (t *wsTransport) resubscribe() error {
	t.subsMu.RLock()
	symbols := make([]string, 0, len(t.subs))
	for s := range t.subs {
		symbols = append(symbols, s)
	}
	t.subsMu.RUnlock()

	for _, s := range symbols {
		msgs, err := t.dialect.SubscribeMessages(s)
		if err != nil {
			return err
		}
		if err := t.send(msgs); err != nil {
			return err
		}
	}
	return nil
}

func (t *wsTransport) send(msgs []string) error {
	t.mu.RLock()
	conn := t.conn
	t.mu.RUnlock()
	if conn == nil {
		return NewError(KindConnectionFailed, t.dialect.Name(), "no connection", nil)
	}
	for _, m := range msgs {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
			return NewError(KindWebSocket, t.dialect.Name(), "write failed", err)
		}
	}
	return nil
}

// readLoop is the single per-venue reader task; frame processing is
// strictly ordered within one venue.
func (t *wsTransport) readLoop() {
	for {
		t.mu.RLock()
		conn := t.conn
		t.mu.RUnlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			t.onDisconnect(err)
			return
		}

		t.health.Touch(utils.UnixMillis())
		if t.onFrame != nil {
			t.onFrame(message)
		}
	}
}

func (t *wsTransport) keepaliveLoop() {
	interval := time.Duration(t.dialect.KeepaliveInterval()) * time.Millisecond
	if interval <= 0 {
		interval = 20 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.closeCh:
			return
		case <-ticker.C:
			if t.getState() != stateConnected {
				return
			}
			t.mu.RLock()
			conn := t.conn
			t.mu.RUnlock()
			if conn == nil {
				return
			}

			ping := t.dialect.PingMessage()
			var err error
			if ping != nil {
				err = conn.WriteMessage(websocket.TextMessage, ping)
			} else {
				err = conn.WriteMessage(websocket.PingMessage, nil)
			}
			if err != nil {
				t.onDisconnect(err)
				return
			}
		}
	}
}

func (t *wsTransport) onDisconnect(err error) {
	select {
	case <-t.closeCh:
		return
	default:
	}
	if t.getState() == stateReconnecting {
		return
	}
	t.setState(stateReconnecting)
	t.health.MarkDisconnected()

	t.mu.Lock()
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	t.mu.Unlock()

	if err != nil {
		t.log.Warn("websocket disconnected", utils.Err(err))
	}

	if t.onDown != nil {
		t.onDown()
	}

	select {
	case t.reconnectSignal <- struct{}{}:
	default:
	}
}

// reconnectSupervisor runs ReconnectWithBackoff's bounded cycle repeatedly,
// forever: three attempts per cycle, then the failure is logged and the
// cycle re-driven until the context or the transport is closed.
func (t *wsTransport) reconnectSupervisor(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.closeCh:
			return
		case <-t.reconnectSignal:
		}

		for {
			err := ReconnectWithBackoff(ctx, t.reconnectCfg, t.connect)
			if err == nil {
				t.health.IncrReconnect()
				reconnectsTotal.WithLabelValues(t.dialect.Name()).Inc()
				t.log.Info("reconnected",
					utils.String("event", models.EventReconnect),
					utils.Int64("lifetime_reconnects", t.health.Reconnects()))
				break
			}
			t.log.Error("reconnect cycle exhausted, re-driving", utils.Err(err))

			select {
			case <-ctx.Done():
				return
			case <-t.closeCh:
				return
			default:
			}
		}
	}
}

// disconnect closes the socket and stops keepalive/reconnect goroutines.
func (t *wsTransport) disconnect() {
	t.closeOnce.Do(func() { close(t.closeCh) })
	t.setState(stateDisconnected)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}
