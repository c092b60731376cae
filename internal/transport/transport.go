package transport

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
)

// NoticeKind identifies what a Notice reports.
type NoticeKind int

const (
	// NoticeConnected is sent once when the dial succeeds.
	NoticeConnected NoticeKind = iota
	// NoticeMessage carries one inbound text frame.
	NoticeMessage
	// NoticeDisconnected is sent once when the handle goes down for any
	// reason other than an explicit Close: dial failure, read error, or
	// stale-connection detection.
	NoticeDisconnected
)

// Notice is a notification from a Handle to its owner.
type Notice struct {
	Handle *Handle
	Kind   NoticeKind
	Data   []byte // set for NoticeMessage
	Err    error  // set for NoticeDisconnected
}

// Config configures a Handle.
type Config struct {
	URL              string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	PingTimeout      time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		PingInterval:     15 * time.Second,
		PingTimeout:      60 * time.Second,
	}
}

// Handle is a single WebSocket connection. It never mutates owner state;
// it only notifies.
type Handle struct {
	cfg     Config
	logger  *slog.Logger
	notices chan<- Notice

	conn *websocket.Conn
	done chan struct{}

	// Write serialization
	writeMu sync.Mutex

	// State
	mu         sync.RWMutex
	connected  bool
	closed     bool
	lastPingAt time.Time

	disconnectOnce sync.Once
}

// Open creates a Handle and dials in the background. The dial outcome and
// everything after it arrives on the notices channel.
func Open(ctx context.Context, cfg Config, notices chan<- Notice, logger *slog.Logger) *Handle {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handle{
		cfg:     cfg,
		logger:  logger,
		notices: notices,
		done:    make(chan struct{}),
	}

	go h.dial(ctx)
	return h
}

func (h *Handle) dial(ctx context.Context) {
	dialer := websocket.Dialer{
		HandshakeTimeout: h.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, h.cfg.URL, nil)
	if err != nil {
		h.reportDisconnect(err)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.conn = conn
	h.connected = true
	h.lastPingAt = time.Now()
	h.mu.Unlock()

	// Server pings are answered with pongs; both directions refresh the
	// staleness clock.
	conn.SetPingHandler(func(data string) error {
		h.mu.Lock()
		h.lastPingAt = time.Now()
		h.mu.Unlock()

		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})
	conn.SetPongHandler(func(string) error {
		h.mu.Lock()
		h.lastPingAt = time.Now()
		h.mu.Unlock()
		return nil
	})

	go h.readLoop()
	go h.keepaliveLoop()

	h.logger.Debug("websocket connected", "url", h.cfg.URL)
	h.notify(Notice{Handle: h, Kind: NoticeConnected})
}

// Send writes a text frame. Failures surface asynchronously through the
// read loop; a synchronous error here only means the handle is down.
func (h *Handle) Send(data []byte) error {
	h.mu.RLock()
	if !h.connected {
		h.mu.RUnlock()
		return ErrNotConnected
	}
	conn := h.conn
	h.mu.RUnlock()

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Close shuts the handle down. No NoticeDisconnected is emitted for an
// explicit Close. Idempotent.
func (h *Handle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.connected = false
	conn := h.conn
	h.mu.Unlock()

	close(h.done)

	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return conn.Close()
	}

	return nil
}

// IsConnected reports whether the handle currently has a live socket.
func (h *Handle) IsConnected() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connected
}

func (h *Handle) readLoop() {
	defer func() {
		h.mu.Lock()
		h.connected = false
		h.mu.Unlock()
	}()

	for {
		select {
		case <-h.done:
			return
		default:
		}

		_, data, err := h.conn.ReadMessage()
		if err != nil {
			// Errors after Close() are expected and not reported.
			select {
			case <-h.done:
			default:
				h.reportDisconnect(err)
			}
			return
		}

		h.notify(Notice{Handle: h, Kind: NoticeMessage, Data: data})
	}
}

func (h *Handle) keepaliveLoop() {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.mu.RLock()
			conn := h.conn
			lastPing := h.lastPingAt
			h.mu.RUnlock()

			if conn == nil {
				return
			}

			deadline := time.Now().Add(h.cfg.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				h.logger.Debug("failed to send ping", "error", err)
			}

			if time.Since(lastPing) > h.cfg.PingTimeout {
				h.logger.Warn("no ping received, connection stale",
					"last_ping", lastPing,
					"timeout", h.cfg.PingTimeout,
				)
				h.reportDisconnect(ErrStaleConnection)
				conn.Close()
				return
			}
		}
	}
}

// reportDisconnect delivers NoticeDisconnected at most once per handle.
func (h *Handle) reportDisconnect(err error) {
	h.disconnectOnce.Do(func() {
		h.mu.Lock()
		h.connected = false
		h.mu.Unlock()
		h.notify(Notice{Handle: h, Kind: NoticeDisconnected, Err: err})
	})
}

// notify sends to the owner without blocking forever: the owner loop may
// already be gone during shutdown.
func (h *Handle) notify(n Notice) {
	select {
	case h.notices <- n:
	case <-h.done:
	}
}
