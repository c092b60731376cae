package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/drdray1/ex-coinbase/internal/auth"
	"github.com/drdray1/ex-coinbase/internal/events"
	"github.com/drdray1/ex-coinbase/internal/transport"
)

type cmdKind int

const (
	cmdSubscribe cmdKind = iota
	cmdUnsubscribe
	cmdReconnect
	cmdInfo
	cmdStop
)

// command is one serialized operation for the run loop.
type command struct {
	kind     cmdKind
	channel  string
	products []string
	info     chan Info     // cmdInfo reply
	done     chan struct{} // cmdStop ack
}

// Conn is a managed streaming connection. All state transitions happen on
// a single run goroutine; public methods enqueue commands into it.
type Conn struct {
	cfg     Config
	builder messageBuilder
	fixed   string        // non-empty binds the connection to one channel
	refresh time.Duration // credential refresh interval; 0 disables
	logger  *slog.Logger

	cmds    chan command
	notices chan transport.Notice
	subs    *Subscribers

	started atomic.Bool
	stopped chan struct{}

	// Run-loop-owned state. Only status is readable from outside.
	ctx            context.Context
	registry       *Registry
	handle         *transport.Handle
	attempts       int
	reconnectTimer *time.Timer
	resubTimer     *time.Timer
	refreshTimer   *time.Timer

	statusMu sync.RWMutex
	status   Status
}

// NewMarketDataConn creates a multi-channel market-data connection.
func NewMarketDataConn(cfg Config, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.Default()
	}
	return newConn(cfg.withDefaults(), marketMessages{}, "", 0, logger.With("conn", "market-data"))
}

// NewUserConn creates the authenticated single-channel connection. Tokens
// are regenerated every TokenTTL - RefreshBuffer while connected.
func NewUserConn(cfg Config, creds *auth.Credentials, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	builder := userMessages{creds: creds, ttl: cfg.TokenTTL}
	refresh := cfg.TokenTTL - cfg.RefreshBuffer
	return newConn(cfg, builder, events.ChannelUser, refresh, logger.With("conn", "user"))
}

func newConn(cfg Config, builder messageBuilder, fixed string, refresh time.Duration, logger *slog.Logger) *Conn {
	return &Conn{
		cfg:      cfg,
		builder:  builder,
		fixed:    fixed,
		refresh:  refresh,
		logger:   logger,
		cmds:     make(chan command, 16),
		notices:  make(chan transport.Notice, cfg.NoticeBuffer),
		subs:     NewSubscribers(logger),
		stopped:  make(chan struct{}),
		registry: NewRegistry(),
		status:   StatusDisconnected,
	}
}

// Start launches the run loop. The connection stays disconnected until a
// subscribe makes the registry non-empty.
func (c *Conn) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	c.ctx = ctx
	go c.run()
	return nil
}

// Subscribe unions products into the channel's subscription set. If the
// connection is up, a subscribe frame for that channel goes out
// immediately; if it is down and the registry becomes non-empty, a
// connection attempt starts.
func (c *Conn) Subscribe(channel string, products []string) error {
	ch, err := c.resolveChannel(channel)
	if err != nil {
		return err
	}
	return c.enqueue(command{kind: cmdSubscribe, channel: ch, products: products})
}

// Unsubscribe removes products from the channel's subscription set.
func (c *Conn) Unsubscribe(channel string, products []string) error {
	ch, err := c.resolveChannel(channel)
	if err != nil {
		return err
	}
	return c.enqueue(command{kind: cmdUnsubscribe, channel: ch, products: products})
}

// AddSubscriber registers an event sink. See Subscribers.Add.
func (c *Conn) AddSubscriber(ch chan<- events.Event, done <-chan struct{}) uuid.UUID {
	return c.subs.Add(ch, done)
}

// RemoveSubscriber deregisters an event sink.
func (c *Conn) RemoveSubscriber(id uuid.UUID) {
	c.subs.Remove(id)
}

// Status returns the current connection status.
func (c *Conn) Status() Status {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	return c.status
}

// Info returns a snapshot of status, subscriptions, and subscriber count.
func (c *Conn) Info() Info {
	reply := make(chan Info, 1)
	if err := c.enqueue(command{kind: cmdInfo, info: reply}); err != nil {
		return Info{Status: c.Status(), Subscribers: c.subs.Count()}
	}
	select {
	case info := <-reply:
		return info
	case <-c.stopped:
		return Info{Status: c.Status(), Subscribers: c.subs.Count()}
	}
}

// Reconnect tears down the current transport and re-dials immediately,
// resetting the backoff attempt counter.
func (c *Conn) Reconnect() error {
	return c.enqueue(command{kind: cmdReconnect})
}

// Stop shuts the connection down: best-effort unsubscribes for all
// subscribed channels, a short grace window, then transport close. Safe
// to call more than once.
func (c *Conn) Stop() error {
	done := make(chan struct{})
	if err := c.enqueue(command{kind: cmdStop, done: done}); err != nil {
		return nil
	}
	select {
	case <-done:
	case <-c.stopped:
	}
	return nil
}

func (c *Conn) resolveChannel(channel string) (string, error) {
	if c.fixed != "" {
		if channel == "" || channel == c.fixed {
			return c.fixed, nil
		}
		return "", fmt.Errorf("connection is bound to channel %q", c.fixed)
	}
	if channel == "" {
		return "", errors.New("channel is required")
	}
	return channel, nil
}

func (c *Conn) enqueue(cmd command) error {
	select {
	case c.cmds <- cmd:
		return nil
	case <-c.stopped:
		return ErrStopped
	}
}

// timerC makes a nil timer selectable as a never-firing case.
func timerC(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

func (c *Conn) run() {
	defer close(c.stopped)

	for {
		select {
		case <-c.ctx.Done():
			c.shutdown()
			return

		case cmd := <-c.cmds:
			if c.handleCommand(cmd) {
				return
			}

		case n := <-c.notices:
			c.handleNotice(n)

		case <-timerC(c.reconnectTimer):
			c.reconnectTimer = nil
			c.onReconnectDue()

		case <-timerC(c.resubTimer):
			c.resubTimer = nil
			c.onResubscribeDue()

		case <-timerC(c.refreshTimer):
			c.refreshTimer = nil
			c.onRefreshDue()
		}
	}
}

// handleCommand returns true when the loop should exit.
func (c *Conn) handleCommand(cmd command) bool {
	switch cmd.kind {
	case cmdSubscribe:
		c.onSubscribe(cmd.channel, cmd.products)
	case cmdUnsubscribe:
		c.onUnsubscribe(cmd.channel, cmd.products)
	case cmdReconnect:
		c.onExplicitReconnect()
	case cmdInfo:
		cmd.info <- Info{
			Status:      c.Status(),
			Channels:    c.registry.Snapshot(),
			Subscribers: c.subs.Count(),
		}
	case cmdStop:
		c.shutdown()
		close(cmd.done)
		return true
	}
	return false
}

func (c *Conn) onSubscribe(channel string, products []string) {
	c.registry.Add(channel, products)

	switch c.Status() {
	case StatusConnected:
		c.sendSubscribe(channel)
	case StatusDisconnected:
		// Connecting is demand-driven: only a non-empty registry opens
		// a transport.
		if !c.registry.Empty() {
			c.connect()
		}
	}
}

func (c *Conn) onUnsubscribe(channel string, products []string) {
	removed := c.registry.Remove(channel, products)
	if c.Status() != StatusConnected || len(removed) == 0 {
		return
	}

	data, err := c.builder.Unsubscribe(channel, removed)
	if err != nil {
		c.logger.Error("build unsubscribe message", "channel", channel, "error", err)
		return
	}
	c.send(data)
}

func (c *Conn) onExplicitReconnect() {
	c.logger.Info("explicit reconnect requested")
	c.cancelTimer(&c.reconnectTimer)
	c.cancelTimer(&c.resubTimer)
	c.cancelTimer(&c.refreshTimer)
	if c.handle != nil {
		c.handle.Close()
		c.handle = nil
	}
	c.attempts = 0
	c.connect()
}

func (c *Conn) handleNotice(n transport.Notice) {
	if n.Handle != c.handle {
		// A superseded transport can still emit until it winds down.
		c.logger.Debug("ignoring notice from superseded transport")
		return
	}

	switch n.Kind {
	case transport.NoticeConnected:
		c.logger.Info("connected", "url", c.cfg.URL)
		c.setStatus(StatusConnected)
		c.attempts = 0
		c.scheduleResubscribe()
		c.scheduleRefresh()

	case transport.NoticeMessage:
		c.dispatch(n.Data)

	case transport.NoticeDisconnected:
		c.logger.Warn("transport down", "error", n.Err)
		c.handle.Close()
		c.handle = nil
		c.cancelTimer(&c.resubTimer)
		c.cancelTimer(&c.refreshTimer)
		c.scheduleBackoff()

	default:
		c.logger.Debug("ignoring unrecognized transport notice", "kind", n.Kind)
	}
}

// dispatch parses an inbound frame and routes it. Heartbeats and
// subscription acks are consumed here; server errors and parse failures
// are logged; everything else is broadcast to subscribers.
func (c *Conn) dispatch(data []byte) {
	ev, err := events.Parse(data)
	if err != nil {
		c.logger.Warn("dropping unparseable message", "error", err)
		return
	}

	switch e := ev.(type) {
	case events.Heartbeat:
		c.logger.Debug("heartbeat", "counter", e.Counter, "time", e.CurrentTime)
	case events.SubscriptionsAck:
		c.logger.Debug("subscriptions acknowledged")
	case events.ServerError:
		c.logger.Warn("server error", "message", e.Message)
	default:
		c.subs.Broadcast(ev)
	}
}

func (c *Conn) connect() {
	c.setStatus(StatusConnecting)
	c.handle = transport.Open(c.ctx, c.cfg.transportConfig(), c.notices, c.logger)
}

func (c *Conn) scheduleBackoff() {
	if c.attempts >= c.cfg.MaxReconnectAttempts {
		c.logger.Error("reconnect attempts exhausted, giving up",
			"attempts", c.attempts,
		)
		c.setStatus(StatusDisconnected)
		return
	}

	delay := backoffDelay(c.attempts, c.cfg.ReconnectBaseDelay, c.cfg.ReconnectMaxDelay)
	c.attempts++
	c.logger.Info("scheduling reconnect",
		"attempt", c.attempts,
		"delay", delay,
	)

	c.cancelTimer(&c.reconnectTimer)
	c.reconnectTimer = time.NewTimer(delay)
	c.setStatus(StatusReconnecting)
}

func (c *Conn) scheduleResubscribe() {
	c.cancelTimer(&c.resubTimer)
	c.resubTimer = time.NewTimer(0)
}

func (c *Conn) scheduleRefresh() {
	if c.refresh <= 0 {
		return
	}
	c.cancelTimer(&c.refreshTimer)
	c.refreshTimer = time.NewTimer(c.refresh)
}

func (c *Conn) onReconnectDue() {
	if c.Status() != StatusReconnecting {
		return
	}
	c.connect()
}

func (c *Conn) onResubscribeDue() {
	if c.Status() != StatusConnected {
		return
	}
	c.sendSubscriptions()
}

func (c *Conn) onRefreshDue() {
	if c.Status() != StatusConnected {
		return
	}
	c.logger.Debug("refreshing credential")
	c.sendSubscriptions()
	c.scheduleRefresh()
}

// sendSubscriptions resends the whole registry. The subscribe protocol is
// idempotent server-side, so a full resend is the simplest way to restore
// interest after a reconnect or to renew an expiring credential.
func (c *Conn) sendSubscriptions() {
	if c.refresh > 0 {
		// Heartbeats keep the session alive between refreshes and need
		// no credential.
		data, err := c.builder.Subscribe(events.ChannelHeartbeats, nil)
		if err != nil {
			c.logger.Error("build heartbeats subscribe", "error", err)
		} else {
			c.send(data)
		}
	}

	for _, channel := range c.registry.Channels() {
		c.sendSubscribe(channel)
	}
}

func (c *Conn) sendSubscribe(channel string) {
	data, err := c.builder.Subscribe(channel, c.registry.Products(channel))
	if err != nil {
		// Credential generation can fail here. The connection stays up;
		// the previous server-side subscription lasts until it expires.
		c.logger.Error("build subscribe message", "channel", channel, "error", err)
		return
	}
	c.send(data)
}

func (c *Conn) send(data []byte) {
	if c.handle == nil {
		return
	}
	if err := c.handle.Send(data); err != nil {
		c.logger.Warn("send failed", "error", err)
	}
}

func (c *Conn) shutdown() {
	c.cancelTimer(&c.reconnectTimer)
	c.cancelTimer(&c.resubTimer)
	c.cancelTimer(&c.refreshTimer)

	if c.Status() == StatusConnected && c.handle != nil {
		for _, channel := range c.registry.Channels() {
			data, err := c.builder.Unsubscribe(channel, c.registry.Products(channel))
			if err != nil {
				continue
			}
			c.send(data)
		}
		// Give the transport a moment to flush the unsubscribes.
		time.Sleep(c.cfg.StopGrace)
	}

	if c.handle != nil {
		c.handle.Close()
		c.handle = nil
	}

	c.setStatus(StatusDisconnected)
	c.logger.Info("stopped")
}

func (c *Conn) setStatus(s Status) {
	c.statusMu.Lock()
	c.status = s
	c.statusMu.Unlock()
}

// cancelTimer stops and clears a timer field. Cancelling an already-fired
// or already-cancelled timer is a no-op.
func (c *Conn) cancelTimer(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

// backoffDelay computes min(base * 2^attempts, max).
func backoffDelay(attempts int, base, max time.Duration) time.Duration {
	if attempts >= 32 {
		return max
	}
	d := base << uint(attempts)
	if d <= 0 || d > max {
		return max
	}
	return d
}
