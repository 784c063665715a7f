// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

// Package channel maintains one persistent push connection to a detection
// backend.
//
// Each Channel is an actor: Serve runs a single goroutine that owns the
// connection, the history buffer and the locally-held radius. Transport
// callbacks, inbound messages, timers and caller requests are all funnelled
// into that goroutine, so channel state has exactly one mutator. Readers use
// State, which returns the most recently published immutable view.
//
// Lifecycle:
//
//	disconnected -> connecting -> connected -> disconnected -> (delay) -> connecting ...
//
// A dropped or failed connection arms one reconnect timer with a fixed delay;
// there is no backoff and no terminal state until Close.
package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/emberline/internal/history"
	"github.com/tomtom215/emberline/internal/logging"
	"github.com/tomtom215/emberline/internal/metrics"
	"github.com/tomtom215/emberline/internal/models"
	"github.com/tomtom215/emberline/internal/normalize"
)

// Defaults applied by New.
const (
	DefaultReconnectDelay  = 5 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultInitialRadiusKm = 10.0
)

var (
	// ErrClosed is returned by Serve once Close has been called.
	ErrClosed = errors.New("channel: closed")

	// ErrAlreadyServing is returned when Serve is called while running.
	ErrAlreadyServing = errors.New("channel: already serving")
)

// Config describes one channel.
type Config struct {
	Name string
	URL  string

	// Dialer defaults to a WebsocketDialer.
	Dialer Dialer

	ReconnectDelay  time.Duration
	WriteTimeout    time.Duration
	InitialRadiusKm float64

	HistoryCapacity int
	OverflowPolicy  history.Policy
}

// radiusCommand is the outbound control message.
type radiusCommand struct {
	Radius int `json:"radius"`
}

type connEventKind int

const (
	connOpened connEventKind = iota
	connFailed
	connMessage
	connClosed
)

// connEvent carries a transport callback into the actor. gen ties the event
// to the connection attempt that produced it.
type connEvent struct {
	gen  uint64
	kind connEventKind
	conn Conn
	data []byte
	err  error
}

// Channel is one persistent detection connection. Create with New.
type Channel struct {
	name   string
	url    string
	dialer Dialer
	cfg    Config
	log    zerolog.Logger

	state atomic.Pointer[State]

	lmu       sync.Mutex
	listeners []listenerEntry
	nextID    uint64

	mu      sync.Mutex
	stopped chan struct{} // non-nil while Serve runs

	done      chan struct{}
	closeOnce sync.Once

	events   chan connEvent
	requests chan func()

	// Owned by the actor goroutine, or by a caller holding mu while Serve
	// is not running.
	status     Status
	buf        *history.Buffer
	radius     float64
	commanded  int
	conn       Conn
	gen        uint64
	sessionID  string
	reconnects int
	timer      *time.Timer
	timerC     <-chan time.Time
	runCtx     context.Context
	wg         sync.WaitGroup
}

type listenerEntry struct {
	id uint64
	fn Listener
}

// New creates a disconnected channel. Call Serve to start connecting.
func New(cfg Config) (*Channel, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("channel: name is required")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("channel %s: url is required", cfg.Name)
	}
	if cfg.Dialer == nil {
		cfg.Dialer = WebsocketDialer{}
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.InitialRadiusKm <= 0 {
		cfg.InitialRadiusKm = DefaultInitialRadiusKm
	}

	c := &Channel{
		name:     cfg.Name,
		url:      cfg.URL,
		dialer:   cfg.Dialer,
		cfg:      cfg,
		log:      logging.WithChannel(cfg.Name, cfg.URL),
		done:     make(chan struct{}),
		events:   make(chan connEvent),
		requests: make(chan func()),
		status:   StatusDisconnected,
		buf:      history.New(cfg.HistoryCapacity, cfg.OverflowPolicy),
		radius:   cfg.InitialRadiusKm,
		// Radius commands are whole kilometres.
		commanded: int(cfg.InitialRadiusKm),
	}
	c.publish()
	metrics.SetChannelStatus(c.name, c.status.String())
	return c, nil
}

// Name returns the channel name.
func (c *Channel) Name() string { return c.name }

// URL returns the backend address.
func (c *Channel) URL() string { return c.url }

// State returns the latest published state.
func (c *Channel) State() State {
	return *c.state.Load()
}

// Subscribe registers fn for every subsequent event and returns a function
// that removes it.
func (c *Channel) Subscribe(fn Listener) (unsubscribe func()) {
	c.lmu.Lock()
	defer c.lmu.Unlock()

	c.nextID++
	id := c.nextID
	next := make([]listenerEntry, len(c.listeners), len(c.listeners)+1)
	copy(next, c.listeners)
	c.listeners = append(next, listenerEntry{id: id, fn: fn})

	return func() {
		c.lmu.Lock()
		defer c.lmu.Unlock()
		kept := make([]listenerEntry, 0, len(c.listeners))
		for _, l := range c.listeners {
			if l.id != id {
				kept = append(kept, l)
			}
		}
		c.listeners = kept
	}
}

// Serve connects and keeps the channel connected until ctx is canceled or
// Close is called. It returns ctx.Err() or ErrClosed.
func (c *Channel) Serve(ctx context.Context) error {
	c.mu.Lock()
	if c.isClosed() {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.stopped != nil {
		c.mu.Unlock()
		return ErrAlreadyServing
	}
	stopped := make(chan struct{})
	c.stopped = stopped
	c.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	c.runCtx = runCtx

	defer func() {
		cancel()
		c.teardown()
		c.wg.Wait()

		c.mu.Lock()
		c.stopped = nil
		c.mu.Unlock()
		close(stopped)
	}()

	c.log.Info().Msg("channel starting")
	c.connect()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return ErrClosed
		case ev := <-c.events:
			c.handleConnEvent(ev)
		case fn := <-c.requests:
			fn()
		case <-c.timerC:
			c.timer, c.timerC = nil, nil
			c.reconnects++
			metrics.RecordReconnect(c.name)
			c.connect()
		}
	}
}

// Close stops the channel. It cancels any pending reconnect, closes the
// connection and waits for Serve to return. No listener fires after Close
// returns. Close is idempotent.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() { close(c.done) })

	c.mu.Lock()
	stopped := c.stopped
	c.mu.Unlock()
	if stopped != nil {
		<-stopped
	}
	return nil
}

// Send serializes v and transmits it. It returns false without error when
// the channel is not connected; the command is dropped.
func (c *Channel) Send(v any) bool {
	payload, err := json.Marshal(v)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to encode outbound command")
		metrics.RecordCommand(c.name, "error")
		return false
	}

	var sent bool
	c.do(func() { sent = c.transmit(payload) })
	return sent
}

// SendRadius sends {"radius": km}. When the command is transmitted, km also
// becomes the commanded radius that is re-sent after a reconnect.
func (c *Channel) SendRadius(km int) bool {
	payload, err := json.Marshal(radiusCommand{Radius: km})
	if err != nil {
		return false
	}

	var sent bool
	c.do(func() {
		sent = c.transmit(payload)
		if !sent {
			return
		}
		c.radius = float64(km)
		c.commanded = km
		c.publish()
		c.emit(Event{Kind: EventRadius})
	})
	return sent
}

// ResetHistory discards every stored snapshot.
func (c *Channel) ResetHistory() {
	c.do(func() {
		c.buf.Reset()
		metrics.SetHistorySize(c.name, 0)
		c.publish()
		c.emit(Event{Kind: EventHistoryReset})
	})
}

// Restore replaces history with snapshots (oldest first), keeping at most
// the buffer capacity. The newest snapshot's radius becomes the local radius.
func (c *Channel) Restore(snapshots []*models.DetectionSnapshot) {
	if len(snapshots) == 0 {
		return
	}
	c.do(func() {
		c.buf.Replace(snapshots)
		if latest := c.buf.Latest(); latest != nil {
			c.radius = latest.RadiusKm
		}
		metrics.SetHistorySize(c.name, c.buf.Len())
		c.publish()
		c.emit(Event{Kind: EventRestored})
	})
}

// do runs fn as the single mutator: on the actor goroutine while Serve runs,
// otherwise inline under mu. It reports false if fn did not run.
func (c *Channel) do(fn func()) bool {
	c.mu.Lock()
	stopped := c.stopped
	if stopped == nil {
		defer c.mu.Unlock()
		if c.isClosed() {
			return false
		}
		fn()
		return true
	}
	c.mu.Unlock()

	finished := make(chan struct{})
	select {
	case c.requests <- func() { fn(); close(finished) }:
	case <-stopped:
		return false
	}
	select {
	case <-finished:
		return true
	case <-stopped:
		return false
	}
}

func (c *Channel) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// connect starts a dial for a new connection generation.
func (c *Channel) connect() {
	c.gen++
	gen := c.gen
	ctx := c.runCtx
	c.setStatus(StatusConnecting, nil)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		conn, err := c.dialer.Dial(ctx, c.url)
		ev := connEvent{gen: gen, kind: connOpened, conn: conn}
		if err != nil {
			ev = connEvent{gen: gen, kind: connFailed, err: err}
		}

		select {
		case c.events <- ev:
		case <-ctx.Done():
			if conn != nil {
				_ = conn.Close()
			}
		}
	}()
}

func (c *Channel) handleConnEvent(ev connEvent) {
	if ev.gen != c.gen {
		if ev.kind == connOpened && ev.conn != nil {
			_ = ev.conn.Close()
		}
		return
	}

	switch ev.kind {
	case connOpened:
		c.opened(ev.conn)
	case connFailed:
		c.log.Warn().Err(ev.err).Dur("retry_in", c.cfg.ReconnectDelay).Msg("channel connect failed")
		c.disconnect(ev.err)
	case connMessage:
		c.handleMessage(ev.data)
	case connClosed:
		if websocket.IsCloseError(ev.err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.log.Info().Msg("channel closed by backend")
		} else {
			c.log.Warn().Err(ev.err).Dur("retry_in", c.cfg.ReconnectDelay).Msg("channel connection lost")
		}
		c.disconnect(ev.err)
	}
}

// opened installs conn, re-sends the commanded radius and starts the reader.
// The backend's radius_km only updates the displayed radius.
func (c *Channel) opened(conn Conn) {
	c.conn = conn
	c.sessionID = uuid.NewString()
	c.setStatus(StatusConnected, nil)
	c.log.Info().Str("session_id", c.sessionID).Msg("channel connected")

	c.startReader(c.gen, conn)

	payload, err := json.Marshal(radiusCommand{Radius: c.commanded})
	if err != nil {
		return
	}
	c.transmit(payload)
}

func (c *Channel) startReader(gen uint64, conn Conn) {
	ctx := c.runCtx

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				select {
				case c.events <- connEvent{gen: gen, kind: connClosed, err: err}:
				case <-ctx.Done():
				}
				return
			}
			select {
			case c.events <- connEvent{gen: gen, kind: connMessage, data: data}:
			case <-ctx.Done():
				return
			}
		}
	}()
}

// disconnect drops the current connection and arms the reconnect timer.
func (c *Channel) disconnect(cause error) {
	c.closeConn()
	c.gen++

	if c.timer == nil {
		c.timer = time.NewTimer(c.cfg.ReconnectDelay)
		c.timerC = c.timer.C
	}
	if c.status == StatusDisconnected {
		c.publish()
		return
	}
	c.setStatus(StatusDisconnected, cause)
}

func (c *Channel) closeConn() {
	if c.conn == nil {
		return
	}
	if cw, ok := c.conn.(controlWriter); ok {
		_ = cw.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
	}
	if err := c.conn.Close(); err != nil {
		c.log.Debug().Err(err).Msg("failed to close connection")
	}
	c.conn = nil
	c.sessionID = ""
}

// teardown runs on the actor goroutine as Serve exits. It publishes the final
// state without notifying listeners.
func (c *Channel) teardown() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer, c.timerC = nil, nil
	}
	c.closeConn()
	c.gen++
	c.status = StatusDisconnected
	c.publish()
	metrics.SetChannelStatus(c.name, c.status.String())
	c.log.Info().Msg("channel stopped")
}

// transmit writes payload when connected. A failed write is treated as a
// transport failure.
func (c *Channel) transmit(payload []byte) bool {
	if c.status != StatusConnected || c.conn == nil {
		metrics.RecordCommand(c.name, "dropped")
		return false
	}

	if wd, ok := c.conn.(writeDeadliner); ok {
		_ = wd.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		metrics.RecordCommand(c.name, "error")
		c.log.Warn().Err(err).Msg("outbound command failed")
		c.disconnect(err)
		return false
	}

	metrics.RecordCommand(c.name, "sent")
	return true
}

func (c *Channel) handleMessage(data []byte) {
	metrics.RecordMessage(c.name)

	snap, err := normalize.NormalizeJSON(data)
	if err != nil {
		c.reject(err)
		return
	}
	if latest := c.buf.Latest(); latest != nil && snap.Timestamp <= latest.Timestamp {
		c.reject(normalize.Reject(normalize.ReasonStale,
			fmt.Errorf("%w: timestamp %d not after %d", normalize.ErrStale, snap.Timestamp, latest.Timestamp)))
		return
	}

	overflowed := c.buf.Append(snap)
	c.radius = snap.RadiusKm
	if overflowed {
		metrics.RecordOverflow(c.name, string(c.buf.Policy()))
		c.log.Info().
			Str("policy", string(c.buf.Policy())).
			Int("capacity", c.buf.Cap()).
			Msg("history capacity exceeded")
	}
	metrics.RecordAccepted(c.name, c.buf.Len())

	c.publish()
	c.emit(Event{Kind: EventSnapshot, Snapshot: snap, Overflowed: overflowed})
}

func (c *Channel) reject(err error) {
	reason := normalize.ReasonOf(err)
	metrics.RecordRejected(c.name, reason)
	c.log.Warn().Err(err).Str("reason", reason).Msg("payload rejected")
	c.emit(Event{Kind: EventRejected, Err: err})
}

func (c *Channel) setStatus(s Status, cause error) {
	if c.status == s {
		return
	}
	c.status = s
	metrics.SetChannelStatus(c.name, s.String())
	c.publish()
	c.emit(Event{Kind: EventStatus, Err: cause})
}

func (c *Channel) publish() {
	c.state.Store(&State{
		Name:             c.name,
		URL:              c.url,
		Status:           c.status,
		History:          c.buf.All(),
		CurrentRadiusKm:  c.radius,
		SessionID:        c.sessionID,
		Reconnects:       c.reconnects,
		ReconnectPending: c.timer != nil,
	})
}

// emit delivers ev, stamped with the current state, to every listener.
func (c *Channel) emit(ev Event) {
	ev.State = *c.state.Load()

	c.lmu.Lock()
	listeners := c.listeners
	c.lmu.Unlock()

	for _, l := range listeners {
		l.fn(ev)
	}
}
