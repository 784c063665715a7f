// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

// Package coordinator owns the fixed set of detection channels.
//
// The first configured channel is the primary: only its state drives the
// aggregate radius, the load-complete flag and the overflow reset. Auxiliary
// channels keep their own history and status but never feed the aggregate.
//
// Channels notify the coordinator through non-blocking listeners. A single
// fan-in goroutine started by Serve recomputes the aggregate for subscribers,
// applies the reset policy to auxiliary channels and feeds accepted snapshots
// to sinks in per-channel order.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/emberline/internal/channel"
	"github.com/tomtom215/emberline/internal/history"
	"github.com/tomtom215/emberline/internal/logging"
	"github.com/tomtom215/emberline/internal/metrics"
	"github.com/tomtom215/emberline/internal/models"
)

var (
	// ErrNoChannels is returned by New when no channel is configured.
	ErrNoChannels = errors.New("coordinator: at least one channel is required")

	// ErrUnknownChannel is returned when a channel name is not configured.
	ErrUnknownChannel = errors.New("coordinator: unknown channel")

	// ErrClosed is returned by Serve once Close has been called.
	ErrClosed = errors.New("coordinator: closed")

	// ErrAlreadyServing is returned when Serve is called while running.
	ErrAlreadyServing = errors.New("coordinator: already serving")
)

// DefaultSinkQueueSize bounds the per-sink backlog of accepted snapshots.
const DefaultSinkQueueSize = 256

// Options tune a Coordinator.
type Options struct {
	// OverflowPolicy applies to the primary channel. Auxiliary channels
	// always evict.
	OverflowPolicy history.Policy

	// SinkQueueSize bounds each sink's backlog. Snapshots are dropped when
	// a sink falls this far behind.
	SinkQueueSize int

	// OnOverflow is called on the fan-in goroutine once per overflowing
	// append, for any channel.
	OnOverflow func(channel string, policy history.Policy)
}

// Aggregate is the primary-derived view.
type Aggregate struct {
	Primary         string                 `json:"primary"`
	PrimaryStatus   channel.Status         `json:"primaryStatus"`
	IsLoaded        bool                   `json:"isLoaded"`
	RadiusKm        float64                `json:"radiusKm"`
	LastValidState  []models.LastValidItem `json:"lastValidState"`
	LatestTimestamp int64                  `json:"latestTimestamp,omitempty"`
}

// Update is delivered to subscribers after channel state changes. Changed
// holds the latest state of every channel that changed since the previous
// update, in configuration order.
type Update struct {
	Aggregate Aggregate
	Changed   []channel.State
}

// Sink receives every accepted snapshot.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, channel string, snap *models.DetectionSnapshot) error
}

// Restorer supplies archived snapshots, oldest first.
type Restorer interface {
	Recent(channel string, n int) ([]*models.DetectionSnapshot, error)
}

type overflowNotice struct {
	channel string
	policy  history.Policy
}

type delivery struct {
	channel string
	snap    *models.DetectionSnapshot
}

// Coordinator owns a fixed set of channels; index 0 is the primary.
type Coordinator struct {
	channels   []*channel.Channel
	capacities []int
	byName     map[string]int
	opts       Options
	log        zerolog.Logger

	notify chan struct{}

	pmu          sync.Mutex
	dirty        []bool
	overflows    []overflowNotice
	pendingReset bool

	smu   sync.RWMutex
	sinks []*sinkWorker

	lmu         sync.Mutex
	subscribers []subscriber
	nextID      uint64

	mu      sync.Mutex
	stopped chan struct{}

	done      chan struct{}
	closeOnce sync.Once
}

type subscriber struct {
	id uint64
	fn func(Update)
}

// New builds channels from configs. The first config is the primary.
func New(configs []channel.Config, opts Options) (*Coordinator, error) {
	if len(configs) == 0 {
		return nil, ErrNoChannels
	}
	if opts.OverflowPolicy == "" {
		opts.OverflowPolicy = history.PolicyEvict
	}
	if opts.SinkQueueSize <= 0 {
		opts.SinkQueueSize = DefaultSinkQueueSize
	}

	c := &Coordinator{
		byName: make(map[string]int, len(configs)),
		opts:   opts,
		log:    logging.WithComponent("coordinator"),
		notify: make(chan struct{}, 1),
		dirty:  make([]bool, len(configs)),
		done:   make(chan struct{}),
	}

	for i, cfg := range configs {
		if _, dup := c.byName[cfg.Name]; dup {
			return nil, fmt.Errorf("coordinator: duplicate channel name %q", cfg.Name)
		}
		cfg.OverflowPolicy = history.PolicyEvict
		if i == 0 {
			cfg.OverflowPolicy = opts.OverflowPolicy
		}

		ch, err := channel.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("coordinator: %w", err)
		}
		capacity := cfg.HistoryCapacity
		if capacity <= 0 {
			capacity = history.DefaultCapacity
		}
		c.byName[cfg.Name] = i
		c.channels = append(c.channels, ch)
		c.capacities = append(c.capacities, capacity)
		ch.Subscribe(c.listener(i))
	}
	return c, nil
}

// listener runs on channel i's goroutine and never blocks.
func (c *Coordinator) listener(i int) channel.Listener {
	name := c.channels[i].Name()
	primary := i == 0

	return func(ev channel.Event) {
		c.pmu.Lock()
		c.dirty[i] = true
		if ev.Kind == channel.EventSnapshot && ev.Overflowed {
			policy := history.PolicyEvict
			if primary {
				policy = c.opts.OverflowPolicy
			}
			c.overflows = append(c.overflows, overflowNotice{channel: name, policy: policy})
			if primary && policy == history.PolicyReset {
				c.pendingReset = true
			}
		}
		c.pmu.Unlock()

		if ev.Kind == channel.EventSnapshot {
			c.enqueue(delivery{channel: name, snap: ev.Snapshot})
		}

		select {
		case c.notify <- struct{}{}:
		default:
		}
	}
}

// AddSink registers a sink. Sinks added while Serve runs start receiving
// on the next Serve.
func (c *Coordinator) AddSink(s Sink) {
	c.smu.Lock()
	defer c.smu.Unlock()
	c.sinks = append(c.sinks, newSinkWorker(s, c.opts.SinkQueueSize))
}

func (c *Coordinator) enqueue(d delivery) {
	c.smu.RLock()
	defer c.smu.RUnlock()
	for _, w := range c.sinks {
		w.enqueue(d)
	}
}

// Subscribe registers fn for aggregate updates and returns a function that
// removes it. fn runs on the fan-in goroutine and should return quickly.
func (c *Coordinator) Subscribe(fn func(Update)) (unsubscribe func()) {
	c.lmu.Lock()
	defer c.lmu.Unlock()

	c.nextID++
	id := c.nextID
	next := make([]subscriber, len(c.subscribers), len(c.subscribers)+1)
	copy(next, c.subscribers)
	c.subscribers = append(next, subscriber{id: id, fn: fn})

	return func() {
		c.lmu.Lock()
		defer c.lmu.Unlock()
		kept := make([]subscriber, 0, len(c.subscribers))
		for _, s := range c.subscribers {
			if s.id != id {
				kept = append(kept, s)
			}
		}
		c.subscribers = kept
	}
}

// RestoreFrom seeds every channel's history from r. Call before Serve.
func (c *Coordinator) RestoreFrom(r Restorer) error {
	var errs []error
	for i, ch := range c.channels {
		snaps, err := r.Recent(ch.Name(), c.capacities[i])
		if err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", ch.Name(), err))
			continue
		}
		ch.Restore(snaps)
		if len(snaps) > 0 {
			c.log.Info().Str("channel", ch.Name()).Int("snapshots", len(snaps)).Msg("history restored")
		}
	}
	return errors.Join(errs...)
}

// Serve runs every channel, every sink worker and the fan-in loop until ctx
// is canceled or Close is called.
func (c *Coordinator) Serve(ctx context.Context) error {
	c.mu.Lock()
	select {
	case <-c.done:
		c.mu.Unlock()
		return ErrClosed
	default:
	}
	if c.stopped != nil {
		c.mu.Unlock()
		return ErrAlreadyServing
	}
	stopped := make(chan struct{})
	c.stopped = stopped
	c.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup

	defer func() {
		cancel()
		wg.Wait()
		c.mu.Lock()
		c.stopped = nil
		c.mu.Unlock()
		close(stopped)
	}()

	c.smu.RLock()
	workers := c.sinks
	c.smu.RUnlock()
	for _, w := range workers {
		wg.Add(1)
		go func(w *sinkWorker) {
			defer wg.Done()
			w.run(runCtx)
		}(w)
	}

	for _, ch := range c.channels {
		wg.Add(1)
		go func(ch *channel.Channel) {
			defer wg.Done()
			err := ch.Serve(runCtx)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, channel.ErrClosed) {
				c.log.Error().Err(err).Str("channel", ch.Name()).Msg("channel stopped unexpectedly")
			}
		}(ch)
	}

	c.log.Info().
		Int("channels", len(c.channels)).
		Str("primary", c.channels[0].Name()).
		Str("overflow_policy", string(c.opts.OverflowPolicy)).
		Msg("coordinator started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return ErrClosed
		case <-c.notify:
			c.process()
		}
	}
}

// process drains pending notifications on the fan-in goroutine.
func (c *Coordinator) process() {
	c.pmu.Lock()
	dirty := c.dirty
	c.dirty = make([]bool, len(c.channels))
	overflows := c.overflows
	c.overflows = nil
	reset := c.pendingReset
	c.pendingReset = false
	c.pmu.Unlock()

	for _, o := range overflows {
		if c.opts.OnOverflow != nil {
			c.opts.OnOverflow(o.channel, o.policy)
		}
	}

	if reset {
		c.log.Warn().
			Str("primary", c.channels[0].Name()).
			Msg("primary history overflowed, resetting all channels")
		for _, ch := range c.channels[1:] {
			ch.ResetHistory()
		}
	}

	var changed []channel.State
	for i, d := range dirty {
		if d {
			changed = append(changed, c.channels[i].State())
		}
	}
	if len(changed) == 0 {
		return
	}

	update := Update{Aggregate: c.Aggregate(), Changed: changed}

	c.lmu.Lock()
	subs := c.subscribers
	c.lmu.Unlock()
	for _, s := range subs {
		s.fn(update)
	}
}

// Close stops every channel and waits for Serve to return. It is idempotent.
func (c *Coordinator) Close() error {
	c.closeOnce.Do(func() { close(c.done) })

	c.mu.Lock()
	stopped := c.stopped
	c.mu.Unlock()
	if stopped != nil {
		<-stopped
	}

	for _, ch := range c.channels {
		_ = ch.Close()
	}
	return nil
}

// Primary returns the primary channel.
func (c *Coordinator) Primary() *channel.Channel {
	return c.channels[0]
}

// Channel returns the channel called name.
func (c *Coordinator) Channel(name string) (*channel.Channel, error) {
	i, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, name)
	}
	return c.channels[i], nil
}

// Channels returns every channel in configuration order.
func (c *Coordinator) Channels() []*channel.Channel {
	return append([]*channel.Channel(nil), c.channels...)
}

// States returns the current state of every channel in configuration order.
func (c *Coordinator) States() []channel.State {
	out := make([]channel.State, len(c.channels))
	for i, ch := range c.channels {
		out[i] = ch.State()
	}
	return out
}

// Aggregate derives the aggregate view from the primary's current state.
func (c *Coordinator) Aggregate() Aggregate {
	return aggregateOf(c.channels[0].State())
}

// IsLoaded reports whether the primary channel has at least one snapshot.
func (c *Coordinator) IsLoaded() bool {
	return c.channels[0].State().IsLoaded()
}

// Radius returns the primary channel's locally-held radius in km.
func (c *Coordinator) Radius() float64 {
	return c.channels[0].State().CurrentRadiusKm
}

// LastValidState returns the primary's latest last-valid state, or an empty
// slice before the first snapshot.
func (c *Coordinator) LastValidState() []models.LastValidItem {
	return aggregateOf(c.channels[0].State()).LastValidState
}

func aggregateOf(st channel.State) Aggregate {
	agg := Aggregate{
		Primary:        st.Name,
		PrimaryStatus:  st.Status,
		IsLoaded:       st.IsLoaded(),
		RadiusKm:       st.CurrentRadiusKm,
		LastValidState: []models.LastValidItem{},
	}
	if latest := st.Latest(); latest != nil {
		agg.LastValidState = latest.LastValidState
		agg.LatestTimestamp = latest.Timestamp
	}
	return agg
}

// sinkWorker delivers snapshots to one sink in arrival order.
type sinkWorker struct {
	sink  Sink
	queue chan delivery
	log   zerolog.Logger
}

func newSinkWorker(s Sink, size int) *sinkWorker {
	return &sinkWorker{
		sink:  s,
		queue: make(chan delivery, size),
		log:   logging.WithComponent("sink").With().Str("sink", s.Name()).Logger(),
	}
}

func (w *sinkWorker) enqueue(d delivery) {
	select {
	case w.queue <- d:
	default:
		metrics.RecordSinkDropped(w.sink.Name())
		w.log.Warn().Str("channel", d.channel).Int64("timestamp", d.snap.Timestamp).Msg("sink queue full, snapshot dropped")
	}
}

func (w *sinkWorker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-w.queue:
			start := time.Now()
			err := w.sink.Deliver(ctx, d.channel, d.snap)
			metrics.RecordSinkDelivery(w.sink.Name(), err)
			if err != nil && ctx.Err() == nil {
				w.log.Warn().Err(err).
					Str("channel", d.channel).
					Int64("timestamp", d.snap.Timestamp).
					Dur("elapsed", time.Since(start)).
					Msg("sink delivery failed")
			}
		}
	}
}
