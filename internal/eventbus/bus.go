// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

// Package eventbus republishes accepted detection snapshots to a message
// broker.
//
// Each snapshot becomes one Watermill message on "<prefix>.<channel>" whose
// payload is the snapshot's wire encoding. Publishing goes through a circuit
// breaker so a broker outage fails fast instead of backing up the sink queue.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/emberline/internal/logging"
	"github.com/tomtom215/emberline/internal/metrics"
	"github.com/tomtom215/emberline/internal/models"
	"github.com/tomtom215/emberline/internal/normalize"
)

// SinkName identifies the bus in sink metrics and the breaker gauge.
const SinkName = "eventbus"

// Metadata keys set on every message.
const (
	MetadataChannel   = "channel"
	MetadataTimestamp = "timestamp"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("event bus is closed")

// messageNamespace seeds MessageID.
var messageNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/tomtom215/emberline/snapshots"))

// MessageID is the message UUID for a snapshot. It depends only on the
// channel and timestamp, so JetStream's Nats-Msg-Id deduplication drops a
// snapshot published twice.
func MessageID(channel string, ts int64) string {
	return uuid.NewSHA1(messageNamespace, []byte(channel+":"+strconv.FormatInt(ts, 10))).String()
}

// Bus publishes snapshots through a Watermill publisher.
type Bus struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[any]
	prefix    string

	mu     sync.RWMutex
	closed bool
}

// New wraps pub. The bus owns pub and closes it on Close.
func New(pub message.Publisher, cfg Config) *Bus {
	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = DefaultConfig().SubjectPrefix
	}
	return &Bus{
		publisher: pub,
		breaker:   newBreaker(SinkName, cfg.Breaker),
		prefix:    prefix,
	}
}

func newBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker[any] {
	if cfg.FailureThreshold == 0 {
		cfg = DefaultConfig().Breaker
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker[any](settings)
}

// Topic returns the subject snapshots of channel are published on.
func (b *Bus) Topic(channel string) string {
	return b.prefix + "." + channel
}

// Name implements coordinator.Sink.
func (b *Bus) Name() string { return SinkName }

// Deliver implements coordinator.Sink by publishing snap.
func (b *Bus) Deliver(ctx context.Context, channel string, snap *models.DetectionSnapshot) error {
	return b.Publish(ctx, channel, snap)
}

// Publish sends snap as one message on Topic(channel).
func (b *Bus) Publish(ctx context.Context, channel string, snap *models.DetectionSnapshot) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	data, err := normalize.EncodeWire(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	msg := message.NewMessage(MessageID(channel, snap.Timestamp), data)
	msg.SetContext(ctx)
	msg.Metadata.Set(MetadataChannel, channel)
	msg.Metadata.Set(MetadataTimestamp, strconv.FormatInt(snap.Timestamp, 10))

	topic := b.Topic(channel)
	_, err = b.breaker.Execute(func() (any, error) {
		return nil, b.publisher.Publish(topic, msg)
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// BreakerState returns the circuit breaker state name.
func (b *Bus) BreakerState() string {
	return b.breaker.State().String()
}

// Close closes the underlying publisher. Close is idempotent.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.publisher.Close()
}
