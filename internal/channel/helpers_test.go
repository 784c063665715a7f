// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package channel_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/emberline/internal/channel"
)

// eventLog records events delivered to a listener.
type eventLog struct {
	mu     sync.Mutex
	events []channel.Event
}

func (l *eventLog) listen(ev channel.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) snapshot() []channel.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]channel.Event(nil), l.events...)
}

func (l *eventLog) statuses() []channel.Status {
	var out []channel.Status
	for _, ev := range l.snapshot() {
		if ev.Kind == channel.EventStatus {
			out = append(out, ev.State.Status)
		}
	}
	return out
}

func (l *eventLog) count(kind channel.EventKind) int {
	n := 0
	for _, ev := range l.snapshot() {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// startChannel creates a channel over d and serves it until the test ends.
// Listeners are registered before Serve so no transition is missed.
func startChannel(t *testing.T, d channel.Dialer, mutate func(*channel.Config), listeners ...channel.Listener) (*channel.Channel, <-chan error) {
	t.Helper()

	cfg := channel.Config{
		Name:           "primary",
		URL:            "ws://backend.test/detections",
		Dialer:         d,
		ReconnectDelay: 50 * time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	ch, err := channel.New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, l := range listeners {
		ch.Subscribe(l)
	}

	errc := make(chan error, 1)
	go func() { errc <- ch.Serve(context.Background()) }()
	t.Cleanup(func() { _ = ch.Close() })
	return ch, errc
}
