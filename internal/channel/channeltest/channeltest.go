// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

// Package channeltest provides an in-memory transport for testing code built
// on detection channels.
package channeltest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/emberline/internal/channel"
)

// ErrClosed is returned by a Conn after it has been closed.
var ErrClosed = errors.New("channeltest: connection closed")

// Conn is an in-memory channel.Conn.
type Conn struct {
	inbound chan []byte
	closed  chan struct{}
	once    sync.Once

	mu       sync.Mutex
	written  []string
	writeErr error
}

// NewConn returns an open Conn.
func NewConn() *Conn {
	return &Conn{inbound: make(chan []byte, 64), closed: make(chan struct{})}
}

// ReadMessage implements channel.Conn.
func (c *Conn) ReadMessage() (int, []byte, error) {
	select {
	case b := <-c.inbound:
		return websocket.TextMessage, b, nil
	case <-c.closed:
		return 0, nil, ErrClosed
	}
}

// WriteMessage implements channel.Conn.
func (c *Conn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	c.written = append(c.written, string(data))
	return nil
}

// Close implements channel.Conn.
func (c *Conn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// Deliver queues an inbound message.
func (c *Conn) Deliver(b []byte) { c.inbound <- b }

// RemoteClose simulates the backend dropping the connection.
func (c *Conn) RemoteClose() { _ = c.Close() }

// SetWriteError makes every later write fail with err.
func (c *Conn) SetWriteError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

// Writes returns every payload written so far.
func (c *Conn) Writes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.written...)
}

// Dialer hands out a fresh Conn per dial. The first Failures dials fail.
type Dialer struct {
	Failures int

	mu       sync.Mutex
	conns    []*Conn
	dialedAt []time.Time
}

var _ channel.Dialer = (*Dialer)(nil)

// Dial implements channel.Dialer.
func (d *Dialer) Dial(ctx context.Context, _ string) (channel.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dialedAt = append(d.dialedAt, time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.Failures > 0 {
		d.Failures--
		return nil, fmt.Errorf("dial: connection refused")
	}
	c := NewConn()
	d.conns = append(d.conns, c)
	return c, nil
}

// Dials returns the number of dial attempts.
func (d *Dialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dialedAt)
}

// DialTimes returns when each dial happened.
func (d *Dialer) DialTimes() []time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Time(nil), d.dialedAt...)
}

// Conn returns the i-th successful connection, or nil.
func (d *Dialer) Conn(i int) *Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.conns) {
		return nil
	}
	return d.conns[i]
}

// Latest returns the most recent successful connection, or nil.
func (d *Dialer) Latest() *Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

// WirePayload returns a minimal valid detection message with one failed
// camera and one minimal last-valid entry.
func WirePayload(ts int64, radius float64) []byte {
	return []byte(fmt.Sprintf(`{
		"data": [{
			"id": "cam-1",
			"coordinates": {"latitude": 55.75, "longitude": 37.61},
			"fire_count_within_radius": 0,
			"total_count_within_radius": 1,
			"error": "camera offline"
		}],
		"radius_info": {"radius_km": %g},
		"timestamp": %d,
		"center_coordinates": {"latitude": 55.75, "longitude": 37.62},
		"last_valid_state": [{"id": "cam-1", "coordinates": {"latitude": 55.75, "longitude": 37.61}, "connect": false}]
	}`, radius, ts))
}

// WaitFor polls cond until it holds or three seconds pass.
func WaitFor(t testing.TB, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
