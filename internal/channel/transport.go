// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package channel

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/emberline/internal/logging"
)

// DefaultMaxMessageSize bounds a single inbound message.
const DefaultMaxMessageSize = 4 << 20

// Conn is the subset of *websocket.Conn a channel uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens a Conn to url.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// writeDeadliner is implemented by *websocket.Conn.
type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// controlWriter is implemented by *websocket.Conn.
type controlWriter interface {
	WriteControl(messageType int, data []byte, deadline time.Time) error
}

// WebsocketDialer dials detection backends with gorilla/websocket.
type WebsocketDialer struct {
	HandshakeTimeout time.Duration
	// MaxMessageSize is the read limit per message. Zero means
	// DefaultMaxMessageSize.
	MaxMessageSize int64
}

// Dial implements Dialer.
func (d WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	handshake := d.HandshakeTimeout
	if handshake <= 0 {
		handshake = 10 * time.Second
	}
	dialer := websocket.Dialer{
		HandshakeTimeout:  handshake,
		EnableCompression: true,
	}

	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	if resp != nil && resp.Body != nil {
		if cerr := resp.Body.Close(); cerr != nil {
			logging.Debug().Err(cerr).Msg("failed to close handshake response body")
		}
	}

	limit := d.MaxMessageSize
	if limit <= 0 {
		limit = DefaultMaxMessageSize
	}
	conn.SetReadLimit(limit)
	return conn, nil
}
