// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package channel

import (
	"github.com/tomtom215/emberline/internal/models"
)

// Status is the connection status of a channel.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// MarshalText renders the status as its lowercase name in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// State is an immutable view of a channel. History is shared with the
// channel and must not be modified.
type State struct {
	Name            string                      `json:"name"`
	URL             string                      `json:"url"`
	Status          Status                      `json:"status"`
	History         []*models.DetectionSnapshot `json:"-"`
	CurrentRadiusKm float64                     `json:"currentRadiusKm"`
	SessionID       string                      `json:"sessionId,omitempty"`
	Reconnects      int                         `json:"reconnects"`
	// ReconnectPending is true while a reconnect timer is armed.
	ReconnectPending bool `json:"reconnectPending"`
}

// Latest returns the newest snapshot, or nil when history is empty.
func (s State) Latest() *models.DetectionSnapshot {
	if len(s.History) == 0 {
		return nil
	}
	return s.History[len(s.History)-1]
}

// IsLoaded reports whether at least one snapshot has arrived.
func (s State) IsLoaded() bool {
	return len(s.History) > 0
}

// EventKind classifies a channel notification.
type EventKind int

const (
	// EventStatus fires on every status transition.
	EventStatus EventKind = iota
	// EventSnapshot fires when a snapshot enters history.
	EventSnapshot
	// EventRejected fires when an inbound payload is dropped.
	EventRejected
	// EventRadius fires when a transmitted radius command changes the
	// locally-held radius.
	EventRadius
	// EventHistoryReset fires when history is cleared from outside.
	EventHistoryReset
	// EventRestored fires when history is replaced from the archive.
	EventRestored
)

func (k EventKind) String() string {
	switch k {
	case EventStatus:
		return "status"
	case EventSnapshot:
		return "snapshot"
	case EventRejected:
		return "rejected"
	case EventRadius:
		return "radius"
	case EventHistoryReset:
		return "history_reset"
	case EventRestored:
		return "restored"
	default:
		return "unknown"
	}
}

// Event is delivered to listeners after the state it describes has been
// published.
type Event struct {
	Kind  EventKind
	State State
	// Snapshot is set for EventSnapshot.
	Snapshot *models.DetectionSnapshot
	// Overflowed is set for EventSnapshot when the append exceeded capacity.
	Overflowed bool
	// Err is set for EventRejected and for disconnects caused by an error.
	Err error
}

// Listener receives channel events on the channel's goroutine. It must not
// block or call back into the channel (Send, SendRadius, Close, ...).
type Listener func(Event)
