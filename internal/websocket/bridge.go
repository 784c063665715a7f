// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package websocket

import (
	"github.com/tomtom215/emberline/internal/channel"
	"github.com/tomtom215/emberline/internal/control"
	"github.com/tomtom215/emberline/internal/coordinator"
	"github.com/tomtom215/emberline/internal/models"
)

// ChannelStateData is sent with channel_state messages.
type ChannelStateData struct {
	Name             string                    `json:"name"`
	URL              string                    `json:"url"`
	Status           channel.Status            `json:"status"`
	RadiusKm         float64                   `json:"radiusKm"`
	SessionID        string                    `json:"sessionId,omitempty"`
	Reconnects       int                       `json:"reconnects"`
	ReconnectPending bool                      `json:"reconnectPending"`
	HistorySize      int                       `json:"historySize"`
	Latest           *models.DetectionSnapshot `json:"latest,omitempty"`
}

// NewChannelStateData summarizes st without its full history.
func NewChannelStateData(st channel.State) ChannelStateData {
	return ChannelStateData{
		Name:             st.Name,
		URL:              st.URL,
		Status:           st.Status,
		RadiusKm:         st.CurrentRadiusKm,
		SessionID:        st.SessionID,
		Reconnects:       st.Reconnects,
		ReconnectPending: st.ReconnectPending,
		HistorySize:      len(st.History),
		Latest:           st.Latest(),
	}
}

// AcknowledgementData is sent with acknowledgement messages.
type AcknowledgementData struct {
	Visible bool `json:"visible"`
}

// Attach forwards coordinator updates and acknowledgement changes to every
// client, and makes new clients start from the current state. session may
// be nil. The returned function stops forwarding.
func (h *Hub) Attach(coord *coordinator.Coordinator, session *control.Session) (detach func()) {
	h.SetInitialState(func() []Message {
		var msgs []Message
		for _, st := range coord.States() {
			msgs = append(msgs, Message{Type: MessageTypeChannelState, Data: NewChannelStateData(st)})
		}
		msgs = append(msgs, Message{Type: MessageTypeAggregate, Data: coord.Aggregate()})
		if session != nil {
			msgs = append(msgs, Message{
				Type: MessageTypeAcknowledgement,
				Data: AcknowledgementData{Visible: session.AcknowledgementVisible()},
			})
		}
		return msgs
	})

	stopUpdates := coord.Subscribe(func(u coordinator.Update) {
		for _, st := range u.Changed {
			h.BroadcastJSON(MessageTypeChannelState, NewChannelStateData(st))
		}
		h.BroadcastJSON(MessageTypeAggregate, u.Aggregate)
	})

	stopAcks := func() {}
	if session != nil {
		stopAcks = session.Subscribe(func(visible bool) {
			h.BroadcastJSON(MessageTypeAcknowledgement, AcknowledgementData{Visible: visible})
		})
	}

	return func() {
		stopUpdates()
		stopAcks()
		h.SetInitialState(nil)
	}
}
