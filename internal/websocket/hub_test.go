// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package websocket

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/emberline/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// setupHub creates a hub running until the test ends.
func setupHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.RunWithContext(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

// createTestClient creates a client without a connection.
func createTestClient(hub *Hub) *Client {
	return &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, sendBuffer)}
}

// receive waits for the next message on a client's queue.
func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		if !ok {
			t.Fatal("client queue closed")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	checks := []struct {
		name   string
		check  bool
		errMsg string
	}{
		{"clients map", hub.clients != nil, "clients map not initialized"},
		{"broadcast channel", hub.broadcast != nil, "broadcast channel not initialized"},
		{"empty clients", len(hub.clients) == 0, "clients map should be empty"},
		{"no initial state", hub.initial == nil, "initial state should be unset"},
	}
	for _, c := range checks {
		if !c.check {
			t.Error(c.errMsg)
		}
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	c1, c2 := createTestClient(hub), createTestClient(hub)

	hub.Register(c1)
	hub.Register(c2)
	if got := hub.GetClientCount(); got != 2 {
		t.Fatalf("client count = %d, want 2", got)
	}

	hub.Unregister(c1)
	hub.Unregister(c1)
	if got := hub.GetClientCount(); got != 1 {
		t.Errorf("client count = %d, want 1", got)
	}
	if _, ok := <-c1.send; ok {
		t.Error("unregistered client's queue should be closed")
	}

	hub.Unregister(createTestClient(hub))
	if got := hub.GetClientCount(); got != 1 {
		t.Errorf("unregistering an unknown client changed the count to %d", got)
	}
}

func TestHub_InitialStateOnRegister(t *testing.T) {
	hub := NewHub()
	hub.SetInitialState(func() []Message {
		return []Message{
			{Type: MessageTypeChannelState, Data: "primary"},
			{Type: MessageTypeAggregate, Data: "agg"},
		}
	})

	c := createTestClient(hub)
	hub.Register(c)

	if msg := receive(t, c); msg.Type != MessageTypeChannelState {
		t.Errorf("first message = %s, want channel_state", msg.Type)
	}
	if msg := receive(t, c); msg.Type != MessageTypeAggregate {
		t.Errorf("second message = %s, want aggregate", msg.Type)
	}
}

func TestHub_BroadcastToClients(t *testing.T) {
	hub := setupHub(t)
	clients := []*Client{createTestClient(hub), createTestClient(hub), createTestClient(hub)}
	for _, c := range clients {
		hub.Register(c)
	}

	hub.BroadcastJSON(MessageTypeAcknowledgement, AcknowledgementData{Visible: true})

	for i, c := range clients {
		msg := receive(t, c)
		if msg.Type != MessageTypeAcknowledgement {
			t.Errorf("client %d got %s", i, msg.Type)
		}
		if ack, ok := msg.Data.(AcknowledgementData); !ok || !ack.Visible {
			t.Errorf("client %d data = %#v", i, msg.Data)
		}
	}
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub := NewHub()
	slow := &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, 1)}
	fast := createTestClient(hub)
	hub.Register(slow)
	hub.Register(fast)

	hub.broadcastToClients(Message{Type: MessageTypeAggregate})
	hub.broadcastToClients(Message{Type: MessageTypeAggregate})

	if got := hub.GetClientCount(); got != 1 {
		t.Errorf("client count = %d, want 1 after dropping the slow client", got)
	}
	if len(fast.send) != 2 {
		t.Errorf("fast client received %d messages, want 2", len(fast.send))
	}
}

func TestHub_BroadcastQueueFullDrops(t *testing.T) {
	hub := NewHub()
	for i := 0; i < broadcastBuffer+10; i++ {
		hub.BroadcastJSON(MessageTypeAggregate, i)
	}
	if len(hub.broadcast) != broadcastBuffer {
		t.Errorf("queued = %d, want %d", len(hub.broadcast), broadcastBuffer)
	}
}

func TestHub_RunWithContext(t *testing.T) {
	tests := []struct {
		name   string
		ctx    func() (context.Context, context.CancelFunc)
		want   error
		reason ShutdownReason
	}{
		{
			name: "canceled",
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithCancel(context.Background())
			},
			want:   context.Canceled,
			reason: ShutdownReasonContextCanceled,
		},
		{
			name: "deadline",
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), 20*time.Millisecond)
			},
			want:   context.DeadlineExceeded,
			reason: ShutdownReasonContextDeadline,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub()
			c := createTestClient(hub)
			hub.Register(c)

			ctx, cancel := tt.ctx()
			errc := make(chan error, 1)
			go func() { errc <- hub.RunWithContext(ctx) }()
			if tt.name == "canceled" {
				cancel()
			}
			defer cancel()

			select {
			case err := <-errc:
				if !errors.Is(err, tt.want) {
					t.Errorf("RunWithContext() = %v, want %v", err, tt.want)
				}
			case <-time.After(time.Second):
				t.Fatal("hub did not stop")
			}
			if hub.GetClientCount() != 0 {
				t.Error("clients should be closed on shutdown")
			}
			if _, ok := <-c.send; ok {
				t.Error("client queue should be closed on shutdown")
			}
			if got := getShutdownReason(ctx); got != tt.reason {
				t.Errorf("reason = %s, want %s", got, tt.reason)
			}
		})
	}
}

func TestHub_ConcurrentOperations(t *testing.T) {
	hub := setupHub(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := createTestClient(hub)
			hub.Register(c)
			hub.BroadcastJSON(MessageTypeAggregate, i)
			hub.Unregister(c)
		}(i)
	}
	wg.Wait()

	if got := hub.GetClientCount(); got != 0 {
		t.Errorf("client count = %d, want 0", got)
	}
}

func TestMarshalMessage(t *testing.T) {
	b, err := MarshalMessage(Message{Type: MessageTypeAcknowledgement, Data: AcknowledgementData{Visible: true}})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"acknowledgement","data":{"visible":true}}`
	if string(b) != want {
		t.Errorf("MarshalMessage() = %s, want %s", b, want)
	}
}
