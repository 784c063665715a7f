// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// setupHubServer serves hub clients over a real websocket.
func setupHubServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn)
		hub.Register(client)
		client.Start()
	}))
	t.Cleanup(server.Close)
	return server
}

// dialWebSocket establishes a WebSocket connection to the test server
func dialWebSocket(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type rawMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readMessage(t *testing.T, conn *websocket.Conn) rawMessage {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg rawMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return msg
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.GetClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewClient(t *testing.T) {
	hub := NewHub()
	a, b := NewClient(hub, nil), NewClient(hub, nil)

	if a.ID() == 0 || b.ID() <= a.ID() {
		t.Errorf("client IDs not increasing: %d, %d", a.ID(), b.ID())
	}
	if cap(a.send) != sendBuffer {
		t.Errorf("send buffer = %d, want %d", cap(a.send), sendBuffer)
	}
}

func TestClient_Constants(t *testing.T) {
	if pingPeriod >= pongWait {
		t.Errorf("pingPeriod %v must be shorter than pongWait %v", pingPeriod, pongWait)
	}
	if writeWait != 10*time.Second {
		t.Errorf("writeWait = %v", writeWait)
	}
}

func TestClient_ReceivesBroadcasts(t *testing.T) {
	hub := setupHub(t)
	server := setupHubServer(t, hub)
	conn := dialWebSocket(t, server)
	waitForClients(t, hub, 1)

	hub.BroadcastJSON(MessageTypeAcknowledgement, AcknowledgementData{Visible: true})

	msg := readMessage(t, conn)
	if msg.Type != MessageTypeAcknowledgement || string(msg.Data) != `{"visible":true}` {
		t.Errorf("message = %s %s", msg.Type, msg.Data)
	}
}

func TestClient_PingPong(t *testing.T) {
	hub := setupHub(t)
	server := setupHubServer(t, hub)
	conn := dialWebSocket(t, server)
	waitForClients(t, hub, 1)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); msg.Type != MessageTypePong {
		t.Errorf("reply = %s, want pong", msg.Type)
	}
}

func TestClient_IgnoresGarbage(t *testing.T) {
	hub := setupHub(t)
	server := setupHubServer(t, hub)
	conn := dialWebSocket(t, server)
	waitForClients(t, hub, 1)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`not json`)); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); msg.Type != MessageTypePong {
		t.Errorf("reply = %s, want pong", msg.Type)
	}
	if hub.GetClientCount() != 1 {
		t.Error("garbage input should not disconnect the client")
	}
}

func TestClient_DisconnectUnregisters(t *testing.T) {
	hub := setupHub(t)
	server := setupHubServer(t, hub)
	conn := dialWebSocket(t, server)
	waitForClients(t, hub, 1)

	_ = conn.Close()
	waitForClients(t, hub, 0)
}

func TestClient_HubCloseSendsCloseFrame(t *testing.T) {
	hub := NewHub()
	server := setupHubServer(t, hub)
	conn := dialWebSocket(t, server)
	waitForClients(t, hub, 1)

	hub.closeAllClients()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Error("expected the connection to close")
	}
}
