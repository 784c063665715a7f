// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/emberline/internal/normalize"
)

// runEmbeddedServer starts an in-process NATS server with JetStream on a
// random port.
func runEmbeddedServer(t *testing.T) *server.Server {
	t.Helper()
	opts := &server.Options{
		ServerName: "emberline-test",
		Host:       "127.0.0.1",
		Port:       server.RANDOM_PORT,
		JetStream:  true,
		StoreDir:   t.TempDir(),
		NoLog:      true,
		NoSigs:     true,
	}
	ns, err := server.NewServer(opts)
	if err != nil {
		t.Fatalf("create NATS server: %v", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		t.Fatal("NATS server not ready within timeout")
	}
	t.Cleanup(ns.Shutdown)
	return ns
}

func connect(t *testing.T, url string) *natsgo.Conn {
	t.Helper()
	nc, err := natsgo.Connect(url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(nc.Close)
	return nc
}

func TestBus_CoreNATS(t *testing.T) {
	ns := runEmbeddedServer(t)
	nc := connect(t, ns.ClientURL())

	sub, err := nc.SubscribeSync("emberline.snapshots.>")
	if err != nil {
		t.Fatal(err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.URL = ns.ClientURL()
	pub, err := NewNATSPublisher(cfg, nil)
	if err != nil {
		t.Fatalf("NewNATSPublisher() error = %v", err)
	}
	bus := New(pub, cfg)
	defer bus.Close()

	snap := testSnapshot(t, 4242)
	if err := bus.Publish(context.Background(), "aux-1", snap); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	msg, err := sub.NextMsg(2 * time.Second)
	if err != nil {
		t.Fatalf("NextMsg() error = %v", err)
	}
	if msg.Subject != "emberline.snapshots.aux-1" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if got := msg.Header.Get(MetadataChannel); got != "aux-1" {
		t.Errorf("channel header = %q", got)
	}
	decoded, err := normalize.NormalizeJSON(msg.Data)
	if err != nil {
		t.Fatalf("payload does not normalize: %v", err)
	}
	if decoded.Timestamp != 4242 {
		t.Errorf("timestamp = %d, want 4242", decoded.Timestamp)
	}
	if bus.BreakerState() != "closed" {
		t.Errorf("breaker = %s, want closed", bus.BreakerState())
	}
}

func TestBus_JetStreamDeduplicates(t *testing.T) {
	ns := runEmbeddedServer(t)
	nc := connect(t, ns.ClientURL())

	js, err := nc.JetStream()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := js.AddStream(&natsgo.StreamConfig{
		Name:       "SNAPSHOTS",
		Subjects:   []string{"emberline.snapshots.>"},
		Storage:    natsgo.MemoryStorage,
		Duplicates: time.Minute,
	}); err != nil {
		t.Fatalf("AddStream() error = %v", err)
	}

	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.JetStream = true
	cfg.URL = ns.ClientURL()
	pub, err := NewNATSPublisher(cfg, nil)
	if err != nil {
		t.Fatalf("NewNATSPublisher() error = %v", err)
	}
	bus := New(pub, cfg)
	defer bus.Close()

	ctx := context.Background()
	for _, ts := range []int64{100, 100, 200} {
		if err := bus.Publish(ctx, "primary", testSnapshot(t, ts)); err != nil {
			t.Fatalf("Publish(%d) error = %v", ts, err)
		}
	}

	info, err := js.StreamInfo("SNAPSHOTS")
	if err != nil {
		t.Fatal(err)
	}
	if info.State.Msgs != 2 {
		t.Errorf("stream holds %d messages, want 2", info.State.Msgs)
	}
}
