// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

//go:build integration

package eventbus

import (
	"context"
	"testing"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/emberline/internal/testinfra"
)

func TestBus_ExternalBroker(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker, err := testinfra.NewNATSContainer(ctx)
	if err != nil {
		t.Fatalf("start NATS container: %v", err)
	}
	testinfra.CleanupContainer(t, broker)

	nc := connect(t, broker.URL)
	js, err := nc.JetStream()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := js.AddStream(&natsgo.StreamConfig{
		Name:     "SNAPSHOTS",
		Subjects: []string{"emberline.snapshots.>"},
		Storage:  natsgo.FileStorage,
	}); err != nil {
		t.Fatalf("AddStream() error = %v", err)
	}

	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.JetStream = true
	cfg.URL = broker.URL
	pub, err := NewNATSPublisher(cfg, nil)
	if err != nil {
		t.Fatalf("NewNATSPublisher() error = %v", err)
	}
	bus := New(pub, cfg)
	defer bus.Close()

	for ts := int64(1); ts <= 3; ts++ {
		if err := bus.Publish(ctx, "primary", testSnapshot(t, ts)); err != nil {
			t.Fatalf("Publish(%d) error = %v", ts, err)
		}
	}

	info, err := js.StreamInfo("SNAPSHOTS")
	if err != nil {
		t.Fatal(err)
	}
	if info.State.Msgs != 3 {
		t.Errorf("stream holds %d messages, want 3", info.State.Msgs)
	}
}
