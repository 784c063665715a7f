// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package archive

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/emberline/internal/channel/channeltest"
	"github.com/tomtom215/emberline/internal/models"
	"github.com/tomtom215/emberline/internal/normalize"
)

func openTestArchive(t *testing.T, retain int) *Archive {
	t.Helper()
	a, err := Open(Config{InMemory: true, Retain: retain})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func snapshot(t *testing.T, ts int64, radius float64) *models.DetectionSnapshot {
	t.Helper()
	s, err := normalize.NormalizeJSON(channeltest.WirePayload(ts, radius))
	if err != nil {
		t.Fatalf("fixture does not normalize: %v", err)
	}
	return s
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestArchive_RoundTrip(t *testing.T) {
	a := openTestArchive(t, 10)
	ctx := context.Background()

	var written []*models.DetectionSnapshot
	for _, ts := range []int64{1000, 1050, 1100} {
		s := snapshot(t, ts, float64(ts)/100)
		written = append(written, s)
		if err := a.Deliver(ctx, "primary", s); err != nil {
			t.Fatalf("Deliver(%d) error = %v", ts, err)
		}
	}

	got, err := a.Recent("primary", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(written) {
		t.Fatalf("Recent() returned %d snapshots, want %d", len(got), len(written))
	}
	for i := range written {
		if mustJSON(t, got[i]) != mustJSON(t, written[i]) {
			t.Errorf("snapshot %d differs after round trip:\n got %s\nwant %s", i, mustJSON(t, got[i]), mustJSON(t, written[i]))
		}
	}
}

func TestArchive_RecentLimitsAndOrders(t *testing.T) {
	a := openTestArchive(t, 10)
	ctx := context.Background()

	for ts := int64(1); ts <= 5; ts++ {
		if err := a.Append(ctx, "primary", snapshot(t, ts*100, 10)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := a.Recent("primary", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Timestamp != 400 || got[1].Timestamp != 500 {
		t.Errorf("Recent(2) = %v", timestamps(got))
	}

	if got, _ := a.Recent("primary", 0); got != nil {
		t.Error("Recent(0) should return nothing")
	}
	if got, _ := a.Recent("missing", 5); len(got) != 0 {
		t.Error("unknown channel should have no snapshots")
	}
}

func TestArchive_OrdersAcrossDigitLengths(t *testing.T) {
	a := openTestArchive(t, 10)
	ctx := context.Background()

	stamps := []int64{9, 99_999, 1_000, 999, 1<<53 - 1, 100_000}
	for _, ts := range stamps {
		if err := a.Append(ctx, "primary", snapshot(t, ts, 10)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := a.Recent("primary", len(stamps))
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{9, 999, 1_000, 99_999, 100_000, 1<<53 - 1}
	ts := timestamps(got)
	if len(ts) != len(want) {
		t.Fatalf("Recent() = %v, want %v", ts, want)
	}
	for i := range want {
		if ts[i] != want[i] {
			t.Fatalf("Recent() = %v, want %v", ts, want)
		}
	}
}

func TestArchive_RejectsNegativeTimestamp(t *testing.T) {
	a := openTestArchive(t, 10)

	snap := snapshot(t, 5, 10)
	snap.Timestamp = -1
	if err := a.Append(context.Background(), "primary", snap); !errors.Is(err, ErrNegativeTimestamp) {
		t.Errorf("Append(ts=-1) = %v, want ErrNegativeTimestamp", err)
	}
	if got, _ := a.Recent("primary", 5); len(got) != 0 {
		t.Errorf("negative snapshot was stored: %v", timestamps(got))
	}
}

func TestArchive_ChannelsAreIsolated(t *testing.T) {
	a := openTestArchive(t, 10)
	ctx := context.Background()

	_ = a.Append(ctx, "primary", snapshot(t, 100, 10))
	_ = a.Append(ctx, "primary-2", snapshot(t, 200, 10))
	_ = a.Append(ctx, "aux", snapshot(t, 300, 10))

	for ch, want := range map[string]int64{"primary": 100, "primary-2": 200, "aux": 300} {
		got, err := a.Recent(ch, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].Timestamp != want {
			t.Errorf("%s: %v, want [%d]", ch, timestamps(got), want)
		}
	}
}

func TestArchive_PrunesToRetain(t *testing.T) {
	a := openTestArchive(t, 3)
	ctx := context.Background()

	for ts := int64(1); ts <= 6; ts++ {
		if err := a.Append(ctx, "primary", snapshot(t, ts, 10)); err != nil {
			t.Fatal(err)
		}
	}

	n, err := a.Count("primary")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
	got, _ := a.Recent("primary", 10)
	if len(got) != 3 || got[0].Timestamp != 4 {
		t.Errorf("retained %v, want [4 5 6]", timestamps(got))
	}
}

func TestArchive_SkipsUnreadableEntries(t *testing.T) {
	a := openTestArchive(t, 10)
	ctx := context.Background()

	_ = a.Append(ctx, "primary", snapshot(t, 100, 10))
	err := a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey("primary", 150), []byte(`{"data": 42}`))
	})
	if err != nil {
		t.Fatal(err)
	}
	_ = a.Append(ctx, "primary", snapshot(t, 200, 10))

	got, err := a.Recent("primary", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Timestamp != 100 || got[1].Timestamp != 200 {
		t.Errorf("Recent() = %v, want [100 200]", timestamps(got))
	}
}

func TestArchive_Errors(t *testing.T) {
	a := openTestArchive(t, 10)

	if err := a.Append(context.Background(), "primary", nil); !errors.Is(err, ErrNilSnapshot) {
		t.Errorf("Append(nil) = %v, want ErrNilSnapshot", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Append(ctx, "primary", snapshot(t, 1, 10)); !errors.Is(err, context.Canceled) {
		t.Errorf("Append with canceled ctx = %v", err)
	}

	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if err := a.Append(context.Background(), "primary", snapshot(t, 2, 10)); !errors.Is(err, ErrClosed) {
		t.Errorf("Append after Close = %v, want ErrClosed", err)
	}
	if _, err := a.Recent("primary", 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Recent after Close = %v, want ErrClosed", err)
	}
	if _, err := a.RunGC(); !errors.Is(err, ErrClosed) {
		t.Errorf("RunGC after Close = %v, want ErrClosed", err)
	}
}

func TestArchive_OnDiskReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive")
	cfg := Config{Path: path, Retain: 5, SyncWrites: false}

	a, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Append(context.Background(), "primary", snapshot(t, 42, 9)); err != nil {
		t.Fatal(err)
	}
	if _, err := a.RunGC(); err != nil {
		t.Errorf("RunGC() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	b, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	got, err := b.Recent("primary", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Timestamp != 42 || got[0].RadiusKm != 9 {
		t.Errorf("after reopen: %v", timestamps(got))
	}
}

func TestArchive_ServeStopsOnCancel(t *testing.T) {
	a, err := Open(Config{InMemory: true, GCInterval: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- a.Serve(ctx) }()
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not stop")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"in memory without path", Config{InMemory: true, Retain: 1, MemTableSize: 1 << 20, GCInterval: time.Minute, GCRatio: 0.5, CloseTimeout: time.Second}, false},
		{"missing path", Config{Retain: 1, MemTableSize: 1 << 20, GCInterval: time.Minute, GCRatio: 0.5, CloseTimeout: time.Second}, true},
		{"bad ratio", func() Config { c := DefaultConfig(); c.GCRatio = 1.5; return c }(), true},
		{"short gc interval", func() Config { c := DefaultConfig(); c.GCInterval = time.Millisecond; return c }(), true},
		{"zero retain", func() Config { c := DefaultConfig(); c.Retain = 0; return c }(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func timestamps(snaps []*models.DetectionSnapshot) []int64 {
	out := make([]int64, len(snaps))
	for i, s := range snaps {
		out[i] = s.Timestamp
	}
	return out
}
