// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/emberline/internal/websocket"
)

type stubHub struct {
	runErr error
	runs   atomic.Int32
}

func (h *stubHub) RunWithContext(ctx context.Context) error {
	h.runs.Add(1)
	if h.runErr != nil {
		return h.runErr
	}
	<-ctx.Done()
	return ctx.Err()
}

var _ ContextHub = (*websocket.Hub)(nil)

func TestWebSocketHubService_Serve(t *testing.T) {
	t.Run("returns context error on cancellation", func(t *testing.T) {
		hub := &stubHub{}
		ctx, cancel := context.WithCancel(context.Background())
		errCh := serveAsync(NewWebSocketHubService(hub), ctx)

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Serve did not return after context cancellation")
		}
		if hub.runs.Load() != 1 {
			t.Errorf("expected 1 run, got %d", hub.runs.Load())
		}
	})

	t.Run("propagates hub errors", func(t *testing.T) {
		hubErr := errors.New("hub failure")
		err := NewWebSocketHubService(&stubHub{runErr: hubErr}).Serve(context.Background())
		if !errors.Is(err, hubErr) {
			t.Errorf("expected %v, got %v", hubErr, err)
		}
	})
}

func TestWebSocketHubService_RealHub(t *testing.T) {
	hub := websocket.NewHub()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewWebSocketHubService(hub).Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestServiceNames(t *testing.T) {
	tests := []struct {
		svc  suture.Service
		want string
	}{
		{NewHTTPServerService(newStubHTTPServer(), 0), "http-server"},
		{NewWebSocketHubService(&stubHub{}), "websocket-hub"},
		{NewCoordinatorService(&stubRunner{}), "channel-coordinator"},
		{NewArchiveGCService(&stubRunner{}), "archive-gc"},
	}
	for _, tt := range tests {
		s, ok := tt.svc.(interface{ String() string })
		if !ok {
			t.Fatalf("%T does not implement fmt.Stringer", tt.svc)
		}
		if s.String() != tt.want {
			t.Errorf("%T.String() = %q, want %q", tt.svc, s.String(), tt.want)
		}
	}
}
