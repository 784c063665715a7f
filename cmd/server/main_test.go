// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/tomtom215/emberline/internal/supervisor"
)

type blockingService struct{}

func (blockingService) Serve(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (blockingService) String() string { return "blocking" }

func TestAwaitTree_ReturnsAfterCancel(t *testing.T) {
	tree, err := supervisor.NewSupervisorTree(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		supervisor.TreeConfig{ShutdownTimeout: time.Second},
	)
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}
	tree.AddAPIService(blockingService{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)
	cancel()

	done := make(chan error, 1)
	go func() { done <- awaitTree(ctx, errCh) }()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("awaitTree() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("awaitTree() did not return after the tree stopped")
	}
}

func TestAwaitTree_ReceivesOnceFromOpenChannel(t *testing.T) {
	errCh := make(chan error, 1)
	want := errors.New("tree failed")
	errCh <- want

	done := make(chan error, 1)
	go func() { done <- awaitTree(context.Background(), errCh) }()

	select {
	case err := <-done:
		if !errors.Is(err, want) {
			t.Errorf("awaitTree() error = %v, want %v", err, want)
		}
	case <-time.After(time.Second):
		t.Fatal("awaitTree() blocked on a channel that is never closed")
	}
}
