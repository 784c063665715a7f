// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package services

import (
	"context"
	"errors"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/emberline/internal/coordinator"
)

// Coordinator is satisfied by *coordinator.Coordinator.
type Coordinator interface {
	Serve(ctx context.Context) error
}

// CoordinatorService runs the channel coordinator in the ingest layer.
//
// A coordinator that was closed explicitly cannot be served again, so
// coordinator.ErrClosed is translated to suture.ErrDoNotRestart. Any other
// return (a panic recovered by suture included) is restarted with backoff;
// the channels keep their history across restarts.
type CoordinatorService struct {
	coord Coordinator
	name  string
}

// NewCoordinatorService creates a new coordinator service wrapper.
func NewCoordinatorService(coord Coordinator) *CoordinatorService {
	return &CoordinatorService{
		coord: coord,
		name:  "channel-coordinator",
	}
}

// Serve implements suture.Service.
func (c *CoordinatorService) Serve(ctx context.Context) error {
	err := c.coord.Serve(ctx)
	if errors.Is(err, coordinator.ErrClosed) {
		return suture.ErrDoNotRestart
	}
	return err
}

func (c *CoordinatorService) String() string {
	return c.name
}
