// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package services

import (
	"context"
	"errors"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/emberline/internal/archive"
)

// ArchiveMaintainer is satisfied by *archive.Archive.
type ArchiveMaintainer interface {
	Serve(ctx context.Context) error
}

// ArchiveGCService runs periodic value-log garbage collection for the
// snapshot archive in the data layer. Once the archive is closed the
// service stops for good.
type ArchiveGCService struct {
	archive ArchiveMaintainer
	name    string
}

// NewArchiveGCService creates a new archive maintenance service wrapper.
func NewArchiveGCService(a ArchiveMaintainer) *ArchiveGCService {
	return &ArchiveGCService{
		archive: a,
		name:    "archive-gc",
	}
}

// Serve implements suture.Service.
func (s *ArchiveGCService) Serve(ctx context.Context) error {
	err := s.archive.Serve(ctx)
	if errors.Is(err, archive.ErrClosed) {
		return suture.ErrDoNotRestart
	}
	return err
}

func (s *ArchiveGCService) String() string {
	return s.name
}
