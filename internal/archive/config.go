// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package archive

import (
	"fmt"
	"time"

	"github.com/tomtom215/emberline/internal/validation"
)

// Config configures the snapshot archive.
type Config struct {
	// Enabled is read by the server wiring; Open ignores it.
	Enabled bool `koanf:"enabled"`

	// Restore seeds channel history from the archive at startup.
	Restore bool `koanf:"restore"`

	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string `koanf:"path" validate:"required_without=InMemory"`

	// InMemory keeps everything in memory. Used by tests.
	InMemory bool `koanf:"in_memory"`

	// SyncWrites forces fsync after every write.
	SyncWrites bool `koanf:"sync_writes"`

	// Compression enables Snappy block compression.
	Compression bool `koanf:"compression"`

	// Retain is the number of snapshots kept per channel.
	Retain int `koanf:"retain" validate:"gte=1"`

	// MemTableSize is the BadgerDB memtable size in bytes.
	MemTableSize int64 `koanf:"memtable_size" validate:"gte=1048576"`

	// GCInterval is the time between value-log GC passes.
	GCInterval time.Duration `koanf:"gc_interval" validate:"gte=1s"`

	// GCRatio is the discard ratio passed to RunValueLogGC.
	GCRatio float64 `koanf:"gc_ratio" validate:"gt=0,lt=1"`

	CloseTimeout time.Duration `koanf:"close_timeout" validate:"gt=0"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		Restore:      true,
		Path:         "/data/archive",
		SyncWrites:   true,
		Compression:  true,
		Retain:       1000,
		MemTableSize: 16 << 20,
		GCInterval:   10 * time.Minute,
		GCRatio:      0.5,
		CloseTimeout: 30 * time.Second,
	}
}

// applyDefaults fills zero values from DefaultConfig.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Retain == 0 {
		c.Retain = d.Retain
	}
	if c.MemTableSize == 0 {
		c.MemTableSize = d.MemTableSize
	}
	if c.GCInterval == 0 {
		c.GCInterval = d.GCInterval
	}
	if c.GCRatio == 0 {
		c.GCRatio = d.GCRatio
	}
	if c.CloseTimeout == 0 {
		c.CloseTimeout = d.CloseTimeout
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	return nil
}
