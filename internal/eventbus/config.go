// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package eventbus

import "time"

// Config holds event bus settings.
type Config struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url" validate:"required_if=Enabled true"`

	// SubjectPrefix is prepended to the channel name: <prefix>.<channel>.
	SubjectPrefix string `koanf:"subject_prefix" validate:"required"`

	// JetStream publishes through JetStream with message-ID deduplication.
	// The stream must already exist.
	JetStream bool `koanf:"jetstream"`

	MaxReconnects   int           `koanf:"max_reconnects"`
	ReconnectWait   time.Duration `koanf:"reconnect_wait" validate:"gt=0"`
	ReconnectBuffer int           `koanf:"reconnect_buffer" validate:"gte=0"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests" validate:"gte=1"` // allowed in half-open state
	Interval         time.Duration `koanf:"interval"`                      // reset interval for counts
	Timeout          time.Duration `koanf:"timeout" validate:"gt=0"`       // time to stay open
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"gte=1"`
}

// DefaultConfig returns production defaults. The bus is disabled.
func DefaultConfig() Config {
	return Config{
		URL:             "nats://127.0.0.1:4222",
		SubjectPrefix:   "emberline.snapshots",
		MaxReconnects:   -1,
		ReconnectWait:   2 * time.Second,
		ReconnectBuffer: 8 * 1024 * 1024,
		Breaker: BreakerConfig{
			MaxRequests:      3,
			Interval:         30 * time.Second,
			Timeout:          10 * time.Second,
			FailureThreshold: 5,
		},
	}
}
