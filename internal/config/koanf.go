// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/emberline/internal/archive"
	"github.com/tomtom215/emberline/internal/channel"
	"github.com/tomtom215/emberline/internal/coordinator"
	"github.com/tomtom215/emberline/internal/eventbus"
	"github.com/tomtom215/emberline/internal/history"
	"github.com/tomtom215/emberline/internal/supervisor"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/emberline/config.yaml",
	"/etc/emberline/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with every default applied. Channel URLs
// have no default and must come from the file or environment.
func defaultConfig() *Config {
	tree := supervisor.DefaultTreeConfig()
	return &Config{
		Channels: ChannelsConfig{
			URLs:             []string{},
			Names:            []string{},
			ReconnectDelay:   channel.DefaultReconnectDelay,
			HandshakeTimeout: 10 * time.Second,
			WriteTimeout:     channel.DefaultWriteTimeout,
			MaxMessageSize:   channel.DefaultMaxMessageSize,
			InitialRadiusKm:  channel.DefaultInitialRadiusKm,
			HistoryCapacity:  history.DefaultCapacity,
			OverflowPolicy:   string(history.PolicyEvict),
			SinkQueueSize:    coordinator.DefaultSinkQueueSize,
		},
		Control: ControlConfig{
			AckDuration: 2 * time.Second,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8470,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    0, // WebSocket connections are long-lived
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Archive:  archive.DefaultConfig(),
		EventBus: eventbus.DefaultConfig(),
		Supervisor: SupervisorConfig{
			FailureThreshold: tree.FailureThreshold,
			FailureDecay:     tree.FailureDecay,
			FailureBackoff:   tree.FailureBackoff,
			ShutdownTimeout:  tree.ShutdownTimeout,
		},
	}
}

// LoadWithKoanf loads configuration with layered sources:
//  1. Defaults
//  2. Config File: optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment Variables
//
// Precedence is ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// CHANNEL_URLS -> channels.urls, NATS_URL -> eventbus.url
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"channels.urls",
	"channels.names",
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice when it came from YAML or the defaults.
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Channels
	"channel_urls":          "channels.urls",
	"channel_names":         "channels.names",
	"reconnect_delay":       "channels.reconnect_delay",
	"handshake_timeout":     "channels.handshake_timeout",
	"channel_write_timeout": "channels.write_timeout",
	"max_message_size":      "channels.max_message_size",
	"initial_radius_km":     "channels.initial_radius_km",
	"history_capacity":      "channels.history_capacity",
	"overflow_policy":       "channels.overflow_policy",
	"sink_queue_size":       "channels.sink_queue_size",

	// Control
	"ack_duration": "control.ack_duration",

	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Archive
	"archive_enabled":       "archive.enabled",
	"archive_restore":       "archive.restore",
	"archive_path":          "archive.path",
	"archive_in_memory":     "archive.in_memory",
	"archive_sync_writes":   "archive.sync_writes",
	"archive_compression":   "archive.compression",
	"archive_retain":        "archive.retain",
	"archive_memtable_size": "archive.memtable_size",
	"archive_gc_interval":   "archive.gc_interval",
	"archive_gc_ratio":      "archive.gc_ratio",
	"archive_close_timeout": "archive.close_timeout",

	// Event bus
	"nats_enabled":                   "eventbus.enabled",
	"nats_url":                       "eventbus.url",
	"nats_subject_prefix":            "eventbus.subject_prefix",
	"nats_jetstream":                 "eventbus.jetstream",
	"nats_max_reconnects":            "eventbus.max_reconnects",
	"nats_reconnect_wait":            "eventbus.reconnect_wait",
	"nats_reconnect_buffer":          "eventbus.reconnect_buffer",
	"nats_breaker_max_requests":      "eventbus.breaker.max_requests",
	"nats_breaker_interval":          "eventbus.breaker.interval",
	"nats_breaker_timeout":           "eventbus.breaker.timeout",
	"nats_breaker_failure_threshold": "eventbus.breaker.failure_threshold",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc transforms environment variable names to koanf config
// paths. Unmapped variables return "" and are ignored.
//
// Examples:
//   - CHANNEL_URLS -> channels.urls
//   - OVERFLOW_POLICY -> channels.overflow_policy
//   - HTTP_PORT -> server.port
//   - NATS_URL -> eventbus.url
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
