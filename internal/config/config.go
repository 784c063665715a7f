// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/emberline/internal/archive"
	"github.com/tomtom215/emberline/internal/channel"
	"github.com/tomtom215/emberline/internal/coordinator"
	"github.com/tomtom215/emberline/internal/eventbus"
	"github.com/tomtom215/emberline/internal/history"
	"github.com/tomtom215/emberline/internal/logging"
	"github.com/tomtom215/emberline/internal/supervisor"
)

// PrimaryChannelName and AuxChannelPrefix name channels when CHANNEL_NAMES
// is not set: primary, aux-1, aux-2, ...
const (
	PrimaryChannelName = "primary"
	AuxChannelPrefix   = "aux-"
)

// Config is the complete service configuration.
type Config struct {
	Channels   ChannelsConfig   `koanf:"channels"`
	Control    ControlConfig    `koanf:"control"`
	Server     ServerConfig     `koanf:"server"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
	Archive    archive.Config   `koanf:"archive"`
	EventBus   eventbus.Config  `koanf:"eventbus"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ChannelsConfig describes the detection backends. The first URL is the
// primary channel; the rest are auxiliary.
//
// Environment Variables:
//   - CHANNEL_URLS: comma-separated ws:// or wss:// addresses (required)
//   - CHANNEL_NAMES: comma-separated names, one per URL (default: primary, aux-1, ...)
//   - RECONNECT_DELAY: wait after a failed or dropped connection (default: 5s)
//   - HISTORY_CAPACITY: snapshots kept per channel (default: 100)
//   - OVERFLOW_POLICY: evict or reset (default: evict)
type ChannelsConfig struct {
	URLs  []string `koanf:"urls" validate:"min=1,dive,wsurl"`
	Names []string `koanf:"names" validate:"omitempty,dive,required,max=64,excludesall=:/"`

	ReconnectDelay   time.Duration `koanf:"reconnect_delay" validate:"gt=0"`
	HandshakeTimeout time.Duration `koanf:"handshake_timeout" validate:"gt=0"`
	WriteTimeout     time.Duration `koanf:"write_timeout" validate:"gt=0"`
	MaxMessageSize   int64         `koanf:"max_message_size" validate:"gte=1024"`

	// InitialRadiusKm is sent on connect until a snapshot reports a radius.
	InitialRadiusKm float64 `koanf:"initial_radius_km" validate:"gt=0"`

	HistoryCapacity int    `koanf:"history_capacity" validate:"gte=1,lte=100000"`
	OverflowPolicy  string `koanf:"overflow_policy" validate:"oneof=evict reset"`

	// SinkQueueSize bounds the per-sink backlog of accepted snapshots.
	SinkQueueSize int `koanf:"sink_queue_size" validate:"gte=1"`
}

// ControlConfig holds radius control settings.
type ControlConfig struct {
	// AckDuration is how long the acknowledgement stays visible.
	AckDuration time.Duration `koanf:"ack_duration" validate:"gt=0"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig mirrors supervisor.TreeConfig.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gt=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// ChannelNames returns the configured names, or the generated defaults.
func (c *ChannelsConfig) ChannelNames() []string {
	if len(c.Names) > 0 {
		return append([]string(nil), c.Names...)
	}
	names := make([]string, len(c.URLs))
	for i := range c.URLs {
		if i == 0 {
			names[i] = PrimaryChannelName
		} else {
			names[i] = AuxChannelPrefix + strconv.Itoa(i)
		}
	}
	return names
}

// ChannelConfigs builds one channel.Config per URL, primary first.
func (c *Config) ChannelConfigs() []channel.Config {
	names := c.Channels.ChannelNames()
	dialer := channel.WebsocketDialer{
		HandshakeTimeout: c.Channels.HandshakeTimeout,
		MaxMessageSize:   c.Channels.MaxMessageSize,
	}
	out := make([]channel.Config, len(c.Channels.URLs))
	for i, url := range c.Channels.URLs {
		out[i] = channel.Config{
			Name:            names[i],
			URL:             url,
			Dialer:          dialer,
			ReconnectDelay:  c.Channels.ReconnectDelay,
			WriteTimeout:    c.Channels.WriteTimeout,
			InitialRadiusKm: c.Channels.InitialRadiusKm,
			HistoryCapacity: c.Channels.HistoryCapacity,
		}
	}
	return out
}

// CoordinatorOptions returns the coordinator settings. OnOverflow is left
// for the caller.
func (c *Config) CoordinatorOptions() coordinator.Options {
	return coordinator.Options{
		OverflowPolicy: history.Policy(c.Channels.OverflowPolicy),
		SinkQueueSize:  c.Channels.SinkQueueSize,
	}
}

// LoggingConfig converts to the logging package's configuration.
func (c *Config) LoggingConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Logging.Level
	lc.Format = c.Logging.Format
	lc.Caller = c.Logging.Caller
	return lc
}

// TreeConfig converts to the supervisor's configuration.
func (c *Config) TreeConfig() supervisor.TreeConfig {
	return supervisor.TreeConfig{
		FailureThreshold: c.Supervisor.FailureThreshold,
		FailureDecay:     c.Supervisor.FailureDecay,
		FailureBackoff:   c.Supervisor.FailureBackoff,
		ShutdownTimeout:  c.Supervisor.ShutdownTimeout,
	}
}

// Addr is the HTTP listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// String summarizes the configuration for the startup log.
func (c *Config) String() string {
	return fmt.Sprintf("channels=%d overflow=%s archive=%t eventbus=%t addr=%s",
		len(c.Channels.URLs), c.Channels.OverflowPolicy, c.Archive.Enabled, c.EventBus.Enabled, c.Server.Addr())
}
