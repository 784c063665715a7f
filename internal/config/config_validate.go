// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package config

import (
	"errors"
	"fmt"

	"github.com/tomtom215/emberline/internal/validation"
)

var (
	// ErrNoChannels is returned when no channel URL is configured.
	ErrNoChannels = errors.New("at least one channel URL is required (CHANNEL_URLS)")

	// ErrChannelNameCount is returned when CHANNEL_NAMES does not match CHANNEL_URLS.
	ErrChannelNameCount = errors.New("CHANNEL_NAMES must list one name per channel URL")

	// ErrDuplicateChannelName is returned when two channels share a name.
	ErrDuplicateChannelName = errors.New("channel names must be unique")
)

// Validate checks struct tags with the shared validator, then the rules
// that span fields.
func (c *Config) Validate() error {
	if len(c.Channels.URLs) == 0 {
		return ErrNoChannels
	}
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	return c.validateChannelNames()
}

func (c *Config) validateChannelNames() error {
	if len(c.Channels.Names) > 0 && len(c.Channels.Names) != len(c.Channels.URLs) {
		return fmt.Errorf("%w: %d names for %d URLs",
			ErrChannelNameCount, len(c.Channels.Names), len(c.Channels.URLs))
	}
	seen := make(map[string]struct{}, len(c.Channels.URLs))
	for _, name := range c.Channels.ChannelNames() {
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateChannelName, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
