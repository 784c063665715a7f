// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

/*
Package config loads Emberline's configuration with Koanf v2.

Sources are layered, later ones winning:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: $CONFIG_PATH, ./config.yaml, /etc/emberline/config.yaml
 3. Environment variables, mapped explicitly by envTransformFunc

Only CHANNEL_URLS is required. The first URL is the primary channel; every
other URL is auxiliary. Channels are named primary, aux-1, aux-2, ... unless
CHANNEL_NAMES lists one name per URL.

Example YAML:

	channels:
	  urls:
	    - wss://detector.example.net/stream
	    - wss://detector-b.example.net/stream
	  overflow_policy: evict
	control:
	  ack_duration: 2s
	archive:
	  path: /var/lib/emberline
	eventbus:
	  enabled: true
	  url: nats://nats:4222

Common environment variables:

	CHANNEL_URLS        comma-separated ws:// or wss:// URLs
	CHANNEL_NAMES       comma-separated names
	OVERFLOW_POLICY     evict | reset
	ACK_DURATION        acknowledgement visibility, e.g. 2s
	HTTP_PORT           API port (default 8470)
	CORS_ORIGINS        allowed dashboard origins
	LOG_LEVEL           trace | debug | info | warn | error
	ARCHIVE_ENABLED     persist snapshots in BadgerDB
	NATS_ENABLED        publish snapshots to NATS

Validation uses the go-playground validator registered in
internal/validation, so channel URLs are checked with the same wsurl rule
the rest of the service uses.
*/
package config
