// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

/*
Package main is the entry point for the Emberline server.

Emberline keeps persistent WebSocket connections to one or more wildfire
camera detection backends, validates and buffers their snapshots, forwards
radius commands to the primary backend and serves the merged state to
dashboards over HTTP and WebSocket.

# Application Architecture

	RootSupervisor ("emberline")
	├── IngestSupervisor ("ingest-layer")
	│   └── Channel coordinator (one actor per backend)
	├── DataSupervisor ("data-layer")
	│   └── Archive value-log GC (when ARCHIVE_ENABLED)
	├── MessagingSupervisor ("messaging-layer")
	│   └── WebSocket Hub
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Initialization order:

 1. .env file (godotenv, optional)
 2. Configuration: Koanf v2, see internal/config
 3. Logging: zerolog
 4. Snapshot archive: BadgerDB, restored into channel history
 5. Channel coordinator with archive and NATS sinks
 6. Control session on the primary channel
 7. WebSocket hub attached to the coordinator and session
 8. Chi router and HTTP server
 9. Supervisor tree

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains within
HTTP_SHUTDOWN_TIMEOUT, then the coordinator, archive and event bus close.

# Example Usage

	export CHANNEL_URLS=wss://detector.example.net/stream,wss://detector-b.example.net/stream
	export CORS_ORIGINS=https://dashboard.example.net
	export ARCHIVE_PATH=/var/lib/emberline
	./emberline
*/
package main
