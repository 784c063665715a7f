// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

/*
Package websocket pushes live detection state to dashboard clients.

The package uses gorilla/websocket with a hub-client architecture:

	┌──────────────┐     ┌──────────────┐
	│ Coordinator  │     │   Session    │
	└──────┬───────┘     └──────┬───────┘
	       │ Update             │ ack
	       └─────────┬──────────┘
	            ┌────┴────┐
	            │   Hub   │ ← broadcasts to all clients
	            └────┬────┘
	     ┌───────────┼───────────┐
	 ┌───┴───┐   ┌───┴───┐   ┌───┴───┐
	 │Client1│   │Client2│   │Client3│
	 └───────┘   └───────┘   └───────┘

Message types:

  - channel_state: status, radius and latest snapshot of one channel
  - aggregate: the primary-derived aggregate view
  - acknowledgement: the radius acknowledgement flag
  - ping / pong: client keepalive

A client that connects receives the current state of every channel, the
aggregate and the acknowledgement flag before any live update. Clients that
fall behind are disconnected rather than slowing the hub.

Usage:

	hub := websocket.NewHub()
	detach := hub.Attach(coord, session)
	defer detach()
	go hub.RunWithContext(ctx)

	// in an HTTP handler
	client := websocket.NewClient(hub, conn)
	hub.Register(client)
	client.Start()
*/
package websocket
