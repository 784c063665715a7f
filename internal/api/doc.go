// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

/*
Package api serves Emberline's HTTP interface with the Chi router.

Endpoints (all JSON, wrapped in models.APIResponse):

	GET  /api/v1/health/live              liveness
	GET  /api/v1/health/ready             200 once the primary channel is connected
	GET  /api/v1/channels                 every channel, primary first
	GET  /api/v1/channels/{name}          one channel
	GET  /api/v1/channels/{name}/history  in-memory history (?limit=N)
	GET  /api/v1/channels/{name}/latest   newest snapshot
	GET  /api/v1/channels/{name}/archive  archived snapshots (?limit=N)
	GET  /api/v1/aggregate                consumer view of the primary
	POST /api/v1/radius                   {"radius": "12"}
	GET  /api/v1/ws                       dashboard WebSocket
	GET  /metrics                         Prometheus exposition
	GET  /swagger/*                       Swagger UI and doc.json

The OpenAPI document in the docs package is generated by swag from the
handler annotations; see cmd/server/docs.go.

Middleware order: request ID, real IP, panic recovery, CORS, then per-group
security headers, Prometheus metrics and httprate limits.

A radius submission that cannot be parsed, or that arrives while the
primary is disconnected, is accepted with "sent": false. The dashboard
shows no error in that case, only the absence of an acknowledgement.
*/
package api
