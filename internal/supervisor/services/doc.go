// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

/*
Package services provides suture.Service wrappers for Emberline components.

Each wrapper depends on a one-method interface rather than the concrete
type so it can be tested with a stub:

  - HTTPServerService: *http.Server (ListenAndServe/Shutdown)
  - WebSocketHubService: *websocket.Hub (RunWithContext)
  - CoordinatorService: *coordinator.Coordinator (Serve)
  - ArchiveGCService: *archive.Archive (Serve)

Wrappers return ctx.Err() on a normal shutdown. Components that report
they were closed explicitly are mapped to suture.ErrDoNotRestart so the
supervisor does not spin on a dead resource.
*/
package services
