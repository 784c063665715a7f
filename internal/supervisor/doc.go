// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

/*
Package supervisor provides process supervision for Emberline using suture v4.

The tree organizes long-running services into layers so a failure in one
layer restarts only that layer:

	RootSupervisor ("emberline")
	├── IngestSupervisor ("ingest-layer")
	│   └── CoordinatorService
	├── DataSupervisor ("data-layer")
	│   └── ArchiveGCService (if ARCHIVE_ENABLED)
	├── MessagingSupervisor ("messaging-layer")
	│   └── WebSocketHubService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Supervisor events (starts, failures, backoff) are logged through the
sutureslog adapter, which takes the *slog.Logger produced by
logging.NewSlogLogger so they share the zerolog output.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddIngestService(services.NewCoordinatorService(coord))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

Services that must never be restarted return suture.ErrDoNotRestart; the
coordinator service does this once the coordinator has been closed.
*/
package supervisor
