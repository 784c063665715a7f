// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

// Package testinfra runs Docker containers for integration tests with
// testcontainers-go. The helpers build only with the integration tag:
//
//	go test -tags integration ./internal/eventbus/...
//
// Tests call SkipIfNoDocker first so the suite still passes on machines
// without a Docker daemon.
package testinfra
