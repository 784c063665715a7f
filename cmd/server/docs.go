// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

// General API information for swag. Regenerate docs/ with:
//
//	swag init -g cmd/server/docs.go -o docs
//
// @title Emberline API
// @version 1.0
// @description Real-time ingestion of wildfire camera detection snapshots
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/emberline/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8470
// @BasePath /api/v1
// @schemes http https
//
// @tag.name Health
// @tag.description Liveness and readiness
//
// @tag.name Channels
// @tag.description Channel state, history and the merged aggregate
//
// @tag.name Control
// @tag.description Radius commands for the primary backend
package main
