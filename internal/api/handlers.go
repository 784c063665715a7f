// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/emberline/internal/coordinator"
	"github.com/tomtom215/emberline/internal/logging"
	"github.com/tomtom215/emberline/internal/models"
	ws "github.com/tomtom215/emberline/internal/websocket"
)

// SnapshotArchive reads archived snapshots, oldest first.
type SnapshotArchive interface {
	Recent(channel string, n int) ([]*models.DetectionSnapshot, error)
}

// RadiusSubmitter accepts free-text radius input from the dashboard.
type RadiusSubmitter interface {
	SubmitRadius(raw string) bool
	AcknowledgementVisible() bool
}

// Dependencies wires a Handler. Coordinator is required; the rest are
// optional and their endpoints answer 503 when absent.
type Dependencies struct {
	Coordinator *coordinator.Coordinator
	Control     RadiusSubmitter
	Hub         *ws.Hub
	Archive     SnapshotArchive

	// AllowedOrigins is checked against the Origin header of WebSocket
	// upgrades. "*" allows any origin.
	AllowedOrigins []string
}

// Handler contains dependencies for API handlers.
//
//   - handlers.go: Handler, constructor, WebSocket upgrade
//   - handlers_health.go: liveness and readiness checks
//   - handlers_channels.go: channel state, history, aggregate
//   - handlers_control.go: radius submission
type Handler struct {
	coord          *coordinator.Coordinator
	control        RadiusSubmitter
	hub            *ws.Hub
	archive        SnapshotArchive
	allowedOrigins []string
	startTime      time.Time
}

// NewHandler creates a new API handler.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		coord:          deps.Coordinator,
		control:        deps.Control,
		hub:            deps.Hub,
		archive:        deps.Archive,
		allowedOrigins: deps.AllowedOrigins,
		startTime:      time.Now(),
	}
}

// WebSocket upgrades the request and registers the client with the hub.
// The client immediately receives the current channel states, aggregate
// and acknowledgement.
//
// @Summary Dashboard push channel
// @Tags Channels
// @Produce json
// @Router /ws [get]
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "WebSocket service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register(client)
	client.Start()
}

func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin rejects upgrades without an Origin header and those
// from origins outside the allow list.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected: origin not allowed")
	return false
}
