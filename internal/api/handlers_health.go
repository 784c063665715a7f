// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/emberline/internal/channel"
)

// HealthLive reports that the process is up, regardless of backends.
//
// @Summary Kubernetes liveness check
// @Tags Health
// @Produce json
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, map[string]any{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady answers 200 once the primary channel is connected, 503
// otherwise. Auxiliary channels do not affect readiness.
//
// @Summary Kubernetes readiness check
// @Tags Health
// @Produce json
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	primary := h.coord.Primary().State()
	ready := primary.Status == channel.StatusConnected

	connected := 0
	for _, st := range h.coord.States() {
		if st.Status == channel.StatusConnected {
			connected++
		}
	}

	data := map[string]any{
		"ready_to_serve":     ready,
		"primary":            primary.Name,
		"primary_status":     primary.Status,
		"channels_connected": connected,
		"channels_total":     len(h.coord.Channels()),
		"is_loaded":          primary.IsLoaded(),
		"uptime":             time.Since(h.startTime).Seconds(),
	}

	if !ready {
		respondJSON(w, r, http.StatusServiceUnavailable, newEnvelope("not_ready", data))
		return
	}
	respondJSON(w, r, http.StatusOK, newEnvelope("ready", data))
}
