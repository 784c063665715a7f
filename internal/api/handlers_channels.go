// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/emberline/internal/channel"
	"github.com/tomtom215/emberline/internal/coordinator"
	"github.com/tomtom215/emberline/internal/models"
	ws "github.com/tomtom215/emberline/internal/websocket"
)

// HistoryRequest bounds the history and archive endpoints. Limit 0 means
// everything available.
type HistoryRequest struct {
	Limit int `validate:"min=0,max=10000"`
}

// HistoryResponse is one channel's snapshots, oldest first.
type HistoryResponse struct {
	Channel   string                      `json:"channel"`
	Count     int                         `json:"count"`
	Snapshots []*models.DetectionSnapshot `json:"snapshots"`
}

// Channels lists every channel in configuration order; the first is the
// primary.
//
// @Summary List channel states
// @Tags Channels
// @Produce json
// @Router /channels [get]
func (h *Handler) Channels(w http.ResponseWriter, r *http.Request) {
	states := h.coord.States()
	out := make([]ws.ChannelStateData, 0, len(states))
	for _, st := range states {
		out = append(out, ws.NewChannelStateData(st))
	}
	respondSuccess(w, r, http.StatusOK, out)
}

// Channel returns one channel's state summary.
//
// @Summary Get channel state
// @Tags Channels
// @Produce json
// @Router /channels/{name} [get]
func (h *Handler) Channel(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.lookupChannel(w, r)
	if !ok {
		return
	}
	respondSuccess(w, r, http.StatusOK, ws.NewChannelStateData(ch.State()))
}

// ChannelHistory returns the in-memory history of one channel.
//
// @Summary Get channel history
// @Tags Channels
// @Produce json
// @Param limit query int false "newest N snapshots"
// @Router /channels/{name}/history [get]
func (h *Handler) ChannelHistory(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.lookupChannel(w, r)
	if !ok {
		return
	}
	req, ok := parseHistoryRequest(w, r)
	if !ok {
		return
	}

	snaps := ch.State().History
	if req.Limit > 0 && len(snaps) > req.Limit {
		snaps = snaps[len(snaps)-req.Limit:]
	}
	respondSuccess(w, r, http.StatusOK, HistoryResponse{
		Channel:   ch.Name(),
		Count:     len(snaps),
		Snapshots: snaps,
	})
}

// ChannelLatest returns the newest snapshot of one channel, or 404 when it
// has received none.
//
// @Summary Get latest snapshot
// @Tags Channels
// @Produce json
// @Router /channels/{name}/latest [get]
func (h *Handler) ChannelLatest(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.lookupChannel(w, r)
	if !ok {
		return
	}
	latest := ch.State().Latest()
	if latest == nil {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "No snapshot received yet", nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, latest)
}

// ChannelArchive returns archived snapshots of one channel, oldest first.
//
// @Summary Get archived snapshots
// @Tags Channels
// @Produce json
// @Param limit query int false "newest N snapshots"
// @Router /channels/{name}/archive [get]
func (h *Handler) ChannelArchive(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Snapshot archive is disabled", nil)
		return
	}
	ch, ok := h.lookupChannel(w, r)
	if !ok {
		return
	}
	req, ok := parseHistoryRequest(w, r)
	if !ok {
		return
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultArchiveLimit
	}

	snaps, err := h.archive.Recent(ch.Name(), limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to read snapshot archive", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, HistoryResponse{
		Channel:   ch.Name(),
		Count:     len(snaps),
		Snapshots: snaps,
	})
}

// Aggregate returns the consumer view derived from the primary channel.
//
// @Summary Get aggregate state
// @Tags Channels
// @Produce json
// @Router /aggregate [get]
func (h *Handler) Aggregate(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, h.coord.Aggregate())
}

const defaultArchiveLimit = 100

func (h *Handler) lookupChannel(w http.ResponseWriter, r *http.Request) (*channel.Channel, bool) {
	name := chi.URLParam(r, "name")
	ch, err := h.coord.Channel(name)
	if errors.Is(err, coordinator.ErrUnknownChannel) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Unknown channel", nil)
		return nil, false
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Channel lookup failed", err)
		return nil, false
	}
	return ch, true
}

func parseHistoryRequest(w http.ResponseWriter, r *http.Request) (HistoryRequest, bool) {
	limit, ok := getIntParam(r, "limit", 0)
	if !ok {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "limit must be an integer", nil)
		return HistoryRequest{}, false
	}
	req := HistoryRequest{Limit: limit}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, r, apiErr)
		return HistoryRequest{}, false
	}
	return req, true
}
