// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package api

import (
	"net/http"
)

// RadiusRequest carries the raw text a user typed into the radius field.
type RadiusRequest struct {
	Radius string `json:"radius" validate:"max=64"`
}

// RadiusResponse reports whether a command was transmitted on the primary
// channel and whether the acknowledgement is now showing.
type RadiusResponse struct {
	Sent                   bool `json:"sent"`
	AcknowledgementVisible bool `json:"acknowledgementVisible"`
}

// SubmitRadius forwards a radius change to the primary channel.
//
// Input that does not start with an integer, or a primary that is not
// connected, is not an error: the request is accepted with sent=false and
// nothing is transmitted.
//
// @Summary Change the detection radius
// @Tags Control
// @Produce json
// @Accept json
// @Param body body RadiusRequest true "raw radius input"
// @Success 202 {object} models.APIResponse{data=RadiusResponse}
// @Router /radius [post]
func (h *Handler) SubmitRadius(w http.ResponseWriter, r *http.Request) {
	if h.control == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Radius control unavailable", nil)
		return
	}

	var req RadiusRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "Request body must be {\"radius\": \"<text>\"}", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, r, apiErr)
		return
	}

	sent := h.control.SubmitRadius(req.Radius)
	respondSuccess(w, r, http.StatusAccepted, RadiusResponse{
		Sent:                   sent,
		AcknowledgementVisible: h.control.AcknowledgementVisible(),
	})
}
