// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package models

import (
	"time"
)

// APIResponse is the envelope returned by every HTTP endpoint.
//
//	{
//	  "status": "success",
//	  "data": {"radius_km": 10, "is_loaded": true},
//	  "metadata": {"timestamp": "2026-05-01T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// APIError carries a machine-readable code and a human-readable message.
//
// Common codes: VALIDATION_ERROR, NOT_FOUND, RATE_LIMIT_EXCEEDED,
// SERVICE_UNAVAILABLE, INTERNAL_ERROR.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
