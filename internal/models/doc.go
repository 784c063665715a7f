// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

/*
Package models defines the canonical detection data model for Emberline.

A DetectionSnapshot is one validated inbound message from a camera-processing
backend: an ordered list of per-camera readings plus the shared search radius,
centre point, capture timestamp and the carried-forward last-valid state.

Per-camera readings are sum types. DetectionItem is either *DetectionSuccess
or *DetectionFailure; LastValidItem is either *LastValidFull or
*LastValidMinimal. Both interfaces are sealed, so consumers branch with a type
switch before touching variant-only fields:

	switch it := item.(type) {
	case *models.DetectionSuccess:
	    use(it.Results.Yolo.FireCount)
	case *models.DetectionFailure:
	    report(it.Error)
	}

Values in this package are built once by the normalizer and never mutated
afterwards; they are shared freely between channels, the HTTP API and the
archive.

The package also carries the JSON envelope used by the HTTP API.
*/
package models
