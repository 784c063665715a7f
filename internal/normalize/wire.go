// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package normalize

import (
	"github.com/goccy/go-json"
)

// Wire types mirror the backend's snake_case schema. Pointer fields make
// presence checkable by the validator's "required" tag.

type wireCoordinates struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

type wireImageInfo struct {
	Name *string `json:"name" validate:"required"`
	Path *string `json:"path" validate:"required"`
	Type *string `json:"type" validate:"required"`
}

type wirePixelOperation struct {
	Path            *string  `json:"path" validate:"required"`
	WhitePercentage *float64 `json:"white_percentage" validate:"required,gte=0,lte=100"`
}

type wirePixels struct {
	Closed       *wirePixelOperation `json:"closed" validate:"required"`
	Dilated      *wirePixelOperation `json:"dilated" validate:"required"`
	Eroded       *wirePixelOperation `json:"eroded" validate:"required"`
	Opened       *wirePixelOperation `json:"opened" validate:"required"`
	OpenedClosed *wirePixelOperation `json:"opened_closed" validate:"required"`
}

type wireYolo struct {
	FireCount *float64 `json:"fire_count" validate:"required,gte=0,integral"`
	MaxProb   *float64 `json:"max_prob" validate:"required,gte=0,lte=1"`
	MeanProb  *float64 `json:"mean_prob" validate:"required,gte=0,lte=1"`
	Path      *string  `json:"path" validate:"required"`
}

type wireResults struct {
	Pixels *wirePixels `json:"pixels" validate:"required"`
	Yolo   *wireYolo   `json:"yolo" validate:"required"`
}

type wireReading struct {
	ImageInfo *wireImageInfo `json:"image_info" validate:"required"`
	Results   *wireResults   `json:"results" validate:"required"`
	Timestamp *string        `json:"timestamp" validate:"required"`
	Fire      *bool          `json:"fire" validate:"required"`
}

type wireItemBase struct {
	ID                     *string          `json:"id" validate:"required"`
	Coordinates            *wireCoordinates `json:"coordinates" validate:"required"`
	FireCountWithinRadius  *float64         `json:"fire_count_within_radius" validate:"required,gte=0,integral"`
	TotalCountWithinRadius *float64         `json:"total_count_within_radius" validate:"required,gte=0,integral"`
}

type wireSuccess struct {
	wireItemBase
	wireReading
}

type wireFailure struct {
	wireItemBase
	Error *string `json:"error" validate:"required"`
}

type wireLastMinimal struct {
	ID          *string          `json:"id" validate:"required"`
	Coordinates *wireCoordinates `json:"coordinates" validate:"required"`
	Connect     *bool            `json:"connect" validate:"required"`
}

type wireLastFull struct {
	wireLastMinimal
	wireReading
}

type wireRadiusInfo struct {
	RadiusKm *float64 `json:"radius_km" validate:"required,gt=0"`
}

// wireSnapshot leaves the union arrays raw; each element is discriminated
// separately.
type wireSnapshot struct {
	Data              []json.RawMessage `json:"data" validate:"required"`
	RadiusInfo        *wireRadiusInfo   `json:"radius_info" validate:"required"`
	Timestamp         *float64          `json:"timestamp" validate:"required,gte=0,integral"`
	CenterCoordinates *wireCoordinates  `json:"center_coordinates" validate:"required"`
	LastValidState    []json.RawMessage `json:"last_valid_state" validate:"required"`
}

// wireSnapshotOut is the encode-side counterpart of wireSnapshot.
type wireSnapshotOut struct {
	Data              []any           `json:"data"`
	RadiusInfo        wireRadiusInfo  `json:"radius_info"`
	Timestamp         int64           `json:"timestamp"`
	CenterCoordinates wireCoordinates `json:"center_coordinates"`
	LastValidState    []any           `json:"last_valid_state"`
}
