// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package models

import (
	"errors"

	"github.com/goccy/go-json"
)

// ErrNoResults is returned when results are requested from a variant that
// does not carry them.
var ErrNoResults = errors.New("models: variant carries no results")

// Variant kinds as they appear in the canonical JSON "kind" field.
const (
	KindSuccess     = "success"
	KindFailure     = "failure"
	KindLastFull    = "full"
	KindLastMinimal = "minimal"
)

// Coordinates is a WGS84 position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ImageInfo references an image served by the backend. The bytes are never
// fetched here.
type ImageInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// PixelOperationResult is the outcome of one morphological pass.
type PixelOperationResult struct {
	Path            string  `json:"path"`
	WhitePercentage float64 `json:"whitePercentage"` // 0..100
}

// PixelOperation names one of the five morphological passes.
type PixelOperation string

const (
	PixelClosed       PixelOperation = "closed"
	PixelDilated      PixelOperation = "dilated"
	PixelEroded       PixelOperation = "eroded"
	PixelOpened       PixelOperation = "opened"
	PixelOpenedClosed PixelOperation = "openedClosed"
)

// PixelOperations lists every pass in wire order.
var PixelOperations = []PixelOperation{
	PixelClosed, PixelDilated, PixelEroded, PixelOpened, PixelOpenedClosed,
}

// PixelResults holds all five passes.
type PixelResults struct {
	Closed       PixelOperationResult `json:"closed"`
	Dilated      PixelOperationResult `json:"dilated"`
	Eroded       PixelOperationResult `json:"eroded"`
	Opened       PixelOperationResult `json:"opened"`
	OpenedClosed PixelOperationResult `json:"openedClosed"`
}

// Get returns the result for op, or false for an unknown operation.
func (p PixelResults) Get(op PixelOperation) (PixelOperationResult, bool) {
	switch op {
	case PixelClosed:
		return p.Closed, true
	case PixelDilated:
		return p.Dilated, true
	case PixelEroded:
		return p.Eroded, true
	case PixelOpened:
		return p.Opened, true
	case PixelOpenedClosed:
		return p.OpenedClosed, true
	default:
		return PixelOperationResult{}, false
	}
}

// YoloResult is the object-detector summary for one image.
type YoloResult struct {
	Path      string  `json:"path"`
	FireCount uint    `json:"fireCount"`
	MaxProb   float64 `json:"maxProb"`  // 0..1
	MeanProb  float64 `json:"meanProb"` // 0..1
}

// Results groups the pixel and detector outputs of a successful reading.
type Results struct {
	Pixels PixelResults `json:"pixels"`
	Yolo   YoloResult   `json:"yolo"`
}

// Reading is the payload shared by successful detections and full
// last-valid entries.
type Reading struct {
	ImageInfo ImageInfo `json:"imageInfo"`
	Results   Results   `json:"results"`
	Timestamp string    `json:"timestamp"` // producer-assigned capture time
	Fire      bool      `json:"fire"`
}

// DetectionBase holds the fields common to both detection variants.
type DetectionBase struct {
	ID                     string      `json:"id"`
	Coordinates            Coordinates `json:"coordinates"`
	FireCountWithinRadius  uint        `json:"fireCountWithinRadius"`
	TotalCountWithinRadius uint        `json:"totalCountWithinRadius"`
}

// DetectionItem is one camera's entry in a snapshot. Implementations are
// *DetectionSuccess and *DetectionFailure.
type DetectionItem interface {
	Base() DetectionBase
	Kind() string
	detectionItem()
}

// DetectionSuccess is a camera that produced a reading this cycle.
type DetectionSuccess struct {
	DetectionBase
	Reading
}

// DetectionFailure is a camera whose reading failed this cycle.
type DetectionFailure struct {
	DetectionBase
	Error string `json:"error"` // opaque backend diagnostic
}

func (d *DetectionSuccess) Base() DetectionBase { return d.DetectionBase }
func (d *DetectionSuccess) Kind() string        { return KindSuccess }
func (*DetectionSuccess) detectionItem()        {}

func (d *DetectionFailure) Base() DetectionBase { return d.DetectionBase }
func (d *DetectionFailure) Kind() string        { return KindFailure }
func (*DetectionFailure) detectionItem()        {}

// MarshalJSON adds the variant kind to the canonical form.
func (d *DetectionSuccess) MarshalJSON() ([]byte, error) {
	type plain DetectionSuccess
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*plain
	}{KindSuccess, (*plain)(d)})
}

// MarshalJSON adds the variant kind to the canonical form.
func (d *DetectionFailure) MarshalJSON() ([]byte, error) {
	type plain DetectionFailure
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*plain
	}{KindFailure, (*plain)(d)})
}

// DetectionResults returns the results of a successful detection, or
// ErrNoResults for a failed one.
func DetectionResults(item DetectionItem) (Results, error) {
	switch it := item.(type) {
	case *DetectionSuccess:
		return it.Results, nil
	default:
		return Results{}, ErrNoResults
	}
}

// DetectionSnapshot is one validated inbound message. Timestamp (epoch
// milliseconds) identifies the snapshot within its channel.
type DetectionSnapshot struct {
	Data           []DetectionItem `json:"data"`
	CenterCoords   Coordinates     `json:"centerCoords"`
	RadiusKm       float64         `json:"radiusKm"`
	Timestamp      int64           `json:"timestamp"`
	LastValidState []LastValidItem `json:"lastValidState"`
}

// FireCount sums FireCountWithinRadius over every camera in the snapshot.
func (s *DetectionSnapshot) FireCount() uint {
	var n uint
	for _, item := range s.Data {
		n += item.Base().FireCountWithinRadius
	}
	return n
}

// Find returns the detection for camera id.
func (s *DetectionSnapshot) Find(id string) (DetectionItem, bool) {
	for _, item := range s.Data {
		if item.Base().ID == id {
			return item, true
		}
	}
	return nil, false
}
