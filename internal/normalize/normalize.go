// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

// Package normalize validates raw detection messages and reshapes them into
// the canonical models.DetectionSnapshot.
//
// Normalization is a pure function: it holds no state, performs no I/O and is
// safe to call from every channel goroutine at once. A payload that fails
// validation is returned as a *RejectError and never reaches history.
package normalize

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/emberline/internal/models"
	"github.com/tomtom215/emberline/internal/validation"
)

// Normalize validates an already-decoded payload. []byte and
// json.RawMessage are treated as encoded JSON.
func Normalize(raw any) (*models.DetectionSnapshot, error) {
	switch v := raw.(type) {
	case []byte:
		return NormalizeJSON(v)
	case json.RawMessage:
		return NormalizeJSON(v)
	case nil:
		return nil, malformed(ReasonDecode, "", fmt.Errorf("nil payload"))
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return nil, malformed(ReasonDecode, "", err)
	}
	return NormalizeJSON(b)
}

// NormalizeJSON validates one encoded message.
func NormalizeJSON(data []byte) (*models.DetectionSnapshot, error) {
	var ws wireSnapshot
	if err := decodeObject(data, &ws); err != nil {
		return nil, malformed(ReasonDecode, "", err)
	}
	if verr := validation.ValidateStruct(&ws); verr != nil {
		return nil, malformed(ReasonInvalidSnapshot, "", verr)
	}

	snap := &models.DetectionSnapshot{
		Data:           make([]models.DetectionItem, 0, len(ws.Data)),
		CenterCoords:   coordinates(ws.CenterCoordinates),
		RadiusKm:       *ws.RadiusInfo.RadiusKm,
		Timestamp:      int64(*ws.Timestamp),
		LastValidState: make([]models.LastValidItem, 0, len(ws.LastValidState)),
	}

	seen := make(map[string]struct{}, len(ws.Data))
	for i, raw := range ws.Data {
		path := fmt.Sprintf("data[%d]", i)
		item, err := detectionItem(raw, path)
		if err != nil {
			return nil, err
		}
		id := item.Base().ID
		if _, dup := seen[id]; dup {
			return nil, malformed(ReasonDuplicateID, path, fmt.Errorf("camera %q listed twice", id))
		}
		seen[id] = struct{}{}
		snap.Data = append(snap.Data, item)
	}

	for i, raw := range ws.LastValidState {
		item, err := lastValidItem(raw, fmt.Sprintf("last_valid_state[%d]", i))
		if err != nil {
			return nil, err
		}
		snap.LastValidState = append(snap.LastValidState, item)
	}

	return snap, nil
}

// decodeObject rejects anything but a JSON object before decoding, so that
// null or scalars never produce a zero-valued struct.
func decodeObject(data []byte, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("expected JSON object")
	}
	return json.Unmarshal(trimmed, v)
}

// detectionItem tries the success shape first, then the error shape.
func detectionItem(raw json.RawMessage, path string) (models.DetectionItem, error) {
	var ok wireSuccess
	successErr := decodeAndValidate(raw, &ok)
	if successErr == nil {
		return &models.DetectionSuccess{
			DetectionBase: detectionBase(&ok.wireItemBase),
			Reading:       reading(&ok.wireReading),
		}, nil
	}

	var failed wireFailure
	failureErr := decodeAndValidate(raw, &failed)
	if failureErr == nil {
		return &models.DetectionFailure{
			DetectionBase: detectionBase(&failed.wireItemBase),
			Error:         *failed.Error,
		}, nil
	}

	keys := objectKeys(raw)
	switch {
	case keys["image_info"] || keys["results"]:
		return nil, malformed(ReasonInvalidItem, path, successErr)
	case keys["error"]:
		return nil, malformed(ReasonInvalidItem, path, failureErr)
	default:
		return nil, &RejectError{
			Reason: ReasonUnknownVariant,
			Path:   path,
			Err:    fmt.Errorf("%w: neither error nor image_info present", ErrUnknownVariant),
		}
	}
}

// lastValidItem tries the full shape first, then the minimal shape.
func lastValidItem(raw json.RawMessage, path string) (models.LastValidItem, error) {
	var full wireLastFull
	if err := decodeAndValidate(raw, &full); err == nil {
		return &models.LastValidFull{
			LastValidMinimal: lastMinimal(&full.wireLastMinimal),
			Reading:          reading(&full.wireReading),
		}, nil
	}

	var minimal wireLastMinimal
	if err := decodeAndValidate(raw, &minimal); err != nil {
		return nil, malformed(ReasonInvalidLastValid, path, err)
	}
	m := lastMinimal(&minimal)
	return &m, nil
}

func decodeAndValidate(raw json.RawMessage, v any) error {
	if err := decodeObject(raw, v); err != nil {
		return err
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		return verr
	}
	return nil
}

func objectKeys(raw json.RawMessage) map[string]bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	keys := make(map[string]bool, len(fields))
	for k := range fields {
		keys[k] = true
	}
	return keys
}

func coordinates(c *wireCoordinates) models.Coordinates {
	return models.Coordinates{Latitude: *c.Latitude, Longitude: *c.Longitude}
}

func detectionBase(b *wireItemBase) models.DetectionBase {
	return models.DetectionBase{
		ID:                     *b.ID,
		Coordinates:            coordinates(b.Coordinates),
		FireCountWithinRadius:  uint(*b.FireCountWithinRadius),
		TotalCountWithinRadius: uint(*b.TotalCountWithinRadius),
	}
}

func lastMinimal(m *wireLastMinimal) models.LastValidMinimal {
	return models.LastValidMinimal{
		ID:          *m.ID,
		Coordinates: coordinates(m.Coordinates),
		Connect:     *m.Connect,
	}
}

func pixelOperation(p *wirePixelOperation) models.PixelOperationResult {
	return models.PixelOperationResult{Path: *p.Path, WhitePercentage: *p.WhitePercentage}
}

func reading(r *wireReading) models.Reading {
	px := r.Results.Pixels
	yolo := r.Results.Yolo
	return models.Reading{
		ImageInfo: models.ImageInfo{
			Name: *r.ImageInfo.Name,
			Path: *r.ImageInfo.Path,
			Type: *r.ImageInfo.Type,
		},
		Results: models.Results{
			Pixels: models.PixelResults{
				Closed:       pixelOperation(px.Closed),
				Dilated:      pixelOperation(px.Dilated),
				Eroded:       pixelOperation(px.Eroded),
				Opened:       pixelOperation(px.Opened),
				OpenedClosed: pixelOperation(px.OpenedClosed),
			},
			Yolo: models.YoloResult{
				Path:      *yolo.Path,
				FireCount: uint(*yolo.FireCount),
				MaxProb:   *yolo.MaxProb,
				MeanProb:  *yolo.MeanProb,
			},
		},
		Timestamp: *r.Timestamp,
		Fire:      *r.Fire,
	}
}
