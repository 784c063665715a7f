// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package normalize

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/emberline/internal/models"
)

// EncodeWire renders a snapshot back into the backend's wire schema. The
// archive and event bus store this form so that readers re-validate through
// NormalizeJSON.
func EncodeWire(s *models.DetectionSnapshot) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("encode wire: nil snapshot")
	}

	out := wireSnapshotOut{
		Data:              make([]any, 0, len(s.Data)),
		RadiusInfo:        wireRadiusInfo{RadiusKm: ptr(s.RadiusKm)},
		Timestamp:         s.Timestamp,
		CenterCoordinates: wireCoords(s.CenterCoords),
		LastValidState:    make([]any, 0, len(s.LastValidState)),
	}

	for _, item := range s.Data {
		switch it := item.(type) {
		case *models.DetectionSuccess:
			out.Data = append(out.Data, wireSuccess{
				wireItemBase: wireBase(it.DetectionBase),
				wireReading:  wireReadingOf(it.Reading),
			})
		case *models.DetectionFailure:
			out.Data = append(out.Data, wireFailure{
				wireItemBase: wireBase(it.DetectionBase),
				Error:        ptr(it.Error),
			})
		default:
			return nil, fmt.Errorf("encode wire: unsupported detection item %T", item)
		}
	}

	for _, item := range s.LastValidState {
		switch it := item.(type) {
		case *models.LastValidFull:
			out.LastValidState = append(out.LastValidState, wireLastFull{
				wireLastMinimal: wireMinimal(it.LastValidMinimal),
				wireReading:     wireReadingOf(it.Reading),
			})
		case *models.LastValidMinimal:
			out.LastValidState = append(out.LastValidState, wireMinimal(*it))
		default:
			return nil, fmt.Errorf("encode wire: unsupported last-valid item %T", item)
		}
	}

	return json.Marshal(out)
}

func ptr[T any](v T) *T {
	return &v
}

func wireCoords(c models.Coordinates) wireCoordinates {
	return wireCoordinates{Latitude: ptr(c.Latitude), Longitude: ptr(c.Longitude)}
}

func wireCoordsPtr(c models.Coordinates) *wireCoordinates {
	wc := wireCoords(c)
	return &wc
}

func wireBase(b models.DetectionBase) wireItemBase {
	return wireItemBase{
		ID:                     ptr(b.ID),
		Coordinates:            wireCoordsPtr(b.Coordinates),
		FireCountWithinRadius:  ptr(float64(b.FireCountWithinRadius)),
		TotalCountWithinRadius: ptr(float64(b.TotalCountWithinRadius)),
	}
}

func wireMinimal(m models.LastValidMinimal) wireLastMinimal {
	return wireLastMinimal{
		ID:          ptr(m.ID),
		Coordinates: wireCoordsPtr(m.Coordinates),
		Connect:     ptr(m.Connect),
	}
}

func wirePixelOp(p models.PixelOperationResult) *wirePixelOperation {
	return &wirePixelOperation{Path: ptr(p.Path), WhitePercentage: ptr(p.WhitePercentage)}
}

func wireReadingOf(r models.Reading) wireReading {
	px := r.Results.Pixels
	yolo := r.Results.Yolo
	return wireReading{
		ImageInfo: &wireImageInfo{
			Name: ptr(r.ImageInfo.Name),
			Path: ptr(r.ImageInfo.Path),
			Type: ptr(r.ImageInfo.Type),
		},
		Results: &wireResults{
			Pixels: &wirePixels{
				Closed:       wirePixelOp(px.Closed),
				Dilated:      wirePixelOp(px.Dilated),
				Eroded:       wirePixelOp(px.Eroded),
				Opened:       wirePixelOp(px.Opened),
				OpenedClosed: wirePixelOp(px.OpenedClosed),
			},
			Yolo: &wireYolo{
				FireCount: ptr(float64(yolo.FireCount)),
				MaxProb:   ptr(yolo.MaxProb),
				MeanProb:  ptr(yolo.MeanProb),
				Path:      ptr(yolo.Path),
			},
		},
		Timestamp: ptr(r.Timestamp),
		Fire:      ptr(r.Fire),
	}
}
