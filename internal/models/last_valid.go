// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package models

import (
	"github.com/goccy/go-json"
)

// LastValidItem is the carried-forward state of one camera. Implementations
// are *LastValidMinimal and *LastValidFull.
type LastValidItem interface {
	Identity() LastValidMinimal
	Kind() string
	lastValidItem()
}

// LastValidMinimal identifies a camera and whether it answered this cycle,
// without any cached reading.
type LastValidMinimal struct {
	ID          string      `json:"id"`
	Coordinates Coordinates `json:"coordinates"`
	Connect     bool        `json:"connect"`
}

// LastValidFull is a camera's most recent successful reading.
type LastValidFull struct {
	LastValidMinimal
	Reading
}

func (m *LastValidMinimal) Identity() LastValidMinimal { return *m }
func (m *LastValidMinimal) Kind() string               { return KindLastMinimal }
func (*LastValidMinimal) lastValidItem()               {}

func (f *LastValidFull) Identity() LastValidMinimal { return f.LastValidMinimal }
func (f *LastValidFull) Kind() string               { return KindLastFull }
func (*LastValidFull) lastValidItem()               {}

// MarshalJSON adds the variant kind to the canonical form.
func (m *LastValidMinimal) MarshalJSON() ([]byte, error) {
	type plain LastValidMinimal
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*plain
	}{KindLastMinimal, (*plain)(m)})
}

// MarshalJSON adds the variant kind to the canonical form.
func (f *LastValidFull) MarshalJSON() ([]byte, error) {
	type plainMinimal LastValidMinimal
	return json.Marshal(struct {
		Kind string `json:"kind"`
		plainMinimal
		Reading
	}{KindLastFull, plainMinimal(f.LastValidMinimal), f.Reading})
}

// ResultsOf returns the cached results of a full entry. A minimal entry has
// none and yields ErrNoResults.
func ResultsOf(item LastValidItem) (Results, error) {
	switch it := item.(type) {
	case *LastValidFull:
		return it.Results, nil
	case *LastValidMinimal:
		return Results{}, ErrNoResults
	default:
		return Results{}, ErrNoResults
	}
}
