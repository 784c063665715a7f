// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func sampleReading() Reading {
	return Reading{
		ImageInfo: ImageInfo{Name: "cam-1.jpg", Path: "/img/cam-1.jpg", Type: "jpeg"},
		Results: Results{
			Pixels: PixelResults{
				Closed:       PixelOperationResult{Path: "/p/closed", WhitePercentage: 1.5},
				Dilated:      PixelOperationResult{Path: "/p/dilated", WhitePercentage: 2.5},
				Eroded:       PixelOperationResult{Path: "/p/eroded", WhitePercentage: 0.5},
				Opened:       PixelOperationResult{Path: "/p/opened", WhitePercentage: 1},
				OpenedClosed: PixelOperationResult{Path: "/p/oc", WhitePercentage: 3},
			},
			Yolo: YoloResult{Path: "/y/1", FireCount: 2, MaxProb: 0.9, MeanProb: 0.6},
		},
		Timestamp: "2026-05-01T12:00:00Z",
		Fire:      true,
	}
}

func TestResultsOf(t *testing.T) {
	t.Parallel()

	full := &LastValidFull{
		LastValidMinimal: LastValidMinimal{ID: "cam-1", Connect: true},
		Reading:          sampleReading(),
	}
	minimal := &LastValidMinimal{ID: "cam-2", Connect: false}

	res, err := ResultsOf(full)
	if err != nil {
		t.Fatalf("ResultsOf(full) error = %v", err)
	}
	if res.Yolo.FireCount != 2 {
		t.Errorf("FireCount = %d, want 2", res.Yolo.FireCount)
	}

	if _, err := ResultsOf(minimal); !errors.Is(err, ErrNoResults) {
		t.Errorf("ResultsOf(minimal) error = %v, want ErrNoResults", err)
	}
	if full.Identity().ID != "cam-1" || minimal.Identity().ID != "cam-2" {
		t.Error("Identity() should expose the shared fields")
	}
}

func TestDetectionResults(t *testing.T) {
	t.Parallel()

	ok := &DetectionSuccess{DetectionBase: DetectionBase{ID: "a"}, Reading: sampleReading()}
	failed := &DetectionFailure{DetectionBase: DetectionBase{ID: "b"}, Error: "timeout"}

	if _, err := DetectionResults(ok); err != nil {
		t.Errorf("unexpected error for success: %v", err)
	}
	if _, err := DetectionResults(failed); !errors.Is(err, ErrNoResults) {
		t.Errorf("failure variant should yield ErrNoResults, got %v", err)
	}
	if ok.Kind() != KindSuccess || failed.Kind() != KindFailure {
		t.Error("unexpected kinds")
	}
}

func TestCanonicalJSON(t *testing.T) {
	t.Parallel()

	snap := &DetectionSnapshot{
		Data: []DetectionItem{
			&DetectionSuccess{DetectionBase: DetectionBase{ID: "a", FireCountWithinRadius: 2}, Reading: sampleReading()},
			&DetectionFailure{DetectionBase: DetectionBase{ID: "b", FireCountWithinRadius: 1}, Error: "timeout"},
		},
		RadiusKm:  10,
		Timestamp: 1000,
		LastValidState: []LastValidItem{
			&LastValidFull{LastValidMinimal: LastValidMinimal{ID: "a", Connect: true}, Reading: sampleReading()},
			&LastValidMinimal{ID: "b"},
		},
	}

	b, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	out := string(b)

	for _, want := range []string{
		`"kind":"success"`,
		`"kind":"failure"`,
		`"kind":"full"`,
		`"kind":"minimal"`,
		`"fireCountWithinRadius":2`,
		`"openedClosed":{"path":"/p/oc","whitePercentage":3}`,
		`"error":"timeout"`,
		`"radiusKm":10`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("canonical JSON missing %s:\n%s", want, out)
		}
	}

	var decoded struct {
		LastValidState []map[string]any `json:"lastValidState"`
	}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if _, ok := decoded.LastValidState[1]["results"]; ok {
		t.Error("minimal last-valid entry must not carry results")
	}
	if decoded.LastValidState[0]["id"] != "a" {
		t.Errorf("full entry id = %v", decoded.LastValidState[0]["id"])
	}
}

func TestSnapshotHelpers(t *testing.T) {
	t.Parallel()

	snap := &DetectionSnapshot{Data: []DetectionItem{
		&DetectionSuccess{DetectionBase: DetectionBase{ID: "a", FireCountWithinRadius: 2}},
		&DetectionFailure{DetectionBase: DetectionBase{ID: "b", FireCountWithinRadius: 1}},
	}}

	if got := snap.FireCount(); got != 3 {
		t.Errorf("FireCount() = %d, want 3", got)
	}
	if item, ok := snap.Find("b"); !ok || item.Kind() != KindFailure {
		t.Errorf("Find(b) = %v, %v", item, ok)
	}
	if _, ok := snap.Find("zzz"); ok {
		t.Error("Find should miss unknown ids")
	}
}

func TestPixelResultsGet(t *testing.T) {
	t.Parallel()

	p := sampleReading().Results.Pixels
	for _, op := range PixelOperations {
		if _, ok := p.Get(op); !ok {
			t.Errorf("Get(%s) missing", op)
		}
	}
	if r, _ := p.Get(PixelOpenedClosed); r.WhitePercentage != 3 {
		t.Errorf("openedClosed = %v", r.WhitePercentage)
	}
	if _, ok := p.Get("median"); ok {
		t.Error("unknown operation should miss")
	}
}
