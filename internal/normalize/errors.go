// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package normalize

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed marks a payload that is not valid JSON or violates the schema.
	ErrMalformed = errors.New("malformed detection payload")

	// ErrUnknownVariant marks a union element matching neither variant shape.
	ErrUnknownVariant = errors.New("unknown detection variant")

	// ErrStale marks a snapshot that is not newer than the channel's latest.
	ErrStale = errors.New("stale detection snapshot")
)

// Rejection reasons, used as the metrics label and log field.
const (
	ReasonDecode           = "decode"
	ReasonInvalidSnapshot  = "invalid_snapshot"
	ReasonInvalidItem      = "invalid_item"
	ReasonUnknownVariant   = "unknown_variant"
	ReasonInvalidLastValid = "invalid_last_valid"
	ReasonDuplicateID      = "duplicate_id"
	ReasonStale            = "stale"
)

// RejectError describes why a payload was dropped.
type RejectError struct {
	Reason string
	// Path locates the offending element, e.g. "data[3]". Empty for
	// snapshot-level failures.
	Path string
	Err  error
}

func (e *RejectError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("normalize: %s at %s: %v", e.Reason, e.Path, e.Err)
	}
	return fmt.Sprintf("normalize: %s: %v", e.Reason, e.Err)
}

func (e *RejectError) Unwrap() error {
	return e.Err
}

// Reject builds a RejectError for reasons detected outside the normalizer,
// such as a stale snapshot.
func Reject(reason string, err error) *RejectError {
	return &RejectError{Reason: reason, Err: err}
}

// ReasonOf extracts the rejection reason from err, or "unknown".
func ReasonOf(err error) string {
	var re *RejectError
	if errors.As(err, &re) {
		return re.Reason
	}
	return "unknown"
}

func malformed(reason, path string, cause error) *RejectError {
	return &RejectError{Reason: reason, Path: path, Err: fmt.Errorf("%w: %w", ErrMalformed, cause)}
}
