// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

// Package history implements the bounded, insertion-ordered snapshot log kept
// by every detection channel.
//
// A Buffer is owned by exactly one goroutine. Slices returned by All are
// shared with readers and are never written again: the buffer only appends
// past every length it has handed out and allocates fresh storage when it
// evicts or resets.
package history

import (
	"fmt"
	"strings"

	"github.com/tomtom215/emberline/internal/models"
)

// DefaultCapacity is the number of snapshots kept per channel.
const DefaultCapacity = 100

// Policy selects what happens when an append would exceed capacity.
type Policy string

const (
	// PolicyEvict drops the oldest snapshot and keeps the newest Capacity.
	PolicyEvict Policy = "evict"

	// PolicyReset discards all history and keeps only the new snapshot.
	PolicyReset Policy = "reset"
)

// ParsePolicy converts a configuration string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyEvict, PolicyReset:
		return p, nil
	case "":
		return PolicyEvict, nil
	default:
		return "", fmt.Errorf("unknown overflow policy %q (want evict or reset)", s)
	}
}

// Buffer is a capacity-bounded, oldest-first sequence of snapshots.
type Buffer struct {
	capacity int
	policy   Policy
	entries  []*models.DetectionSnapshot
}

// New creates an empty buffer. A non-positive capacity falls back to
// DefaultCapacity and an empty policy to PolicyEvict.
func New(capacity int, policy Policy) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if policy == "" {
		policy = PolicyEvict
	}
	return &Buffer{
		capacity: capacity,
		policy:   policy,
		entries:  make([]*models.DetectionSnapshot, 0, capacity),
	}
}

// Append adds s as the newest entry. It reports true when the append
// overflowed capacity and the buffer's policy was applied.
func (b *Buffer) Append(s *models.DetectionSnapshot) (overflowed bool) {
	if len(b.entries) < b.capacity {
		b.entries = append(b.entries, s)
		return false
	}

	switch b.policy {
	case PolicyReset:
		fresh := make([]*models.DetectionSnapshot, 1, b.capacity)
		fresh[0] = s
		b.entries = fresh
	default:
		fresh := make([]*models.DetectionSnapshot, b.capacity, b.capacity)
		n := copy(fresh, b.entries[len(b.entries)-b.capacity+1:])
		fresh[n] = s
		b.entries = fresh[:n+1]
	}
	return true
}

// Latest returns the newest snapshot, or nil when empty.
func (b *Buffer) Latest() *models.DetectionSnapshot {
	if len(b.entries) == 0 {
		return nil
	}
	return b.entries[len(b.entries)-1]
}

// All returns the entries oldest-first. Callers must not modify the slice.
func (b *Buffer) All() []*models.DetectionSnapshot {
	return b.entries
}

// Len returns the number of stored snapshots.
func (b *Buffer) Len() int { return len(b.entries) }

// Cap returns the capacity bound.
func (b *Buffer) Cap() int { return b.capacity }

// Policy returns the overflow policy.
func (b *Buffer) Policy() Policy { return b.policy }

// Reset discards all entries.
func (b *Buffer) Reset() {
	b.entries = make([]*models.DetectionSnapshot, 0, b.capacity)
}

// Replace swaps the contents for snapshots, keeping only the newest Cap
// entries. Used when restoring from the archive.
func (b *Buffer) Replace(snapshots []*models.DetectionSnapshot) {
	if len(snapshots) > b.capacity {
		snapshots = snapshots[len(snapshots)-b.capacity:]
	}
	fresh := make([]*models.DetectionSnapshot, len(snapshots), b.capacity)
	copy(fresh, snapshots)
	b.entries = fresh
}
