// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

// Package archive keeps a durable per-channel log of accepted detection
// snapshots in BadgerDB.
//
// Snapshots are stored in their wire encoding under
// "snap:<channel>:<zero-padded timestamp>", so keys sort by arrival and every
// restored snapshot passes through the normalizer again. Each channel keeps
// at most Retain entries; older ones are pruned on write.
package archive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/tomtom215/emberline/internal/logging"
	"github.com/tomtom215/emberline/internal/metrics"
	"github.com/tomtom215/emberline/internal/models"
	"github.com/tomtom215/emberline/internal/normalize"
)

// SinkName identifies the archive in sink metrics.
const SinkName = "archive"

const keyPrefix = "snap:"

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("archive is closed")

	// ErrNilSnapshot is returned when a nil snapshot is appended.
	ErrNilSnapshot = errors.New("snapshot cannot be nil")

	// ErrNegativeTimestamp is returned for a snapshot that would sort out of
	// order under its key.
	ErrNegativeTimestamp = errors.New("snapshot timestamp cannot be negative")
)

// Archive is a BadgerDB-backed snapshot log. It is safe for concurrent use.
type Archive struct {
	db  *badger.DB
	cfg Config

	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the archive described by cfg.
func Open(cfg Config) (*Archive, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid archive config: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.MemTableSize = cfg.MemTableSize
	opts.NumCompactors = 2
	if cfg.Compression {
		opts.Compression = options.Snappy
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Int("retain", cfg.Retain).
		Msg("snapshot archive opened")

	return &Archive{db: db, cfg: cfg}, nil
}

func channelPrefix(channel string) []byte {
	return []byte(keyPrefix + channel + ":")
}

// snapshotKey zero-pads ts to 20 digits so byte order matches timestamp order.
// That only holds for ts >= 0, which Append enforces; normalize already
// bounds wire timestamps to [0, 2^53-1].
func snapshotKey(channel string, ts int64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", keyPrefix, channel, ts))
}

// Name implements coordinator.Sink.
func (a *Archive) Name() string { return SinkName }

// Deliver implements coordinator.Sink by appending snap.
func (a *Archive) Deliver(ctx context.Context, channel string, snap *models.DetectionSnapshot) error {
	return a.Append(ctx, channel, snap)
}

// Append stores snap for channel and prunes entries beyond Retain.
func (a *Archive) Append(ctx context.Context, channel string, snap *models.DetectionSnapshot) error {
	if snap == nil {
		return ErrNilSnapshot
	}
	if snap.Timestamp < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeTimestamp, snap.Timestamp)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}

	data, err := normalize.EncodeWire(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	err = a.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(snapshotKey(channel, snap.Timestamp), data))
	})
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	return a.prune(channel)
}

// prune deletes everything older than the newest Retain entries.
func (a *Archive) prune(channel string) error {
	var stale [][]byte
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := channelPrefix(channel)
		kept := 0
		for it.Seek(append(append([]byte{}, prefix...), 0xFF)); it.ValidForPrefix(prefix); it.Next() {
			kept++
			if kept > a.cfg.Retain {
				stale = append(stale, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil || len(stale) == 0 {
		return err
	}

	wb := a.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range stale {
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("prune snapshots: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

// Recent returns up to n of channel's newest snapshots, oldest first.
// Entries that no longer normalize are skipped and logged.
func (a *Archive) Recent(channel string, n int) ([]*models.DetectionSnapshot, error) {
	if n <= 0 {
		return nil, nil
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil, ErrClosed
	}

	var out []*models.DetectionSnapshot
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := channelPrefix(channel)
		for it.Seek(append(append([]byte{}, prefix...), 0xFF)); it.ValidForPrefix(prefix) && len(out) < n; it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				snap, err := normalize.NormalizeJSON(val)
				if err != nil {
					logging.Warn().
						Str("channel", channel).
						Str("key", string(item.Key())).
						Str("reason", normalize.ReasonOf(err)).
						Err(err).
						Msg("skipping unreadable archived snapshot")
					return nil
				}
				out = append(out, snap)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read snapshots: %w", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Count returns the number of snapshots stored for channel.
func (a *Archive) Count(channel string) (int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return 0, ErrClosed
	}

	n := 0
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := channelPrefix(channel)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// RunGC runs value-log garbage collection until nothing is left to rewrite.
// It reports whether any file was rewritten.
func (a *Archive) RunGC() (rewritten bool, err error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return false, ErrClosed
	}
	if a.cfg.InMemory {
		return false, nil
	}

	defer func() { metrics.RecordArchiveGC(rewritten, err) }()
	for {
		err := a.db.RunValueLogGC(a.cfg.GCRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return rewritten, nil
		}
		if err != nil {
			return rewritten, fmt.Errorf("run GC: %w", err)
		}
		rewritten = true
	}
}

// Serve runs RunGC every GCInterval until ctx is canceled.
func (a *Archive) Serve(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rewritten, err := a.RunGC()
			if errors.Is(err, ErrClosed) {
				return err
			}
			if err != nil {
				logging.Warn().Err(err).Msg("archive value-log GC failed")
				continue
			}
			if rewritten {
				logging.Debug().Msg("archive value-log GC reclaimed space")
			}
		}
	}
}

// Close flushes and closes the database. Close is idempotent.
func (a *Archive) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- a.db.Close() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
		logging.Info().Msg("snapshot archive closed")
		return nil
	case <-time.After(a.cfg.CloseTimeout):
		return fmt.Errorf("archive close timed out after %v", a.cfg.CloseTimeout)
	}
}
