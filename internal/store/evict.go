package store

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/clips-workspace/clipd/pkg/clip"
)

// evict enforces the configured entry-count and byte-size bounds,
// retiring entries from the least-recently-used end of the index and
// skipping pinned entries. Runs after every successful append or
// touch.
//
// Eviction is all-or-nothing per entry: the index row goes first and a
// failed payload release leaves the entry evicted regardless. The
// index is the source of truth for user-visible history.
func (s *Store) evict(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.exceededLocked() {
		var victim clip.Entry
		err := s.db.WithContext(ctx).
			Where("pinned = ?", false).
			Order("recency asc").
			First(&victim).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Only pinned entries remain. Terminal, reported condition.
			slog.Warn(
				"capacity bounds exceeded but only pinned entries remain",
				"entries", s.entries,
				"bytes", s.totalBytes,
				"max_entries", s.opts.MaxEntries,
				"max_bytes", s.opts.MaxBytes,
			)
			return nil
		}
		if err != nil {
			return err
		}

		if _, err := s.removeEntryLocked(ctx, victim.ID); err != nil {
			return err
		}
		if err := s.releasePayloadLocked(ctx, victim.Digest); err != nil {
			slog.Warn(
				"failed to release payload for evicted entry",
				"id", victim.ID,
				"digest", victim.Digest,
				"error", err,
			)
		}

		slog.Debug(
			"evicted entry",
			"id", victim.ID,
			"digest", victim.Digest,
			"size", victim.SizeBytes,
		)
	}

	return nil
}

// exceededLocked reports whether either capacity bound is exceeded.
// Caller holds s.mu.
func (s *Store) exceededLocked() bool {
	if s.opts.MaxEntries > 0 && s.entries > int64(s.opts.MaxEntries) {
		return true
	}
	if s.opts.MaxBytes > 0 && s.totalBytes > s.opts.MaxBytes {
		return true
	}
	return false
}
