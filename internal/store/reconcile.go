package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"github.com/clips-workspace/clipd/pkg/clip"
)

// Reconcile is the self-healing sweep. It rebuilds payload refcounts
// from the entries table, reclaims orphaned payloads and stray blob
// files, re-adopts blobs for entries whose payload row went missing,
// and restores the in-memory accounting. Runs at startup and
// periodically while the watch daemon is up. All repairs are logged,
// never fatal; only database failures surface as errors.
func (s *Store) Reconcile(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payloads, err := gorm.G[Payload](s.db).Find(ctx)
	if err != nil {
		return err
	}

	live := make(map[clip.Digest]struct{}, len(payloads))
	for _, p := range payloads {
		var refs int64
		err := s.db.WithContext(ctx).Model(&clip.Entry{}).
			Where("digest = ?", p.Digest).
			Count(&refs).Error
		if err != nil {
			return err
		}

		if refs == 0 {
			slog.Warn(
				"reclaiming orphaned payload",
				"digest", p.Digest,
				"size", p.SizeBytes,
				"error", ErrInconsistent,
			)
			if err := s.db.WithContext(ctx).Delete(&Payload{}, "digest = ?", p.Digest).Error; err != nil {
				return err
			}
			if err := s.removeBlob(p.Path); err != nil {
				slog.Warn("failed to remove orphaned blob", "digest", p.Digest, "error", err)
			}
			continue
		}

		if refs != p.RefCount {
			slog.Warn(
				"repairing payload refcount",
				"digest", p.Digest,
				"stored", p.RefCount,
				"actual", refs,
				"error", ErrInconsistent,
			)
			err := s.db.WithContext(ctx).Model(&Payload{}).
				Where("digest = ?", p.Digest).
				Update("ref_count", refs).Error
			if err != nil {
				return err
			}
		}

		live[p.Digest] = struct{}{}
	}

	// Entries referencing a missing payload row violate the resolve
	// invariant: re-adopt the blob when the file survived, drop the
	// entry otherwise.
	entries, err := gorm.G[clip.Entry](s.db).Find(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if _, ok := live[e.Digest]; ok {
			continue
		}

		path := s.blobPath(e.Digest)
		if _, statErr := os.Stat(path); statErr == nil {
			slog.Warn(
				"re-adopting blob for entry with missing payload row",
				"id", e.ID,
				"digest", e.Digest,
				"error", ErrInconsistent,
			)
			p := Payload{Digest: e.Digest, SizeBytes: e.SizeBytes, RefCount: 1, Path: path}
			if err := gorm.G[Payload](s.db).Create(ctx, &p); err != nil {
				return err
			}
			live[e.Digest] = struct{}{}
			continue
		}

		slog.Warn(
			"dropping entry with unrecoverable payload",
			"id", e.ID,
			"digest", e.Digest,
			"error", ErrInconsistent,
		)
		if err := s.db.WithContext(ctx).Delete(&clip.Entry{}, "id = ?", e.ID).Error; err != nil {
			return err
		}
	}

	// Stray blob files with no payload row.
	blobDir := filepath.Join(s.dir, "blob")
	dirents, err := os.ReadDir(blobDir)
	if err != nil {
		return err
	}
	for _, de := range dirents {
		if de.IsDir() {
			continue
		}
		if _, ok := live[clip.Digest(de.Name())]; ok {
			continue
		}
		slog.Warn("removing stray blob file", "name", de.Name(), "error", ErrInconsistent)
		if err := s.removeBlob(filepath.Join(blobDir, de.Name())); err != nil {
			slog.Warn("failed to remove stray blob", "name", de.Name(), "error", err)
		}
	}

	return s.reloadAccountingLocked(ctx)
}

// reloadAccountingLocked recomputes entry count, byte totals and the
// recency high-water mark from the database. Caller holds s.mu.
func (s *Store) reloadAccountingLocked(ctx context.Context) error {
	var entries int64
	if err := s.db.WithContext(ctx).Model(&clip.Entry{}).Count(&entries).Error; err != nil {
		return err
	}

	var totalBytes int64
	err := s.db.WithContext(ctx).
		Raw("SELECT COALESCE(SUM(size_bytes), 0) FROM payloads").
		Scan(&totalBytes).Error
	if err != nil {
		return err
	}

	var recency uint64
	err = s.db.WithContext(ctx).
		Raw("SELECT COALESCE(MAX(recency), 0) FROM entries").
		Scan(&recency).Error
	if err != nil {
		return err
	}

	s.entries = entries
	s.totalBytes = totalBytes
	s.recency = recency
	return nil
}
