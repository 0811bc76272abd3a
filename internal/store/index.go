package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/clips-workspace/clipd/pkg/clip"
)

// FindByDigest returns the entry referencing digest. This is the O(1)
// reverse lookup backing dedup (unique index on digest).
func (s *Store) FindByDigest(ctx context.Context, d clip.Digest) (clip.Entry, error) {
	var e clip.Entry
	err := s.db.WithContext(ctx).First(&e, "digest = ?", d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return e, fmt.Errorf("%w: digest %s", ErrNotFound, d)
	}
	return e, err
}

// Get returns the entry with the given id.
func (s *Store) Get(ctx context.Context, id uint) (clip.Entry, error) {
	var e clip.Entry
	err := s.db.WithContext(ctx).First(&e, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return e, fmt.Errorf("%w: entry %d", ErrNotFound, id)
	}
	return e, err
}

// appendEntryLocked inserts entry at the most-recent end, assigning
// the next monotonic id (sqlite rowid) and recency. Caller holds s.mu.
func (s *Store) appendEntryLocked(ctx context.Context, e *clip.Entry) error {
	s.recency++
	e.Recency = s.recency
	if err := gorm.G[clip.Entry](s.db).Create(ctx, e); err != nil {
		return err
	}
	s.entries++
	return nil
}

// touchEntryLocked moves entry to the most-recent position and bumps
// last_accessed_at, without changing its id or digest. Caller holds
// s.mu.
func (s *Store) touchEntryLocked(ctx context.Context, e *clip.Entry) error {
	s.recency++
	e.Recency = s.recency
	e.LastAccessedAt = time.Now()
	return s.db.WithContext(ctx).Model(&clip.Entry{}).
		Where("id = ?", e.ID).
		Updates(map[string]any{
			"recency":          e.Recency,
			"last_accessed_at": e.LastAccessedAt,
		}).Error
}

// removeEntryLocked deletes the index row and returns it so the caller
// can release the payload reference. Caller holds s.mu.
func (s *Store) removeEntryLocked(ctx context.Context, id uint) (clip.Entry, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return e, err
	}
	if err := s.db.WithContext(ctx).Delete(&clip.Entry{}, "id = ?", id).Error; err != nil {
		return e, err
	}
	s.entries--
	return e, nil
}

// ListRecent returns up to limit entries, most recent first. A limit
// of zero returns everything.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]clip.Entry, error) {
	q := s.db.WithContext(ctx).Order("recency desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var entries []clip.Entry
	return entries, q.Find(&entries).Error
}

// Pin marks an entry exempt from eviction.
func (s *Store) Pin(ctx context.Context, id uint) error {
	return s.setPinned(ctx, id, true)
}

// Unpin clears the eviction exemption.
func (s *Store) Unpin(ctx context.Context, id uint) error {
	return s.setPinned(ctx, id, false)
}

func (s *Store) setPinned(ctx context.Context, id uint, pinned bool) error {
	res := s.db.WithContext(ctx).Model(&clip.Entry{}).
		Where("id = ?", id).
		Update("pinned", pinned)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: entry %d", ErrNotFound, id)
	}
	return nil
}

// Delete removes entries by id and releases their payload references.
// Returns the number of entries actually removed.
func (s *Store) Delete(ctx context.Context, ids []uint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	var errs []error
	for _, id := range ids {
		e, err := s.removeEntryLocked(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		n++

		if err := s.releasePayloadLocked(ctx, e.Digest); err != nil {
			// Index is the source of truth; store inconsistency is
			// left to the reconciliation sweep.
			slog.Warn(
				"failed to release payload for deleted entry",
				"id", id,
				"digest", e.Digest,
				"error", err,
			)
		}
	}

	if err := s.rebuildIndex(); err != nil {
		errs = append(errs, err)
	}

	return n, errors.Join(errs...)
}

// Wipe deletes all entries and payloads without deleting the database
// or its tables.
func (s *Store) Wipe(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := gorm.G[clip.Entry](s.db).Where("true").Delete(ctx)
	if err != nil {
		return n, err
	}
	if _, err := gorm.G[Payload](s.db).Where("true").Delete(ctx); err != nil {
		return n, err
	}

	if err := s.rebuildIndex(); err != nil {
		return n, err
	}

	blobDir := filepath.Join(s.dir, "blob")
	if err := os.RemoveAll(blobDir); err != nil {
		slog.Error("failed to delete blob directory", "path", blobDir, "error", err)
		return n, fmt.Errorf("failed to delete blob directory: %w", err)
	}
	if err := os.MkdirAll(blobDir, 0o755); err != nil {
		return n, fmt.Errorf("failed to create blob directory: %w", err)
	}

	s.entries = 0
	s.totalBytes = 0
	return n, nil
}
