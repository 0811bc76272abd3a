// Package store implements the clipboard content store: a
// content-addressed payload store with reference counting, an ordered
// history index with O(1) dedup lookup, capacity-bound eviction and a
// self-healing reconciliation sweep.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/clips-workspace/clipd/pkg/clip"
)

// Options bound the store. Zero values leave a bound unenforced.
type Options struct {
	// MaxEntries bounds the number of history entries.
	MaxEntries int
	// MaxBytes bounds the aggregate size of live payloads.
	MaxBytes int64
}

// Store owns the history index and the payload store. One mutation
// lock guards index structure, refcounts and byte accounting. The lock
// is held per atomic step only, never across hashing or blob file
// writes, so reads stay responsive while large media payloads land.
type Store struct {
	db   *gorm.DB
	dir  string
	opts Options
	fts  bool

	mu         sync.Mutex
	entries    int64
	totalBytes int64
	recency    uint64
}

// Open opens (or creates) the store under dir, migrates the schema and
// runs the startup consistency check. Refcounts and byte accounting
// are rebuilt from the index; orphaned payloads are reclaimed.
func Open(dir string, opts Options) (*Store, error) {
	if dir == "" {
		return nil, errors.New("database directory can not be empty")
	}

	if err := os.MkdirAll(filepath.Join(dir, "blob"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "history.db")))
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&clip.Entry{}, &Payload{}); err != nil {
		return nil, err
	}

	s := &Store{db: db, dir: dir, opts: opts}

	if err := s.initFTS(); err != nil {
		slog.Warn("full-text search unavailable, falling back to LIKE", "error", err)
	}

	if err := s.Reconcile(context.Background()); err != nil {
		return nil, fmt.Errorf("startup consistency check failed: %w", err)
	}

	return s, nil
}

// Close closes the underlying database. Pending writes are flushed by
// sqlite on connection close.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Stats reports live store accounting.
type Stats struct {
	Entries    int64 `json:"entries"`
	Payloads   int64 `json:"payloads"`
	TotalBytes int64 `json:"total_bytes"`
}

// Stats returns current entry, payload and byte counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var payloads int64
	err := s.db.WithContext(ctx).Model(&Payload{}).Count(&payloads).Error
	if err != nil {
		return Stats{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Entries:    s.entries,
		Payloads:   payloads,
		TotalBytes: s.totalBytes,
	}, nil
}

// Capture ingests one normalized clipboard payload: dedup against the
// history index, persist the payload if new, append or touch the
// entry, then run an eviction pass. digest must be clip.Sum(data).
// Returns the entry and whether a new one was created.
func (s *Store) Capture(
	ctx context.Context,
	ev clip.Event,
	digest clip.Digest,
	data []byte,
) (clip.Entry, bool, error) {
	// Cancellation checkpoint: nothing has been written yet.
	if err := ctx.Err(); err != nil {
		return clip.Entry{}, false, err
	}

	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	entry, err := s.FindByDigest(ctx, digest)
	switch {
	case err == nil:
		if err := s.reuse(ctx, &entry, data); err != nil {
			return entry, false, err
		}
		if err := s.evict(ctx); err != nil {
			slog.Error("eviction pass failed", "error", err)
		}
		return entry, false, nil

	case !errors.Is(err, ErrNotFound):
		return clip.Entry{}, false, err
	}

	// New content. The blob file write stays outside the mutation lock
	// so large media payloads never block readers.
	path, err := s.writeBlob(digest, data)
	if err != nil {
		return clip.Entry{}, false, err
	}

	entry = clip.Entry{
		Digest:         digest,
		Kind:           ev.Kind,
		Mime:           ev.Mime,
		SizeBytes:      int64(len(data)),
		CreatedAt:      ev.Time,
		LastAccessedAt: ev.Time,
	}
	if entry.Kind == clip.KindText {
		entry.Text = string(data)
	}

	s.mu.Lock()
	if _, err := s.putPayloadLocked(ctx, digest, int64(len(data)), path); err != nil {
		s.mu.Unlock()
		return clip.Entry{}, false, err
	}
	if err := s.appendEntryLocked(ctx, &entry); err != nil {
		s.mu.Unlock()
		// The payload row is now orphaned (refcount 1, no referencing
		// entry). The reconciliation sweep reclaims it.
		slog.Error("index append failed after payload write", "digest", digest, "error", err)
		return clip.Entry{}, false, err
	}
	s.mu.Unlock()

	if err := s.evict(ctx); err != nil {
		slog.Error("eviction pass failed", "error", err)
	}

	slog.Debug("captured new entry", "id", entry.ID, "kind", entry.Kind, "size", entry.SizeBytes)
	return entry, true, nil
}

// reuse handles a dedup hit: touch the existing entry and, if a prior
// partial removal left its payload row missing, re-materialize the
// payload from the captured bytes.
func (s *Store) reuse(ctx context.Context, entry *clip.Entry, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p Payload
	err := s.db.WithContext(ctx).First(&p, "digest = ?", entry.Digest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Warn(
			"entry references missing payload, re-materializing",
			"id", entry.ID,
			"digest", entry.Digest,
			"error", ErrInconsistent,
		)
		path, werr := s.writeBlob(entry.Digest, data)
		if werr != nil {
			return werr
		}
		if _, werr := s.putPayloadLocked(ctx, entry.Digest, int64(len(data)), path); werr != nil {
			return werr
		}
	} else if err != nil {
		return err
	}

	slog.Debug("reusing existing entry", "id", entry.ID, "digest", entry.Digest)
	return s.touchEntryLocked(ctx, entry)
}
