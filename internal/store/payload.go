package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/clips-workspace/clipd/pkg/clip"
)

// blobRetryBackoff is the pause before the single retry of a failed
// blob write or delete.
const blobRetryBackoff = 250 * time.Millisecond

// Payload tracks one stored blob and its live references. RefCount
// equals the number of entries whose digest matches; a payload at
// refcount zero is garbage and gets reclaimed.
type Payload struct {
	Digest    clip.Digest `gorm:"primarykey"`
	SizeBytes int64
	RefCount  int64
	Path      string
}

func (s *Store) blobPath(d clip.Digest) string {
	return filepath.Join(s.dir, "blob", d.String())
}

// writeBlob persists payload bytes under the blob directory. The file
// is content-addressed, so an existing file is identical by
// construction and reused. One retry with a short backoff on failure.
func (s *Store) writeBlob(d clip.Digest, b []byte) (string, error) {
	path := s.blobPath(d)
	if _, err := os.Stat(path); err == nil {
		return path, nil // blob already exists
	}

	err := os.WriteFile(path, b, 0o644)
	if err != nil {
		slog.Warn("blob write failed, retrying", "digest", d, "error", err)
		time.Sleep(blobRetryBackoff)
		err = os.WriteFile(path, b, 0o644)
	}
	if err != nil {
		return "", fmt.Errorf("%w: writing blob %s: %v", ErrStorageIO, d, err)
	}
	return path, nil
}

// removeBlob deletes a blob file with one retry. A missing file is not
// an error.
func (s *Store) removeBlob(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	time.Sleep(blobRetryBackoff)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: removing blob: %v", ErrStorageIO, err)
	}
	return nil
}

// putPayloadLocked inserts or ref-increments the payload row for
// digest and returns the resulting refcount. Caller holds s.mu.
func (s *Store) putPayloadLocked(
	ctx context.Context,
	d clip.Digest,
	size int64,
	path string,
) (int64, error) {
	var p Payload
	err := s.db.WithContext(ctx).First(&p, "digest = ?", d).Error
	switch {
	case err == nil:
		p.RefCount++
		err := s.db.WithContext(ctx).Model(&Payload{}).
			Where("digest = ?", d).
			Update("ref_count", p.RefCount).Error
		if err != nil {
			return 0, err
		}
		return p.RefCount, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		p = Payload{Digest: d, SizeBytes: size, RefCount: 1, Path: path}
		if err := gorm.G[Payload](s.db).Create(ctx, &p); err != nil {
			return 0, err
		}
		s.totalBytes += size
		return 1, nil

	default:
		return 0, err
	}
}

// GetPayload returns the raw bytes stored for digest.
func (s *Store) GetPayload(ctx context.Context, d clip.Digest) ([]byte, error) {
	var p Payload
	err := s.db.WithContext(ctx).First(&p, "digest = ?", d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: payload %s", ErrNotFound, d)
	}
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(p.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: blob %s", ErrNotFound, d)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading blob %s: %v", ErrStorageIO, d, err)
	}
	return b, nil
}

// releasePayloadLocked decrements the refcount for digest and deletes
// the row and blob when it reaches zero. A double release is logged
// and ignored. Caller holds s.mu.
func (s *Store) releasePayloadLocked(ctx context.Context, d clip.Digest) error {
	var p Payload
	err := s.db.WithContext(ctx).First(&p, "digest = ?", d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: payload %s", ErrNotFound, d)
	}
	if err != nil {
		return err
	}

	if p.RefCount <= 0 {
		slog.Warn("double release of payload", "digest", d, "refcount", p.RefCount)
		return nil
	}

	p.RefCount--
	if p.RefCount > 0 {
		return s.db.WithContext(ctx).Model(&Payload{}).
			Where("digest = ?", d).
			Update("ref_count", p.RefCount).Error
	}

	if err := s.db.WithContext(ctx).Delete(&Payload{}, "digest = ?", d).Error; err != nil {
		return err
	}
	s.totalBytes -= p.SizeBytes

	if err := s.removeBlob(p.Path); err != nil {
		// The index already forgot the entry; the reconciliation sweep
		// retries stray files.
		slog.Warn("failed to remove blob file", "digest", d, "path", p.Path, "error", err)
	}

	slog.Debug("released payload", "digest", d, "size", p.SizeBytes)
	return nil
}
