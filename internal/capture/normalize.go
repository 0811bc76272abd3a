package capture

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/clips-workspace/clipd/internal/store"
	"github.com/clips-workspace/clipd/pkg/clip"
)

var errEmptyPayload = errors.New("empty clipboard payload")

// Normalize classifies the payload kind and produces the canonical
// bytes that get hashed and stored. Oversized payloads are rejected
// before any hashing happens.
func Normalize(ev clip.Event, maxPayloadBytes int64) (clip.Event, error) {
	if len(ev.Bytes) == 0 {
		return ev, errEmptyPayload
	}

	if maxPayloadBytes > 0 && int64(len(ev.Bytes)) > maxPayloadBytes {
		return ev, fmt.Errorf(
			"%w: %d bytes (limit %d)",
			store.ErrPayloadTooLarge, len(ev.Bytes), maxPayloadBytes,
		)
	}

	if ev.Kind == "" {
		ev.Kind = clip.KindFromMime(ev.Mime)
	}
	if ev.Mime == "" && ev.Kind == clip.KindText {
		ev.Mime = "text/plain"
	}

	if ev.Kind == clip.KindText {
		// Canonical text form strips surrounding whitespace, so a
		// re-copy with a trailing newline dedups against the original.
		ev.Bytes = bytes.TrimSpace(ev.Bytes)
		if len(ev.Bytes) == 0 {
			return ev, errEmptyPayload
		}
	}

	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	return ev, nil
}
