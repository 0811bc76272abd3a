package clip

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Kind classifies a clipboard payload by its broad media category.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindOther Kind = "other"
)

// KindFromMime maps a MIME type to a payload Kind. Unknown or empty
// MIME types classify as KindOther.
func KindFromMime(mime string) Kind {
	category, _, _ := strings.Cut(mime, "/")
	switch category {
	case "text":
		return KindText
	case "image":
		return KindImage
	case "video":
		return KindVideo
	case "audio":
		return KindAudio
	default:
		return KindOther
	}
}

// Digest is the hex-encoded content digest of a payload. It is the
// deduplication key: two payloads share a Digest iff their canonical
// bytes are identical.
type Digest string

var (
	_ fmt.Stringer  = (*Digest)(nil)
	_ sql.Scanner   = (*Digest)(nil)
	_ driver.Valuer = (*Digest)(nil)
)

// String returns the hex form of the digest.
func (d Digest) String() string {
	return string(d)
}

// Value implements driver.Valuer.
func (d Digest) Value() (driver.Value, error) {
	return string(d), nil
}

// Scan implements sql.Scanner.
func (d *Digest) Scan(value any) error {
	if value == nil {
		*d = ""
		return nil
	}

	switch v := value.(type) {
	case string: // TEXT column
		*d = Digest(v)
		return nil

	case []byte: // SQLite may return TEXT as BLOB
		*d = Digest(v)
		return nil

	default: // should never happen if column is TEXT, but safe guard anyway
		return fmt.Errorf("unsupported type scanned for Digest: %T", value)
	}
}

// Entry is a single clipboard-history record. It carries metadata only;
// the payload bytes live in the payload store, keyed by Digest.
type Entry struct {
	ID             uint      `json:"id"`
	Digest         Digest    `json:"digest"           gorm:"index:,unique,length:64"`
	Kind           Kind      `json:"kind"`
	Mime           string    `json:"mime"`
	Text           string    `json:"text,omitempty"`
	SizeBytes      int64     `json:"size_bytes"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	Recency        uint64    `json:"-"                gorm:"index"`
	Pinned         bool      `json:"pinned"`
}

// Event is one clipboard-change notification as delivered by the
// external clipboard bridge.
type Event struct {
	Kind  Kind      `json:"kind,omitempty"`
	Mime  string    `json:"mime"`
	Bytes []byte    `json:"bytes"`
	Time  time.Time `json:"time"`
}
