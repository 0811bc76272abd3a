package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchFindsText(t *testing.T) {
	s := newTestStore(t, Options{})
	ctx := context.Background()

	capture(t, s, "text/plain", []byte("the quick brown fox"))
	capture(t, s, "text/plain", []byte("lazy dog sleeping"))

	entries, err := s.Search(ctx, "quick", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "the quick brown fox", entries[0].Text)
}

func TestSearchMatchesMime(t *testing.T) {
	s := newTestStore(t, Options{})

	capture(t, s, "image/png", []byte{0x89, 0x50, 0x4e, 0x47})
	capture(t, s, "text/plain", []byte("plain words"))

	entries, err := s.Search(context.Background(), "png", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "image/png", entries[0].Mime)
}

func TestSearchNoResults(t *testing.T) {
	s := newTestStore(t, Options{})

	capture(t, s, "text/plain", []byte("something"))

	entries, err := s.Search(context.Background(), "zzzzmissing", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSearchLikeFallback(t *testing.T) {
	s := newTestStore(t, Options{})

	capture(t, s, "text/plain", []byte("needle in a haystack"))

	// Force the fallback path regardless of FTS availability.
	s.fts = false

	entries, err := s.Search(context.Background(), "needle", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "needle in a haystack", entries[0].Text)
}
