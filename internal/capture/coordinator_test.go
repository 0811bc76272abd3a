package capture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clips-workspace/clipd/internal/store"
	"github.com/clips-workspace/clipd/pkg/clip"
)

func newTestCoordinator(t *testing.T, opts Options) (*Coordinator, *store.Store) {
	t.Helper()

	st, err := store.Open(t.TempDir(), store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	if opts.QueueCapacity == 0 {
		opts.QueueCapacity = 8
	}
	return New(st, opts), st
}

func event(mime, text string) clip.Event {
	return clip.Event{Mime: mime, Bytes: []byte(text)}
}

func TestRunDrainsQueueAndStores(t *testing.T) {
	c, st := newTestCoordinator(t, Options{})
	ctx := context.Background()

	c.Submit(event("text/plain", "first"))
	c.Submit(event("text/plain", "second"))
	c.Close()

	require.NoError(t, c.Run(ctx))

	entries, err := st.ListRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Text)
	assert.Equal(t, "first", entries[1].Text)
}

func TestRunDeduplicatesAcrossEvents(t *testing.T) {
	c, st := newTestCoordinator(t, Options{})
	ctx := context.Background()

	c.Submit(event("text/plain", "hello"))
	c.Submit(event("image/png", "\x89PNG"))
	c.Submit(event("text/plain", "hello"))
	c.Close()

	require.NoError(t, c.Run(ctx))

	entries, err := st.ListRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "hello", entries[0].Text, "re-captured text moved to most recent")

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Payloads)
}

func TestOversizedEventDropped(t *testing.T) {
	c, st := newTestCoordinator(t, Options{MaxPayloadBytes: 8})
	ctx := context.Background()

	c.Submit(event("image/png", "this payload is larger than eight bytes"))
	c.Submit(event("text/plain", "ok"))
	c.Close()

	require.NoError(t, c.Run(ctx))

	entries, err := st.ListRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1, "oversized capture is dropped, not stored")
	assert.Equal(t, "ok", entries[0].Text)
}

func TestMalformedEventDropped(t *testing.T) {
	c, st := newTestCoordinator(t, Options{})
	ctx := context.Background()

	c.Submit(clip.Event{Mime: "text/plain"}) // no bytes
	c.Submit(event("text/plain", "good"))
	c.Close()

	require.NoError(t, c.Run(ctx))

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Entries)
}

func TestCancelledRunAbandonsInFlight(t *testing.T) {
	c, st := newTestCoordinator(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c.Submit(event("text/plain", "never stored"))

	err := c.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	stats, err := st.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Entries, "cancellation before storing leaves no partial state")
	assert.Zero(t, stats.Payloads)
}

func TestSubmitNeverBlocks(t *testing.T) {
	c, _ := newTestCoordinator(t, Options{QueueCapacity: 2})

	for i := range 10 {
		c.Submit(event("text/plain", string(rune('a'+i))))
	}

	assert.Equal(t, 2, c.Pending())
	assert.Equal(t, uint64(8), c.Dropped())
}
