package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clips-workspace/clipd/pkg/clip"
)

func qitem(text string) item {
	b := []byte(text)
	return item{
		ev:    clip.Event{Kind: clip.KindText, Mime: "text/plain", Bytes: b},
		quick: clip.QuickSum(b),
	}
}

func TestQueueFIFO(t *testing.T) {
	q := newQueue(4)

	require.True(t, q.Enqueue(qitem("a")))
	require.True(t, q.Enqueue(qitem("b")))

	first, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, []byte("a"), first.ev.Bytes)

	second, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, []byte("b"), second.ev.Bytes)

	_, ok = q.TryDequeue()
	assert.False(t, ok)
}

func TestQueueDropsOldestOnOverflow(t *testing.T) {
	q := newQueue(2)

	q.Enqueue(qitem("a"))
	q.Enqueue(qitem("b"))
	q.Enqueue(qitem("c"))

	assert.Equal(t, 2, q.Len())
	assert.Equal(t, uint64(1), q.Dropped())

	first, _ := q.TryDequeue()
	assert.Equal(t, []byte("b"), first.ev.Bytes, "oldest queued event is dropped, source never blocks")
	second, _ := q.TryDequeue()
	assert.Equal(t, []byte("c"), second.ev.Bytes)
}

func TestQueueCoalescesDuplicateNotifications(t *testing.T) {
	q := newQueue(4)

	q.Enqueue(qitem("same"))
	q.Enqueue(qitem("same"))
	q.Enqueue(qitem("same"))

	assert.Equal(t, 1, q.Len())
	assert.Zero(t, q.Dropped())

	q.Enqueue(qitem("other"))
	assert.Equal(t, 2, q.Len())
}

func TestQueueClosed(t *testing.T) {
	q := newQueue(2)

	q.Enqueue(qitem("a"))
	q.Close()

	assert.False(t, q.Enqueue(qitem("b")))

	// Already-queued events stay drainable after close.
	it, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, []byte("a"), it.ev.Bytes)

	q.Close() // idempotent
}
