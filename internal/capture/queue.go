package capture

import (
	"log/slog"
	"sync"

	"github.com/clips-workspace/clipd/pkg/clip"
)

// item pairs a queued event with its quick hash for coalescing.
type item struct {
	ev    clip.Event
	quick uint64
}

// queue is a bounded thread-safe FIFO for clipboard events.
//
// Back-to-back duplicate bridge events (same quick hash and size) are
// coalesced into the newest one. On overflow the oldest
// queued-but-not-processed event is dropped, so the external source is
// never blocked.
//
// The signal channel (buffered, size 1) enables context-aware waiting
// in the coordinator's Run loop.
type queue struct {
	mu      sync.Mutex
	items   []item
	cap     int
	closed  bool
	dropped uint64
	signal  chan struct{}
}

func newQueue(capacity int) *queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &queue{
		cap:    capacity,
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Returns false if the queue is closed.
func (q *queue) Enqueue(it item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	if n := len(q.items); n > 0 {
		last := q.items[n-1]
		if last.quick == it.quick && len(last.ev.Bytes) == len(it.ev.Bytes) {
			// Duplicate notification for the same clipboard change.
			q.items[n-1] = it
			q.wakeLocked()
			slog.Debug("coalesced duplicate clipboard event", "mime", it.ev.Mime)
			return true
		}
	}

	if len(q.items) >= q.cap {
		q.items[0] = item{} // release payload bytes for GC
		q.items = append(q.items[:0], q.items[1:]...)
		q.dropped++
		slog.Warn("event queue full, dropped oldest event", "capacity", q.cap, "dropped", q.dropped)
	}

	q.items = append(q.items, it)
	q.wakeLocked()
	return true
}

// wakeLocked signals availability without blocking; the size-1 buffer
// coalesces multiple signals. Caller holds q.mu.
func (q *queue) wakeLocked() {
	if q.closed {
		return
	}
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// TryDequeue attempts to dequeue without blocking.
func (q *queue) TryDequeue() (item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return item{}, false
	}

	it := q.items[0]
	q.items[0] = item{} // release payload bytes for GC
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return it, true
}

// Wait returns a channel that signals when events may be available.
func (q *queue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped returns the number of events dropped on overflow.
func (q *queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Close signals that no more events will be enqueued and wakes any
// blocked waiter.
func (q *queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
