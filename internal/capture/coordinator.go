// Package capture ingests clipboard-change events from the external
// bridge and drives the content store: normalize, hash, dedup, store,
// evict. Events are processed strictly sequentially, one in flight at
// a time; arrivals mid-processing wait in a bounded queue.
package capture

import (
	"context"
	"errors"
	"log/slog"

	"github.com/clips-workspace/clipd/internal/store"
	"github.com/clips-workspace/clipd/pkg/clip"
)

// Options configures the coordinator.
type Options struct {
	// QueueCapacity bounds the pending event queue.
	QueueCapacity int
	// MaxPayloadBytes rejects oversized captures during normalization.
	MaxPayloadBytes int64
}

// Coordinator owns the capture pipeline for one store instance.
type Coordinator struct {
	store           *store.Store
	queue           *queue
	maxPayloadBytes int64
}

// New creates a coordinator feeding st.
func New(st *store.Store, opts Options) *Coordinator {
	return &Coordinator{
		store:           st,
		queue:           newQueue(opts.QueueCapacity),
		maxPayloadBytes: opts.MaxPayloadBytes,
	}
}

// Submit enqueues a clipboard-change event from the external source.
// Never blocks: on overflow the oldest unprocessed event is dropped.
func (c *Coordinator) Submit(ev clip.Event) {
	c.queue.Enqueue(item{ev: ev, quick: clip.QuickSum(ev.Bytes)})
}

// Close stops accepting events. Run drains what is already queued and
// returns.
func (c *Coordinator) Close() {
	c.queue.Close()
}

// Pending returns the number of queued events.
func (c *Coordinator) Pending() int {
	return c.queue.Len()
}

// Dropped returns the number of events dropped on queue overflow.
func (c *Coordinator) Dropped() uint64 {
	return c.queue.Dropped()
}

// Run consumes the queue until ctx is cancelled or the coordinator is
// closed and drained.
func (c *Coordinator) Run(ctx context.Context) error {
	slog.Info("capture coordinator running")

	for {
		for {
			it, ok := c.queue.TryDequeue()
			if !ok {
				break
			}
			c.process(ctx, it.ev)
		}

		select {
		case <-ctx.Done():
			slog.Info("capture coordinator stopping", "pending", c.queue.Len())
			return ctx.Err()
		case _, open := <-c.queue.Wait():
			if !open && c.queue.Len() == 0 {
				return nil
			}
		}
	}
}

// process runs one event through the pipeline: normalize, hash, then
// dedup/store/evict inside the content store. Any stage failure drops
// the event with a logged error; the store never ends up in a
// partially-written state.
func (c *Coordinator) process(ctx context.Context, ev clip.Event) {
	norm, err := Normalize(ev, c.maxPayloadBytes)
	if err != nil {
		slog.Warn(
			"dropping clipboard event",
			"mime", ev.Mime,
			"size", len(ev.Bytes),
			"error", err,
		)
		return
	}

	digest := clip.Sum(norm.Bytes)

	entry, created, err := c.store.Capture(ctx, norm, digest, norm.Bytes)
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		slog.Info("capture abandoned on shutdown", "digest", digest)
	case errors.Is(err, store.ErrStorageIO):
		slog.Warn("store degraded, event dropped", "digest", digest, "error", err)
	case err != nil:
		slog.Error("failed to store clipboard event", "digest", digest, "error", err)
	case created:
		slog.Info(
			"clipboard entry stored",
			"id", entry.ID,
			"kind", entry.Kind,
			"size", entry.SizeBytes,
		)
	default:
		slog.Info("clipboard entry reused", "id", entry.ID, "kind", entry.Kind)
	}
}
