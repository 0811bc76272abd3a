// Package source accepts clipboard-change events from the external
// clipboard bridge over a unix domain socket. Events arrive as
// newline-delimited JSON objects matching clip.Event; payload bytes
// are base64 in the usual encoding/json way.
//
// The wire protocol of the system clipboard itself is not implemented
// here: whatever speaks it (a Wayland bridge, a test harness) connects
// to this socket and forwards events.
package source

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"

	"github.com/clips-workspace/clipd/pkg/clip"
)

// maxEventLine bounds a single serialized event. Oversized payloads
// are rejected later by normalization; this only guards the scanner
// buffer.
const maxEventLine = 256 << 20

// Listen accepts bridge connections on the unix socket at path and
// forwards decoded events to submit until ctx is cancelled. A stale
// socket file from a previous run is removed first.
func Listen(ctx context.Context, path string, submit func(clip.Event)) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", path, err)
	}

	go func() {
		<-ctx.Done()
		listener.Close()
		os.Remove(path)
	}()

	slog.Info("event source listening", "socket", path)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("event source stopped")
				return ctx.Err()
			}
			slog.Error("accept failed", "error", err)
			return err
		}

		slog.Debug("bridge connected", "remote", conn.RemoteAddr())
		go serve(ctx, conn, submit)
	}
}

// serve decodes events from one bridge connection.
func serve(ctx context.Context, conn net.Conn, submit func(clip.Event)) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64<<10), maxEventLine)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		var ev clip.Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			slog.Warn("discarding malformed event", "error", err)
			continue
		}

		slog.Debug("event received", "mime", ev.Mime, "size", len(ev.Bytes))
		submit(ev)
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		slog.Warn("bridge connection failed", "error", err)
	}
}
