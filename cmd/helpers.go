package cmd

import (
	"fmt"
	"strings"

	"github.com/clips-workspace/clipd/internal/config"
	"github.com/clips-workspace/clipd/internal/store"
	"github.com/clips-workspace/clipd/pkg/clip"
)

// openStore opens the content store from the resolved configuration.
func openStore() (*store.Store, config.Options, error) {
	opts := config.Load()
	st, err := store.Open(opts.Database, store.Options{
		MaxEntries: opts.MaxEntries,
		MaxBytes:   opts.MaxBytes,
	})
	return st, opts, err
}

// preview returns a single-line description of an entry for terminal
// output.
func preview(e clip.Entry) string {
	text := e.Text
	if text == "" {
		text = fmt.Sprintf("[%s %s %d bytes]", e.Kind, e.Mime, e.SizeBytes)
	}

	fields := strings.Fields(text)

	out := strings.Join(fields, " ")
	if len(out) > 100 {
		out = out[:100]
	}
	return out
}
