// Package config defines the recognized clipd options and their
// viper-backed defaults.
package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// Recognized option keys. Each is settable via flag, config file or
// the CLIPD_* environment.
const (
	KeyDatabase        = "database"
	KeyMaxEntries      = "max_entries"
	KeyMaxBytes        = "max_bytes"
	KeyQueueCapacity   = "queue_capacity"
	KeyMaxPayloadBytes = "max_payload_bytes"
	KeySweepInterval   = "sweep_interval"
	KeySocket          = "socket"
)

// Options is the resolved clipd configuration.
type Options struct {
	// Database is the data directory holding history.db and the blob
	// directory.
	Database string
	// MaxEntries bounds the number of history entries (0 = unbounded).
	MaxEntries int
	// MaxBytes bounds the aggregate live payload size (0 = unbounded).
	MaxBytes int64
	// QueueCapacity bounds the capture event queue.
	QueueCapacity int
	// MaxPayloadBytes rejects oversized captures before hashing.
	MaxPayloadBytes int64
	// SweepInterval is the period of the reconciliation sweep in the
	// watch daemon.
	SweepInterval time.Duration
	// Socket is the unix socket path the clipboard bridge connects to.
	Socket string
}

// SetDefaults registers defaults for every recognized option.
func SetDefaults() {
	viper.SetDefault(KeyDatabase, filepath.Join(xdg.DataHome, "clipd"))
	viper.SetDefault(KeyMaxEntries, 1000)
	viper.SetDefault(KeyMaxBytes, int64(512<<20))
	viper.SetDefault(KeyQueueCapacity, 64)
	viper.SetDefault(KeyMaxPayloadBytes, int64(128<<20))
	viper.SetDefault(KeySweepInterval, 5*time.Minute)
	viper.SetDefault(KeySocket, filepath.Join(xdg.RuntimeDir, "clipd.sock"))
}

// Load resolves Options from viper.
func Load() Options {
	return Options{
		Database:        viper.GetString(KeyDatabase),
		MaxEntries:      viper.GetInt(KeyMaxEntries),
		MaxBytes:        viper.GetInt64(KeyMaxBytes),
		QueueCapacity:   viper.GetInt(KeyQueueCapacity),
		MaxPayloadBytes: viper.GetInt64(KeyMaxPayloadBytes),
		SweepInterval:   viper.GetDuration(KeySweepInterval),
		Socket:          viper.GetString(KeySocket),
	}
}
