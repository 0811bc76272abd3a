package cmd

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clips-workspace/clipd/internal/capture"
	"github.com/clips-workspace/clipd/internal/config"
	"github.com/clips-workspace/clipd/internal/source"
)

func init() {
	Command.AddCommand(watchCommand)

	fset := watchCommand.Flags()
	fset.String("socket", "", "unix socket path for the clipboard bridge")
	fset.Int("max-entries", 1000, "maximum number of history entries")
	fset.Int64("max-bytes", 512<<20, "maximum aggregate payload size in bytes")
	fset.Int("queue-capacity", 64, "capture event queue capacity")
	fset.Int64("max-payload-bytes", 128<<20, "reject captures larger than this")
	fset.Duration("sweep-interval", 5*time.Minute, "period of the reconciliation sweep")

	viper.BindPFlag(config.KeySocket, fset.Lookup("socket"))
	viper.BindPFlag(config.KeyMaxEntries, fset.Lookup("max-entries"))
	viper.BindPFlag(config.KeyMaxBytes, fset.Lookup("max-bytes"))
	viper.BindPFlag(config.KeyQueueCapacity, fset.Lookup("queue-capacity"))
	viper.BindPFlag(config.KeyMaxPayloadBytes, fset.Lookup("max-payload-bytes"))
	viper.BindPFlag(config.KeySweepInterval, fset.Lookup("sweep-interval"))
}

var watchCommand = &cobra.Command{
	Use:   "watch",
	Short: "Watch for clipboard changes and persist them",
	RunE: func(cmd *cobra.Command, _ []string) error {
		slog.Info("clipd watch starting", "version", Command.Version)
		ctx := cmd.Context()

		st, opts, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		coord := capture.New(st, capture.Options{
			QueueCapacity:   opts.QueueCapacity,
			MaxPayloadBytes: opts.MaxPayloadBytes,
		})

		go func() {
			err := source.Listen(ctx, opts.Socket, coord.Submit)
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("event source failed", "error", err)
			}
			coord.Close()
		}()

		go func() {
			ticker := time.NewTicker(opts.SweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := st.Reconcile(ctx); err != nil {
						slog.Error("reconciliation sweep failed", "error", err)
					}
				}
			}
		}()

		err = coord.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}
