package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func init() {
	Command.AddCommand(gcCommand)
}

var gcCommand = &cobra.Command{
	Use:   "gc",
	Short: "Run a reconciliation sweep over the store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Open already runs the startup sweep; run one more explicitly
		// so repairs show up even at default log levels.
		st, _, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Reconcile(cmd.Context()); err != nil {
			return err
		}

		stats, err := st.Stats(cmd.Context())
		if err != nil {
			return err
		}
		slog.Info(
			"Store reconciled",
			"entries", stats.Entries,
			"payloads", stats.Payloads,
			"bytes", stats.TotalBytes,
		)
		return nil
	},
}
