package cmd

import (
	"log/slog"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	Command.AddCommand(pinCommand)

	pinCommand.Flags().Bool("remove", false, "unpin instead of pin")
}

var pinCommand = &cobra.Command{
	Use:   "pin id",
	Short: "Exempt an entry from eviction",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := cast.ToUintE(args[0])
		if err != nil {
			return err
		}

		st, _, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if viper.GetBool("remove") {
			if err := st.Unpin(cmd.Context(), id); err != nil {
				return err
			}
			slog.Info("Entry unpinned", "id", id)
			return nil
		}

		if err := st.Pin(cmd.Context(), id); err != nil {
			return err
		}
		slog.Info("Entry pinned", "id", id)
		return nil
	},
}
