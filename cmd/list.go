package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	Command.AddCommand(listCommand)

	listCommand.Flags().IntP("limit", "n", 20, "maximum number of entries to list")
}

var listCommand = &cobra.Command{
	Use:   "list",
	Short: "List recent clipboard entries, most recent first",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, _, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		entries, err := st.ListRecent(cmd.Context(), viper.GetInt("limit"))
		if err != nil {
			return err
		}
		for entry := range slices.Values(entries) {
			pin := " "
			if entry.Pinned {
				pin = "*"
			}
			fmt.Printf("%d\t%s\t%s\n", entry.ID, pin, preview(entry))
		}
		return nil
	},
}
