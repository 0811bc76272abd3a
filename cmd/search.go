package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	Command.AddCommand(searchCommand)

	searchCommand.Flags().IntP("limit", "n", 50, "maximum number of matches")
}

var searchCommand = &cobra.Command{
	Use:   "search",
	Short: "Search clipboard history",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		entries, err := st.Search(cmd.Context(), args[0], viper.GetInt("limit"))
		if err != nil {
			return err
		}
		for entry := range slices.Values(entries) {
			fmt.Printf("%d\t%s\n", entry.ID, preview(entry))
		}
		return nil
	},
}
