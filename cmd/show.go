package cmd

import (
	"os"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

func init() {
	Command.AddCommand(showCommand)
}

var showCommand = &cobra.Command{
	Use:   "show id",
	Short: "Write the payload of an entry to stdout",
	Args:  cobra.ExactArgs(1),
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

		entry, err := st.Get(cmd.Context(), id)
		if err != nil {
			return err
		}

		payload, err := st.GetPayload(cmd.Context(), entry.Digest)
		if err != nil {
			return err
		}

		_, err = os.Stdout.Write(payload)
		return err
	},
}
