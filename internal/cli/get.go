package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.heapstore/internal/storage"
)

var getCmd = &cobra.Command{
	Use:   "get <cid> <page> <slot>",
	Short: "Retrieve the value stored at a value id",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		vid, err := parseValueID(args)
		if err != nil {
			return err
		}

		return transaction(func(tid storage.TransactionID) error {
			val, err := sm.GetValue(vid, tid, storage.ReadOnly)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(val))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
