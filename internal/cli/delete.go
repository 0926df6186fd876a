package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.heapstore/internal/storage"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <cid> <page> <slot>",
	Short: "Delete the value stored at a value id",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		vid, err := parseValueID(args)
		if err != nil {
			return err
		}

		return transaction(func(tid storage.TransactionID) error {
			if err := sm.DeleteValue(vid, tid); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
