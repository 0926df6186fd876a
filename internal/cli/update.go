package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"go.heapstore/internal/storage"
)

var updateCmd = &cobra.Command{
	Use:   "update <cid> <page> <slot> <value>",
	Short: "Replace a value, printing the value id it now lives at",
	Long: `Quote the value to store it byte for byte. Several unquoted words
are joined with single spaces.`,
	Args:  cobra.MinimumNArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		vid, err := parseValueID(args[:3])
		if err != nil {
			return err
		}

		value := strings.Join(args[3:], " ")
		return transaction(func(tid storage.TransactionID) error {
			moved, err := sm.UpdateValue([]byte(value), vid, tid)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d %d %d\n", moved.ContainerID, moved.PageID, moved.SlotID)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
