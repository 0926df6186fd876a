package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"go.heapstore/internal/storage"
)

var insertCmd = &cobra.Command{
	Use:   "insert <cid> <value>",
	Short: "Insert a value and print its value id",
	Long: `Quote the value to store it byte for byte. Several unquoted words
are joined with single spaces.`,
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cid, err := parseContainer(args[0])
		if err != nil {
			return err
		}

		value := strings.Join(args[1:], " ")
		return transaction(func(tid storage.TransactionID) error {
			vid, err := sm.InsertValue(cid, []byte(value), tid)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d %d %d\n", vid.ContainerID, vid.PageID, vid.SlotID)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(insertCmd)
}
