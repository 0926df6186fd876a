package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.heapstore/internal/storage"
	"go.heapstore/internal/table"
)

var scanSchema string

var scanCmd = &cobra.Command{
	Use:   "scan <cid>",
	Short: "Print every live value in a container",
	Long: `Print every live value in a container as "<page> <slot> <value>".
With --schema each value is decoded as a tuple, e.g. --schema id:int,name:string`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cid, err := parseContainer(args[0])
		if err != nil {
			return err
		}

		var schema *table.Schema
		if scanSchema != "" {
			if schema, err = table.ParseSchema(scanSchema); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		return transaction(func(tid storage.TransactionID) error {
			it, err := sm.GetIterator(cid, tid, storage.ReadOnly)
			if err != nil {
				return err
			}

			for it.Next() {
				vid := it.ID()
				if schema == nil {
					fmt.Fprintf(out, "%d %d %s\n", vid.PageID, vid.SlotID, it.Value())
					continue
				}

				tuple, err := schema.Decode(it.Value())
				if err != nil {
					return fmt.Errorf("value %s: %w", vid, err)
				}
				fmt.Fprintf(out, "%d %d %s\n", vid.PageID, vid.SlotID, tuple)
			}
			return it.Err()
		})
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanSchema, "schema", "", "decode values as tuples of this schema")
	rootCmd.AddCommand(scanCmd)
}
