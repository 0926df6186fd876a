package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.heapstore/internal/storage"
	"go.heapstore/internal/table"
)

var importSchema string

var importCmd = &cobra.Command{
	Use:   "import <cid> <file.csv>",
	Short: "Load a headerless CSV file into a container",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cid, err := parseContainer(args[0])
		if err != nil {
			return err
		}

		if importSchema == "" {
			return errors.New("--schema is required")
		}

		schema, err := table.ParseSchema(importSchema)
		if err != nil {
			return err
		}

		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()

		return transaction(func(tid storage.TransactionID) error {
			n, err := sm.ImportCSV(schema, f, cid, tid)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rows\n", n)
			return err
		})
	},
}

func init() {
	importCmd.Flags().StringVar(&importSchema, "schema", "", "column types, e.g. id:int,name:string")
	rootCmd.AddCommand(importCmd)
}
