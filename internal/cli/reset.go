package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Args:  cobra.NoArgs,
	Short: "Remove every container",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sm.Reset(); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "All containers removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
