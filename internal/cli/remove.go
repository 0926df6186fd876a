package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <cid>",
	Args:  cobra.ExactArgs(1),
	Short: "Remove a container and its heap file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cid, err := parseContainer(args[0])
		if err != nil {
			return err
		}

		if err := sm.RemoveContainer(cid); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Container %d removed\n", cid)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
