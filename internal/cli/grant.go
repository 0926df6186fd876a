package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var grantCmd = &cobra.Command{
	Use:   "grant <username> <cid>",
	Args:  cobra.ExactArgs(2),
	Short: "Grant user access to a container",
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]
		cid, err := parseContainer(args[1])
		if err != nil {
			return err
		}

		a, err := authenticator()
		if err != nil {
			return err
		}

		if err := a.Grant(username, cid); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Granted %s access to container %d\n", username, cid)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(grantCmd)
}
