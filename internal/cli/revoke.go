package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var revokeCmd = &cobra.Command{
	Use:   "revoke <username> <cid>",
	Args:  cobra.ExactArgs(2),
	Short: "Revoke user access to a container",
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

		if err := a.Revoke(username, cid); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Revoked %s access to container %d\n", username, cid)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(revokeCmd)
}
