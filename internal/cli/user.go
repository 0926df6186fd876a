package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.heapstore/internal/auth"
)

// Later let's give a -p option to include password in cmdline - if ommited we will
// prompt for password with protection
var userCreateCmd = &cobra.Command{
	Use:   "create-user <username> <password> <role>",
	Args:  cobra.ExactArgs(3),
	Short: "Create a new heapstore user (superuser, user or guest)",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, password, role := args[0], args[1], auth.Role(args[2])

		a, err := authenticator()
		if err != nil {
			return err
		}

		if err := a.CreateUser(username, password, role); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "User %s created\n", username)
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete-user <username>",
	Args:  cobra.ExactArgs(1),
	Short: "Delete a heapstore user",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := authenticator()
		if err != nil {
			return err
		}

		if err := a.Store().DeleteUser(args[0]); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "User %s deleted\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userDeleteCmd)
}
