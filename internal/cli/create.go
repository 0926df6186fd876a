package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"go.heapstore/internal/engine"
)

var createCmd = &cobra.Command{
	Use:   "create <cid> [name]",
	Args:  cobra.MinimumNArgs(1),
	Short: "Create a new container",
	RunE: func(cmd *cobra.Command, args []string) error {
		cid, err := parseContainer(args[0])
		if err != nil {
			return err
		}

		name := strings.Join(args[1:], " ")
		if err := sm.CreateContainer(cid, engine.SimpleContainerConfig(), name, engine.BaseTable, nil); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Container %d created\n", cid)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}
