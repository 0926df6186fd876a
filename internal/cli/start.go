package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.heapstore/internal/server"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the heapstore server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := server.New(cfg, sm, sm.Logger())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Server started on %s\n", cfg.Addr)
		return srv.Listen()
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
