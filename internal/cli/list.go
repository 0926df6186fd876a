package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List containers in the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		infos := sm.Containers()
		if len(infos) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No containers")
			return nil
		}

		t := newTable("ID", "NAME", "TYPE", "PAGES", "DEPENDS ON")
		for _, info := range infos {
			pages, err := sm.NumPages(info.ID)
			if err != nil {
				return err
			}

			deps := make([]string, len(info.Dependencies))
			for i, d := range info.Dependencies {
				deps[i] = strconv.Itoa(int(d))
			}

			t.Row(
				strconv.Itoa(int(info.ID)),
				info.Name,
				info.Type.String(),
				strconv.Itoa(pages),
				strings.Join(deps, ","),
			)
		}

		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("12"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = cellStyle.Foreground(lipgloss.Color("8"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle  = lipgloss.NewStyle().Bold(true)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}
