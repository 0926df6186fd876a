package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"go.heapstore/internal/storage"
)

// longest value prefix shown per slot
const previewLen = 32

var inspectCmd = &cobra.Command{
	Use:   "inspect <cid> <page>",
	Short: "Dump the header and slot table of one page",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cid, err := parseContainer(args[0])
		if err != nil {
			return err
		}

		pid, err := strconv.ParseUint(args[1], 10, 16)
		if err != nil {
			return fmt.Errorf("bad page id %q", args[1])
		}

		return transaction(func(tid storage.TransactionID) error {
			page, err := sm.GetPage(cid, storage.PageID(pid), tid, storage.ReadOnly)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderPage(cid, page))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func renderPage(cid storage.ContainerID, p *storage.Page) string {
	freed := make([]string, len(p.FreedSlots()))
	for i, s := range p.FreedSlots() {
		freed[i] = strconv.Itoa(int(s))
	}

	summary := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("container %d / page %d", cid, p.ID())),
		field("slots", strconv.Itoa(p.SlotCount())),
		field("freed", "["+strings.Join(freed, ",")+"]"),
		field("header", fmt.Sprintf("%d bytes", p.HeaderSize())),
		field("free cursor", strconv.Itoa(int(p.FreeCursor()))),
		field("largest free", fmt.Sprintf("%d bytes", p.LargestFreeContiguousSpace())),
	)

	slots := p.Slots()
	if len(slots) == 0 {
		return summary
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("SLOT", "OFFSET", "LENGTH", "STATE", "VALUE").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case slots[row].Freed:
				return mutedStyle
			default:
				return cellStyle
			}
		})

	for _, s := range slots {
		state, preview := "live", ""
		if s.Freed {
			state = "freed"
		} else if v, err := p.GetValue(s.Slot); err == nil {
			preview = printable(v)
		}

		t.Row(
			strconv.Itoa(int(s.Slot)),
			strconv.Itoa(int(s.Offset)),
			strconv.Itoa(int(s.Length)),
			state,
			preview,
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, summary, t.Render())
}

func field(label, value string) string {
	return labelStyle.Render(label+":") + " " + value
}

// printable shows a value prefix with control bytes escaped
func printable(v []byte) string {
	s := strconv.Quote(string(v))
	s = s[1 : len(s)-1]
	if len(s) > previewLen {
		s = s[:previewLen] + "..."
	}
	return s
}
