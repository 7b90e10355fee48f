package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"appbuilder/internal/domain"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

const timeLayout = "2006-01-02 15:04:05"

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// emit prints v as JSON with --json, otherwise the table built by render.
func (c *cli) emit(cmd *cobra.Command, v any, render func() string) error {
	out := cmd.OutOrStdout()
	if c.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(out, render())
	return err
}

func boxTable(boxes []domain.Box) string {
	t := newTable("ID", "NAME", "TYPE", "LEFT", "TOP", "WIDTH", "HEIGHT")
	for _, b := range boxes {
		t.Row(b.ID, b.Component.Name, string(b.Component.Component),
			strconv.Itoa(b.Left), strconv.Itoa(b.Top), strconv.Itoa(b.Width), strconv.Itoa(b.Height))
	}
	return t.String()
}
