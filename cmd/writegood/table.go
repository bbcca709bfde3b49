package main

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// writeTable renders a borderless two-column table.
func writeTable(out io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER})
	table.AppendBulk(rows)
	table.Render()
}
