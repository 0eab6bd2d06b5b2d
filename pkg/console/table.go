package console

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#BD93F9")).
				Background(lipgloss.Color("#44475A"))

	tableCellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8F8F2"))

	tableBorderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#6272A4"))

	tableSeparatorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#44475A"))

	tableTotalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#50FA7B"))
)

// TableConfig represents configuration for table rendering
type TableConfig struct {
	Headers   []string
	Rows      [][]string
	Title     string
	ShowTotal bool
	TotalRow  []string
}

// RenderTable renders a formatted table using lipgloss
func RenderTable(config TableConfig) string {
	if len(config.Headers) == 0 {
		return ""
	}

	var output strings.Builder

	if config.Title != "" {
		titleStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#50FA7B"))
		output.WriteString(applyStyle(titleStyle, config.Title))
		output.WriteString("\n")
	}

	colWidths := make([]int, len(config.Headers))
	for i, header := range config.Headers {
		colWidths[i] = lipgloss.Width(header)
	}

	allRows := config.Rows
	if config.ShowTotal && len(config.TotalRow) > 0 {
		allRows = append(allRows[:len(allRows):len(allRows)], config.TotalRow)
	}
	for _, row := range allRows {
		for i, cell := range row {
			if i < len(colWidths) {
				colWidths[i] = max(colWidths[i], lipgloss.Width(cell))
			}
		}
	}

	output.WriteString(renderTableRow(config.Headers, colWidths, tableHeaderStyle))
	output.WriteString("\n")

	separator := make([]string, len(config.Headers))
	for i, width := range colWidths {
		separator[i] = strings.Repeat("-", width)
	}
	output.WriteString(renderTableRow(separator, colWidths, tableSeparatorStyle))
	output.WriteString("\n")

	for _, row := range config.Rows {
		output.WriteString(renderTableRow(row, colWidths, tableCellStyle))
		output.WriteString("\n")
	}

	if config.ShowTotal && len(config.TotalRow) > 0 {
		output.WriteString(renderTableRow(separator, colWidths, tableSeparatorStyle))
		output.WriteString("\n")
		output.WriteString(renderTableRow(config.TotalRow, colWidths, tableTotalStyle))
		output.WriteString("\n")
	}

	return output.String()
}

// renderTableRow pads each cell to its column's display width
func renderTableRow(cells []string, colWidths []int, style lipgloss.Style) string {
	var row strings.Builder

	for i, cell := range cells {
		if i >= len(colWidths) {
			break
		}
		padding := strings.Repeat(" ", max(colWidths[i]-lipgloss.Width(cell), 0))
		row.WriteString(applyStyle(style, cell+padding))
		if i < len(cells)-1 && i < len(colWidths)-1 {
			row.WriteString(applyStyle(tableBorderStyle, " | "))
		}
	}

	return row.String()
}
