package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// formatTable aligns cells into columns by display width. Cells wider than
// maxCell are truncated with an ellipsis; maxCell <= 0 disables truncation.
func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool, maxCell int) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	clip := func(s string) string {
		if maxCell > 0 && displayWidth(s) > maxCell {
			return runewidth.Truncate(s, maxCell, "…")
		}
		return s
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(clip(header))
	}
	for _, row := range rows {
		for i := 0; i < colCount && i < len(row); i++ {
			if w := displayWidth(clip(row[i])); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols, clip))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols, clip))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool, clip func(string) string) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = clip(row[i])
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := strings.Repeat(" ", width-valueWidth)
	if rightAlign {
		return padding + value
	}
	return value + padding
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
