package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// boxTable renders headers and rows inside a box drawn with the border style.
// Cell widths are measured without ANSI sequences so coloured cells align.
func (s Styles) boxTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = lipgloss.Width(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			if w := lipgloss.Width(cellAt(row, i)); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+4)
	lines = append(lines, s.rule("┌", "┬", "┐", widths))
	if len(headers) > 0 {
		styled := make([]string, len(headers))
		for i, h := range headers {
			styled[i] = s.Header.Render(h)
		}
		lines = append(lines, s.formatRow(styled, widths, rightAlignCols))
		lines = append(lines, s.rule("├", "┼", "┤", widths))
	}
	for _, row := range rows {
		lines = append(lines, s.formatRow(row, widths, rightAlignCols))
	}
	lines = append(lines, s.rule("└", "┴", "┘", widths))
	return lines
}

func (s Styles) rule(left, mid, right string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("─", w+2)
	}
	return s.Border.Render(left + strings.Join(parts, mid) + right)
}

func (s Styles) formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	sep := s.Border.Render("│")
	var b strings.Builder
	b.WriteString(sep)
	for i := 0; i < len(widths); i++ {
		b.WriteByte(' ')
		b.WriteString(padCell(cellAt(row, i), widths[i], rightAlignCols[i]))
		b.WriteByte(' ')
		b.WriteString(sep)
	}
	return b.String()
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := lipgloss.Width(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func rightAligned(cols ...int) map[int]bool {
	out := make(map[int]bool, len(cols))
	for _, c := range cols {
		out[c] = true
	}
	return out
}
