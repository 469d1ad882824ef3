package stats

import (
	"fmt"
	"io"
	"strings"
)

// Placeholder texts for empty sections.
const (
	NoSummaryRows   = "暂无汇总数据。"
	NoCharacterRows = "没有符合条件的记录。"
	NoPlayerStats   = "暂无玩家统计数据。"
	NoAFKPlayers    = "恭喜！所有玩家都在线！"
)

// RenderSummaryTable prints the visible summary rows in display order.
func RenderSummaryTable(w io.Writer, r Report, maxCell int) error {
	if r.Summary == nil || r.Summary.VisibleCount() == 0 {
		_, err := fmt.Fprintln(w, NoSummaryRows)
		return err
	}
	cols := r.Summary.Columns()
	state := r.Summary.SortState()
	headers := make([]string, len(cols))
	rightAlign := map[int]bool{}
	for i, c := range cols {
		title := c.Title
		switch state.Indicator(c.Index) {
		case "asc":
			title += " ▲"
		case "desc":
			title += " ▼"
		}
		headers[i] = title
		if i >= 2 {
			rightAlign[i] = true
		}
	}
	visible := r.Summary.VisibleRows()
	rows := make([][]string, len(visible))
	for i, row := range visible {
		rows[i] = []string(row)
	}
	for _, line := range formatTable(headers, rows, rightAlign, maxCell) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d/%d rows\n", len(visible), r.Summary.Len())
	return err
}

// RenderCharacters prints one line per character card with the active metric.
func RenderCharacters(w io.Writer, r Report) error {
	if len(r.Characters) == 0 {
		_, err := fmt.Fprintln(w, NoCharacterRows)
		return err
	}
	headers := []string{"Player", "Character", "Server", "Class", r.Metric.Label()}
	rows := make([][]string, 0, len(r.Characters))
	for _, c := range r.Characters {
		rows = append(rows, []string{c.Player, c.Character, c.Server, c.Class, FormatMetric(c, r.Metric)})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{4: true}, 0) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderPlayers prints weighted averages with the best player crowned.
func RenderPlayers(w io.Writer, r Report) error {
	if len(r.PlayerLabels) == 0 {
		_, err := fmt.Fprintln(w, NoPlayerStats)
		return err
	}
	maxAvg := 0.0
	for _, v := range r.Weighted {
		if v > maxAvg {
			maxAvg = v
		}
	}
	rows := make([][]string, len(r.PlayerLabels))
	for i, label := range r.PlayerLabels {
		avg := 0.0
		if i < len(r.Weighted) {
			avg = r.Weighted[i]
		}
		rows[i] = []string{label, fmt.Sprintf("%.2f", avg), Bar(avg, maxAvg, 20)}
	}
	for _, line := range formatTable([]string{"Player", "Weighted Avg", ""}, rows, map[int]bool{1: true}, 0) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderAFK prints the AFK roll call.
func RenderAFK(w io.Writer, r Report) error {
	if len(r.AFK) == 0 {
		_, err := fmt.Fprintln(w, NoAFKPlayers)
		return err
	}
	_, err := fmt.Fprintf(w, "AFK (%d): %s\n", len(r.AFK), strings.Join(r.AFK, ", "))
	return err
}

// Bar renders value as a block bar scaled to width cells at limit.
func Bar(value, limit float64, width int) string {
	if limit <= 0 || value <= 0 || width <= 0 {
		return ""
	}
	n := int(value / limit * float64(width))
	if n < 1 {
		n = 1
	}
	if n > width {
		n = width
	}
	return strings.Repeat("█", n)
}
