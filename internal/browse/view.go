package browse

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/keystone/internal/effect"
	"github.com/verte-zerg/keystone/internal/stats"
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	bestStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.afkOpen {
		return fitLines(m.renderModal(m.renderAFK()), m.width, m.height)
	}
	if m.detailOpen {
		return fitLines(m.renderModal(m.renderDetail()), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	return m.renderTabs() + "\n" + headerStyle.Render(truncateLine(m.viewSummary(), m.width))
}

func (m *Model) viewSummary() string {
	search := m.view.Search
	if search == "" {
		search = "-"
	}
	charSort := m.view.CharacterSort
	if charSort == "" {
		charSort = stats.DefaultSortKey
	}
	return fmt.Sprintf("View: search=%s  hide-untimed=%t  hide-empty=%t  sort=%s  metric=%s",
		search, m.view.HideUntimed, m.view.HideEmpty, charSort, m.report.Metric.Label())
}

func (m *Model) renderFooter() string {
	if m.searchMode {
		return m.searchInput.View()
	}
	help := "Nav: left/right  Search: /  Untimed: u  AFK: a  Quit: q"
	switch m.activeTab {
	case tabSummary:
		help = "Nav: left/right  Column: [/]  Sort: s  Search: /  Untimed: u  AFK: a  Quit: q"
	case tabCharacters:
		help = "Nav: left/right  Sort: o/O  Hide empty: e  Scroll: up/down  AFK: a  Quit: q"
	case tabPlayers:
		help = "Nav: left/right  Select: up/down  Detail: enter  AFK: a  Quit: q"
	}
	return headerStyle.Render(help)
}

func (m *Model) renderBody() string {
	switch m.activeTab {
	case tabSummary:
		if m.report.Summary == nil || m.report.Summary.VisibleCount() == 0 {
			return stats.NoSummaryRows
		}
		counts := headerStyle.Render(fmt.Sprintf("%d/%d rows", m.report.Summary.VisibleCount(), m.report.Summary.Len()))
		return mutedStyle.Render(m.summary.View()) + "\n" + counts
	case tabPlayers:
		return m.renderPlayers()
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	var buf bytes.Buffer
	if err := stats.RenderCharacters(&buf, m.report); err != nil {
		m.viewports[tabCharacters].SetContent(fmt.Sprintf("Failed to render characters: %v", err))
		return
	}
	m.viewports[tabCharacters].SetContent(strings.TrimRight(buf.String(), "\n"))
}

func (m *Model) renderPlayers() string {
	labels := m.report.PlayerLabels
	if len(labels) == 0 {
		return stats.NoPlayerStats
	}
	labelWidth := 0
	maxAvg := 0.0
	for i, label := range labels {
		labelWidth = maxInt(labelWidth, runewidth.StringWidth(label))
		if m.report.Weighted[i] > maxAvg {
			maxAvg = m.report.Weighted[i]
		}
	}
	barWidth := maxInt(10, minInt(40, m.width-labelWidth-14))
	lines := make([]string, len(labels))
	for i, label := range labels {
		marker := "  "
		if i == m.playerCursor {
			marker = "> "
		}
		avg := m.report.Weighted[i]
		line := fmt.Sprintf("%s%s %6.2f %s", marker, runewidth.FillRight(label, labelWidth), avg, stats.Bar(avg, maxAvg, barWidth))
		if i == m.report.BestIndex {
			line = bestStyle.Render(line)
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderDetail() string {
	lines := []string{titleStyle.Render(m.view.Player + " 各副本平均等级")}
	if len(m.report.Detail) == 0 {
		lines = append(lines, m.report.DetailPlaceholder)
	} else {
		maxAvg := 0.0
		nameWidth := 0
		for _, d := range m.report.Detail {
			if d.AvgLevel > maxAvg {
				maxAvg = d.AvgLevel
			}
			nameWidth = maxInt(nameWidth, runewidth.StringWidth(d.ShortName))
		}
		for _, d := range m.report.Detail {
			lines = append(lines, fmt.Sprintf("%s %5.1f  %3d  %s",
				runewidth.FillRight(d.ShortName, nameWidth), d.AvgLevel, d.Runs, stats.Bar(d.AvgLevel, maxAvg, 20)))
		}
	}
	lines = append(lines, "", headerStyle.Render("Esc to close"))
	return strings.Join(lines, "\n")
}

func (m *Model) renderAFK() string {
	players := m.game.Players()
	if len(players) == 0 {
		return strings.Join([]string{stats.NoAFKPlayers, "", headerStyle.Render("Esc to close")}, "\n")
	}
	lines := []string{titleStyle.Render(fmt.Sprintf("AFK %d/%d", m.game.Total(), m.game.Max()))}
	nameWidth := 0
	for _, p := range players {
		nameWidth = maxInt(nameWidth, runewidth.StringWidth(p.Name))
	}
	for i, p := range players {
		marker := "  "
		if i == m.afkCursor {
			marker = "> "
		}
		bar := runewidth.FillRight(stats.Bar(float64(p.Clicks), stats.MaxClicksPerPlayer, stats.MaxClicksPerPlayer), stats.MaxClicksPerPlayer)
		lines = append(lines, fmt.Sprintf("%s%s [%s] %2d/%d %s",
			marker, runewidth.FillRight(p.Name, nameWidth), bar, p.Clicks, stats.MaxClicksPerPlayer,
			strings.Repeat(effect.KissEmoji, minInt(p.Clicks, 3))))
	}
	if m.handle != nil {
		lines = append(lines, "", renderRain(m.drops, modalInnerWidth(m.width), rainRows))
	}
	lines = append(lines, "", headerStyle.Render("Enter to send "+effect.KissEmoji+"  Esc to close"))
	return strings.Join(lines, "\n")
}

// renderRain lays the recent drops out on a small grid.
func renderRain(drops []effect.Drop, width, rows int) string {
	grid := make([]map[int]string, rows)
	for _, d := range drops {
		r := d.Sequence % rows
		c := int(d.Left / 100 * float64(maxInt(1, width-2)))
		if grid[r] == nil {
			grid[r] = map[int]string{}
		}
		grid[r][c] = d.Emoji
	}
	lines := make([]string, rows)
	for r := range lines {
		var b strings.Builder
		for col := 0; col < width; {
			if e, ok := grid[r][col]; ok && col+runewidth.StringWidth(e) <= width {
				b.WriteString(e)
				col += runewidth.StringWidth(e)
				continue
			}
			b.WriteByte(' ')
			col++
		}
		lines[r] = b.String()
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderModal(content string) string {
	box := modalStyle.Width(modalWidth(m.width)).Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func summaryTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func modalWidth(width int) int {
	return maxInt(40, minInt(width-4, 80))
}

func modalInnerWidth(width int) int {
	w := modalWidth(width)
	w -= 6 // 2 border + 4 padding
	if w < 10 {
		return 10
	}
	return w
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
