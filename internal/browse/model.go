// Package browse provides the Bubble Tea report browser.
package browse

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/keystone/internal/effect"
	"github.com/verte-zerg/keystone/internal/model"
	"github.com/verte-zerg/keystone/internal/stats"
)

const (
	tabSummary = iota
	tabCharacters
	tabPlayers
)

const (
	maxColumnWidth = 18
	maxDrops       = 24
	rainRows       = 5
)

var tabNames = []string{"Summary", "Characters", "Players"}

// ParseTab maps a tab name to its index. Unknown names select the summary.
func ParseTab(name string) int {
	for i, n := range tabNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return i
		}
	}
	return tabSummary
}

// Options configures a browser.
type Options struct {
	Tab string
	// Rain drives the AFK celebration. Nil uses default timings.
	Rain    *effect.Rain
	Context context.Context
}

// Model implements the Bubble Tea report browser.
type Model struct {
	data   model.ChartsData
	view   model.ViewConfig
	metric *stats.DisplayMetric
	report stats.Report

	tabs      []string
	activeTab int
	viewports []viewport.Model
	summary   table.Model
	sortCol   int

	width  int
	height int

	searchMode  bool
	searchInput textinput.Model
	searchPrev  string

	playerCursor int
	detailOpen   bool

	afkOpen   bool
	afkCursor int
	game      *stats.Game
	rain      *effect.Rain
	ctx       context.Context
	handle    *effect.Handle
	drops     []effect.Drop
}

type dropMsg struct {
	drop   effect.Drop
	handle *effect.Handle
}

type rainDoneMsg struct {
	handle *effect.Handle
}

// NewModel constructs a browser over data, starting from view.
func NewModel(data model.ChartsData, view model.ViewConfig, opts Options) *Model {
	m := &Model{
		data:      data,
		view:      view,
		metric:    stats.NewDisplayMetric(view.Metric),
		tabs:      tabNames,
		activeTab: ParseTab(opts.Tab),
		game:      stats.NewGame(data.CharacterStats),
		rain:      opts.Rain,
		ctx:       opts.Context,
		sortCol:   view.SortColumn,
	}
	if m.rain == nil {
		m.rain = effect.NewRain(nil)
	}
	if m.ctx == nil {
		m.ctx = context.Background()
	}
	if m.sortCol < 0 {
		m.sortCol = 0
	}
	m.searchInput = textinput.New()
	m.searchInput.Prompt = "Search: "
	m.searchInput.Placeholder = "player or character"
	m.searchInput.CharLimit = 0
	m.searchInput.Cursor.SetMode(cursor.CursorBlink)
	m.summary = table.New(table.WithHeight(1))
	m.summary.SetStyles(summaryTableStyles())
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case dropMsg:
		if msg.handle != m.handle {
			return m, nil
		}
		m.drops = append(m.drops, msg.drop)
		if len(m.drops) > maxDrops {
			m.drops = m.drops[len(m.drops)-maxDrops:]
		}
		return m, waitForDrop(msg.handle)
	case rainDoneMsg:
		if msg.handle == m.handle {
			m.handle = nil
			m.drops = nil
			m.game.EndCelebration()
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.stopRain()
			return m, tea.Quit
		}
		switch {
		case m.searchMode:
			return m.updateSearch(msg)
		case m.afkOpen:
			return m.updateAFK(msg)
		case m.detailOpen:
			return m.updateDetail(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.stopRain()
		return m, tea.Quit
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "/":
		return m.startSearch()
	case "u":
		m.view.HideUntimed = !m.view.HideUntimed
		m.refreshReport()
		return m, nil
	case "e":
		m.view.HideEmpty = !m.view.HideEmpty
		m.refreshReport()
		return m, nil
	case "o":
		m.cycleCharacterSort(1)
		return m, nil
	case "O":
		m.cycleCharacterSort(-1)
		return m, nil
	case "a":
		m.afkOpen = true
		m.afkCursor = 0
		return m, nil
	}

	switch m.activeTab {
	case tabSummary:
		return m.updateSummaryKeys(msg)
	case tabPlayers:
		return m.updatePlayerKeys(msg)
	}
	vp := m.viewports[m.activeTab]
	var cmd tea.Cmd
	vp, cmd = vp.Update(msg)
	m.viewports[m.activeTab] = vp
	return m, cmd
}

func (m *Model) updateSummaryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "[":
		m.moveSortColumn(-1)
		return m, nil
	case "]":
		m.moveSortColumn(1)
		return m, nil
	case "s", "enter":
		m.sortSummary()
		return m, nil
	case "g", "home":
		m.summary.GotoTop()
		return m, nil
	case "G", "end":
		m.summary.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.summary, cmd = m.summary.Update(msg)
	return m, cmd
}

func (m *Model) updatePlayerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.report.PlayerLabels)
	switch msg.String() {
	case "up", "k":
		if m.playerCursor > 0 {
			m.playerCursor--
		}
	case "down", "j":
		if m.playerCursor < count-1 {
			m.playerCursor++
		}
	case "enter":
		if count == 0 {
			return m, nil
		}
		m.view.Player = m.data.PlayerStats.PlayerLabels[m.playerCursor]
		m.detailOpen = true
		m.refreshReport()
	}
	m.renderTabContents()
	return m, nil
}

func (m *Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "q":
		m.detailOpen = false
		m.view.Player = ""
		m.refreshReport()
	}
	return m, nil
}

func (m *Model) updateAFK(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	players := m.game.Players()
	switch msg.String() {
	case "esc", "a", "q":
		m.stopRain()
		m.afkOpen = false
		return m, nil
	case "up", "k":
		if m.afkCursor > 0 {
			m.afkCursor--
		}
		return m, nil
	case "down", "j":
		if m.afkCursor < len(players)-1 {
			m.afkCursor++
		}
		return m, nil
	case "enter", " ":
		if len(players) == 0 {
			return m, nil
		}
		res := m.game.Click(players[m.afkCursor].Name)
		if !res.Celebrate {
			return m, nil
		}
		m.drops = nil
		m.handle = m.rain.Start(m.ctx)
		return m, waitForDrop(m.handle)
	}
	return m, nil
}

func waitForDrop(h *effect.Handle) tea.Cmd {
	return func() tea.Msg {
		d, ok := <-h.Drops()
		if !ok {
			return rainDoneMsg{handle: h}
		}
		return dropMsg{drop: d, handle: h}
	}
}

func (m *Model) stopRain() {
	if m.handle == nil {
		return
	}
	m.rain.Stop()
	m.handle = nil
	m.drops = nil
	m.game.EndCelebration()
}

func (m *Model) startSearch() (tea.Model, tea.Cmd) {
	m.searchMode = true
	m.searchPrev = m.view.Search
	m.searchInput.SetValue(m.view.Search)
	m.searchInput.CursorEnd()
	return m, m.searchInput.Focus()
}

// updateSearch filters on every keystroke. Esc restores the previous query.
func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searchMode = false
		m.searchInput.Blur()
		m.view.Search = m.searchPrev
		m.refreshReport()
		return m, nil
	case tea.KeyEnter:
		m.searchMode = false
		m.searchInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() != m.view.Search {
		m.view.Search = m.searchInput.Value()
		m.refreshReport()
	}
	return m, cmd
}

func (m *Model) cycleCharacterSort(delta int) {
	current := m.view.CharacterSort
	if current == "" {
		current = stats.DefaultSortKey
	}
	idx := 0
	for i, key := range stats.SortKeys {
		if key == current {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(stats.SortKeys)) % len(stats.SortKeys)
	m.view.CharacterSort = stats.SortKeys[idx]
	m.refreshReport()
}

func (m *Model) moveSortColumn(delta int) {
	if m.report.Summary == nil {
		return
	}
	count := len(m.report.Summary.Columns())
	if count == 0 {
		return
	}
	m.sortCol = (m.sortCol + delta + count) % count
	m.applySummaryTable()
}

// sortSummary sorts by the selected column; repeating it flips the direction.
func (m *Model) sortSummary() {
	if m.report.Summary == nil {
		return
	}
	state := m.report.Summary.SortState()
	asc := state.Toggle(m.sortCol)
	m.view.SortColumn = m.sortCol
	m.view.SortDesc = !asc
	m.refreshReport()
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabSummary {
		m.summary.Focus()
	} else {
		m.summary.Blur()
	}
}

func (m *Model) refreshReport() {
	m.report = stats.BuildReport(m.data, m.view, m.metric)
	m.view.Metric = string(m.report.Metric)
	if m.playerCursor >= len(m.report.PlayerLabels) {
		m.playerCursor = maxInt(0, len(m.report.PlayerLabels)-1)
	}
	m.applySummaryTable()
	m.renderTabContents()
}

func (m *Model) applySummaryTable() {
	m.summary.SetRows(nil)
	s := m.report.Summary
	if s == nil {
		m.summary.SetColumns(nil)
		return
	}
	cols := s.Columns()
	rows := s.VisibleRows()
	state := s.SortState()
	columns := make([]table.Column, len(cols))
	for i, c := range cols {
		title := c.Title + arrow(state.Indicator(c.Index))
		if i == m.sortCol {
			title = "›" + title
		}
		width := runewidth.StringWidth(title)
		for _, r := range rows {
			if w := runewidth.StringWidth(r.Cell(i)); w > width {
				width = w
			}
		}
		columns[i] = table.Column{Title: title, Width: minInt(width, maxColumnWidth)}
	}
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		cells := make(table.Row, len(cols))
		for j := range cols {
			cells[j] = r.Cell(j)
		}
		out[i] = cells
	}
	m.summary.SetColumns(columns)
	m.summary.SetRows(out)
	if m.activeTab == tabSummary {
		m.summary.Focus()
	}
}

func arrow(indicator string) string {
	switch indicator {
	case "asc":
		return " ▲"
	case "desc":
		return " ▼"
	}
	return ""
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.summary.SetWidth(m.width)
	// Header row and its border.
	m.summary.SetHeight(maxInt(1, bodyHeight-3))
	promptWidth := lipgloss.Width(m.searchInput.Prompt)
	m.searchInput.Width = maxInt(10, m.width-promptWidth-2)
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
