package browse

import (
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/keystone/internal/effect"
	"github.com/verte-zerg/keystone/internal/model"
	"github.com/verte-zerg/keystone/internal/stats"
)

func testData() model.ChartsData {
	var d model.ChartsData
	d.DungeonFullNameMap.Set("圆顶", "圆顶奥尔达尼")
	d.DungeonShortNameMap.Set("圆顶奥尔达尼", "圆顶")
	d.CharacterStats = []model.CharacterStat{
		{Player: "Alice", Character: "Frost", Class: "法师", AvgLevel: 12, CompletionRate: 90, TimedRunsRate: 80, TotalRuns: 5, TimedRuns: 4},
		{Player: "Bob", Character: "Stone", Class: "战士", AvgLevel: 10, CompletionRate: 70, TimedRunsRate: 95, TotalRuns: 3, TimedRuns: 2},
		{Player: "Idle", Character: "Sleepy", Class: "牧师", AvgLevel: math.NaN(), CompletionRate: math.NaN(), TimedRunsRate: math.NaN()},
	}
	d.PlayerStats = model.PlayerStatsData{
		PlayerLabels: []string{"Alice", "Bob"},
		Datasets: []model.PlayerDataset{{
			Label: "圆顶",
			Data:  []float64{60, 30},
			Meta:  model.PlayerDatasetMeta{AvgLevels: []float64{12, 10}, Runs: []int{5, 3}},
		}},
	}
	d.PlayerCharacterDungeonStats = map[string][]model.CharacterDungeonStats{
		"Alice": {{Character: "Frost", DungeonStats: map[string]model.DungeonStat{"圆顶奥尔达尼": {AvgLevel: 12, TotalRuns: 5}}}},
	}
	d.SummaryTable = &model.SummaryTable{
		Columns: []string{"玩家", "角色", "圆顶"},
		Rows: [][]string{
			{"Alice", "Frost", "+12"},
			{"Bob", "Stone", "+15"},
			{"Idle", "Sleepy", "-"},
		},
	}
	return d
}

func newTestModel(t *testing.T, opts Options) *Model {
	t.Helper()
	m := NewModel(testData(), model.DefaultViewConfig(), opts)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, keys ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(k)
	}
	return cmd
}

func TestParseTab(t *testing.T) {
	if ParseTab("players") != tabPlayers || ParseTab(" Characters ") != tabCharacters || ParseTab("nope") != tabSummary {
		t.Fatalf("unexpected tab mapping")
	}
}

func TestSummarySearchIsLiveAndEscRestores(t *testing.T) {
	m := newTestModel(t, Options{})
	press(m, runes("/"))
	if !m.searchMode {
		t.Fatalf("expected search mode")
	}
	press(m, runes("b"), runes("o"))
	if m.view.Search != "bo" {
		t.Fatalf("unexpected search %q", m.view.Search)
	}
	if got := len(m.summary.Rows()); got != 1 {
		t.Fatalf("expected one visible row, got %d", got)
	}
	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.searchMode || m.view.Search != "" || len(m.summary.Rows()) != 3 {
		t.Fatalf("expected search reverted, got %q with %d rows", m.view.Search, len(m.summary.Rows()))
	}

	press(m, runes("/"), runes("x"), runes("y"), runes("z"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.view.Search != "xyz" {
		t.Fatalf("expected search kept after enter, got %q", m.view.Search)
	}
	if !strings.Contains(m.View(), stats.NoSummaryRows) {
		t.Fatalf("expected empty summary placeholder")
	}
}

func TestSummarySortAndHideUntimed(t *testing.T) {
	m := newTestModel(t, Options{})
	press(m, runes("]"), runes("]"), runes("s"))
	if m.view.SortColumn != 2 || m.view.SortDesc {
		t.Fatalf("expected ascending sort on column 2, got %+v", m.view)
	}
	rows := m.summary.Rows()
	if rows[0][0] != "Idle" || rows[1][0] != "Alice" || rows[2][0] != "Bob" {
		t.Fatalf("unexpected ascending order: %v", rows)
	}

	press(m, runes("s"))
	rows = m.summary.Rows()
	if !m.view.SortDesc || rows[0][0] != "Bob" {
		t.Fatalf("expected descending order, got %v", rows)
	}

	press(m, runes("u"))
	if len(m.summary.Rows()) != 2 {
		t.Fatalf("expected untimed row hidden, got %v", m.summary.Rows())
	}
	if !strings.Contains(m.View(), "2/3 rows") {
		t.Fatalf("expected row count in view")
	}
}

func TestCharacterSortDrivesMetric(t *testing.T) {
	m := newTestModel(t, Options{Tab: "characters"})
	if !strings.Contains(m.View(), "平均等级") {
		t.Fatalf("expected average level metric")
	}
	// avg_level_desc -> avg_level_asc -> completion_rate_desc -> completion_rate_asc -> timed_runs_rate_desc
	press(m, runes("o"), runes("o"), runes("o"), runes("o"))
	if m.view.CharacterSort != "timed_runs_rate_desc" || m.report.Metric != stats.MetricTimedRunsRate {
		t.Fatalf("unexpected sort state %q %q", m.view.CharacterSort, m.report.Metric)
	}
	if m.report.Characters[0].Player != "Bob" {
		t.Fatalf("expected Bob first by timed runs rate")
	}

	// Class sort keeps the previous metric.
	press(m, runes("o"), runes("o"))
	if m.view.CharacterSort != "class_asc" || m.report.Metric != stats.MetricTimedRunsRate {
		t.Fatalf("expected metric kept for class sort, got %q", m.report.Metric)
	}

	press(m, runes("O"), runes("O"), runes("O"), runes("O"), runes("O"), runes("O"))
	if m.view.CharacterSort != stats.DefaultSortKey {
		t.Fatalf("expected wrap back to default, got %q", m.view.CharacterSort)
	}

	press(m, runes("e"))
	if len(m.report.Characters) != 2 || strings.Contains(m.View(), "Sleepy") {
		t.Fatalf("expected empty character hidden")
	}
}

func TestPlayerDetailModal(t *testing.T) {
	m := newTestModel(t, Options{Tab: "players"})
	view := m.View()
	if !strings.Contains(view, stats.CrownPrefix+"Alice") {
		t.Fatalf("expected crowned best player")
	}
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.detailOpen || m.view.Player != "Alice" {
		t.Fatalf("expected detail for Alice")
	}
	if !strings.Contains(m.View(), "圆顶") || !strings.Contains(m.View(), "12.0") {
		t.Fatalf("expected dungeon average in detail")
	}
	press(m, tea.KeyMsg{Type: tea.KeyEsc}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	if m.view.Player != "Bob" || !strings.Contains(m.View(), stats.NoPlayerData) {
		t.Fatalf("expected no-data placeholder for Bob")
	}
}

func TestAFKGameCelebratesOnce(t *testing.T) {
	rain := effect.NewRain(effect.NewSeededGenerator(7))
	rain.Interval = 2 * time.Millisecond
	rain.Duration = 30 * time.Millisecond
	m := newTestModel(t, Options{Rain: rain})

	press(m, runes("a"))
	if !m.afkOpen || !strings.Contains(m.View(), "Idle") {
		t.Fatalf("expected AFK modal with Idle")
	}
	var cmd tea.Cmd
	for i := 0; i < stats.MaxClicksPerPlayer; i++ {
		cmd = press(m, tea.KeyMsg{Type: tea.KeyEnter})
		if i < stats.MaxClicksPerPlayer-1 && cmd != nil {
			t.Fatalf("unexpected command before the cap")
		}
	}
	if cmd == nil || m.handle == nil || !m.game.Celebrating() {
		t.Fatalf("expected celebration to start")
	}
	if extra := press(m, tea.KeyMsg{Type: tea.KeyEnter}); extra != nil {
		t.Fatalf("capped player must not restart the rain")
	}

	drops := 0
	for cmd != nil {
		msg := cmd()
		if _, ok := msg.(dropMsg); ok {
			drops++
		}
		_, cmd = m.Update(msg)
	}
	if drops == 0 {
		t.Fatalf("expected drops before the rain ended")
	}
	if m.handle != nil || m.game.Celebrating() {
		t.Fatalf("expected celebration to end with the rain")
	}
}

func TestAFKCloseStopsRain(t *testing.T) {
	rain := effect.NewRain(effect.NewSeededGenerator(7))
	rain.Duration = time.Hour
	m := newTestModel(t, Options{Rain: rain})
	press(m, runes("a"))
	var cmd tea.Cmd
	for i := 0; i < stats.MaxClicksPerPlayer; i++ {
		cmd = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	}
	if cmd == nil {
		t.Fatalf("expected celebration to start")
	}
	h := m.handle
	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.afkOpen || m.handle != nil || h.Active() || m.game.Celebrating() {
		t.Fatalf("expected closing the modal to stop the rain")
	}
	// A late message from the stopped rain is ignored.
	m.Update(rainDoneMsg{handle: h})
	if m.game.Total() != stats.MaxClicksPerPlayer {
		t.Fatalf("expected clicks kept across modal close")
	}
}

func TestRenderRain(t *testing.T) {
	drops := []effect.Drop{
		{Emoji: "💖", Left: 0, Sequence: 0},
		{Emoji: "✨", Left: 50, Sequence: 1},
	}
	out := renderRain(drops, 20, 2)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "💖") || !strings.Contains(lines[1], "✨") {
		t.Fatalf("unexpected rain grid %q", out)
	}
}
