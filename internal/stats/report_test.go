package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/keystone/internal/model"
)

func reportData() model.ChartsData {
	var d model.ChartsData
	d.DungeonFullNameMap.Set("回响", "艾拉-卡拉，回响之城")
	d.DungeonFullNameMap.Set("圆顶", "圆顶奥尔达尼")
	d.DungeonShortNameMap.Set("艾拉-卡拉，回响之城", "回响")
	d.DungeonShortNameMap.Set("圆顶奥尔达尼", "圆顶")
	d.DungeonColorMap.Set("圆顶奥尔达尼", "rgba(10, 20, 30, 0.8)")
	d.CharacterStats = sampleStats()
	d.PlayerStats = playerData()
	d.PlayerCharacterDungeonStats = map[string][]model.CharacterDungeonStats{
		"A": {
			{Character: "a1", DungeonStats: map[string]model.DungeonStat{
				"圆顶奥尔达尼":     {AvgLevel: 10, TotalRuns: 2},
				"艾拉-卡拉，回响之城": {AvgLevel: 8, TotalRuns: 0},
			}},
			{Character: "a2", DungeonStats: map[string]model.DungeonStat{
				"圆顶奥尔达尼": {AvgLevel: 16, TotalRuns: 1},
			}},
		},
		"Z": {
			{Character: "z1", DungeonStats: map[string]model.DungeonStat{
				"圆顶奥尔达尼": {AvgLevel: 9, TotalRuns: 0},
			}},
		},
	}
	d.SummaryTable = &model.SummaryTable{
		Columns: []string{"玩家", "角色", "回响", "圆顶"},
		Rows: [][]string{
			{"p1", "Zed", "+12", "+9*"},
			{"p1", "Amy", "-", "-"},
			{"p2", "Bob", "+15", "-"},
		},
	}
	return d
}

func TestPlayerDetail(t *testing.T) {
	d := reportData()
	detail, placeholder := PlayerDetail("A", d)
	if placeholder != "" {
		t.Fatalf("unexpected placeholder %q", placeholder)
	}
	if len(detail) != 1 {
		t.Fatalf("expected one dungeon with runs, got %+v", detail)
	}
	got := detail[0]
	if got.ShortName != "圆顶" || got.AvgLevel != 12 || got.Runs != 3 {
		t.Fatalf("unexpected detail: %+v", got)
	}
	if got.BorderColor != "rgba(10, 20, 30, 1)" {
		t.Fatalf("unexpected border color %q", got.BorderColor)
	}

	if _, placeholder := PlayerDetail("Z", d); placeholder != NoDungeonRuns {
		t.Fatalf("expected no-runs placeholder, got %q", placeholder)
	}
	if _, placeholder := PlayerDetail("nobody", d); placeholder != NoPlayerData {
		t.Fatalf("expected no-data placeholder, got %q", placeholder)
	}
}

func TestBuildReport(t *testing.T) {
	view := model.DefaultViewConfig()
	view.HideUntimed = true
	view.SortColumn = 2
	view.SortDesc = true
	view.HideEmpty = true
	view.CharacterSort = "class_asc"
	view.Metric = string(MetricTimedRunsRate)
	view.Player = "A"

	r := BuildReport(reportData(), view, nil)
	if r.Summary == nil || r.Summary.VisibleCount() != 2 {
		t.Fatalf("expected 2 visible summary rows")
	}
	if first := r.Summary.VisibleRows()[0]; first[1] != "Bob" {
		t.Fatalf("expected Bob first when sorted desc, got %v", first)
	}
	if r.Metric != MetricTimedRunsRate {
		t.Fatalf("expected metric carried over, got %q", r.Metric)
	}
	if len(r.Characters) != 2 || r.Characters[0].Character != "Zed" {
		t.Fatalf("unexpected characters: %v", names(r.Characters))
	}
	if !equalStrings(r.AFK, nil) {
		t.Fatalf("expected no AFK players, got %v", r.AFK)
	}
	if r.BestPlayerName() != "A" || r.PlayerLabels[1] != CrownPrefix+"A" {
		t.Fatalf("unexpected best player: %q %v", r.BestPlayerName(), r.PlayerLabels)
	}
	if len(r.Detail) != 1 {
		t.Fatalf("expected player detail, got %+v", r.Detail)
	}
}

func TestRenderSections(t *testing.T) {
	r := BuildReport(reportData(), model.DefaultViewConfig(), nil)
	var buf bytes.Buffer
	if err := RenderSummaryTable(&buf, r, 0); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	if err := RenderCharacters(&buf, r); err != nil {
		t.Fatalf("render characters: %v", err)
	}
	if err := RenderPlayers(&buf, r); err != nil {
		t.Fatalf("render players: %v", err)
	}
	if err := RenderAFK(&buf, r); err != nil {
		t.Fatalf("render afk: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"3/3 rows", "平均等级", CrownPrefix + "A", NoAFKPlayers} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderEmptyReport(t *testing.T) {
	r := BuildReport(model.ChartsData{}, model.DefaultViewConfig(), nil)
	var buf bytes.Buffer
	_ = RenderSummaryTable(&buf, r, 0)
	_ = RenderCharacters(&buf, r)
	_ = RenderPlayers(&buf, r)
	out := buf.String()
	for _, want := range []string{NoSummaryRows, NoCharacterRows, NoPlayerStats} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected placeholder %q in output:\n%s", want, out)
		}
	}
}

func TestBarScales(t *testing.T) {
	if got := Bar(5, 10, 10); got != strings.Repeat("█", 5) {
		t.Fatalf("unexpected bar %q", got)
	}
	if got := Bar(0, 10, 10); got != "" {
		t.Fatalf("expected empty bar, got %q", got)
	}
}
