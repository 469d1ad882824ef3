// Package report renders the self-contained HTML report.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/keystone/internal/model"
	"github.com/verte-zerg/keystone/internal/stats"
	"github.com/verte-zerg/keystone/internal/table"
)

// DefaultTitle is the page title used when Options.Title is empty.
const DefaultTitle = "大秘境表现报告"

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.New("report.html.tmpl").Funcs(template.FuncMap{
	"comma": func(v int) string { return humanize.Comma(int64(v)) },
}).ParseFS(templateFS, "templates/*.tmpl"))

// Options controls page output.
type Options struct {
	Title       string
	GeneratedAt time.Time
	// Interactive adds the view controls and the AFK click game.
	Interactive bool
	// BasePath prefixes links and API calls in interactive pages.
	BasePath string
	// AFK overrides the roster counters, for example from a running game.
	AFK []stats.AFKPlayer
}

// Render writes the report page for r.
func Render(w io.Writer, r stats.Report, o Options) error {
	if err := pageTemplate.Execute(w, newPage(r, o)); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// Bytes renders the report page into memory.
func Bytes(r stats.Report, o Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, r, o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type page struct {
	Title       string
	GeneratedAt time.Time
	Source      string
	Interactive bool
	Base        string
	View        model.ViewConfig

	Totals totals

	Summary *summaryView

	Cards       []card
	MetricLabel string
	SortOptions []sortOption

	LevelChart    template.HTML
	DungeonChart  template.HTML
	ClassChart    template.HTML
	PlayerChart   template.HTML
	CombinedChart template.HTML
	HasPlayers    bool
	BestPlayer    string
	Players       []playerLink

	DetailPlayer      string
	DetailChart       template.HTML
	DetailRows        []stats.DungeonAverage
	DetailPlaceholder string

	AFK     []stats.AFKPlayer
	AFKMax  int
	Kiss    string
	Notices notices
}

type totals struct {
	Players    int
	Characters int
	Runs       int
	AFK        int
}

type notices struct {
	NoSummary    string
	NoCharacters string
	NoPlayers    string
	NoAFK        string
}

type summaryView struct {
	Headers []header
	Rows    [][]cell
	Visible int
	Total   int
}

type header struct {
	Title     string
	Link      string
	Indicator string
}

type cell struct {
	Text  string
	Class string
	Color string
}

type card struct {
	Player    string
	Character string
	Server    string
	Class     string
	Color     string
	Value     string
	TotalRuns int
	TimedRuns int
}

type sortOption struct {
	Key      string
	Label    string
	Selected bool
}

type playerLink struct {
	Name  string
	Label string
	Link  string
	Score float64
}

var sortLabels = map[string]string{
	"avg_level_desc":       "平均等级 ↓",
	"avg_level_asc":        "平均等级 ↑",
	"completion_rate_desc": "通关率 ↓",
	"completion_rate_asc":  "通关率 ↑",
	"timed_runs_rate_desc": "限时完成率 ↓",
	"timed_runs_rate_asc":  "限时完成率 ↑",
	"class_asc":            "职业 A-Z",
	"class_desc":           "职业 Z-A",
	"character_name_asc":   "角色 A-Z",
	"character_name_desc":  "角色 Z-A",
}

func newPage(r stats.Report, o Options) page {
	title := o.Title
	if title == "" {
		title = DefaultTitle
	}
	generated := o.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	p := page{
		Title:       title,
		GeneratedAt: generated,
		Source:      r.Data.GeneratedAt,
		Interactive: o.Interactive,
		Base:        strings.TrimRight(o.BasePath, "/"),
		View:        r.View,
		MetricLabel: r.Metric.Label(),
		Kiss:        "💋",
		AFKMax:      stats.MaxClicksPerPlayer,
		Notices: notices{
			NoSummary:    stats.NoSummaryRows,
			NoCharacters: stats.NoCharacterRows,
			NoPlayers:    stats.NoPlayerStats,
			NoAFK:        stats.NoAFKPlayers,
		},
	}

	p.View.Metric = string(r.Metric)
	p.Totals = countTotals(r)
	p.Summary = newSummaryView(r, p.View, p.Base)

	for _, s := range r.Characters {
		p.Cards = append(p.Cards, card{
			Player:    s.Player,
			Character: s.Character,
			Server:    s.Server,
			Class:     s.Class,
			Color:     r.Data.ClassColor(s.Class),
			Value:     stats.FormatMetric(s, r.Metric),
			TotalRuns: s.TotalRuns,
			TimedRuns: s.TimedRuns,
		})
	}
	current := r.View.CharacterSort
	if current == "" {
		current = stats.DefaultSortKey
	}
	for _, key := range stats.SortKeys {
		p.SortOptions = append(p.SortOptions, sortOption{Key: key, Label: sortLabels[key], Selected: key == current})
	}

	p.LevelChart = levelChart(r.Data)
	p.DungeonChart = dungeonChart(r.Data)
	p.ClassChart = classChart(r.Data)
	if len(r.PlayerLabels) > 0 {
		p.HasPlayers = true
		p.PlayerChart = playerChart(r)
		p.CombinedChart = combinedChart(r)
		p.BestPlayer = r.BestPlayerName()
		for i, name := range r.Data.PlayerStats.PlayerLabels {
			p.Players = append(p.Players, playerLink{
				Name:  name,
				Label: r.PlayerLabels[i],
				Link:  viewLink(p.Base, p.View, func(v *model.ViewConfig) { v.Player = name }),
				Score: r.Weighted[i],
			})
		}
	}

	if r.View.Player != "" {
		p.DetailPlayer = r.View.Player
		p.DetailRows = r.Detail
		p.DetailPlaceholder = r.DetailPlaceholder
		if len(r.Detail) > 0 {
			p.DetailChart = detailChart(r.View.Player, r.Detail)
		}
	}

	if o.AFK != nil {
		p.AFK = o.AFK
	} else {
		for _, name := range r.AFK {
			p.AFK = append(p.AFK, stats.AFKPlayer{Name: name})
		}
	}
	return p
}

func countTotals(r stats.Report) totals {
	t := totals{Characters: len(r.Data.CharacterStats), AFK: len(r.AFK)}
	seen := map[string]struct{}{}
	for _, s := range r.Data.CharacterStats {
		seen[s.Player] = struct{}{}
		t.Runs += s.TotalRuns
	}
	t.Players = len(seen)
	return t
}

func newSummaryView(r stats.Report, view model.ViewConfig, base string) *summaryView {
	if r.Summary == nil {
		return nil
	}
	state := r.Summary.SortState()
	sv := &summaryView{Visible: r.Summary.VisibleCount(), Total: r.Summary.Len()}
	for _, c := range r.Summary.Columns() {
		next := state
		asc := next.Toggle(c.Index)
		col := c.Index
		sv.Headers = append(sv.Headers, header{
			Title:     c.Title,
			Indicator: state.Indicator(c.Index),
			Link: viewLink(base, view, func(v *model.ViewConfig) {
				v.SortColumn = col
				v.SortDesc = !asc
			}),
		})
	}
	for _, row := range r.Summary.VisibleRows() {
		cells := make([]cell, len(row))
		for i, text := range row {
			cells[i] = cell{Text: text}
			if i < 2 {
				continue
			}
			if n, ok := table.LevelOf(text); ok {
				cells[i].Class = "level-" + strconv.Itoa(n)
				cells[i].Color = r.Data.LayerColor(n)
			} else {
				cells[i].Class = "level-empty"
			}
		}
		sv.Rows = append(sv.Rows, cells)
	}
	return sv
}

// Query returns the URL query that reproduces a view.
func Query(v model.ViewConfig) url.Values {
	q := url.Values{}
	if v.Search != "" {
		q.Set("q", v.Search)
	}
	q.Set("hide_untimed", flag(v.HideUntimed))
	if v.SortColumn >= 0 {
		q.Set("sort", strconv.Itoa(v.SortColumn))
		if v.SortDesc {
			q.Set("dir", "desc")
		} else {
			q.Set("dir", "asc")
		}
	}
	q.Set("hide_empty", flag(v.HideEmpty))
	if v.CharacterSort != "" && v.CharacterSort != stats.DefaultSortKey {
		q.Set("char_sort", v.CharacterSort)
	}
	if v.Metric != "" {
		q.Set("metric", v.Metric)
	}
	if v.Player != "" {
		q.Set("player", v.Player)
	}
	return q
}

// ParseQuery applies URL query parameters on top of a base view.
func ParseQuery(q url.Values, base model.ViewConfig) model.ViewConfig {
	v := base
	if _, ok := q["q"]; ok {
		v.Search = q.Get("q")
	}
	if s, ok := last(q, "hide_untimed"); ok {
		v.HideUntimed = truthy(s)
	}
	if s := q.Get("sort"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			v.SortColumn = n
		}
	}
	if s := q.Get("dir"); s != "" {
		v.SortDesc = s == "desc"
	}
	if s, ok := last(q, "hide_empty"); ok {
		v.HideEmpty = truthy(s)
	}
	if s := q.Get("char_sort"); s != "" {
		v.CharacterSort = s
	}
	if s := q.Get("metric"); s != "" {
		v.Metric = s
	}
	if _, ok := q["player"]; ok {
		v.Player = q.Get("player")
	}
	return v
}

// last returns the final value of a repeated parameter. Forms send a hidden
// "0" before each checkbox, so an unchecked box still turns its filter off.
func last(q url.Values, key string) (string, bool) {
	vals := q[key]
	if len(vals) == 0 {
		return "", false
	}
	return vals[len(vals)-1], true
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func truthy(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return s == "on"
	}
	return b
}

func viewLink(base string, v model.ViewConfig, edit func(*model.ViewConfig)) string {
	edit(&v)
	q := Query(v).Encode()
	if q == "" {
		return base + "/"
	}
	return base + "/?" + q
}
