package report

import (
	"fmt"
	"html/template"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/render"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/verte-zerg/keystone/internal/model"
	"github.com/verte-zerg/keystone/internal/stats"
)

// combinedColor is the single-series color of the merged player chart.
const combinedColor = "rgba(100, 149, 237, 0.6)"

type snippetRenderer interface {
	RenderSnippet() render.ChartSnippet
}

func renderSnippet(c snippetRenderer) template.HTML {
	s := c.RenderSnippet()
	return template.HTML(s.Element + "\n" + s.Script)
}

func boolPtr(v bool) *bool {
	return &v
}

func initOpts(id, height string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		Theme:   types.ThemeWesteros,
		Height:  height,
		Width:   "100%",
		ChartID: id,
	})
}

func round(v float64, digits int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}

// levelChart draws runs per keystone level, each bar in its layer color.
func levelChart(d model.ChartsData) template.HTML {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "层数分布"}),
		initOpts("level-distribution", "350px"),
		charts.WithLegendOpts(opts.Legend{Show: boolPtr(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: boolPtr(true), Trigger: "axis"}),
	)
	items := make([]opts.BarData, len(d.LevelDistribution.Labels))
	for i, label := range d.LevelDistribution.Labels {
		color := model.DefaultHexColor
		if n, err := strconv.Atoi(label); err == nil {
			color = d.LayerColor(n)
		}
		v := 0
		if i < len(d.LevelDistribution.Data) {
			v = d.LevelDistribution.Data[i]
		}
		items[i] = opts.BarData{Name: label, Value: v, ItemStyle: &opts.ItemStyle{Color: "#" + color}}
	}
	bar.SetXAxis(d.LevelDistribution.Labels).AddSeries("运行次数", items)
	return renderSnippet(bar)
}

// dungeonChart draws the average level per dungeon with the timed rate on a second axis.
func dungeonChart(d model.ChartsData) template.HTML {
	perf := d.DungeonPerformance
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "副本表现"}),
		initOpts("dungeon-performance", "380px"),
		charts.WithLegendOpts(opts.Legend{Show: boolPtr(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: boolPtr(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "平均等级"}),
	)
	bar.ExtendYAxis(opts.YAxis{Name: "限时率 (%)", Min: 0, Max: 100})

	levels := make([]opts.BarData, len(perf.Labels))
	rates := make([]opts.LineData, len(perf.Labels))
	for i, label := range perf.Labels {
		full := label
		if i < len(perf.FullNames) {
			full = perf.FullNames[i]
		}
		levels[i] = opts.BarData{
			Name:      full,
			Value:     round(at(perf.AvgLevels, i), 1),
			ItemStyle: &opts.ItemStyle{Color: d.DungeonColor(full)},
		}
		rates[i] = opts.LineData{Name: full, Value: round(at(perf.TimedRates, i), 1)}
	}
	bar.SetXAxis(perf.Labels).AddSeries("平均等级", levels)

	line := charts.NewLine()
	line.SetXAxis(perf.Labels).AddSeries("限时率", rates, charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}))
	bar.Overlap(line)
	return renderSnippet(bar)
}

// classChart draws the average level per class in blob order.
func classChart(d model.ChartsData) template.HTML {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "职业表现"}),
		initOpts("class-performance", "350px"),
		charts.WithLegendOpts(opts.Legend{Show: boolPtr(false)}),
	)
	items := make([]opts.BarData, 0, d.ClassPerformance.Len())
	for _, class := range d.ClassPerformance.Keys {
		perf := d.ClassPerformance.Values[class]
		color := perf.Color
		if color == "" {
			color = d.ClassColor(class)
		}
		items = append(items, opts.BarData{
			Name:      class,
			Value:     round(perf.AvgLevel, 1),
			ItemStyle: &opts.ItemStyle{Color: "#" + color},
		})
	}
	bar.SetXAxis(d.ClassPerformance.Keys).AddSeries("平均等级", items)
	return renderSnippet(bar)
}

func playerChartHeight(players int) string {
	return fmt.Sprintf("%dpx", players*28+120)
}

// playerChart stacks each dungeon's contribution per player horizontally.
func playerChart(r stats.Report) template.HTML {
	ps := r.Data.PlayerStats
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "玩家副本贡献"}),
		initOpts("player-stats", playerChartHeight(len(ps.PlayerLabels))),
		charts.WithLegendOpts(opts.Legend{Show: boolPtr(true), Type: "scroll"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: boolPtr(true), Trigger: "axis"}),
	)
	bar.SetXAxis(r.PlayerLabels)
	for _, ds := range ps.Datasets {
		color := ds.BackgroundColor
		if color == "" {
			color = r.Data.DungeonColor(r.Data.FullName(ds.Label))
		}
		items := make([]opts.BarData, len(ps.PlayerLabels))
		for i := range ps.PlayerLabels {
			items[i] = opts.BarData{Value: round(at(ds.Data, i), 2)}
		}
		bar.AddSeries(ds.Label, items,
			charts.WithBarChartOpts(opts.BarChart{Stack: "players"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
		)
	}
	bar.XYReversal()
	return renderSnippet(bar)
}

// combinedChart merges all dungeons into one series per player.
func combinedChart(r stats.Report) template.HTML {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "玩家总贡献"}),
		initOpts("player-combined", playerChartHeight(len(r.PlayerLabels))),
		charts.WithLegendOpts(opts.Legend{Show: boolPtr(false)}),
	)
	combined := stats.CombinedContribution(r.Data.PlayerStats)
	items := make([]opts.BarData, len(combined))
	for i, v := range combined {
		items[i] = opts.BarData{Value: round(v, 2)}
	}
	bar.SetXAxis(r.PlayerLabels).
		AddSeries("总贡献", items, charts.WithItemStyleOpts(opts.ItemStyle{Color: combinedColor}))
	bar.XYReversal()
	return renderSnippet(bar)
}

// detailChart draws a player's per-dungeon averages.
func detailChart(player string, detail []stats.DungeonAverage) template.HTML {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: player + " 各副本平均等级"}),
		initOpts("player-detail", "320px"),
		charts.WithLegendOpts(opts.Legend{Show: boolPtr(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: boolPtr(true)}),
	)
	labels := make([]string, len(detail))
	items := make([]opts.BarData, len(detail))
	for i, da := range detail {
		labels[i] = da.ShortName
		items[i] = opts.BarData{
			Name:  da.FullName,
			Value: round(da.AvgLevel, 1),
			ItemStyle: &opts.ItemStyle{
				Color:       da.Color,
				BorderColor: da.BorderColor,
				BorderWidth: 1,
			},
		}
	}
	bar.SetXAxis(labels).AddSeries("平均等级", items)
	return renderSnippet(bar)
}

func at(values []float64, i int) float64 {
	if i < 0 || i >= len(values) {
		return 0
	}
	return values[i]
}
