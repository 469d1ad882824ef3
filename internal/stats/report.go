package stats

import (
	"github.com/verte-zerg/keystone/internal/model"
	"github.com/verte-zerg/keystone/internal/table"
)

// Report contains precomputed data for rendering one view of the blob.
type Report struct {
	Data    model.ChartsData
	View    model.ViewConfig
	Summary *table.Table

	Characters []model.CharacterStat
	Metric     Metric

	AFK []string

	PlayerLabels []string
	Weighted     []float64
	BestIndex    int

	Detail            []DungeonAverage
	DetailPlaceholder string
}

// BuildReport applies the view state to the blob.
// metric carries the card metric across views and may be nil.
func BuildReport(data model.ChartsData, view model.ViewConfig, metric *DisplayMetric) Report {
	if metric == nil {
		metric = NewDisplayMetric(view.Metric)
	}
	key := view.CharacterSort
	if key == "" {
		key = DefaultSortKey
	}

	r := Report{
		Data:       data,
		View:       view,
		Summary:    SummaryTable(data, view),
		Characters: FilterAndSort(data.CharacterStats, view.HideEmpty, key, view.Locale),
		Metric:     metric.Apply(key),
		AFK:        IdentifyAFK(data.CharacterStats),
		Weighted:   WeightedAverages(data.PlayerStats),
		BestIndex:  BestPlayer(data.PlayerStats),
	}
	r.PlayerLabels = CrownedLabels(data.PlayerStats)
	if view.Player != "" {
		r.Detail, r.DetailPlaceholder = PlayerDetail(view.Player, data)
	}
	return r
}

// SummaryTable builds the filtered and sorted summary table, or nil when the blob has none.
func SummaryTable(data model.ChartsData, view model.ViewConfig) *table.Table {
	if data.SummaryTable == nil || len(data.SummaryTable.Columns) == 0 {
		return nil
	}
	rows := make([]table.Row, len(data.SummaryTable.Rows))
	for i, r := range data.SummaryTable.Rows {
		rows[i] = table.Row(r)
	}
	t := table.New(table.SummaryColumns(data.SummaryTable.Columns), rows)
	t.SetFilter(table.Filter{Query: view.Search, HideUntimed: view.HideUntimed})
	if view.SortColumn >= 0 {
		t.SetSort(view.SortColumn, !view.SortDesc)
	}
	return t
}

// BestPlayerName returns the crowned player's label without the crown, or "".
func (r Report) BestPlayerName() string {
	if r.BestIndex < 0 || r.BestIndex >= len(r.Data.PlayerStats.PlayerLabels) {
		return ""
	}
	return r.Data.PlayerStats.PlayerLabels[r.BestIndex]
}
