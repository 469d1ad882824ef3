package dataset

import (
	"fmt"

	"github.com/verte-zerg/keystone/internal/model"
)

// Validate reports inconsistencies that rendering tolerates but a reader should know about.
func Validate(d model.ChartsData) []string {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	if n := len(d.LevelDistribution.Labels); n != len(d.LevelDistribution.Data) {
		warn("level_distribution: %d labels but %d values", n, len(d.LevelDistribution.Data))
	}
	dp := d.DungeonPerformance
	if n := len(dp.Labels); n != len(dp.AvgLevels) || n != len(dp.TimedRates) {
		warn("dungeon_performance: %d labels, %d avg_levels, %d timed_rates", n, len(dp.AvgLevels), len(dp.TimedRates))
	}

	for i, s := range d.CharacterStats {
		if s.TotalRuns < 0 || s.TimedRuns < 0 {
			warn("character_stats_data[%d] %s: negative run count", i, s.Character)
		}
		if s.TimedRuns > s.TotalRuns {
			warn("character_stats_data[%d] %s: timed_runs %d > total_runs %d", i, s.Character, s.TimedRuns, s.TotalRuns)
		}
	}

	players := len(d.PlayerStats.PlayerLabels)
	for _, ds := range d.PlayerStats.Datasets {
		if len(ds.Data) != players || len(ds.Meta.AvgLevels) != players || len(ds.Meta.Runs) != players {
			warn("player_stats_data dataset %q: lengths do not match %d players", ds.Label, players)
		}
	}

	if st := d.SummaryTable; st != nil {
		for i, row := range st.Rows {
			if len(row) != len(st.Columns) {
				warn("summary_table row %d: %d cells for %d columns", i, len(row), len(st.Columns))
			}
		}
	}

	if d.DungeonFullNameMap.Len() == 0 {
		warn("DUNGEON_FULL_NAME_MAP is empty; player detail views will be empty")
	}
	return warnings
}
