package stats

import (
	"math"

	"github.com/verte-zerg/keystone/internal/model"
)

// CrownPrefix marks the best player's label.
const CrownPrefix = "👑 "

// WeightedAverages returns each player's run-weighted average level across datasets.
// Datasets with no runs or no recorded level for a player are skipped, so their
// runs do not dilute the average. A player without usable runs scores 0.
func WeightedAverages(data model.PlayerStatsData) []float64 {
	out := make([]float64, len(data.PlayerLabels))
	for i := range data.PlayerLabels {
		var levelSum float64
		var runs int
		for _, ds := range data.Datasets {
			r := intAt(ds.Meta.Runs, i)
			if r <= 0 {
				continue
			}
			level, ok := finiteAt(ds.Meta.AvgLevels, i)
			if !ok {
				continue
			}
			levelSum += level * float64(r)
			runs += r
		}
		if runs > 0 {
			out[i] = levelSum / float64(runs)
		}
	}
	return out
}

// BestPlayer returns the index of the player with the highest weighted average.
// The first index wins ties. It returns -1 when there are no players.
func BestPlayer(data model.PlayerStatsData) int {
	best := -1
	maxAvg := -1.0
	for i, avg := range WeightedAverages(data) {
		if avg > maxAvg {
			maxAvg = avg
			best = i
		}
	}
	return best
}

// CrownedLabels returns the player labels with the best player marked.
func CrownedLabels(data model.PlayerStatsData) []string {
	best := BestPlayer(data)
	out := make([]string, len(data.PlayerLabels))
	for i, label := range data.PlayerLabels {
		if i == best {
			label = CrownPrefix + label
		}
		out[i] = label
	}
	return out
}

// CombinedContribution sums every dataset's value per player into a single series.
func CombinedContribution(data model.PlayerStatsData) []float64 {
	out := make([]float64, len(data.PlayerLabels))
	for i := range data.PlayerLabels {
		for _, ds := range data.Datasets {
			out[i] += floatAt(ds.Data, i)
		}
	}
	return out
}

func floatAt(values []float64, i int) float64 {
	if i < 0 || i >= len(values) {
		return 0
	}
	if math.IsNaN(values[i]) {
		return 0
	}
	return values[i]
}

// finiteAt reports the value at i, or false when it is missing or not finite.
func finiteAt(values []float64, i int) (float64, bool) {
	if i < 0 || i >= len(values) {
		return 0, false
	}
	v := values[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func intAt(values []int, i int) int {
	if i < 0 || i >= len(values) {
		return 0
	}
	return values[i]
}
