package stats

import (
	"math"
	"testing"

	"github.com/verte-zerg/keystone/internal/model"
)

func playerData() model.PlayerStatsData {
	return model.PlayerStatsData{
		PlayerLabels: []string{"B", "A", "C"},
		Datasets: []model.PlayerDataset{
			{
				Label: "d1",
				Data:  []float64{7, 5, 0},
				Meta:  model.PlayerDatasetMeta{AvgLevels: []float64{14, 10, 30}, Runs: []int{4, 5, 0}},
			},
			{
				Label: "d2",
				Data:  []float64{7, 10, math.NaN()},
				Meta:  model.PlayerDatasetMeta{AvgLevels: []float64{14, 20, 0}, Runs: []int{6, 5, 0}},
			},
		},
	}
}

func TestWeightedAverages(t *testing.T) {
	avgs := WeightedAverages(playerData())
	if avgs[0] != 14 || avgs[1] != 15 || avgs[2] != 0 {
		t.Fatalf("unexpected weighted averages: %v", avgs)
	}
}

func TestWeightedAveragesSkipMissingLevels(t *testing.T) {
	data := model.PlayerStatsData{
		PlayerLabels: []string{"A", "B"},
		Datasets: []model.PlayerDataset{
			{Label: "d1", Meta: model.PlayerDatasetMeta{AvgLevels: []float64{18, 16}, Runs: []int{2, 4}}},
			{Label: "d2", Meta: model.PlayerDatasetMeta{AvgLevels: []float64{math.NaN(), 16}, Runs: []int{8, 4}}},
			{Label: "d3", Meta: model.PlayerDatasetMeta{AvgLevels: []float64{}, Runs: []int{3, 0}}},
		},
	}
	avgs := WeightedAverages(data)
	if avgs[0] != 18 || avgs[1] != 16 {
		t.Fatalf("expected runs without a level to be ignored, got %v", avgs)
	}
	if got := BestPlayer(data); got != 0 {
		t.Fatalf("expected A to stay best, got index %d", got)
	}
}

func TestBestPlayer(t *testing.T) {
	if got := BestPlayer(playerData()); got != 1 {
		t.Fatalf("expected A to be best, got index %d", got)
	}
	labels := CrownedLabels(playerData())
	if labels[1] != CrownPrefix+"A" || labels[0] != "B" {
		t.Fatalf("unexpected labels: %v", labels)
	}
	if got := BestPlayer(model.PlayerStatsData{}); got != -1 {
		t.Fatalf("expected -1 without players, got %d", got)
	}
}

func TestBestPlayerTieKeepsFirst(t *testing.T) {
	data := model.PlayerStatsData{
		PlayerLabels: []string{"x", "y"},
		Datasets: []model.PlayerDataset{
			{Meta: model.PlayerDatasetMeta{AvgLevels: []float64{10, 10}, Runs: []int{1, 3}}},
		},
	}
	if got := BestPlayer(data); got != 0 {
		t.Fatalf("expected first player on tie, got %d", got)
	}
}

func TestBestPlayerAllWithoutRuns(t *testing.T) {
	data := model.PlayerStatsData{PlayerLabels: []string{"x", "y"}}
	if got := BestPlayer(data); got != 0 {
		t.Fatalf("expected first player when nobody ran, got %d", got)
	}
}

func TestCombinedContribution(t *testing.T) {
	got := CombinedContribution(playerData())
	if got[0] != 14 || got[1] != 15 || got[2] != 0 {
		t.Fatalf("unexpected combined values: %v", got)
	}
}
