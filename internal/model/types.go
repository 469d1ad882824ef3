// Package model defines shared data structures.
package model

import (
	"math"
	"strconv"
)

// Fallback colors for lookup misses.
const (
	DefaultHexColor  = "888888"
	DefaultRGBAColor = "rgba(120, 120, 120, 0.8)"
)

// ChartsData is the pre-computed report blob.
type ChartsData struct {
	LevelDistribution           LevelDistribution                  `json:"level_distribution"`
	DungeonPerformance          DungeonPerformance                 `json:"dungeon_performance"`
	ClassPerformance            Ordered[ClassPerformance]          `json:"class_performance"`
	CharacterStats              []CharacterStat                    `json:"character_stats_data"`
	PlayerStats                 PlayerStatsData                    `json:"player_stats_data"`
	PlayerCharacterDungeonStats map[string][]CharacterDungeonStats `json:"player_character_dungeon_stats"`
	SummaryTable                *SummaryTable                      `json:"summary_table,omitempty"`
	GeneratedAt                 string                             `json:"generated_at,omitempty"`

	LayerColorMap       Ordered[string] `json:"LAYER_COLOR_MAP"`
	DungeonColorMap     Ordered[string] `json:"DUNGEON_COLOR_MAP"`
	ClassColorMap       Ordered[string] `json:"CLASS_COLOR_MAP"`
	DungeonFullNameMap  Ordered[string] `json:"DUNGEON_FULL_NAME_MAP"`
	DungeonShortNameMap Ordered[string] `json:"DUNGEON_SHORT_NAME_MAP"`
}

// LevelDistribution counts runs per keystone level.
type LevelDistribution struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// DungeonPerformance holds per-dungeon averages, indexed in parallel.
type DungeonPerformance struct {
	Labels     []string  `json:"labels"`
	FullNames  []string  `json:"full_names"`
	AvgLevels  []float64 `json:"avg_levels"`
	TimedRates []float64 `json:"timed_rates"`
}

// ClassPerformance is the average level of a class.
type ClassPerformance struct {
	AvgLevel float64 `json:"avg_level"`
	Color    string  `json:"color,omitempty"`
}

// CharacterStat is a per-character summary. Missing numeric values are NaN.
type CharacterStat struct {
	Player         string
	Character      string
	Server         string
	Class          string
	AvgLevel       float64
	CompletionRate float64
	TimedRunsRate  float64
	TotalRuns      int
	TimedRuns      int
}

// Empty reports whether the character has no meaningful record.
func (c CharacterStat) Empty() bool {
	return c.TotalRuns <= 0 || math.IsNaN(c.AvgLevel) || c.AvgLevel <= 0
}

// PlayerStatsData feeds the stacked per-player chart. Each dataset is one dungeon.
type PlayerStatsData struct {
	PlayerLabels []string        `json:"player_labels"`
	Datasets     []PlayerDataset `json:"datasets"`
}

// PlayerDataset is one dungeon's contribution per player.
type PlayerDataset struct {
	Label           string            `json:"label"`
	Data            []float64         `json:"data"`
	BackgroundColor string            `json:"backgroundColor,omitempty"`
	Meta            PlayerDatasetMeta `json:"meta"`
}

// PlayerDatasetMeta carries the raw averages and run counts behind Data.
type PlayerDatasetMeta struct {
	AvgLevels []float64 `json:"avg_levels"`
	Runs      []int     `json:"runs"`
}

// CharacterDungeonStats lists one character's per-dungeon results.
type CharacterDungeonStats struct {
	Character    string                 `json:"character"`
	DungeonStats map[string]DungeonStat `json:"dungeon_stats"`
}

// DungeonStat is the average level and run count of one dungeon.
type DungeonStat struct {
	AvgLevel  float64 `json:"avg_level"`
	TotalRuns int     `json:"total_runs"`
}

// SummaryTable is the player/character by dungeon pivot of display levels.
type SummaryTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// LayerColor returns the hex color for a keystone level.
func (d ChartsData) LayerColor(level int) string {
	if c, ok := d.LayerColorMap.Get(strconv.Itoa(level)); ok && c != "" {
		return c
	}
	return DefaultHexColor
}

// ClassColor returns the hex color for a class.
func (d ChartsData) ClassColor(class string) string {
	if c, ok := d.ClassColorMap.Get(class); ok && c != "" {
		return c
	}
	return DefaultHexColor
}

// DungeonColor returns the rgba color for a dungeon full name.
func (d ChartsData) DungeonColor(fullName string) string {
	if c, ok := d.DungeonColorMap.Get(fullName); ok && c != "" {
		return c
	}
	return DefaultRGBAColor
}

// FullName maps a dungeon short name to its full name, or returns the label.
func (d ChartsData) FullName(short string) string {
	if full, ok := d.DungeonFullNameMap.Get(short); ok && full != "" {
		return full
	}
	return short
}

// ShortName maps a dungeon full name to its short name, or returns the label.
func (d ChartsData) ShortName(full string) string {
	if short, ok := d.DungeonShortNameMap.Get(full); ok && short != "" {
		return short
	}
	return full
}

// ViewConfig holds the interactive state applied to a report render.
type ViewConfig struct {
	Search        string
	HideUntimed   bool
	SortColumn    int
	SortDesc      bool
	HideEmpty     bool
	CharacterSort string
	Metric        string
	Player        string
	Locale        string
}

// DefaultViewConfig returns the initial view: nothing filtered, no column sorted.
func DefaultViewConfig() ViewConfig {
	return ViewConfig{
		SortColumn:    -1,
		CharacterSort: "avg_level_desc",
		Locale:        "zh",
	}
}
