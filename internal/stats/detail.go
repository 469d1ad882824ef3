package stats

import (
	"strings"

	"github.com/verte-zerg/keystone/internal/model"
)

// Placeholder texts for empty detail views.
const (
	NoPlayerData  = "没有找到该玩家的角色副本数据。"
	NoDungeonRuns = "该玩家没有有效的副本记录。"
)

// DungeonAverage is one bar of a player's detail chart.
type DungeonAverage struct {
	FullName    string
	ShortName   string
	AvgLevel    float64
	Runs        int
	Color       string
	BorderColor string
}

// PlayerDetail aggregates a player's per-dungeon average level across all characters.
// Dungeons follow the order of the full name table; dungeons without runs are skipped.
// The returned string is the placeholder to show when the list is empty.
func PlayerDetail(player string, data model.ChartsData) ([]DungeonAverage, string) {
	chars := data.PlayerCharacterDungeonStats[player]
	if len(chars) == 0 {
		return nil, NoPlayerData
	}

	type acc struct {
		levelSum float64
		runs     int
	}
	totals := map[string]*acc{}
	for _, c := range chars {
		for dungeon, st := range c.DungeonStats {
			a, ok := totals[dungeon]
			if !ok {
				a = &acc{}
				totals[dungeon] = a
			}
			a.levelSum += st.AvgLevel * float64(st.TotalRuns)
			a.runs += st.TotalRuns
		}
	}

	var out []DungeonAverage
	for _, short := range data.DungeonFullNameMap.Keys {
		full := data.DungeonFullNameMap.Values[short]
		a, ok := totals[full]
		if !ok || a.runs <= 0 {
			continue
		}
		color := data.DungeonColor(full)
		out = append(out, DungeonAverage{
			FullName:    full,
			ShortName:   data.ShortName(full),
			AvgLevel:    a.levelSum / float64(a.runs),
			Runs:        a.runs,
			Color:       color,
			BorderColor: strings.Replace(color, "0.8)", "1)", 1),
		})
	}
	if len(out) == 0 {
		return nil, NoDungeonRuns
	}
	return out, ""
}
