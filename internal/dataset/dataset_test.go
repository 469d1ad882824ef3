package dataset

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const blob = `{
  "level_distribution": {"labels": ["10", "12"], "data": [3, 1]},
  "dungeon_performance": {"labels": ["回响"], "full_names": ["艾拉-卡拉，回响之城"], "avg_levels": [11.5], "timed_rates": [NaN]},
  "class_performance": {"法师": {"avg_level": 12, "color": "3FC7EB"}, "战士": {"avg_level": 9}},
  "character_stats_data": [
    {"player": "p1", "character": "c1", "server": "s", "class": "法师", "avg_level": NaN, "completion_rate": 50, "timed_runs_rate": 25, "total_runs": 4, "timed_runs": 5}
  ],
  "player_stats_data": {"player_labels": ["p1"], "datasets": [{"label": "回响", "data": [3], "meta": {"avg_levels": [11.5], "runs": [4]}}]},
  "player_character_dungeon_stats": {},
  "DUNGEON_FULL_NAME_MAP": {"回响": "艾拉-卡拉，回响之城"},
  "note": "a string with NaN and {braces}"
}`

func TestDecodeSkipsBOM(t *testing.T) {
	d, err := Decode(bytes.NewReader(append([]byte("\xef\xbb\xbf"), blob...)))
	if err != nil {
		t.Fatalf("decode: %+v", err)
	}
	if len(d.CharacterStats) != 1 || !math.IsNaN(d.CharacterStats[0].AvgLevel) {
		t.Fatalf("expected NaN avg_level, got %+v", d.CharacterStats)
	}
	if d.DungeonPerformance.TimedRates[0] != 0 {
		t.Fatalf("expected NaN rate decoded as zero, got %v", d.DungeonPerformance.TimedRates)
	}
	if d.ClassPerformance.Keys[0] != "法师" || d.ClassPerformance.Keys[1] != "战士" {
		t.Fatalf("expected class order kept, got %v", d.ClassPerformance.Keys)
	}
	if d.FullName("回响") != "艾拉-卡拉，回响之城" {
		t.Fatalf("unexpected full name lookup")
	}
}

func TestParseHTMLPage(t *testing.T) {
	page := "<html><script>\n        const chartsData = " + blob + ";\n  console.log('}');\n</script></html>"
	d, err := Parse([]byte(page))
	if err != nil {
		t.Fatalf("parse page: %+v", err)
	}
	if len(d.PlayerStats.PlayerLabels) != 1 {
		t.Fatalf("unexpected players: %v", d.PlayerStats.PlayerLabels)
	}

	obj, err := Extract([]byte(page))
	if err != nil {
		t.Fatalf("extract: %+v", err)
	}
	if !bytes.HasSuffix(obj, []byte("}")) || bytes.Contains(obj, []byte("console")) {
		t.Fatalf("unexpected extracted blob: %s", obj)
	}
	if !bytes.Contains(obj, []byte(`"a string with NaN and {braces}"`)) {
		t.Fatalf("string contents should be untouched: %s", obj)
	}
}

func TestExtractMissingBlob(t *testing.T) {
	if _, err := Extract([]byte("<html></html>")); err == nil {
		t.Fatalf("expected error for page without blob")
	}
	if _, err := Parse([]byte(`{"level_distribution": {`)); err == nil {
		t.Fatalf("expected error for truncated blob")
	}
}

func TestLoadAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts.json")
	if err := os.WriteFile(path, []byte(blob), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	d, err := Load(path)
	if err != nil {
		t.Fatalf("load: %+v", err)
	}
	warnings := Validate(d)
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "timed_runs 5 > total_runs 4") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected timed_runs warning, got %v", warnings)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestMarshalRoundTripKeepsNulls(t *testing.T) {
	d, err := Parse([]byte(blob))
	if err != nil {
		t.Fatalf("parse: %+v", err)
	}
	out, err := Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %+v", err)
	}
	if !bytes.Contains(out, []byte(`"avg_level":null`)) {
		t.Fatalf("expected null avg_level in %s", out)
	}
	again, err := Parse(out)
	if err != nil {
		t.Fatalf("reparse: %+v", err)
	}
	if again.CharacterStats[0].TimedRuns != 5 {
		t.Fatalf("unexpected reparsed stats: %+v", again.CharacterStats)
	}
}
