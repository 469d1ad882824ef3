// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/verte-zerg/keystone/internal/model"
)

// Metric is a per-character value shown on a card.
type Metric string

const (
	MetricAvgLevel       Metric = "avg_level"
	MetricCompletionRate Metric = "completion_rate"
	MetricTimedRunsRate  Metric = "timed_runs_rate"
)

// Sort fields for character cards.
const (
	FieldAvgLevel       = "avg_level"
	FieldCompletionRate = "completion_rate"
	FieldTimedRunsRate  = "timed_runs_rate"
	FieldClass          = "class"
	FieldCharacterName  = "character_name"
)

// DefaultSortKey is the initial card ordering.
const DefaultSortKey = "avg_level_desc"

// SortKeys lists every accepted sort key in menu order.
var SortKeys = []string{
	"avg_level_desc", "avg_level_asc",
	"completion_rate_desc", "completion_rate_asc",
	"timed_runs_rate_desc", "timed_runs_rate_asc",
	"class_asc", "class_desc",
	"character_name_asc", "character_name_desc",
}

// SortKey is a parsed "<field>_<dir>" key.
type SortKey struct {
	Field string
	Desc  bool
}

// ParseSortKey splits a key such as "timed_runs_rate_desc".
func ParseSortKey(key string) (SortKey, error) {
	key = strings.TrimSpace(key)
	idx := strings.LastIndex(key, "_")
	if idx <= 0 {
		return SortKey{}, fmt.Errorf("invalid sort key %q", key)
	}
	field, dir := key[:idx], key[idx+1:]
	var desc bool
	switch dir {
	case "asc":
	case "desc":
		desc = true
	default:
		return SortKey{}, fmt.Errorf("invalid sort direction in %q", key)
	}
	switch field {
	case FieldAvgLevel, FieldCompletionRate, FieldTimedRunsRate, FieldClass, FieldCharacterName:
	default:
		return SortKey{}, fmt.Errorf("unknown sort field in %q", key)
	}
	return SortKey{Field: field, Desc: desc}, nil
}

// String returns the key in "<field>_<dir>" form.
func (k SortKey) String() string {
	if k.Desc {
		return k.Field + "_desc"
	}
	return k.Field + "_asc"
}

// Metric returns the metric selected by a numeric sort field.
func (k SortKey) Metric() (Metric, bool) {
	switch k.Field {
	case FieldAvgLevel:
		return MetricAvgLevel, true
	case FieldCompletionRate:
		return MetricCompletionRate, true
	case FieldTimedRunsRate:
		return MetricTimedRunsRate, true
	}
	return "", false
}

// FilterAndSort returns the character stats to render. Unknown keys keep input order.
// Names and classes are compared with the collation rules of locale.
func FilterAndSort(stats []model.CharacterStat, hideEmpty bool, key string, locale string) []model.CharacterStat {
	out := make([]model.CharacterStat, 0, len(stats))
	for _, s := range stats {
		if hideEmpty && s.Empty() {
			continue
		}
		out = append(out, s)
	}

	sk, err := ParseSortKey(key)
	if err != nil {
		return out
	}
	var less func(a, b model.CharacterStat) int
	switch sk.Field {
	case FieldAvgLevel:
		less = func(a, b model.CharacterStat) int { return compareFloat(a.AvgLevel, b.AvgLevel) }
	case FieldCompletionRate:
		less = func(a, b model.CharacterStat) int { return compareFloat(a.CompletionRate, b.CompletionRate) }
	case FieldTimedRunsRate:
		less = func(a, b model.CharacterStat) int { return compareFloat(a.TimedRunsRate, b.TimedRunsRate) }
	case FieldClass:
		col := newCollator(locale)
		less = func(a, b model.CharacterStat) int { return col.CompareString(a.Class, b.Class) }
	case FieldCharacterName:
		col := newCollator(locale)
		less = func(a, b model.CharacterStat) int { return col.CompareString(a.Character, b.Character) }
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := less(out[i], out[j])
		if sk.Desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// compareFloat orders NaN below every number.
func compareFloat(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return -1
	case bNaN:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func newCollator(locale string) *collate.Collator {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	return collate.New(tag)
}

// DisplayMetric remembers which metric the cards show.
type DisplayMetric struct {
	current Metric
}

// NewDisplayMetric restores a previously shown metric. Unknown names start at avg_level.
func NewDisplayMetric(prev string) *DisplayMetric {
	switch m := Metric(prev); m {
	case MetricAvgLevel, MetricCompletionRate, MetricTimedRunsRate:
		return &DisplayMetric{current: m}
	}
	return &DisplayMetric{}
}

// Current returns the active metric, avg_level until a numeric key is applied.
func (d *DisplayMetric) Current() Metric {
	if d.current == "" {
		return MetricAvgLevel
	}
	return d.current
}

// Apply updates the metric from a sort key. Class and name keys leave it unchanged.
func (d *DisplayMetric) Apply(key string) Metric {
	if sk, err := ParseSortKey(key); err == nil {
		if m, ok := sk.Metric(); ok {
			d.current = m
		}
	}
	return d.Current()
}

// Label returns the card label for a metric.
func (m Metric) Label() string {
	switch m {
	case MetricCompletionRate:
		return "通关率"
	case MetricTimedRunsRate:
		return "限时完成率"
	default:
		return "平均等级"
	}
}

// FormatMetric renders a stat value with two decimals.
// Missing rates render as "N/A%" and a missing level as "N/A".
func FormatMetric(s model.CharacterStat, m Metric) string {
	var v float64
	missing := "N/A"
	switch m {
	case MetricCompletionRate:
		v = s.CompletionRate
		missing = "N/A%"
	case MetricTimedRunsRate:
		v = s.TimedRunsRate
		missing = "N/A%"
	default:
		v = s.AvgLevel
	}
	if math.IsNaN(v) {
		return missing
	}
	return fmt.Sprintf("%.2f", v)
}
