// Package table filters and sorts string-valued report tables.
package table

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// ColumnType selects how cell text is compared.
type ColumnType int

const (
	// Text columns compare numerically when the cell is a finite number, else lower-cased.
	Text ColumnType = iota
	// Numeric columns behave like Text; the tag documents intent.
	Numeric
	// Level columns parse "+N", "N+" or "+N*" as N; anything else is lowest.
	Level
)

// Placeholder marks a cell without a recorded run.
const Placeholder = "-"

// identityColumns is the number of leading columns naming the player and character.
const identityColumns = 2

// ParseColumnType maps a type tag to a ColumnType. Unknown tags are Text.
func ParseColumnType(tag string) ColumnType {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "level":
		return Level
	case "numeric", "number":
		return Numeric
	default:
		return Text
	}
}

// String returns the type tag.
func (t ColumnType) String() string {
	switch t {
	case Level:
		return "level"
	case Numeric:
		return "numeric"
	default:
		return "text"
	}
}

// ColumnSpec describes one column.
type ColumnSpec struct {
	Index    int
	Title    string
	Type     ColumnType
	Sortable bool
}

// SummaryColumns builds specs for a player/character by dungeon pivot.
func SummaryColumns(titles []string) []ColumnSpec {
	specs := make([]ColumnSpec, len(titles))
	for i, title := range titles {
		typ := Level
		if i < identityColumns {
			typ = Text
		}
		specs[i] = ColumnSpec{Index: i, Title: title, Type: typ, Sortable: true}
	}
	return specs
}

// Row is an ordered list of cell texts.
type Row []string

// Cell returns the trimmed text of column i, or "" when the row is short.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[i])
}

// Filter is the active search and untimed filter.
type Filter struct {
	Query       string
	HideUntimed bool
}

// Visible reports whether the row passes both filters.
func Visible(row Row, f Filter) bool {
	return matchesQuery(row, f.Query) && (!f.HideUntimed || hasRecordedRun(row))
}

// Visibility returns the indices of rows to hide.
func Visibility(rows []Row, f Filter) map[int]struct{} {
	hidden := map[int]struct{}{}
	for i, row := range rows {
		if !Visible(row, f) {
			hidden[i] = struct{}{}
		}
	}
	return hidden
}

func matchesQuery(row Row, query string) bool {
	q := strings.ToLower(query)
	if q == "" {
		return true
	}
	for _, cell := range row {
		if strings.Contains(strings.ToLower(cell), q) {
			return true
		}
	}
	return false
}

func hasRecordedRun(row Row) bool {
	for i := identityColumns; i < len(row); i++ {
		text := strings.TrimSpace(row[i])
		if text != Placeholder && text != "" {
			return true
		}
	}
	return false
}

// ParseLevel extracts the keystone level from cell text. Unparsable text is -Inf.
func ParseLevel(text string) float64 {
	if n, ok := LevelOf(text); ok {
		return float64(n)
	}
	return math.Inf(-1)
}

// LevelOf returns the integer level of a cell such as "+12", "12+" or "+12*".
func LevelOf(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if text == "" || text == Placeholder {
		return 0, false
	}
	text = strings.Replace(text, "+", "", 1)
	end := 0
	if end < len(text) && (text[end] == '-' || text[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(text) && text[end] >= '0' && text[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}
	n, err := strconv.Atoi(text[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

type valueKind int

const (
	kindNumber valueKind = iota
	kindText
)

type sortValue struct {
	kind valueKind
	num  float64
	text string
}

func extractValue(cell string, typ ColumnType) sortValue {
	if typ == Level {
		return sortValue{kind: kindNumber, num: ParseLevel(cell)}
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return sortValue{kind: kindNumber, num: f}
	}
	return sortValue{kind: kindText, text: strings.ToLower(cell)}
}

// compareValues orders two values. A number and a text never order against each other.
func compareValues(a, b sortValue) int {
	if a.kind != b.kind {
		return 0
	}
	if a.kind == kindNumber {
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	}
	return strings.Compare(a.text, b.text)
}

// Order returns the visible row indices sorted by column col. Equal values keep their order.
func Order(rows []Row, visible []int, col int, typ ColumnType, ascending bool) []int {
	out := append([]int(nil), visible...)
	values := make(map[int]sortValue, len(out))
	for _, idx := range out {
		values[idx] = extractValue(rows[idx].Cell(col), typ)
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := compareValues(values[out[i]], values[out[j]])
		if ascending {
			return c < 0
		}
		return c > 0
	})
	return out
}

// SortState is single-column sort state. Column is -1 when nothing is sorted.
type SortState struct {
	Column    int
	Ascending bool
}

// NoSort is the initial state.
func NoSort() SortState {
	return SortState{Column: -1}
}

// Toggle records a click on col and returns the new direction.
// The first click on a column sorts ascending; repeated clicks alternate.
func (s *SortState) Toggle(col int) bool {
	asc := true
	if s.Column == col {
		asc = !s.Ascending
	}
	s.Column = col
	s.Ascending = asc
	return asc
}

// Indicator returns "asc", "desc" or "" for the given column.
func (s SortState) Indicator(col int) string {
	if s.Column != col || col < 0 {
		return ""
	}
	if s.Ascending {
		return "asc"
	}
	return "desc"
}
