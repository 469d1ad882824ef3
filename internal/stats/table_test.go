package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Player", "Avg", "Runs"}
	rows := [][]string{
		{"ann", "12.50", "12"},
		{"benjamin", "8.00", "3"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign, 0)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Player     Avg Runs" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "ann      12.50   12" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "benjamin  8.00    3" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"玩家", "X"}, [][]string{{"a", "1"}}, nil, 0)
	if lines[1] != "a    1" {
		t.Fatalf("expected CJK header to count double width, got %q", lines[1])
	}
}

func TestFormatTableTruncates(t *testing.T) {
	lines := formatTable(nil, [][]string{{"abcdefgh", "x"}}, nil, 4)
	if lines[0] != "abc… x" {
		t.Fatalf("unexpected truncated line: %q", lines[0])
	}
}
