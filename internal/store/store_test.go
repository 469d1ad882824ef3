package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/keystone/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "keystone.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestSnapshotRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		snap := model.Snapshot{
			LoadedAt:   base.Add(time.Duration(i) * time.Hour),
			Source:     "charts.json",
			Digest:     "abc",
			Players:    2,
			Characters: 3,
			AFK:        i,
			BestPlayer: "A",
			Payload:    []byte(`{"n":` + string(rune('0'+i)) + `}`),
		}
		scores := []model.PlayerScore{
			{Player: "A", WeightedAvg: 10 + float64(i), Best: true},
			{Player: "B", WeightedAvg: 9},
		}
		id, err := st.InsertSnapshot(ctx, snap, scores)
		if err != nil {
			t.Fatalf("insert snapshot: %v", err)
		}
		if id == "" {
			t.Fatalf("expected generated id")
		}
		ids = append(ids, id)
	}

	latest, ok, err := st.LatestSnapshot(ctx)
	if err != nil || !ok {
		t.Fatalf("latest snapshot: ok=%v err=%v", ok, err)
	}
	if latest.ID != ids[2] || string(latest.Payload) != `{"n":2}` || latest.AFK != 2 {
		t.Fatalf("unexpected latest snapshot: %+v", latest)
	}
	if !latest.LoadedAt.Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("unexpected loaded_at %v", latest.LoadedAt)
	}

	list, err := st.ListSnapshots(ctx, 2)
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if len(list) != 2 || list[0].ID != ids[2] || list[1].ID != ids[1] {
		t.Fatalf("unexpected snapshot list: %+v", list)
	}
	if list[0].Payload != nil {
		t.Fatalf("expected list without payloads")
	}

	history, err := st.PlayerHistory(ctx, "A")
	if err != nil {
		t.Fatalf("player history: %v", err)
	}
	if len(history) != 3 || history[0].WeightedAvg != 10 || history[2].WeightedAvg != 12 || !history[2].Best {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestLatestSnapshotEmpty(t *testing.T) {
	st := openTestStore(t)
	_, ok, err := st.LatestSnapshot(context.Background())
	if err != nil {
		t.Fatalf("latest snapshot: %v", err)
	}
	if ok {
		t.Fatalf("expected no snapshot")
	}
}

func TestReports(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"a.html", "b.html"} {
		if _, err := st.InsertReport(ctx, model.ReportRecord{
			SnapshotID: "s1",
			Path:       name,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
			SizeBytes:  int64(100 * (i + 1)),
		}); err != nil {
			t.Fatalf("insert report: %v", err)
		}
	}
	reports, err := st.ListReports(ctx, 0)
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(reports) != 2 || reports[0].Path != "b.html" || reports[0].SizeBytes != 200 {
		t.Fatalf("unexpected reports: %+v", reports)
	}
}
