package archive

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestArchive(t *testing.T, opts Options) (*Archive, time.Time) {
	t.Helper()
	a, err := New(opts)
	if err != nil {
		t.Fatalf("new archive: %v", err)
	}
	now := time.Date(2025, 9, 8, 22, 3, 1, 0, time.Local)
	a.now = func() time.Time { return now }
	return a, now
}

func writeAged(t *testing.T, path string, modified time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("<html>"+filepath.Base(path)+"</html>"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Chtimes(path, modified, modified); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestPathFor(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2025, 9, 8, 22, 3, 1, 0, time.Local)

	a, _ := newTestArchive(t, DefaultOptions(dir))
	want := filepath.Join(dir, "2025-09-08", "mythic_performance_report_220301.html")
	if got := a.PathFor(ts); got != want {
		t.Fatalf("unexpected dated path %q", got)
	}

	opts := DefaultOptions(dir)
	opts.DateFolders = false
	flat, _ := newTestArchive(t, opts)
	want = filepath.Join(dir, "mythic_performance_report_20250908_220301.html")
	if got := flat.PathFor(ts); got != want {
		t.Fatalf("unexpected flat path %q", got)
	}
}

func TestSaveWritesLatestCopy(t *testing.T) {
	a, now := newTestArchive(t, DefaultOptions(t.TempDir()))
	res, err := a.Save([]byte("<html>report</html>"), time.Time{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if res.Path != a.PathFor(now) || res.Size != int64(len("<html>report</html>")) {
		t.Fatalf("unexpected save result: %+v", res)
	}
	latest, err := os.ReadFile(a.LatestPath())
	if err != nil {
		t.Fatalf("read latest: %v", err)
	}
	if string(latest) != "<html>report</html>" {
		t.Fatalf("unexpected latest copy %q", latest)
	}
	if len(res.Cleanup.Errors) != 0 {
		t.Fatalf("unexpected cleanup errors: %v", res.Cleanup.Errors)
	}
}

func TestCleanupCompressesAndDeletes(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions(dir)
	opts.MaxFiles = 2
	a, now := newTestArchive(t, opts)

	fresh := filepath.Join(dir, "2025-09-08", "mythic_performance_report_100000.html")
	week := filepath.Join(dir, "2025-08-30", "mythic_performance_report_100000.html")
	recent := filepath.Join(dir, "2025-09-05", "mythic_performance_report_100000.html")
	ancient := filepath.Join(dir, "2025-07-01", "mythic_performance_report_100000.html")
	oldGzip := filepath.Join(dir, "2025-06-01", "mythic_performance_report_100000.html.gz")
	writeAged(t, fresh, now.Add(-time.Hour))
	writeAged(t, recent, now.AddDate(0, 0, -3))
	writeAged(t, week, now.AddDate(0, 0, -9))
	writeAged(t, ancient, now.AddDate(0, 0, -69))
	writeAged(t, oldGzip, now.AddDate(0, 0, -99))
	writeAged(t, a.LatestPath(), now.AddDate(0, 0, -40))

	res := a.Cleanup()
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if !exists(fresh) || !exists(recent) {
		t.Fatalf("expected fresh reports kept")
	}
	if exists(week) || !exists(week+".gz") {
		t.Fatalf("expected week-old report compressed")
	}
	if exists(ancient) || !exists(ancient+".gz") {
		t.Fatalf("expected ancient report compressed before deletion")
	}
	if exists(oldGzip) {
		t.Fatalf("expected expired compressed report deleted")
	}
	if !exists(a.LatestPath()) {
		t.Fatalf("latest copy must never be cleaned up")
	}

	zf, err := os.Open(week + ".gz")
	if err != nil {
		t.Fatalf("open gzip: %v", err)
	}
	defer zf.Close()
	zr, err := gzip.NewReader(zf)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	body, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read gzip: %v", err)
	}
	if string(body) != "<html>mythic_performance_report_100000.html</html>" {
		t.Fatalf("unexpected gzip body %q", body)
	}

	// The compressed ancient report keeps its age and is deleted on the next pass.
	res = a.Cleanup()
	if exists(ancient + ".gz") {
		t.Fatalf("expected expired compressed report deleted on second pass, got %+v", res)
	}
}

func TestCleanupDeletesBeyondMaxWithoutCompression(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions(dir)
	opts.MaxFiles = 1
	opts.CompressOld = false
	a, now := newTestArchive(t, opts)

	newest := filepath.Join(dir, "a", "mythic_performance_report_1.html")
	oldest := filepath.Join(dir, "b", "mythic_performance_report_2.html")
	writeAged(t, newest, now.AddDate(0, 0, -40))
	writeAged(t, oldest, now.AddDate(0, 0, -50))

	res := a.Cleanup()
	if !exists(newest) {
		t.Fatalf("expected report within max kept")
	}
	if exists(oldest) || len(res.Deleted) != 1 {
		t.Fatalf("expected old report beyond max deleted, got %+v", res)
	}
}

func TestStatsRecentAndEmptyDirs(t *testing.T) {
	dir := t.TempDir()
	a, now := newTestArchive(t, DefaultOptions(dir))

	writeAged(t, filepath.Join(dir, "d1", "mythic_performance_report_1.html"), now.AddDate(0, 0, -1))
	writeAged(t, filepath.Join(dir, "d2", "mythic_performance_report_2.html.gz"), now.AddDate(0, 0, -10))
	writeAged(t, filepath.Join(dir, "d2", "notes.txt"), now)
	if err := os.MkdirAll(filepath.Join(dir, "empty", "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	st, err := a.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.TotalFiles != 2 || len(st.ByDate) != 2 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if st.HumanSize() == "" || st.Dates()[0] <= st.Dates()[1] {
		t.Fatalf("unexpected stats formatting: %q %v", st.HumanSize(), st.Dates())
	}

	recent, err := a.Recent(7)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Compressed {
		t.Fatalf("unexpected recent list: %+v", recent)
	}

	removed, err := a.CleanupEmptyDirs()
	if err != nil {
		t.Fatalf("cleanup dirs: %v", err)
	}
	if len(removed) != 2 || exists(filepath.Join(dir, "empty")) {
		t.Fatalf("expected nested empty dirs removed, got %v", removed)
	}
	if !exists(filepath.Join(dir, "d1")) {
		t.Fatalf("expected non-empty dir kept")
	}
}
