// Package archive manages generated report files on disk.
package archive

import (
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	reportPrefix = "mythic_performance_report_"
	htmlExt      = ".html"
	gzipExt      = ".gz"
)

// Options configures the archive.
type Options struct {
	Dir               string
	DateFolders       bool
	KeepLatest        bool
	LatestName        string
	MaxFiles          int
	CompressOld       bool
	CompressAfterDays int
	// DeleteAfterDays of 0 disables deletion.
	DeleteAfterDays int
}

// DefaultOptions returns the stock retention policy rooted at dir.
func DefaultOptions(dir string) Options {
	return Options{
		Dir:               dir,
		DateFolders:       true,
		KeepLatest:        true,
		LatestName:        reportPrefix + "latest" + htmlExt,
		MaxFiles:          20,
		CompressOld:       true,
		CompressAfterDays: 7,
		DeleteAfterDays:   30,
	}
}

// Archive stores reports under a directory.
type Archive struct {
	opts Options
	now  func() time.Time
}

// New returns an archive and creates its directory.
func New(opts Options) (*Archive, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("archive directory is empty")
	}
	if opts.LatestName == "" {
		opts.LatestName = DefaultOptions(opts.Dir).LatestName
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &Archive{opts: opts, now: time.Now}, nil
}

// Dir returns the archive root.
func (a *Archive) Dir() string {
	return a.opts.Dir
}

// LatestPath returns the path of the latest copy.
func (a *Archive) LatestPath() string {
	return filepath.Join(a.opts.Dir, a.opts.LatestName)
}

// PathFor returns the report path for a timestamp.
func (a *Archive) PathFor(ts time.Time) string {
	if a.opts.DateFolders {
		return filepath.Join(a.opts.Dir, ts.Format("2006-01-02"), reportPrefix+ts.Format("150405")+htmlExt)
	}
	return filepath.Join(a.opts.Dir, reportPrefix+ts.Format("20060102_150405")+htmlExt)
}

// SaveResult describes a saved report.
type SaveResult struct {
	Path    string
	Size    int64
	Latest  string
	Cleanup CleanupResult
}

// Save writes a report, refreshes the latest copy and applies retention.
// A failed latest copy or cleanup step is reported in the result, not as an error.
func (a *Archive) Save(content []byte, ts time.Time) (SaveResult, error) {
	if ts.IsZero() {
		ts = a.now()
	}
	path := a.PathFor(ts)
	if err := writeFileAtomic(path, content); err != nil {
		return SaveResult{}, err
	}
	res := SaveResult{Path: path, Size: int64(len(content))}
	if a.opts.KeepLatest {
		if err := writeFileAtomic(a.LatestPath(), content); err != nil {
			res.Cleanup.Errors = append(res.Cleanup.Errors, fmt.Errorf("failed to update latest copy: %w", err))
		} else {
			res.Latest = a.LatestPath()
		}
	}
	cleanup := a.Cleanup()
	res.Cleanup.Compressed = cleanup.Compressed
	res.Cleanup.Deleted = cleanup.Deleted
	res.Cleanup.Errors = append(res.Cleanup.Errors, cleanup.Errors...)
	return res, nil
}

// CleanupResult lists the files touched by a cleanup pass.
type CleanupResult struct {
	Compressed []string
	Deleted    []string
	Errors     []error
}

// Cleanup compresses and deletes old reports. Failures on one file do not stop the pass.
// Reports beyond MaxFiles (newest first) are compressed once old enough, or deleted
// once past DeleteAfterDays; newer ones are only compressed by age.
func (a *Archive) Cleanup() CleanupResult {
	var res CleanupResult
	files, err := a.files()
	if err != nil {
		res.Errors = append(res.Errors, err)
		return res
	}
	now := a.now()

	var plain, compressed []File
	for _, f := range files {
		if f.Compressed {
			compressed = append(compressed, f)
		} else if f.Name != a.opts.LatestName {
			plain = append(plain, f)
		}
	}

	for i, f := range plain {
		age := daysOld(now, f.Modified)
		compressDue := a.opts.CompressOld && age >= a.opts.CompressAfterDays
		deleteDue := a.opts.DeleteAfterDays > 0 && age >= a.opts.DeleteAfterDays
		switch {
		case compressDue:
			out, err := compressFile(f.Path)
			if err != nil {
				res.Errors = append(res.Errors, err)
				continue
			}
			res.Compressed = append(res.Compressed, out)
		case i >= a.opts.MaxFiles && deleteDue:
			if err := os.Remove(f.Path); err != nil {
				res.Errors = append(res.Errors, fmt.Errorf("failed to delete %s: %w", f.Path, err))
				continue
			}
			res.Deleted = append(res.Deleted, f.Path)
		}
	}

	if a.opts.DeleteAfterDays > 0 {
		for _, f := range compressed {
			if daysOld(now, f.Modified) < a.opts.DeleteAfterDays {
				continue
			}
			if err := os.Remove(f.Path); err != nil {
				res.Errors = append(res.Errors, fmt.Errorf("failed to delete %s: %w", f.Path, err))
				continue
			}
			res.Deleted = append(res.Deleted, f.Path)
		}
	}
	return res
}

// File is an archived report.
type File struct {
	Path       string
	Name       string
	Size       int64
	Modified   time.Time
	Compressed bool
}

// files returns every report file, newest first.
func (a *Archive) files() ([]File, error) {
	var out []File
	err := filepath.WalkDir(a.opts.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		isGzip := strings.HasSuffix(name, htmlExt+gzipExt)
		if !isGzip && !strings.HasSuffix(name, htmlExt) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, File{
			Path:       path,
			Name:       name,
			Size:       info.Size(),
			Modified:   info.ModTime(),
			Compressed: isGzip,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan archive: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Modified.After(out[j].Modified)
	})
	return out, nil
}

// Stats summarizes the archive.
type Stats struct {
	Dir        string
	TotalFiles int
	TotalBytes int64
	// ByDate counts files per modification date (YYYY-MM-DD).
	ByDate map[string]int
}

// HumanSize returns the total size in human units.
func (s Stats) HumanSize() string {
	return humanize.Bytes(uint64(s.TotalBytes))
}

// Dates returns the ByDate keys, newest first.
func (s Stats) Dates() []string {
	dates := make([]string, 0, len(s.ByDate))
	for d := range s.ByDate {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// Stats counts files and bytes, including compressed reports and the latest copy.
func (a *Archive) Stats() (Stats, error) {
	files, err := a.files()
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Dir: a.opts.Dir, ByDate: map[string]int{}}
	for _, f := range files {
		st.TotalFiles++
		st.TotalBytes += f.Size
		st.ByDate[f.Modified.Format("2006-01-02")]++
	}
	return st, nil
}

// Recent returns reports modified within the last days, newest first.
func (a *Archive) Recent(days int) ([]File, error) {
	files, err := a.files()
	if err != nil {
		return nil, err
	}
	cutoff := a.now().AddDate(0, 0, -days)
	var out []File
	for _, f := range files {
		if !f.Modified.Before(cutoff) {
			out = append(out, f)
		}
	}
	return out, nil
}

// CleanupEmptyDirs removes empty directories below the archive root, deepest first.
func (a *Archive) CleanupEmptyDirs() ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(a.opts.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != a.opts.Dir {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan archive: %w", err)
	}
	sort.SliceStable(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})
	var removed []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return removed, fmt.Errorf("failed to read %s: %w", dir, err)
		}
		if len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", dir, err)
		}
		removed = append(removed, dir)
	}
	return removed, nil
}

func daysOld(now, modified time.Time) int {
	return int(now.Sub(modified) / (24 * time.Hour))
}

func compressFile(path string) (string, error) {
	out := path + gzipExt
	in, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", out, err)
	}
	zw := gzip.NewWriter(f)
	zw.Name = filepath.Base(path)
	zw.ModTime = info.ModTime()
	if _, err := io.Copy(zw, in); err != nil {
		_ = f.Close()
		_ = os.Remove(out)
		return "", fmt.Errorf("failed to compress %s: %w", path, err)
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		_ = os.Remove(out)
		return "", fmt.Errorf("failed to compress %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(out)
		return "", fmt.Errorf("failed to close %s: %w", out, err)
	}
	// The archive entry keeps the report's modification time.
	if err := os.Chtimes(out, info.ModTime(), info.ModTime()); err != nil {
		return "", fmt.Errorf("failed to set times on %s: %w", out, err)
	}
	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return out, nil
}

func writeFileAtomic(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "report-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp report: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmpFile.Write(content); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
