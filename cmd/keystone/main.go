// Package main provides the CLI entrypoint for keystone.
package main

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/keystone/internal/archive"
	"github.com/verte-zerg/keystone/internal/browse"
	"github.com/verte-zerg/keystone/internal/config"
	"github.com/verte-zerg/keystone/internal/dataset"
	"github.com/verte-zerg/keystone/internal/model"
	"github.com/verte-zerg/keystone/internal/report"
	"github.com/verte-zerg/keystone/internal/server"
	"github.com/verte-zerg/keystone/internal/stats"
	"github.com/verte-zerg/keystone/internal/store"
)

const (
	defaultLocale       = "zh"
	defaultAddr         = "127.0.0.1:8080"
	defaultServeMode    = gin.ReleaseMode
	defaultTab          = "summary"
	defaultRecentDays   = 7
	defaultHistoryLimit = 20
	defaultMaxCell      = 12
	minCellWidth        = 4
)

var (
	dataPath   string
	archiveDir string

	viewSearch      string
	viewHideUntimed bool
	viewSortColumn  int
	viewSortDesc    bool
	viewHideEmpty   bool
	viewCharSort    string
	viewPlayer      string
	viewLocale      string
	viewTitle       string

	renderOut       string
	renderNoArchive bool
	renderNoHistory bool

	browseTab string

	summaryMaxCell int

	serveAddr string
	serveMode string

	reportsDays     int
	reportsRecorded bool

	historyLimit  int
	historyPlayer string
)

func main() {
	if err := config.LoadEnv(".env"); err != nil {
		logErrf("%v\n", err)
	}
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "keystone",
		Short:         "Mythic+ performance report",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "chartsData JSON file or generated report page")
	rootCmd.PersistentFlags().StringVar(&archiveDir, "archive-dir", "", "report archive directory")

	rootCmd.AddCommand(newRenderCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newReportsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addViewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&viewSearch, "search", "", "summary search text (player or character)")
	cmd.Flags().BoolVar(&viewHideUntimed, "hide-untimed", false, "hide summary rows without a timed run")
	cmd.Flags().IntVar(&viewSortColumn, "sort", -1, "summary column index to sort by")
	cmd.Flags().BoolVar(&viewSortDesc, "desc", false, "sort the summary column descending")
	cmd.Flags().BoolVar(&viewHideEmpty, "hide-empty", false, "hide characters without records")
	cmd.Flags().StringVar(&viewCharSort, "char-sort", stats.DefaultSortKey, "character sort key")
	cmd.Flags().StringVar(&viewPlayer, "player", "", "player shown in the dungeon detail")
	cmd.Flags().StringVar(&viewLocale, "locale", defaultLocale, "collation locale for names and classes")
	cmd.Flags().StringVar(&viewTitle, "title", report.DefaultTitle, "report title")
}

// resolveView merges config values into view flags that were not set.
func resolveView(cmd *cobra.Command, fileCfg config.FileConfig) (model.ViewConfig, error) {
	applyStringConfig(cmd, "locale", &viewLocale, fileCfg.Report.Locale)
	applyStringConfig(cmd, "char-sort", &viewCharSort, fileCfg.Report.CharacterSort)
	applyBoolConfig(cmd, "hide-empty", &viewHideEmpty, fileCfg.Report.HideEmpty)
	applyBoolConfig(cmd, "hide-untimed", &viewHideUntimed, fileCfg.Report.HideUntimed)
	applyStringConfig(cmd, "title", &viewTitle, fileCfg.Report.Title)

	if _, err := stats.ParseSortKey(viewCharSort); err != nil {
		return model.ViewConfig{}, fmt.Errorf("--char-sort must be one of %s", strings.Join(stats.SortKeys, ", "))
	}
	if viewSortColumn < -1 {
		return model.ViewConfig{}, fmt.Errorf("--sort must be >= -1")
	}

	view := model.DefaultViewConfig()
	view.Search = viewSearch
	view.HideUntimed = viewHideUntimed
	view.SortColumn = viewSortColumn
	view.SortDesc = viewSortDesc
	view.HideEmpty = viewHideEmpty
	view.CharacterSort = viewCharSort
	view.Player = viewPlayer
	view.Locale = viewLocale
	return view, nil
}

func loadFileConfig() (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg, nil
}

// resolveDataPath picks the blob path: flag, then KEYSTONE_DATA, then config.
func resolveDataPath(cmd *cobra.Command, fileCfg config.FileConfig) (string, error) {
	applyStringConfig(cmd, "data", &dataPath, fileCfg.Report.Data)
	if !cmd.Flags().Changed("data") {
		if v, ok := config.DataPathFromEnv(); ok {
			dataPath = v
		}
	}
	if strings.TrimSpace(dataPath) == "" {
		return "", fmt.Errorf("no data file: pass --data, set %s or [report] data in %s", config.EnvData, config.DefaultConfigPath())
	}
	return dataPath, nil
}

func loadData(cmd *cobra.Command, fileCfg config.FileConfig) (model.ChartsData, string, error) {
	path, err := resolveDataPath(cmd, fileCfg)
	if err != nil {
		return model.ChartsData{}, "", err
	}
	data, err := dataset.Load(path)
	if err != nil {
		return model.ChartsData{}, "", fmt.Errorf("failed to load data: %w", err)
	}
	for _, w := range dataset.Validate(data) {
		logErrf("warning: %s\n", w)
	}
	return data, path, nil
}

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the static HTML report",
		Args:  cobra.NoArgs,
		RunE:  runRenderCmd,
	}
	addViewFlags(cmd)
	cmd.Flags().StringVarP(&renderOut, "out", "o", "", "write the page to this file ('-' for stdout) instead of the archive")
	cmd.Flags().BoolVar(&renderNoHistory, "no-history", false, "do not record the snapshot in the history database")
	cmd.Flags().BoolVar(&renderNoArchive, "no-archive", false, "skip archive retention after writing --out")
	return cmd
}

func runRenderCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	view, err := resolveView(cmd, fileCfg)
	if err != nil {
		return err
	}
	data, source, err := loadData(cmd, fileCfg)
	if err != nil {
		return err
	}

	now := time.Now()
	r := stats.BuildReport(data, view, nil)
	page, err := report.Bytes(r, report.Options{Title: viewTitle, GeneratedAt: now})
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	var outPath string
	switch renderOut {
	case "-":
		if _, err := cmd.OutOrStdout().Write(page); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	case "":
		arc, err := openArchive(cmd, fileCfg)
		if err != nil {
			return err
		}
		res, err := arc.Save(page, now)
		if err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		outPath = res.Path
		logErrf("Wrote %s (%s)\n", res.Path, humanize.Bytes(uint64(res.Size)))
		if res.Latest != "" {
			logErrf("Updated %s\n", res.Latest)
		}
		logCleanup(res.Cleanup)
	default:
		if err := writeFileAtomic(renderOut, page); err != nil {
			return fmt.Errorf("failed to write %s: %w", renderOut, err)
		}
		outPath = renderOut
		logErrf("Wrote %s (%s)\n", renderOut, humanize.Bytes(uint64(len(page))))
		if !renderNoArchive && archiveConfigured(cmd, fileCfg) {
			arc, err := openArchive(cmd, fileCfg)
			if err != nil {
				return err
			}
			logCleanup(arc.Cleanup())
		}
	}

	if renderNoHistory {
		return nil
	}
	if err := recordHistory(cmd.Context(), data, r, source, outPath, len(page)); err != nil {
		logErrf("failed to record history: %v\n", err)
	}
	return nil
}

func recordHistory(ctx context.Context, data model.ChartsData, r stats.Report, source, outPath string, size int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := dataset.Marshal(data)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(payload)

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	digest := hex.EncodeToString(sum[:])
	latest, ok, err := st.LatestSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	var id string
	if ok && latest.Digest == digest && latest.Source == source {
		// Unchanged data re-rendered; attach the report to the existing snapshot.
		id = latest.ID
	} else if id, err = insertSnapshot(ctx, st, data, r, source, digest, payload); err != nil {
		return err
	}
	if outPath == "" {
		return nil
	}
	if _, err := st.InsertReport(ctx, model.ReportRecord{
		SnapshotID: id,
		Path:       outPath,
		SizeBytes:  int64(size),
	}); err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

func insertSnapshot(ctx context.Context, st *store.Store, data model.ChartsData, r stats.Report, source, digest string, payload []byte) (string, error) {
	scores := make([]model.PlayerScore, 0, len(data.PlayerStats.PlayerLabels))
	for i, label := range data.PlayerStats.PlayerLabels {
		if i >= len(r.Weighted) || math.IsNaN(r.Weighted[i]) {
			continue
		}
		scores = append(scores, model.PlayerScore{
			Player:      label,
			WeightedAvg: r.Weighted[i],
			Best:        i == r.BestIndex,
		})
	}
	id, err := st.InsertSnapshot(ctx, model.Snapshot{
		Source:     source,
		Digest:     digest,
		Players:    len(data.PlayerStats.PlayerLabels),
		Characters: len(data.CharacterStats),
		AFK:        len(r.AFK),
		BestPlayer: r.BestPlayerName(),
		Payload:    payload,
	}, scores)
	if err != nil {
		return "", fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return id, nil
}

func newBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the report in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runBrowseCmd,
	}
	addViewFlags(cmd)
	cmd.Flags().StringVar(&browseTab, "tab", defaultTab, "initial tab (summary, characters, players)")
	return cmd
}

func runBrowseCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "tab", &browseTab, fileCfg.Browse.Tab)
	view, err := resolveView(cmd, fileCfg)
	if err != nil {
		return err
	}
	data, _, err := loadData(cmd, fileCfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := browse.NewModel(data, view, browse.Options{Tab: browseTab, Context: ctx})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run report browser: %w", err)
	}
	return nil
}

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the report as text",
		Args:  cobra.NoArgs,
		RunE:  runSummaryCmd,
	}
	addViewFlags(cmd)
	cmd.Flags().IntVar(&summaryMaxCell, "max-cell", 0, "maximum summary cell width (default: fit terminal)")
	return cmd
}

func runSummaryCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	view, err := resolveView(cmd, fileCfg)
	if err != nil {
		return err
	}
	data, _, err := loadData(cmd, fileCfg)
	if err != nil {
		return err
	}
	if summaryMaxCell < 0 {
		return fmt.Errorf("--max-cell must be >= 0")
	}

	r := stats.BuildReport(data, view, nil)
	maxCell := summaryMaxCell
	if maxCell == 0 {
		maxCell = fitCellWidth(r)
	}

	out := bufio.NewWriter(cmd.OutOrStdout())
	sections := []func(io.Writer) error{
		func(w io.Writer) error { return stats.RenderSummaryTable(w, r, maxCell) },
		func(w io.Writer) error { return stats.RenderCharacters(w, r) },
		func(w io.Writer) error { return stats.RenderPlayers(w, r) },
		func(w io.Writer) error { return stats.RenderAFK(w, r) },
	}
	for i, section := range sections {
		if i > 0 {
			if _, err := fmt.Fprintln(out); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		if err := section(out); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// fitCellWidth splits the terminal width across the summary columns.
func fitCellWidth(r stats.Report) int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 || r.Summary == nil {
		return defaultMaxCell
	}
	cols := len(r.Summary.Columns())
	if cols == 0 {
		return defaultMaxCell
	}
	cell := width/cols - 2
	if cell < minCellWidth {
		return minCellWidth
	}
	return cell
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive report over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	addViewFlags(cmd)
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&serveMode, "mode", defaultServeMode, "gin mode (debug, release, test)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Serve.Addr)
	applyStringConfig(cmd, "mode", &serveMode, fileCfg.Serve.Mode)
	switch serveMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return fmt.Errorf("--mode must be one of debug, release, test")
	}
	view, err := resolveView(cmd, fileCfg)
	if err != nil {
		return err
	}
	data, _, err := loadData(cmd, fileCfg)
	if err != nil {
		return err
	}

	gin.SetMode(serveMode)
	srv := server.New(data, server.Config{Title: viewTitle, View: view})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Run(ctx, serveAddr); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

func newReportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Manage archived reports",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent reports",
		Args:  cobra.NoArgs,
		RunE:  runReportsListCmd,
	}
	listCmd.Flags().IntVar(&reportsDays, "days", defaultRecentDays, "only reports modified within N days")
	listCmd.Flags().BoolVar(&reportsRecorded, "recorded", false, "list reports recorded in the history database")

	cmd.AddCommand(listCmd)
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show archive size",
		Args:  cobra.NoArgs,
		RunE:  runReportsStatsCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "cleanup",
		Short: "Compress and delete old reports",
		Args:  cobra.NoArgs,
		RunE:  runReportsCleanupCmd,
	})
	return cmd
}

func runReportsListCmd(cmd *cobra.Command, _ []string) error {
	if reportsDays < 0 {
		return fmt.Errorf("--days must be >= 0")
	}
	out := cmd.OutOrStdout()
	if reportsRecorded {
		return listRecordedReports(cmd.Context(), out)
	}

	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	arc, err := openArchive(cmd, fileCfg)
	if err != nil {
		return err
	}
	files, err := arc.Recent(reportsDays)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logErrf("No reports in the last %d days under %s\n", reportsDays, arc.Dir())
		return nil
	}
	for _, f := range files {
		mark := ""
		if f.Compressed {
			mark = " (gz)"
		}
		if _, err := fmt.Fprintf(out, "%s  %8s  %s%s\n",
			f.Modified.Format("2006-01-02 15:04"), humanize.Bytes(uint64(f.Size)), f.Path, mark); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func listRecordedReports(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	recs, err := st.ListReports(ctx, defaultHistoryLimit)
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}
	if len(recs) == 0 {
		logErrln("No recorded reports yet. Create one with: keystone render")
		return nil
	}
	for _, rec := range recs {
		if _, err := fmt.Fprintf(out, "%s  %8s  %s\n",
			rec.CreatedAt.Local().Format("2006-01-02 15:04"), humanize.Bytes(uint64(rec.SizeBytes)), rec.Path); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func runReportsStatsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	arc, err := openArchive(cmd, fileCfg)
	if err != nil {
		return err
	}
	st, err := arc.Stats()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "%s\n%d files, %s\n", st.Dir, st.TotalFiles, st.HumanSize()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	for _, date := range st.Dates() {
		if _, err := fmt.Fprintf(out, "  %s  %d\n", date, st.ByDate[date]); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func runReportsCleanupCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	arc, err := openArchive(cmd, fileCfg)
	if err != nil {
		return err
	}
	res := arc.Cleanup()
	logCleanup(res)
	dirs, err := arc.CleanupEmptyDirs()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "compressed %d, deleted %d, removed %d empty directories\n",
		len(res.Compressed), len(res.Deleted), len(dirs))
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func archiveConfigured(cmd *cobra.Command, fileCfg config.FileConfig) bool {
	return cmd.Flags().Changed("archive-dir") || fileCfg.Archive.Dir != nil
}

func openArchive(cmd *cobra.Command, fileCfg config.FileConfig) (*archive.Archive, error) {
	dir := archiveDir
	if !cmd.Flags().Changed("archive-dir") {
		dir = config.DefaultReportsDir()
		if fileCfg.Archive.Dir != nil {
			dir = *fileCfg.Archive.Dir
		}
	}
	opts := archive.DefaultOptions(dir)
	ac := fileCfg.Archive
	if ac.DateFolders != nil {
		opts.DateFolders = *ac.DateFolders
	}
	if ac.MaxFiles != nil {
		opts.MaxFiles = *ac.MaxFiles
	}
	if ac.CompressAfterDays != nil {
		opts.CompressAfterDays = *ac.CompressAfterDays
	}
	if ac.DeleteAfterDays != nil {
		opts.DeleteAfterDays = *ac.DeleteAfterDays
	}
	if opts.MaxFiles < 0 || opts.CompressAfterDays < 0 || opts.DeleteAfterDays < 0 {
		return nil, fmt.Errorf("archive limits must be >= 0")
	}
	arc, err := archive.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return arc, nil
}

func logCleanup(res archive.CleanupResult) {
	for _, p := range res.Compressed {
		logErrf("Compressed %s\n", p)
	}
	for _, p := range res.Deleted {
		logErrf("Deleted %s\n", p)
	}
	for _, err := range res.Errors {
		logErrf("cleanup: %v\n", err)
	}
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded snapshots or one player's scores",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLimit, "last", defaultHistoryLimit, "limit to last N snapshots")
	cmd.Flags().StringVar(&historyPlayer, "player", "", "show weighted averages of one player")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLimit <= 0 {
		return fmt.Errorf("--last must be > 0")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	out := cmd.OutOrStdout()
	if historyPlayer != "" {
		scores, err := st.PlayerHistory(ctx, historyPlayer)
		if err != nil {
			return fmt.Errorf("failed to load player history: %w", err)
		}
		if len(scores) == 0 {
			logErrf("No history for %s\n", historyPlayer)
			return nil
		}
		for _, s := range scores {
			crown := ""
			if s.Best {
				crown = " " + strings.TrimSpace(stats.CrownPrefix)
			}
			if _, err := fmt.Fprintf(out, "%s  %6.2f%s\n",
				s.LoadedAt.Local().Format("2006-01-02 15:04"), s.WeightedAvg, crown); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		return nil
	}

	snaps, err := st.ListSnapshots(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}
	if len(snaps) == 0 {
		logErrln("No snapshots yet. Record one with: keystone render")
		return nil
	}
	for _, s := range snaps {
		if _, err := fmt.Fprintf(out, "%s  %s  players=%d characters=%d afk=%d best=%s  %s\n",
			s.LoadedAt.Local().Format("2006-01-02 15:04"), shortDigest(s.Digest),
			s.Players, s.Characters, s.AFK, s.BestPlayer, s.Source); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func writeFileAtomic(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "report-*.html")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
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

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	defaults := archive.DefaultOptions(config.DefaultReportsDir())
	return fmt.Sprintf(`# keystone configuration
# Uncomment a value to enable it. CLI flags override config values.
# KEYSTONE_DATA and KEYSTONE_CONFIG (also read from ./.env) override data and this path.

[report]
# data = "charts_data.json"  # chartsData JSON file or generated report page
# locale = %q               # Collation locale for names and classes
# character-sort = %q  # One of: %s
# hide-empty = false         # Hide characters without records
# hide-untimed = false       # Hide summary rows without a timed run
# title = %q

[browse]
# tab = %q              # summary, characters or players

[serve]
# addr = %q
# mode = %q             # debug, release or test

[archive]
# dir = %q
# date-folders = %t
# max-files = %d
# compress-after-days = %d
# delete-after-days = %d      # 0 disables deletion
`,
		defaultLocale,
		stats.DefaultSortKey,
		strings.Join(stats.SortKeys, ", "),
		report.DefaultTitle,
		defaultTab,
		defaultAddr,
		defaultServeMode,
		defaults.Dir,
		defaults.DateFolders,
		defaults.MaxFiles,
		defaults.CompressAfterDays,
		defaults.DeleteAfterDays,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
