// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/keystone/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for snapshot and report history.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			loaded_at TEXT NOT NULL,
			source TEXT NOT NULL,
			digest TEXT NOT NULL,
			players INTEGER NOT NULL,
			characters INTEGER NOT NULL,
			afk INTEGER NOT NULL,
			best_player TEXT NOT NULL,
			payload BLOB NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshot_players (
			snapshot_id TEXT NOT NULL,
			player TEXT NOT NULL,
			weighted_avg REAL NOT NULL,
			best INTEGER NOT NULL,
			PRIMARY KEY (snapshot_id, player)
		);`,
		`CREATE TABLE IF NOT EXISTS reports (
			id INTEGER PRIMARY KEY,
			snapshot_id TEXT NOT NULL,
			path TEXT NOT NULL,
			created_at TEXT NOT NULL,
			size_bytes INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_loaded_at ON snapshots(loaded_at);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshot_players_player ON snapshot_players(player);`,
		`CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSnapshot stores a snapshot with its per-player scores and returns its id.
// A zero LoadedAt is set to the current time.
func (s *Store) InsertSnapshot(ctx context.Context, snap model.Snapshot, scores []model.PlayerScore) (id string, err error) {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.LoadedAt.IsZero() {
		snap.LoadedAt = s.now()
	}
	if snap.Payload == nil {
		snap.Payload = []byte("{}")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, loaded_at, source, digest, players, characters, afk, best_player, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID,
		snap.LoadedAt.UTC().Format(timeLayout),
		snap.Source,
		snap.Digest,
		snap.Players,
		snap.Characters,
		snap.AFK,
		snap.BestPlayer,
		snap.Payload,
	); err != nil {
		return "", err
	}

	if len(scores) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO snapshot_players (snapshot_id, player, weighted_avg, best) VALUES (?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return "", err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, sc := range scores {
			if _, err = stmt.ExecContext(ctx, snap.ID, sc.Player, sc.WeightedAvg, sc.Best); err != nil {
				return "", err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return snap.ID, nil
}

// LatestSnapshot returns the most recently loaded snapshot with its payload.
func (s *Store) LatestSnapshot(ctx context.Context) (model.Snapshot, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, loaded_at, source, digest, players, characters, afk, best_player, payload
		 FROM snapshots ORDER BY loaded_at DESC LIMIT 1`)
	var snap model.Snapshot
	var loadedAt string
	err := row.Scan(&snap.ID, &loadedAt, &snap.Source, &snap.Digest, &snap.Players, &snap.Characters, &snap.AFK, &snap.BestPlayer, &snap.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, false, nil
	}
	if err != nil {
		return model.Snapshot{}, false, err
	}
	if snap.LoadedAt, err = time.Parse(timeLayout, loadedAt); err != nil {
		return model.Snapshot{}, false, err
	}
	return snap, true, nil
}

// ListSnapshots returns snapshot metadata, newest first, without payloads.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]model.Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, loaded_at, source, digest, players, characters, afk, best_player
		 FROM snapshots ORDER BY loaded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		var loadedAt string
		if err := rows.Scan(&snap.ID, &loadedAt, &snap.Source, &snap.Digest, &snap.Players, &snap.Characters, &snap.AFK, &snap.BestPlayer); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, loadedAt)
		if err != nil {
			return nil, err
		}
		snap.LoadedAt = parsed
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// PlayerHistory returns a player's weighted averages across snapshots, oldest first.
func (s *Store) PlayerHistory(ctx context.Context, player string) ([]model.PlayerScore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sp.snapshot_id, s.loaded_at, sp.player, sp.weighted_avg, sp.best
		 FROM snapshot_players sp
		 JOIN snapshots s ON s.id = sp.snapshot_id
		 WHERE sp.player = ?
		 ORDER BY s.loaded_at ASC`, player)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.PlayerScore
	for rows.Next() {
		var sc model.PlayerScore
		var loadedAt string
		if err := rows.Scan(&sc.SnapshotID, &loadedAt, &sc.Player, &sc.WeightedAvg, &sc.Best); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, loadedAt)
		if err != nil {
			return nil, err
		}
		sc.LoadedAt = parsed
		result = append(result, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// InsertReport records a generated report file.
func (s *Store) InsertReport(ctx context.Context, rec model.ReportRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (snapshot_id, path, created_at, size_bytes) VALUES (?, ?, ?, ?)`,
		rec.SnapshotID,
		rec.Path,
		rec.CreatedAt.UTC().Format(timeLayout),
		rec.SizeBytes,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListReports returns recorded reports, newest first.
func (s *Store) ListReports(ctx context.Context, limit int) ([]model.ReportRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, snapshot_id, path, created_at, size_bytes
		 FROM reports ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ReportRecord
	for rows.Next() {
		var rec model.ReportRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.SnapshotID, &rec.Path, &createdAt, &rec.SizeBytes); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, err
		}
		rec.CreatedAt = parsed
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
