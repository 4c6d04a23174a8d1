package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"framelock/internal/config"
	"framelock/internal/provenance"
)

// Entry is one recorded render.
type Entry struct {
	ID               int64
	OutputID         string
	InputsDigest     string
	ProjectID        string
	ManifestID       string
	PlanID           string
	Profile          string
	PlaceholderCount int
	TotalDurationMS  int64
	VideoSHA256      string
	CaptionsSHA256   string
	OutputSHA256     string
	DryRun           bool
	RenderedAt       string
	CreatedAt        string
}

// Store manages render history persistence backed by SQLite. A file lock
// beside the database keeps the ledger single-writer across processes.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open initializes or connects to the ledger database and applies
// migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.Paths.LedgerPath
	lock := flock.New(lockPath(dbPath))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire ledger lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another framelock process holds the ledger")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, lock: lock}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

func lockPath(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), "ledger.lock")
}

// Close closes the database connection and releases the ledger lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); err == nil {
			err = unlockErr
		}
	}
	return err
}

// Record persists a provenance record as a ledger entry.
func (s *Store) Record(ctx context.Context, rec *provenance.Record, dryRun bool) (int64, error) {
	createdAt := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO renders (
            output_id, inputs_digest, project_id, manifest_id, plan_id, profile,
            placeholder_count, total_duration_ms,
            video_sha256, captions_sha256, output_sha256,
            dry_run, rendered_at, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.OutputID,
		rec.InputsDigest,
		rec.ProjectID,
		rec.ManifestID,
		rec.PlanID,
		rec.Settings.Profile,
		rec.PlaceholderCount,
		rec.TotalDurationMS,
		rec.VideoSHA256,
		rec.CaptionsSHA256,
		rec.OutputSHA256,
		boolToInt(dryRun),
		rec.RenderedAt,
		createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert render: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// FindByInputsDigest returns prior renders of the same effective inputs,
// newest first. A non-empty result whose output hashes differ from a fresh
// render is a determinism signal.
func (s *Store) FindByInputsDigest(ctx context.Context, inputsDigest string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE inputs_digest = ? ORDER BY id DESC`, inputsDigest)
	if err != nil {
		return nil, fmt.Errorf("query by inputs digest: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// List returns the most recent entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list renders: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

const selectColumns = `SELECT
    id, output_id, inputs_digest, project_id, manifest_id, plan_id, profile,
    placeholder_count, total_duration_ms,
    video_sha256, captions_sha256, output_sha256,
    dry_run, rendered_at, created_at
FROM renders`

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var dryRun int
		if err := rows.Scan(
			&e.ID, &e.OutputID, &e.InputsDigest, &e.ProjectID, &e.ManifestID,
			&e.PlanID, &e.Profile, &e.PlaceholderCount, &e.TotalDurationMS,
			&e.VideoSHA256, &e.CaptionsSHA256, &e.OutputSHA256,
			&dryRun, &e.RenderedAt, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan render row: %w", err)
		}
		e.DryRun = dryRun != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate renders: %w", err)
	}
	return entries, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
