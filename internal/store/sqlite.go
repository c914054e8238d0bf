package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadscore-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS profile_versions (
	version    INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	hash       TEXT NOT NULL,
	document   BLOB NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL DEFAULT 'running',
	profile_name TEXT NOT NULL,
	profile_hash TEXT NOT NULL,
	dry_run      INTEGER NOT NULL DEFAULT 0,
	stats        TEXT,
	error        TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS score_results (
	run_id         TEXT NOT NULL REFERENCES runs(id),
	contact_id     TEXT NOT NULL,
	account_id     TEXT,
	profile_hash   TEXT NOT NULL,
	combined_score INTEGER NOT NULL,
	tier           TEXT NOT NULL,
	result         TEXT NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (run_id, contact_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_score_results_contact ON score_results(contact_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveProfile(ctx context.Context, name, hash string, doc []byte) (*model.ProfileVersion, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin save profile")
	}
	defer tx.Rollback() //nolint:errcheck

	var version int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) + 1 FROM profile_versions`).Scan(&version); err != nil {
		return nil, eris.Wrap(err, "sqlite: next profile version")
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO profile_versions (version, name, hash, document, created_at) VALUES (?, ?, ?, ?, ?)`,
		version, name, hash, doc, now,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: insert profile")
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit profile")
	}

	return &model.ProfileVersion{Version: version, Name: name, Hash: hash, Document: doc, CreatedAt: now}, nil
}

func (s *SQLiteStore) LatestProfile(ctx context.Context) (*model.ProfileVersion, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT version, name, hash, document, created_at FROM profile_versions ORDER BY version DESC LIMIT 1`,
	)
	var pv model.ProfileVersion
	err := row.Scan(&pv.Version, &pv.Name, &pv.Hash, &pv.Document, &pv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest profile")
	}
	return &pv, nil
}

func (s *SQLiteStore) ListProfileVersions(ctx context.Context, limit int) ([]model.ProfileVersion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version, name, hash, created_at FROM profile_versions ORDER BY version DESC LIMIT ?`,
		listLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list profiles")
	}
	defer rows.Close()

	var out []model.ProfileVersion
	for rows.Next() {
		var pv model.ProfileVersion
		if err := rows.Scan(&pv.Version, &pv.Name, &pv.Hash, &pv.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan profile")
		}
		out = append(out, pv)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list profiles iterate")
}

func (s *SQLiteStore) CreateRun(ctx context.Context, profileName, profileHash string, dryRun bool) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, profile_name, profile_hash, dry_run, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, string(model.RunStatusRunning), profileName, profileHash, dryRun, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:          id,
		Status:      model.RunStatusRunning,
		ProfileName: profileName,
		ProfileHash: profileHash,
		DryRun:      dryRun,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, stats model.RunStats) error {
	return s.finishRun(ctx, runID, model.RunStatusComplete, stats, "")
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, stats model.RunStats, cause string) error {
	return s.finishRun(ctx, runID, model.RunStatusFailed, stats, cause)
}

func (s *SQLiteStore) finishRun(ctx context.Context, runID string, status model.RunStatus, stats model.RunStats, cause string) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stats")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, stats = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), string(statsJSON), nullString(cause), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, profile_name, profile_hash, dry_run, stats, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: run %s", runID)
	}
	return r, err
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, status, profile_name, profile_hash, dry_run, stats, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SaveResults(ctx context.Context, records []model.ScoreRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin save results")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO score_results (run_id, contact_id, account_id, profile_hash, combined_score, tier, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare save results")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, rec := range records {
		resultJSON, err := json.Marshal(rec.Result)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: marshal result for %s", rec.ContactID)
		}
		if _, err := stmt.ExecContext(ctx,
			rec.RunID, rec.ContactID, nullString(rec.AccountID), rec.ProfileHash,
			rec.Result.CombinedScore, string(rec.Result.Tier), string(resultJSON), now,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert result for %s", rec.ContactID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit results")
	}
	return len(records), nil
}

func (s *SQLiteStore) ListResults(ctx context.Context, runID string, limit int) ([]model.ScoreRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, contact_id, account_id, profile_hash, result, created_at FROM score_results
		 WHERE run_id = ? ORDER BY combined_score DESC, contact_id LIMIT ?`,
		runID, listLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list results")
	}
	defer rows.Close()

	var out []model.ScoreRecord
	for rows.Next() {
		var rec model.ScoreRecord
		var accountID sql.NullString
		var resultJSON string
		if err := rows.Scan(&rec.RunID, &rec.ContactID, &accountID, &rec.ProfileHash, &resultJSON, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		rec.AccountID = accountID.String
		if err := json.Unmarshal([]byte(resultJSON), &rec.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list results iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var statsJSON, errMsg sql.NullString

	err := row.Scan(&r.ID, &r.Status, &r.ProfileName, &r.ProfileHash, &r.DryRun, &statsJSON, &errMsg, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	r.Error = errMsg.String
	if statsJSON.Valid {
		if err := json.Unmarshal([]byte(statsJSON.String), &r.Stats); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal stats")
		}
	}
	return &r, nil
}
