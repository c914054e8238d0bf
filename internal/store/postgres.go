package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscore-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS profile_versions (
	version    INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	hash       TEXT NOT NULL,
	document   BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	status       TEXT NOT NULL DEFAULT 'running',
	profile_name TEXT NOT NULL,
	profile_hash TEXT NOT NULL,
	dry_run      BOOLEAN NOT NULL DEFAULT false,
	stats        JSONB,
	error        TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS score_results (
	run_id         TEXT NOT NULL REFERENCES runs(id),
	contact_id     TEXT NOT NULL,
	account_id     TEXT,
	profile_hash   TEXT NOT NULL,
	combined_score INTEGER NOT NULL,
	tier           TEXT NOT NULL,
	result         JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, contact_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_score_results_contact ON score_results(contact_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveProfile(ctx context.Context, name, hash string, doc []byte) (*model.ProfileVersion, error) {
	now := time.Now().UTC()
	var version int
	err := s.pool.QueryRow(ctx,
		`INSERT INTO profile_versions (version, name, hash, document, created_at)
		 SELECT COALESCE(MAX(version), 0) + 1, $1, $2, $3, $4 FROM profile_versions
		 RETURNING version`,
		name, hash, doc, now,
	).Scan(&version)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert profile")
	}
	return &model.ProfileVersion{Version: version, Name: name, Hash: hash, Document: doc, CreatedAt: now}, nil
}

func (s *PostgresStore) LatestProfile(ctx context.Context) (*model.ProfileVersion, error) {
	var pv model.ProfileVersion
	err := s.pool.QueryRow(ctx,
		`SELECT version, name, hash, document, created_at FROM profile_versions ORDER BY version DESC LIMIT 1`,
	).Scan(&pv.Version, &pv.Name, &pv.Hash, &pv.Document, &pv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest profile")
	}
	return &pv, nil
}

func (s *PostgresStore) ListProfileVersions(ctx context.Context, limit int) ([]model.ProfileVersion, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT version, name, hash, created_at FROM profile_versions ORDER BY version DESC LIMIT $1`,
		listLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list profiles")
	}
	defer rows.Close()

	var out []model.ProfileVersion
	for rows.Next() {
		var pv model.ProfileVersion
		if err := rows.Scan(&pv.Version, &pv.Name, &pv.Hash, &pv.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan profile")
		}
		out = append(out, pv)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list profiles iterate")
}

func (s *PostgresStore) CreateRun(ctx context.Context, profileName, profileHash string, dryRun bool) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, status, profile_name, profile_hash, dry_run, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, string(model.RunStatusRunning), profileName, profileHash, dryRun, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
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

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, stats model.RunStats) error {
	return s.finishRun(ctx, runID, model.RunStatusComplete, stats, "")
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, stats model.RunStats, cause string) error {
	return s.finishRun(ctx, runID, model.RunStatusFailed, stats, cause)
}

func (s *PostgresStore) finishRun(ctx context.Context, runID string, status model.RunStatus, stats model.RunStats, cause string) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal stats")
	}

	var errMsg *string
	if cause != "" {
		errMsg = &cause
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, stats = $2, error = $3, updated_at = $4 WHERE id = $5`,
		string(status), statsJSON, errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: run %s", runID)
	}
	return nil
}

const runColumns = `id, status, profile_name, profile_hash, dry_run, stats, error, created_at, updated_at`

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	r, err := scanPgRun(s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM runs WHERE id = $1`, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter.Limit))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

var resultColumns = []string{"run_id", "contact_id", "account_id", "profile_hash", "combined_score", "tier", "result", "created_at"}

// SaveResults bulk-loads records with the COPY protocol.
func (s *PostgresStore) SaveResults(ctx context.Context, records []model.ScoreRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		resultJSON, err := json.Marshal(rec.Result)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal result for %s", rec.ContactID)
		}
		var accountID *string
		if rec.AccountID != "" {
			id := rec.AccountID
			accountID = &id
		}
		rows = append(rows, []any{
			rec.RunID, rec.ContactID, accountID, rec.ProfileHash,
			rec.Result.CombinedScore, string(rec.Result.Tier), resultJSON, now,
		})
	}

	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{"score_results"}, resultColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrap(err, "postgres: COPY INTO score_results")
	}
	return int(n), nil
}

func (s *PostgresStore) ListResults(ctx context.Context, runID string, limit int) ([]model.ScoreRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT run_id, contact_id, account_id, profile_hash, result, created_at FROM score_results
		 WHERE run_id = $1 ORDER BY combined_score DESC, contact_id LIMIT $2`,
		runID, listLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list results")
	}
	defer rows.Close()

	var out []model.ScoreRecord
	for rows.Next() {
		var rec model.ScoreRecord
		var accountID *string
		var resultJSON []byte
		if err := rows.Scan(&rec.RunID, &rec.ContactID, &accountID, &rec.ProfileHash, &resultJSON, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		if accountID != nil {
			rec.AccountID = *accountID
		}
		if err := json.Unmarshal(resultJSON, &rec.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list results iterate")
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var statsJSON []byte
	var errMsg *string

	if err := row.Scan(&r.ID, &r.Status, &r.ProfileName, &r.ProfileHash, &r.DryRun, &statsJSON, &errMsg, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if errMsg != nil {
		r.Error = *errMsg
	}
	if len(statsJSON) > 0 {
		if err := json.Unmarshal(statsJSON, &r.Stats); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal stats")
		}
	}
	return &r, nil
}
