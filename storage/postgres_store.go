package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"regatta-resume/models"
)

// PostgresStore persists sailors, regattas, results and run records.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sailors (
			id              BIGSERIAL    PRIMARY KEY,
			name            TEXT         NOT NULL,
			name_normalized TEXT         UNIQUE NOT NULL,
			created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS regattas (
			id          BIGSERIAL PRIMARY KEY,
			external_id TEXT      UNIQUE NOT NULL,
			name        TEXT      NOT NULL,
			location    TEXT      NOT NULL DEFAULT '',
			start_date  DATE,
			end_date    DATE,
			source_url  TEXT      NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS results (
			id         BIGSERIAL PRIMARY KEY,
			sailor_id  BIGINT    NOT NULL REFERENCES sailors(id),
			regatta_id BIGINT    NOT NULL REFERENCES regattas(id),
			placement  INTEGER   NOT NULL CHECK (placement > 0),
			boat_type  TEXT      NOT NULL DEFAULT '',
			role       TEXT      NOT NULL DEFAULT '',
			points     NUMERIC(8,2),
			division   TEXT      NOT NULL DEFAULT '',
			UNIQUE (sailor_id, regatta_id, division)
		);

		CREATE TABLE IF NOT EXISTS scraper_runs (
			id               UUID        PRIMARY KEY,
			status           VARCHAR(20) NOT NULL,
			started_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			completed_at     TIMESTAMPTZ,
			regattas_scraped INTEGER     NOT NULL DEFAULT 0,
			sailors_added    INTEGER     NOT NULL DEFAULT 0,
			results_added    INTEGER     NOT NULL DEFAULT 0,
			error_message    TEXT        NOT NULL DEFAULT '',
			cancel_requested BOOLEAN     NOT NULL DEFAULT FALSE
		);

		CREATE INDEX IF NOT EXISTS idx_results_sailor     ON results(sailor_id);
		CREATE INDEX IF NOT EXISTS idx_regattas_start     ON regattas(start_date);
		CREATE INDEX IF NOT EXISTS idx_scraper_runs_start ON scraper_runs(started_at);
	`)
	return err
}

func (ps *PostgresStore) GetOrCreateSailor(ctx context.Context, name string) (*models.Sailor, bool, error) {
	s := &models.Sailor{}
	key := NormalizeName(name)

	err := ps.db.QueryRowContext(ctx, `
		INSERT INTO sailors (name, name_normalized) VALUES ($1, $2)
		ON CONFLICT (name_normalized) DO NOTHING
		RETURNING id, name, name_normalized, created_at
	`, name, key).Scan(&s.ID, &s.Name, &s.NameNormalized, &s.CreatedAt)
	if err == nil {
		return s, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("postgres: insert sailor: %w", err)
	}

	s, err = ps.SailorByName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	return s, false, nil
}

func (ps *PostgresStore) GetOrCreateRegatta(ctx context.Context, r models.Regatta) (*models.Regatta, bool, error) {
	err := ps.db.QueryRowContext(ctx, `
		INSERT INTO regattas (external_id, name, location, start_date, end_date, source_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (external_id) DO NOTHING
		RETURNING id
	`, r.ExternalID, r.Name, r.Location, nullTime(r.StartDate), nullTime(r.EndDate), r.SourceURL).Scan(&r.ID)
	if err == nil {
		return &r, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("postgres: insert regatta: %w", err)
	}

	existing := &models.Regatta{}
	var start, end sql.NullTime
	err = ps.db.QueryRowContext(ctx, `
		SELECT id, external_id, name, location, start_date, end_date, source_url
		FROM regattas WHERE external_id = $1
	`, r.ExternalID).Scan(&existing.ID, &existing.ExternalID, &existing.Name, &existing.Location,
		&start, &end, &existing.SourceURL)
	if err != nil {
		return nil, false, fmt.Errorf("postgres: select regatta: %w", err)
	}
	existing.StartDate = start.Time
	existing.EndDate = end.Time
	return existing, false, nil
}

func (ps *PostgresStore) InsertResult(ctx context.Context, r models.Result) (bool, error) {
	var points sql.NullFloat64
	if r.Points != nil {
		points = sql.NullFloat64{Float64: *r.Points, Valid: true}
	}
	res, err := ps.db.ExecContext(ctx, `
		INSERT INTO results (sailor_id, regatta_id, placement, boat_type, role, points, division)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (sailor_id, regatta_id, division) DO NOTHING
	`, r.SailorID, r.RegattaID, r.Placement, r.BoatType, r.Role, points, r.Division)
	if err != nil {
		return false, fmt.Errorf("postgres: insert result: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("postgres: insert result: %w", err)
	}
	return n > 0, nil
}

func (ps *PostgresStore) SailorByName(ctx context.Context, name string) (*models.Sailor, error) {
	s := &models.Sailor{}
	err := ps.db.QueryRowContext(ctx, `
		SELECT id, name, name_normalized, created_at FROM sailors WHERE name_normalized = $1
	`, NormalizeName(name)).Scan(&s.ID, &s.Name, &s.NameNormalized, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: select sailor: %w", err)
	}
	return s, nil
}

// ResultsForSailor returns a sailor's results joined with their regattas,
// newest first.
func (ps *PostgresStore) ResultsForSailor(ctx context.Context, sailorID int64) ([]models.ResultRecord, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT g.name, g.start_date, r.placement, r.boat_type, r.role
		FROM results r
		JOIN regattas g ON g.id = r.regatta_id
		WHERE r.sailor_id = $1
		ORDER BY g.start_date DESC NULLS LAST, r.id
	`, sailorID)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch results: %w", err)
	}
	defer rows.Close()

	var out []models.ResultRecord
	for rows.Next() {
		var rec models.ResultRecord
		var start sql.NullTime
		if err := rows.Scan(&rec.RegattaName, &start, &rec.Placement, &rec.BoatType, &rec.Role); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		rec.StartDate = start.Time
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (ps *PostgresStore) CreateRun(ctx context.Context) (*models.Run, error) {
	run := &models.Run{ID: uuid.NewString(), Status: models.RunRunning}
	err := ps.db.QueryRowContext(ctx, `
		INSERT INTO scraper_runs (id, status) VALUES ($1, $2) RETURNING started_at
	`, run.ID, run.Status).Scan(&run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("postgres: create run: %w", err)
	}
	return run, nil
}

// UpdateRun writes status, stats and error. The cancel flag is left alone.
func (ps *PostgresStore) UpdateRun(ctx context.Context, run *models.Run) error {
	res, err := ps.db.ExecContext(ctx, `
		UPDATE scraper_runs
		SET status = $2, completed_at = $3, regattas_scraped = $4, sailors_added = $5,
		    results_added = $6, error_message = $7
		WHERE id = $1
	`, run.ID, run.Status, nullTime(run.CompletedAt), run.Stats.RegattasScraped,
		run.Stats.SailorsAdded, run.Stats.ResultsAdded, run.ErrorMessage)
	if err != nil {
		return fmt.Errorf("postgres: update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (ps *PostgresStore) GetRun(ctx context.Context, id string) (*models.Run, error) {
	return ps.scanRun(ps.db.QueryRowContext(ctx, runSelect+` WHERE id = $1`, id))
}

func (ps *PostgresStore) LatestRun(ctx context.Context) (*models.Run, error) {
	return ps.scanRun(ps.db.QueryRowContext(ctx, runSelect+` ORDER BY started_at DESC LIMIT 1`))
}

func (ps *PostgresStore) RequestCancel(ctx context.Context, id string) error {
	res, err := ps.db.ExecContext(ctx, `UPDATE scraper_runs SET cancel_requested = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: request cancel: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const runSelect = `
	SELECT id, status, started_at, completed_at, regattas_scraped, sailors_added,
	       results_added, error_message, cancel_requested
	FROM scraper_runs`

func (ps *PostgresStore) scanRun(row *sql.Row) (*models.Run, error) {
	run := &models.Run{}
	var completed sql.NullTime
	err := row.Scan(&run.ID, &run.Status, &run.StartedAt, &completed, &run.Stats.RegattasScraped,
		&run.Stats.SailorsAdded, &run.Stats.ResultsAdded, &run.ErrorMessage, &run.CancelRequested)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: scan run: %w", err)
	}
	run.CompletedAt = completed.Time
	return run, nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
