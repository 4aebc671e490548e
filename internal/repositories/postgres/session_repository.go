package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chrisdamba/dinesim/internal/models"
	"github.com/chrisdamba/dinesim/internal/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id                TEXT PRIMARY KEY,
    started_at        TIMESTAMPTZ NOT NULL,
    finished_at       TIMESTAMPTZ NOT NULL,
    clock             BIGINT NOT NULL,
    tables_free       BIGINT NOT NULL,
    pending_cook      BIGINT NOT NULL,
    closing_cook      BIGINT NOT NULL,
    departed          INTEGER NOT NULL,
    rejected_closed   INTEGER NOT NULL,
    rejected_no_table INTEGER NOT NULL,
    abandoned         INTEGER NOT NULL,
    lost_dishes       BIGINT[] NOT NULL DEFAULT '{}',
    error             TEXT NOT NULL DEFAULT '',
    report            JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS session_outcomes (
    session_id   TEXT NOT NULL REFERENCES sessions (id) ON DELETE CASCADE,
    customer_id  INTEGER NOT NULL,
    arrival_time BIGINT NOT NULL,
    party_size   BIGINT NOT NULL,
    waiter       INTEGER NOT NULL,
    outcome      TEXT NOT NULL,
    left_at      BIGINT NOT NULL,
    PRIMARY KEY (session_id, customer_id)
);`

var _ repositories.SessionRepository = (*SessionRepository)(nil)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Connect opens a pool for url and checks the server is reachable.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}
	return pool, nil
}

func (r *SessionRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

// Create stores the report and its per-customer outcomes in one transaction.
func (r *SessionRepository) Create(ctx context.Context, report *models.Report) error {
	doc, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	lost := report.LostDishes
	if lost == nil {
		lost = []int{}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO sessions (
            id, started_at, finished_at, clock, tables_free, pending_cook,
            closing_cook, departed, rejected_closed, rejected_no_table,
            abandoned, lost_dishes, error, report
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    `
	_, err = tx.Exec(ctx, query,
		report.SessionID,
		report.StartedAt,
		report.FinishedAt,
		report.Clock,
		report.Tables,
		report.PendingCook,
		report.ClosingCook,
		report.Departed,
		report.RejectedClosed,
		report.RejectedNoTable,
		report.Abandoned,
		lost,
		report.Error,
		doc,
	)
	if err != nil {
		return fmt.Errorf("inserting session %s: %w", report.SessionID, err)
	}
	if err := insertOutcomes(ctx, tx, report.SessionID, report.Outcomes); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *SessionRepository) BulkCreateOutcomes(ctx context.Context, sessionID string, outcomes []models.CustomerOutcome) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := insertOutcomes(ctx, tx, sessionID, outcomes); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertOutcomes(ctx context.Context, tx pgx.Tx, sessionID string, outcomes []models.CustomerOutcome) error {
	stmt := `
        INSERT INTO session_outcomes (
            session_id, customer_id, arrival_time, party_size, waiter, outcome, left_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, o := range outcomes {
		_, err := tx.Exec(ctx, stmt,
			sessionID,
			o.CustomerID,
			o.ArrivalTime,
			o.PartySize,
			o.Waiter,
			o.Outcome,
			o.LeftAt,
		)
		if err != nil {
			return fmt.Errorf("inserting outcome of customer %d: %w", o.CustomerID, err)
		}
	}
	return nil
}

func (r *SessionRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM sessions").Scan(&count)
	return count, err
}

func (r *SessionRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM sessions")
	return err
}
