package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wonny/tvbatch/internal/contracts"
)

// DB is the subset of *pgxpool.Pool used here
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Postgres persists summaries and per-item diagnostics
type Postgres struct {
	db DB
}

// NewPostgres creates a Postgres recorder
func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db}
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS tvbatch_runs (
		run_id       TEXT PRIMARY KEY,
		started_at   TIMESTAMPTZ NOT NULL,
		finished_at  TIMESTAMPTZ NOT NULL,
		status       TEXT NOT NULL,
		source       TEXT NOT NULL,
		item_count   INT NOT NULL,
		kept         INT NOT NULL,
		dropped      INT NOT NULL,
		deleted      INT NOT NULL,
		neither      INT NOT NULL,
		destination  TEXT NOT NULL,
		config_hash  TEXT NOT NULL DEFAULT '',
		error        TEXT NOT NULL DEFAULT '',
		summary      JSONB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS tvbatch_runs_started_at_idx ON tvbatch_runs (started_at DESC);

	CREATE TABLE IF NOT EXISTS tvbatch_item_diagnostics (
		run_id          TEXT NOT NULL REFERENCES tvbatch_runs (run_id) ON DELETE CASCADE,
		item_index      INT NOT NULL,
		symbol          TEXT NOT NULL,
		selected        BOOLEAN NOT NULL,
		refreshed       BOOLEAN NOT NULL,
		primary_text    TEXT NOT NULL,
		secondary_text  TEXT NOT NULL,
		primary_value   DOUBLE PRECISION,
		secondary_value DOUBLE PRECISION,
		verdict         TEXT NOT NULL,
		deleted         BOOLEAN NOT NULL,
		error           TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, item_index)
	);
`

// EnsureSchema creates the history tables if they do not exist
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure history schema: %w", err)
	}
	return nil
}

// Record implements Recorder. Run row and diagnostics go in one transaction.
func (p *Postgres) Record(ctx context.Context, s *contracts.RunSummary) error {
	summaryJSON, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO tvbatch_runs (
			run_id, started_at, finished_at, status, source,
			item_count, kept, dropped, deleted, neither,
			destination, config_hash, error, summary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (run_id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			status = EXCLUDED.status,
			summary = EXCLUDED.summary
	`,
		s.RunID, s.StartedAt, s.FinishedAt, string(s.Status), s.Source.String(),
		len(s.Items), s.Kept, s.Dropped, s.Deleted, s.Neither,
		s.Destination, s.ConfigHash, s.Error, summaryJSON,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(s.Diagnostics) > 0 {
		rows := make([][]any, 0, len(s.Diagnostics))
		for _, d := range s.Diagnostics {
			rows = append(rows, []any{
				s.RunID, d.Index, d.Identifier, d.Selected, d.Refreshed,
				d.PrimaryText, d.SecondaryText, nullable(d.Primary), nullable(d.Secondary),
				string(d.Verdict), d.Deleted, d.Error,
			})
		}

		if _, err := tx.Exec(ctx, `DELETE FROM tvbatch_item_diagnostics WHERE run_id = $1`, s.RunID); err != nil {
			return fmt.Errorf("clear diagnostics: %w", err)
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"tvbatch_item_diagnostics"},
			[]string{
				"run_id", "item_index", "symbol", "selected", "refreshed",
				"primary_text", "secondary_text", "primary_value", "secondary_value",
				"verdict", "deleted", "error",
			},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copy diagnostics: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit history tx: %w", err)
	}
	return nil
}

// Latest implements Recorder
func (p *Postgres) Latest(ctx context.Context) (*contracts.RunSummary, bool, error) {
	var raw []byte
	err := p.db.QueryRow(ctx, `
		SELECT summary
		FROM tvbatch_runs
		ORDER BY started_at DESC
		LIMIT 1
	`).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query latest run: %w", err)
	}

	var s contracts.RunSummary
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false, fmt.Errorf("unmarshal summary: %w", err)
	}
	return &s, true, nil
}

// nullable maps NaN to SQL NULL
func nullable(n contracts.Number) *float64 {
	if !n.Valid() {
		return nil
	}
	f := float64(n)
	return &f
}
