package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/recon-cli/internal/db"
	"github.com/sells-group/recon-cli/internal/model"
	"github.com/sells-group/recon-cli/internal/recon"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
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
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	invoice_path TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'queued',
	result       JSONB,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS recon_tables (
	run_id         TEXT PRIMARY KEY REFERENCES runs(id),
	invoice_number TEXT NOT NULL,
	data           JSONB NOT NULL,
	saved_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS recon_rows (
	run_id                   TEXT NOT NULL REFERENCES runs(id),
	sales_code               TEXT NOT NULL,
	item_description         TEXT NOT NULL,
	unit_price_from_contract NUMERIC NOT NULL,
	variance                 NUMERIC NOT NULL,
	impact                   NUMERIC NOT NULL,
	status                   TEXT NOT NULL,
	calc_error               NUMERIC NOT NULL
);

CREATE TABLE IF NOT EXISTS price_cache (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	item_description TEXT NOT NULL UNIQUE,
	unit_price       TEXT NOT NULL,
	contract         TEXT NOT NULL,
	resolved_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at       TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_recon_tables_invoice ON recon_tables(invoice_number);
CREATE INDEX IF NOT EXISTS idx_recon_rows_run_id ON recon_rows(run_id);
CREATE INDEX IF NOT EXISTS idx_price_cache_item ON price_cache(item_description);
CREATE INDEX IF NOT EXISTS idx_price_cache_expires_at ON price_cache(expires_at);
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

func (s *PostgresStore) CreateRun(ctx context.Context, invoicePath string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, invoice_path, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, invoicePath, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:          id,
		InvoicePath: invoicePath,
		Status:      model.RunStatusQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	status := model.RunStatusComplete
	if result.Error != "" {
		status = model.RunStatusFailed
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run result %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, invoice_path, status, result, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)

	var r model.Run
	var resultJSON []byte
	err := row.Scan(&r.ID, &r.InvoicePath, &r.Status, &resultJSON, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	if len(resultJSON) > 0 {
		r.Result = &model.RunResult{}
		if err := json.Unmarshal(resultJSON, r.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, invoice_path, status, result, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $1`
	}
	if filter.InvoiceNumber != "" {
		args = append(args, filter.InvoiceNumber)
		query += ` AND result->>'invoice_number' = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var resultJSON []byte
		if err := rows.Scan(&r.ID, &r.InvoicePath, &r.Status, &resultJSON, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if len(resultJSON) > 0 {
			r.Result = &model.RunResult{}
			if err := json.Unmarshal(resultJSON, r.Result); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal result")
			}
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) SaveTable(ctx context.Context, runID string, table *recon.Table) error {
	data, err := json.Marshal(table)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal table")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO recon_tables (run_id, invoice_number, data, saved_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (run_id) DO UPDATE SET invoice_number = EXCLUDED.invoice_number, data = EXCLUDED.data, saved_at = EXCLUDED.saved_at`,
		runID, table.Summary.InvoiceNumber, data, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save table for run %s", runID)
	}

	// Denormalized rows go in via COPY for ad-hoc SQL analysis across runs.
	rows := make([][]any, 0, len(table.Valuations))
	for _, v := range table.Valuations {
		rows = append(rows, []any{
			runID, v.SalesCode, v.ItemDescription,
			v.UnitPriceFromContract, v.Variance, v.Impact,
			string(v.Status), v.CalcError,
		})
	}
	_, err = db.CopyFrom(ctx, s.pool, "recon_rows",
		[]string{"run_id", "sales_code", "item_description", "unit_price_from_contract", "variance", "impact", "status", "calc_error"},
		rows)
	return eris.Wrapf(err, "postgres: copy rows for run %s", runID)
}

func (s *PostgresStore) GetTable(ctx context.Context, runID string) (*recon.Table, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT data FROM recon_tables WHERE run_id = $1`, runID,
	)

	var data []byte
	err := row.Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get table for run %s", runID)
	}

	var table recon.Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal table")
	}
	return &table, nil
}

func (s *PostgresStore) GetCachedPrice(ctx context.Context, itemDescription string) (*model.ResolvedPrice, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT unit_price, contract FROM price_cache
		 WHERE item_description = $1 AND expires_at > now()
		 ORDER BY resolved_at DESC LIMIT 1`,
		itemDescription,
	)

	var priceStr, contract string
	err := row.Scan(&priceStr, &contract)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get cached price")
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: parse cached price %q", priceStr)
	}
	return &model.ResolvedPrice{UnitPrice: price, Contract: contract}, nil
}

func (s *PostgresStore) SetCachedPrice(ctx context.Context, itemDescription string, price model.ResolvedPrice, ttl time.Duration) error {
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO price_cache (id, item_description, unit_price, contract, resolved_at, expires_at) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (item_description) DO UPDATE SET unit_price = EXCLUDED.unit_price, contract = EXCLUDED.contract, resolved_at = EXCLUDED.resolved_at, expires_at = EXCLUDED.expires_at`,
		uuid.New().String(), itemDescription, price.UnitPrice.String(), price.Contract, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set cached price")
}

func (s *PostgresStore) DeleteExpiredPrices(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM price_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired prices")
	}
	return int(tag.RowsAffected()), nil
}

