package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/sells-group/recon-cli/internal/model"
	"github.com/sells-group/recon-cli/internal/recon"
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
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	invoice_path TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'queued',
	result       TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS recon_tables (
	run_id         TEXT PRIMARY KEY REFERENCES runs(id),
	invoice_number TEXT NOT NULL,
	data           TEXT NOT NULL,
	saved_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS price_cache (
	id               TEXT PRIMARY KEY,
	item_description TEXT NOT NULL,
	unit_price       TEXT NOT NULL,
	contract         TEXT NOT NULL,
	resolved_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_recon_tables_invoice ON recon_tables(invoice_number);
CREATE INDEX IF NOT EXISTS idx_price_cache_item ON price_cache(item_description);
CREATE INDEX IF NOT EXISTS idx_price_cache_expires_at ON price_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, invoicePath string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, invoice_path, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, invoicePath, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:          id,
		InvoicePath: invoicePath,
		Status:      model.RunStatusQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	status := model.RunStatusComplete
	if result.Error != "" {
		status = model.RunStatusFailed
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run result %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, invoice_path, status, result, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, invoice_path, status, result, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.InvoiceNumber != "" {
		query += ` AND json_extract(result, '$.invoice_number') = ?`
		args = append(args, filter.InvoiceNumber)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

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

func (s *SQLiteStore) SaveTable(ctx context.Context, runID string, table *recon.Table) error {
	data, err := json.Marshal(table)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal table")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recon_tables (run_id, invoice_number, data, saved_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET invoice_number = excluded.invoice_number, data = excluded.data, saved_at = excluded.saved_at`,
		runID, table.Summary.InvoiceNumber, string(data), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save table for run %s", runID)
}

func (s *SQLiteStore) GetTable(ctx context.Context, runID string) (*recon.Table, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT data FROM recon_tables WHERE run_id = ?`, runID,
	)

	var data string
	err := row.Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get table for run %s", runID)
	}

	var table recon.Table
	if err := json.Unmarshal([]byte(data), &table); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal table")
	}
	return &table, nil
}

func (s *SQLiteStore) GetCachedPrice(ctx context.Context, itemDescription string) (*model.ResolvedPrice, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT unit_price, contract FROM price_cache
		 WHERE item_description = ? AND expires_at > datetime('now')
		 ORDER BY resolved_at DESC LIMIT 1`,
		itemDescription,
	)

	var priceStr, contract string
	err := row.Scan(&priceStr, &contract)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached price")
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse cached price %q", priceStr)
	}
	return &model.ResolvedPrice{UnitPrice: price, Contract: contract}, nil
}

func (s *SQLiteStore) SetCachedPrice(ctx context.Context, itemDescription string, price model.ResolvedPrice, ttl time.Duration) error {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO price_cache (id, item_description, unit_price, contract, resolved_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, itemDescription, price.UnitPrice.String(), price.Contract, now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set cached price")
}

func (s *SQLiteStore) DeleteExpiredPrices(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM price_cache WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired prices")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var resultJSON sql.NullString

	err := row.Scan(&r.ID, &r.InvoicePath, &r.Status, &resultJSON, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if resultJSON.Valid {
		r.Result = &model.RunResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), r.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
	}
	return &r, nil
}
