package store

import (
	"context"
	"time"

	"github.com/sells-group/recon-cli/internal/model"
	"github.com/sells-group/recon-cli/internal/recon"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status        model.RunStatus `json:"status,omitempty"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	Limit         int             `json:"limit,omitempty"`
	Offset        int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the reconciliation
// pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, invoicePath string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Reconciliation tables
	SaveTable(ctx context.Context, runID string, table *recon.Table) error
	GetTable(ctx context.Context, runID string) (*recon.Table, error)

	// Contract price cache
	GetCachedPrice(ctx context.Context, itemDescription string) (*model.ResolvedPrice, error)
	SetCachedPrice(ctx context.Context, itemDescription string, price model.ResolvedPrice, ttl time.Duration) error
	DeleteExpiredPrices(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
