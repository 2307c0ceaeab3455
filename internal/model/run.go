package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RunStatus represents the current state of a reconciliation run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusExtracting RunStatus = "extracting"
	RunStatusResolving  RunStatus = "resolving"
	RunStatusValuating  RunStatus = "valuating"
	RunStatusReporting  RunStatus = "reporting"
	RunStatusComplete   RunStatus = "complete"
	RunStatusFailed     RunStatus = "failed"
)

// Run is one reconciliation of one invoice document.
type Run struct {
	ID          string     `json:"id"`
	InvoicePath string     `json:"invoice_path"`
	Status      RunStatus  `json:"status"`
	Result      *RunResult `json:"result,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RunResult captures the run's outcome once reconciliation finishes.
type RunResult struct {
	InvoiceNumber string          `json:"invoice_number"`
	LineItems     int             `json:"line_items"`
	ImpactSum     decimal.Decimal `json:"impact_sum"`
	ErrorSum      decimal.Decimal `json:"error_sum"`
	OutputPath    string          `json:"output_path,omitempty"`
	ReportPath    string          `json:"report_path,omitempty"`
	TotalTokens   int64           `json:"total_tokens,omitempty"`
	TotalCost     float64         `json:"total_cost,omitempty"`
	Error         string          `json:"error,omitempty"`
}
