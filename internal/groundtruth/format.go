// Package groundtruth normalizes manually reconciled reference
// spreadsheets, joins them against computed reconciliation output, and
// scores per-field agreement. Unlike the valuation engine, this package
// is defensive by design: ground truth is hand-entered data, so bad
// cells coerce to documented defaults instead of failing the run.
package groundtruth

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/recon-cli/internal/model"
	"github.com/sells-group/recon-cli/internal/money"
)

// Source column names as they appear in the manual reconciliation
// spreadsheets. Any of them may be absent; absent columns default per
// field type and are never an error.
const (
	colInvoiceNumber  = "Invoice Number"
	colInvoiceDate    = "Invoice Date"
	colQuantity       = "Quantity"
	colDescription    = "Line item description"
	colContractAmount = "Contract Amount"
	colVariance       = "Variance"
	colImpact         = "Impact"
	colTotalCalc      = "Total Calc"
	colTotalInvoiced  = "Total Invoiced"
	colCalcErrors     = "Calc Errors"
)

// Format maps a raw ground-truth sheet (header row plus data rows) into
// GroundTruthRecords. Missing and non-numeric cells in numeric columns
// become 0.00 at 4dp; missing text columns become empty strings.
func Format(header []string, rows [][]string) []model.GroundTruthRecord {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	for _, name := range []string{
		colInvoiceNumber, colInvoiceDate, colQuantity, colDescription,
		colContractAmount, colVariance, colImpact, colTotalCalc,
		colTotalInvoiced, colCalcErrors,
	} {
		if _, ok := idx[name]; !ok {
			zap.L().Debug("groundtruth: column absent, using defaults",
				zap.String("column", name))
		}
	}

	records := make([]model.GroundTruthRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, model.GroundTruthRecord{
			InvoiceNumber:              textCell(row, idx, colInvoiceNumber),
			InvoiceDate:                textCell(row, idx, colInvoiceDate),
			InvoiceQuantity:            numericCell(row, idx, colQuantity),
			ItemDescriptionGroundTruth: textCell(row, idx, colDescription),
			UnitPriceGroundTruth:       numericCell(row, idx, colContractAmount),
			VarianceGroundTruth:        numericCell(row, idx, colVariance),
			ImpactGroundTruth:          numericCell(row, idx, colImpact),
			TotalCalcGroundTruth:       numericCell(row, idx, colTotalCalc),
			TotalInvoicedGroundTruth:   numericCell(row, idx, colTotalInvoiced),
			CalcErrorsGroundTruth:      numericCell(row, idx, colCalcErrors),
		})
	}
	return records
}

func textCell(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// numericCell coerces a cell to a 4dp decimal, defaulting to zero for
// absent columns, short rows, and anything that does not parse.
func numericCell(row []string, idx map[string]int, col string) decimal.Decimal {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return decimal.Zero
	}
	d, err := money.ParseNumeric(row[i])
	if err != nil {
		return decimal.Zero
	}
	return d.Round(4)
}
