package groundtruth

import (
	"errors"

	"github.com/sells-group/recon-cli/internal/model"
)

// ErrNoMatchedRows is returned when the join produced zero rows. An
// empty evaluation is a reportable condition in its own right, not a
// 0% (or 100%) score.
var ErrNoMatchedRows = errors.New("groundtruth: no matched rows")

// Score computes the per-field agreement percentages over a set of
// match records.
func Score(invoiceNumber string, matches []model.MatchRecord) (model.MatchSummary, error) {
	if len(matches) == 0 {
		return model.MatchSummary{}, ErrNoMatchedRows
	}

	var price, variance, impact, totalCalc, totalInvoiced, calcError int
	for _, m := range matches {
		if m.UnitPriceMatch {
			price++
		}
		if m.VarianceMatch {
			variance++
		}
		if m.ImpactMatch {
			impact++
		}
		if m.TotalCalcMatch {
			totalCalc++
		}
		if m.TotalInvoicedMatch {
			totalInvoiced++
		}
		if m.CalcErrorMatch {
			calcError++
		}
	}

	total := float64(len(matches))
	pct := func(n int) float64 { return float64(n) / total * 100 }

	return model.MatchSummary{
		InvoiceNumber:                invoiceNumber,
		PriceMatchPercentage:         pct(price),
		VarianceMatchPercentage:      pct(variance),
		ImpactMatchPercentage:        pct(impact),
		TotalCalcMatchPercentage:     pct(totalCalc),
		TotalInvoicedMatchPercentage: pct(totalInvoiced),
		CalcErrorMatchPercentage:     pct(calcError),
	}, nil
}
