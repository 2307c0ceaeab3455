package recon

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/recon-cli/internal/model"
)

// Sums holds the invoice-level totals over a set of valuations.
type Sums struct {
	Impact   decimal.Decimal
	Calc     decimal.Decimal
	Invoiced decimal.Decimal
	Error    decimal.Decimal
}

// Aggregate sums the impact, total_calc, total_invoiced and calc_error
// fields across all valuations of one invoice. Empty input yields zero
// sums.
func Aggregate(valuations []model.LineItemValuation) Sums {
	var s Sums
	for _, v := range valuations {
		s.Impact = s.Impact.Add(v.Impact)
		s.Calc = s.Calc.Add(v.TotalCalc)
		s.Invoiced = s.Invoiced.Add(v.TotalInvoiced)
		s.Error = s.Error.Add(v.CalcError)
	}
	return s
}

// Summarize builds the immutable invoice-level summary from the invoice
// header and its completed valuations.
func Summarize(inv model.Invoice, valuations []model.LineItemValuation) model.InvoiceSummary {
	sums := Aggregate(valuations)
	return model.InvoiceSummary{
		InvoiceNumber:          inv.InvoiceNumber,
		InvoiceDate:            inv.InvoiceDate,
		CustomerNameAndAddress: inv.CustomerNameAndAddress,
		InvoiceTotal:           inv.InvoiceTotal,
		ImpactSum:              sums.Impact,
		CalcSum:                sums.Calc,
		InvoicedSum:            sums.Invoiced,
		ErrorSum:               sums.Error,
	}
}
