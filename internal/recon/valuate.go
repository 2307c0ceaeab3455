// Package recon is the deterministic reconciliation engine: it turns
// raw extracted line items and resolved contract prices into valuation
// records, and rolls valuations up into invoice-level sums.
package recon

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sells-group/recon-cli/internal/model"
	"github.com/sells-group/recon-cli/internal/money"
)

// ValueLineItem computes the full valuation for one raw line item and
// its resolved contract price. Any unparseable numeric field aborts the
// valuation with an InvalidNumericFormatError naming the field; a
// malformed item must never contribute a silent zero to an invoice sum.
//
// Rounding happens exactly once per field, at that field's declared
// precision: variance 4dp, impact/total_calc/total_invoiced/calc_error
// 2dp. Intermediate values stay exact.
func ValueLineItem(raw model.RawLineItem, resolved model.ResolvedPrice) (model.LineItemValuation, error) {
	unitPrice, err := money.ParseField("item_unit_price", raw.ItemUnitPrice)
	if err != nil {
		return model.LineItemValuation{}, err
	}
	quantity, err := money.ParseField("item_quantity", raw.ItemQuantity)
	if err != nil {
		return model.LineItemValuation{}, err
	}
	amount, err := money.ParseField("item_amount", raw.ItemAmount)
	if err != nil {
		return model.LineItemValuation{}, err
	}

	normalized := normalizeUnitPrice(unitPrice, raw.ItemUM)

	// A contract price of exactly zero means the resolver found no
	// matching term; the two cases are indistinguishable at this layer.
	termInContract := !resolved.UnitPrice.IsZero()

	variance := normalized.Sub(resolved.UnitPrice).Round(4)
	impact := variance.Mul(quantity).Round(2)

	var status model.Status
	switch impact.Sign() {
	case 1:
		status = model.StatusOverCharged
	case -1:
		status = model.StatusUnderCharged
	default:
		status = model.StatusBalanced
	}

	totalCalc := normalized.Mul(quantity).Round(2)
	totalInvoiced := amount.Round(2)
	calcError := totalInvoiced.Sub(totalCalc).Round(2)

	return model.LineItemValuation{
		SalesCode:       raw.SalesCode,
		ItemDescription: raw.ItemDescription,
		ItemUM:          raw.ItemUM,
		ItemQuantity:    raw.ItemQuantity,
		ItemUnitPrice:   raw.ItemUnitPrice,
		ItemAmount:      raw.ItemAmount,

		UnitPriceFromContract: resolved.UnitPrice,
		Contract:              resolved.Contract,
		TermInContract:        termInContract,
		NormalizedUnitPrice:   normalized,
		Variance:              variance,
		Impact:                impact,
		Status:                status,
		TotalCalc:             totalCalc,
		TotalInvoiced:         totalInvoiced,
		CalcError:             calcError,
	}, nil
}

// normalizeUnitPrice applies the unit-of-measure adjustment. "M"/"/M"
// quote price per thousand units; "EA"/"U"/"/U" are per-unit and round
// to 4dp. Any other unit, including empty, passes the price through
// unrounded.
func normalizeUnitPrice(price decimal.Decimal, unitOfMeasure string) decimal.Decimal {
	switch strings.ToUpper(strings.TrimSpace(unitOfMeasure)) {
	case "M", "/M":
		// Shift keeps the division by 1000 exact.
		return price.Shift(-3)
	case "EA", "U", "/U":
		return price.Round(4)
	default:
		return price
	}
}
