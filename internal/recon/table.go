package recon

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/recon-cli/internal/model"
	"github.com/sells-group/recon-cli/internal/money"
)

// Columns is the exact column set and order of the persisted
// reconciliation table. Downstream report generation depends on these
// names; do not rename or reorder.
var Columns = []string{
	"sales_code",
	"item_description",
	"item_u_m",
	"item_quantity",
	"item_unit_price",
	"item_amount",
	"unit_price_from_contract",
	"contract",
	"term_in_contract",
	"variance",
	"impact",
	"status",
	"total_calc",
	"total_invoiced",
	"calc_error",
	"invoice_number",
	"invoice_date",
	"customer_name_and_address",
	"invoice_total",
	"impact_sum",
	"calc_sum",
	"invoiced_sum",
	"error_sum",
}

// Table is the denormalized one-table-per-invoice layout: one row per
// valuation with the invoice header and the four sums repeated on every
// row.
type Table struct {
	Summary    model.InvoiceSummary
	Valuations []model.LineItemValuation
}

// NewTable builds the output table for one reconciled invoice.
func NewTable(summary model.InvoiceSummary, valuations []model.LineItemValuation) *Table {
	return &Table{Summary: summary, Valuations: valuations}
}

// Rows renders every valuation as a string row in Columns order.
func (t *Table) Rows() [][]string {
	rows := make([][]string, 0, len(t.Valuations))
	for _, v := range t.Valuations {
		rows = append(rows, []string{
			v.SalesCode,
			v.ItemDescription,
			v.ItemUM,
			v.ItemQuantity,
			v.ItemUnitPrice,
			v.ItemAmount,
			v.UnitPriceFromContract.StringFixed(4),
			v.Contract,
			strconv.FormatBool(v.TermInContract),
			v.Variance.StringFixed(4),
			v.Impact.StringFixed(2),
			string(v.Status),
			v.TotalCalc.StringFixed(2),
			v.TotalInvoiced.StringFixed(2),
			v.CalcError.StringFixed(2),
			t.Summary.InvoiceNumber,
			t.Summary.InvoiceDate,
			t.Summary.CustomerNameAndAddress,
			t.Summary.InvoiceTotal,
			t.Summary.ImpactSum.StringFixed(2),
			t.Summary.CalcSum.StringFixed(2),
			t.Summary.InvoicedSum.StringFixed(2),
			t.Summary.ErrorSum.StringFixed(2),
		})
	}
	return rows
}

// WriteCSV writes the table, header first, to w.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "recon: write csv header")
	}
	for _, row := range t.Rows() {
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "recon: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "recon: flush csv")
}

// ReadCSV parses a previously written reconciliation table back into a
// Table. Used by the ground-truth evaluation step, which runs offline
// against saved recon output.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "recon: read csv")
	}
	if len(records) == 0 {
		return nil, eris.New("recon: csv has no header row")
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[name] = i
	}
	for _, name := range Columns {
		if _, ok := col[name]; !ok {
			return nil, eris.Errorf("recon: csv missing column %q", name)
		}
	}

	t := &Table{}
	for i, rec := range records[1:] {
		v := model.LineItemValuation{
			SalesCode:       rec[col["sales_code"]],
			ItemDescription: rec[col["item_description"]],
			ItemUM:          rec[col["item_u_m"]],
			ItemQuantity:    rec[col["item_quantity"]],
			ItemUnitPrice:   rec[col["item_unit_price"]],
			ItemAmount:      rec[col["item_amount"]],
			Contract:        rec[col["contract"]],
			Status:          model.Status(rec[col["status"]]),
		}
		v.TermInContract, err = strconv.ParseBool(rec[col["term_in_contract"]])
		if err != nil {
			return nil, eris.Wrapf(err, "recon: row %d: parse term_in_contract", i+1)
		}

		for _, f := range []struct {
			name string
			dst  *decimalField
		}{
			{"unit_price_from_contract", &decimalField{&v.UnitPriceFromContract}},
			{"variance", &decimalField{&v.Variance}},
			{"impact", &decimalField{&v.Impact}},
			{"total_calc", &decimalField{&v.TotalCalc}},
			{"total_invoiced", &decimalField{&v.TotalInvoiced}},
			{"calc_error", &decimalField{&v.CalcError}},
		} {
			if err := f.dst.set(rec[col[f.name]]); err != nil {
				return nil, eris.Wrapf(err, "recon: row %d: parse %s", i+1, f.name)
			}
		}

		t.Valuations = append(t.Valuations, v)

		if i == 0 {
			t.Summary.InvoiceNumber = rec[col["invoice_number"]]
			t.Summary.InvoiceDate = rec[col["invoice_date"]]
			t.Summary.CustomerNameAndAddress = rec[col["customer_name_and_address"]]
			t.Summary.InvoiceTotal = rec[col["invoice_total"]]
			for _, f := range []struct {
				name string
				dst  *decimalField
			}{
				{"impact_sum", &decimalField{&t.Summary.ImpactSum}},
				{"calc_sum", &decimalField{&t.Summary.CalcSum}},
				{"invoiced_sum", &decimalField{&t.Summary.InvoicedSum}},
				{"error_sum", &decimalField{&t.Summary.ErrorSum}},
			} {
				if err := f.dst.set(rec[col[f.name]]); err != nil {
					return nil, eris.Wrapf(err, "recon: parse %s", f.name)
				}
			}
		}
	}

	return t, nil
}

type decimalField struct {
	dst *decimal.Decimal
}

func (f *decimalField) set(raw string) error {
	d, err := money.ParseNumeric(raw)
	if err != nil {
		return err
	}
	*f.dst = d
	return nil
}
