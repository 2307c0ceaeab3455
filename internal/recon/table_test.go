package recon

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/recon-cli/internal/model"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()

	raw := model.RawLineItem{
		SalesCode:       "LS01",
		ItemDescription: "CASS: address standardization",
		ItemUM:          "EA",
		ItemQuantity:    "35,816",
		ItemUnitPrice:   "0.005",
		ItemAmount:      "179.08",
	}
	v, err := ValueLineItem(raw, model.ResolvedPrice{UnitPrice: dec("0.0000")})
	require.NoError(t, err)

	inv := model.Invoice{
		InvoiceNumber:          "105924",
		InvoiceDate:            "01/31/2024",
		CustomerNameAndAddress: "AMA Insurance Agency",
		InvoiceTotal:           "26,018.96",
	}
	return NewTable(Summarize(inv, []model.LineItemValuation{v}), []model.LineItemValuation{v})
}

func TestTable_ColumnsExactSet(t *testing.T) {
	// Downstream report generation depends on this exact column order.
	want := []string{
		"sales_code", "item_description", "item_u_m", "item_quantity",
		"item_unit_price", "item_amount", "unit_price_from_contract",
		"contract", "term_in_contract", "variance", "impact", "status",
		"total_calc", "total_invoiced", "calc_error", "invoice_number",
		"invoice_date", "customer_name_and_address", "invoice_total",
		"impact_sum", "calc_sum", "invoiced_sum", "error_sum",
	}
	assert.Equal(t, want, Columns)
}

func TestTable_WriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTable(t).WriteCSV(&buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Columns, records[0])

	row := records[1]
	assert.Equal(t, "CASS: address standardization", row[1])
	assert.Equal(t, "0.0000", row[6]) // unit_price_from_contract at 4dp
	assert.Equal(t, "false", row[8])
	assert.Equal(t, "0.0050", row[9])
	assert.Equal(t, "179.08", row[10])
	assert.Equal(t, "Over Charged", row[11])
	assert.Equal(t, "105924", row[15])
	assert.Equal(t, "179.08", row[19]) // impact_sum repeated on every row
}

func TestTable_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	orig := sampleTable(t)
	require.NoError(t, orig.WriteCSV(&buf))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, got.Valuations, 1)

	v := got.Valuations[0]
	assert.Equal(t, "CASS: address standardization", v.ItemDescription)
	assert.False(t, v.TermInContract)
	assert.True(t, v.Variance.Equal(dec("0.0050")))
	assert.True(t, v.Impact.Equal(dec("179.08")))
	assert.Equal(t, model.StatusOverCharged, v.Status)

	assert.Equal(t, "105924", got.Summary.InvoiceNumber)
	assert.True(t, got.Summary.ImpactSum.Equal(dec("179.08")))
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("sales_code,item_description\nA,B\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	require.Error(t, err)
}
