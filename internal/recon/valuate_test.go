package recon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/recon-cli/internal/model"
	"github.com/sells-group/recon-cli/internal/money"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func resolved(price string) model.ResolvedPrice {
	return model.ResolvedPrice{UnitPrice: dec(price)}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestValueLineItem_CASSScenario(t *testing.T) {
	// CASS address standardization, per-each pricing, no contract match.
	raw := model.RawLineItem{
		ItemDescription: "CASS: address standardization",
		ItemUM:          "EA",
		ItemQuantity:    "35,816",
		ItemUnitPrice:   "0.005",
		ItemAmount:      "179.08",
	}

	v, err := ValueLineItem(raw, resolved("0.000"))
	require.NoError(t, err)

	assert.False(t, v.TermInContract)
	assertDecimal(t, "0.0050", v.Variance, "variance")
	assertDecimal(t, "179.08", v.Impact, "impact")
	assert.Equal(t, model.StatusOverCharged, v.Status)
	assertDecimal(t, "179.08", v.TotalCalc, "total_calc")
	assertDecimal(t, "179.08", v.TotalInvoiced, "total_invoiced")
	assertDecimal(t, "0.00", v.CalcError, "calc_error")
}

func TestValueLineItem_PerThousandScenario(t *testing.T) {
	raw := model.RawLineItem{
		ItemDescription: "Inkjet addressing",
		ItemUM:          "/M",
		ItemQuantity:    "97518",
		ItemUnitPrice:   "0.025",
		ItemAmount:      "2437.95",
	}

	v, err := ValueLineItem(raw, resolved("0.000"))
	require.NoError(t, err)

	assertDecimal(t, "0.000025", v.NormalizedUnitPrice, "normalized_unit_price")
	assertDecimal(t, "0.0000", v.Variance, "variance") // 0.000025 rounds away at 4dp
	assertDecimal(t, "0.00", v.Impact, "impact")
	assert.Equal(t, model.StatusBalanced, v.Status)
	assertDecimal(t, "2.44", v.TotalCalc, "total_calc")
	assertDecimal(t, "2437.95", v.TotalInvoiced, "total_invoiced")
	assertDecimal(t, "2435.51", v.CalcError, "calc_error")
}

func TestNormalizeUnitPrice_PerThousand(t *testing.T) {
	for _, um := range []string{"M", "/M", "m", "/m", " M "} {
		got := normalizeUnitPrice(dec("25.00"), um)
		assertDecimal(t, "0.025", got, "normalized for "+um)
	}
}

func TestNormalizeUnitPrice_PerEach(t *testing.T) {
	for _, um := range []string{"EA", "ea", "U", "u", "/U", "/u"} {
		got := normalizeUnitPrice(dec("0.12345"), um)
		assertDecimal(t, "0.1235", got, "normalized for "+um)
	}
}

func TestNormalizeUnitPrice_UnknownUnitUnrounded(t *testing.T) {
	// Unrecognized units pass through without rounding.
	for _, um := range []string{"", "BOX", "LOT", "HR"} {
		got := normalizeUnitPrice(dec("0.123456"), um)
		assertDecimal(t, "0.123456", got, "normalized for "+um)
	}
}

func TestValueLineItem_StatusSignConvention(t *testing.T) {
	cases := []struct {
		name          string
		contractPrice string
		wantStatus    model.Status
		wantImpact    string
	}{
		{"over charged", "0.0040", model.StatusOverCharged, "10.00"},
		{"under charged", "0.0060", model.StatusUnderCharged, "-10.00"},
		{"balanced", "0.0050", model.StatusBalanced, "0.00"},
	}

	raw := model.RawLineItem{
		ItemDescription: "Statement rendering",
		ItemUM:          "EA",
		ItemQuantity:    "10000",
		ItemUnitPrice:   "0.005",
		ItemAmount:      "50.00",
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := ValueLineItem(raw, resolved(tc.contractPrice))
			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, v.Status)
			assertDecimal(t, tc.wantImpact, v.Impact, "impact")
			assert.True(t, v.TermInContract)

			// Invariant: impact sign and status always agree.
			switch v.Impact.Sign() {
			case 1:
				assert.Equal(t, model.StatusOverCharged, v.Status)
			case -1:
				assert.Equal(t, model.StatusUnderCharged, v.Status)
			default:
				assert.Equal(t, model.StatusBalanced, v.Status)
			}
		})
	}
}

func TestValueLineItem_CalcErrorIsInvoicedMinusCalc(t *testing.T) {
	raw := model.RawLineItem{
		ItemDescription: "Expediting fees",
		ItemUM:          "EA",
		ItemQuantity:    "2",
		ItemUnitPrice:   "16.910",
		ItemAmount:      "35.00", // stated total disagrees with qty*price
	}

	v, err := ValueLineItem(raw, resolved("16.9100"))
	require.NoError(t, err)

	assertDecimal(t, "33.82", v.TotalCalc, "total_calc")
	assertDecimal(t, "35.00", v.TotalInvoiced, "total_invoiced")
	assertDecimal(t, "1.18", v.CalcError, "calc_error")
	assert.True(t, v.TotalInvoiced.Sub(v.TotalCalc).Equal(v.CalcError))
}

func TestValueLineItem_ParseFailureNamesField(t *testing.T) {
	cases := []struct {
		name string
		raw  model.RawLineItem
		want string
	}{
		{
			"bad quantity",
			model.RawLineItem{ItemQuantity: "n/a", ItemUnitPrice: "1.0", ItemAmount: "1.0"},
			"item_quantity",
		},
		{
			"bad unit price",
			model.RawLineItem{ItemQuantity: "1", ItemUnitPrice: "", ItemAmount: "1.0"},
			"item_unit_price",
		},
		{
			"bad amount",
			model.RawLineItem{ItemQuantity: "1", ItemUnitPrice: "1.0", ItemAmount: "??"},
			"item_amount",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValueLineItem(tc.raw, resolved("0"))
			require.Error(t, err)

			var inf *money.InvalidNumericFormatError
			require.ErrorAs(t, err, &inf)
			assert.Equal(t, tc.want, inf.Field)
		})
	}
}

func TestValueLineItem_KeepsRawTextFields(t *testing.T) {
	raw := model.RawLineItem{
		SalesCode:       "OT90",
		ItemDescription: "Clerical Support- Reprints",
		ItemUM:          "EA",
		ItemQuantity:    "755",
		ItemUnitPrice:   "0.100",
		ItemAmount:      "75.50",
	}

	v, err := ValueLineItem(raw, model.ResolvedPrice{UnitPrice: dec("0.1000"), Contract: "msa.pdf"})
	require.NoError(t, err)

	assert.Equal(t, raw.SalesCode, v.SalesCode)
	assert.Equal(t, raw.ItemDescription, v.ItemDescription)
	assert.Equal(t, raw.ItemQuantity, v.ItemQuantity)
	assert.Equal(t, "msa.pdf", v.Contract)
}
