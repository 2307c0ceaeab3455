package groundtruth

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/recon-cli/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func computedRow(desc string, contractPrice, variance, impact string) model.LineItemValuation {
	return model.LineItemValuation{
		ItemDescription:       desc,
		UnitPriceFromContract: dec(contractPrice),
		Variance:              dec(variance),
		Impact:                dec(impact),
		TotalCalc:             dec("100.00"),
		TotalInvoiced:         dec("100.00"),
		CalcError:             dec("0.00"),
	}
}

func truthRow(desc string, price, variance, impact string) model.GroundTruthRecord {
	return model.GroundTruthRecord{
		ItemDescriptionGroundTruth: desc,
		UnitPriceGroundTruth:       dec(price),
		VarianceGroundTruth:        dec(variance),
		ImpactGroundTruth:          dec(impact),
		TotalCalcGroundTruth:       dec("100.00"),
		TotalInvoicedGroundTruth:   dec("100.00"),
		CalcErrorsGroundTruth:      dec("0.00"),
	}
}

func TestNormalizeDescription(t *testing.T) {
	cases := map[string]string{
		"CASS: address standardization":    "CASS: address standardization",
		"1. Foreign Postage":               "Foreign Postage",
		"  2) BRE  ":                       "BRE",
		"- Inkjet addressing":              "Inkjet addressing",
		"42":                               "",
		"":                                 "",
		"#9 Envelope printing ":            "Envelope printing",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeDescription(in), "input %q", in)
	}
}

func TestJoin_MatchesOnNormalizedDescription(t *testing.T) {
	computed := []model.LineItemValuation{
		computedRow("1. CASS: address standardization", "0.0000", "0.0050", "179.08"),
	}
	truth := []model.GroundTruthRecord{
		truthRow("CASS: address standardization", "0.0000", "0.0050", "179.08"),
	}

	matches := Join(computed, truth)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, "CASS: address standardization", m.ItemDescription)
	assert.True(t, m.UnitPriceMatch)
	assert.True(t, m.VarianceMatch)
	assert.True(t, m.ImpactMatch)
	assert.True(t, m.TotalCalcMatch)
	assert.True(t, m.TotalInvoicedMatch)
	assert.True(t, m.CalcErrorMatch)
}

func TestJoin_ExactEqualityNoTolerance(t *testing.T) {
	computed := []model.LineItemValuation{
		computedRow("BRE", "0.1234", "0.0001", "3.58"),
	}
	truth := []model.GroundTruthRecord{
		truthRow("BRE", "0.1235", "0.0001", "3.59"),
	}

	matches := Join(computed, truth)
	require.Len(t, matches, 1)
	assert.False(t, matches[0].UnitPriceMatch)
	assert.True(t, matches[0].VarianceMatch)
	assert.False(t, matches[0].ImpactMatch)
}

func TestJoin_ScaleInsensitiveEquality(t *testing.T) {
	// 179.08 and 179.0800 are the same value at different scales.
	computed := []model.LineItemValuation{
		computedRow("BRE", "0.1200", "0.0000", "179.08"),
	}
	truth := []model.GroundTruthRecord{
		truthRow("BRE", "0.12", "0", "179.0800"),
	}

	matches := Join(computed, truth)
	require.Len(t, matches, 1)
	assert.True(t, matches[0].UnitPriceMatch)
	assert.True(t, matches[0].VarianceMatch)
	assert.True(t, matches[0].ImpactMatch)
}

func TestJoin_DropsEmptyDescriptions(t *testing.T) {
	computed := []model.LineItemValuation{
		computedRow("", "0", "0", "0"),
		computedRow("123", "0", "0", "0"), // normalizes to empty
	}
	truth := []model.GroundTruthRecord{
		truthRow("", "0", "0", "0"),
	}

	assert.Empty(t, Join(computed, truth))
}

func TestJoin_ManyToMany(t *testing.T) {
	// Two computed rows and two ground-truth rows sharing one
	// description produce all four pairs.
	computed := []model.LineItemValuation{
		computedRow("Postage", "0.10", "0", "0"),
		computedRow("Postage", "0.20", "0", "0"),
	}
	truth := []model.GroundTruthRecord{
		truthRow("Postage", "0.10", "0", "0"),
		truthRow("Postage", "0.30", "0", "0"),
	}

	matches := Join(computed, truth)
	assert.Len(t, matches, 4)
}

func TestJoin_SymmetricUnderReordering(t *testing.T) {
	computed := []model.LineItemValuation{
		computedRow("A", "0.10", "0", "0"),
		computedRow("B", "0.20", "0", "0"),
	}
	truth := []model.GroundTruthRecord{
		truthRow("A", "0.10", "0", "0"),
		truthRow("B", "0.25", "0", "0"),
	}
	truthReversed := []model.GroundTruthRecord{truth[1], truth[0]}

	a := Join(computed, truth)
	b := Join(computed, truthReversed)
	require.Len(t, a, 2)
	require.Len(t, b, 2)

	// Same multiset of matches regardless of row order.
	countTrue := func(ms []model.MatchRecord) int {
		n := 0
		for _, m := range ms {
			if m.UnitPriceMatch {
				n++
			}
		}
		return n
	}
	assert.Equal(t, countTrue(a), countTrue(b))
}

func TestJoin_NoOverlap(t *testing.T) {
	computed := []model.LineItemValuation{computedRow("A", "0", "0", "0")}
	truth := []model.GroundTruthRecord{truthRow("B", "0", "0", "0")}
	assert.Empty(t, Join(computed, truth))
}
