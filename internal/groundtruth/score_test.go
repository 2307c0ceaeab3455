package groundtruth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/recon-cli/internal/model"
)

func TestScore_Empty(t *testing.T) {
	_, err := Score("105924", nil)
	require.ErrorIs(t, err, ErrNoMatchedRows)
}

func TestScore_AllFieldsMatch(t *testing.T) {
	matches := []model.MatchRecord{
		{UnitPriceMatch: true, VarianceMatch: true, ImpactMatch: true,
			TotalCalcMatch: true, TotalInvoicedMatch: true, CalcErrorMatch: true},
		{UnitPriceMatch: true, VarianceMatch: true, ImpactMatch: true,
			TotalCalcMatch: true, TotalInvoicedMatch: true, CalcErrorMatch: true},
	}

	summary, err := Score("105924", matches)
	require.NoError(t, err)

	assert.Equal(t, "105924", summary.InvoiceNumber)
	assert.Equal(t, 100.0, summary.PriceMatchPercentage)
	assert.Equal(t, 100.0, summary.VarianceMatchPercentage)
	assert.Equal(t, 100.0, summary.ImpactMatchPercentage)
	assert.Equal(t, 100.0, summary.TotalCalcMatchPercentage)
	assert.Equal(t, 100.0, summary.TotalInvoicedMatchPercentage)
	assert.Equal(t, 100.0, summary.CalcErrorMatchPercentage)
}

func TestScore_PartialMatches(t *testing.T) {
	matches := []model.MatchRecord{
		{UnitPriceMatch: true, ImpactMatch: true},
		{UnitPriceMatch: true},
		{VarianceMatch: true},
		{},
	}

	summary, err := Score("106154", matches)
	require.NoError(t, err)

	assert.Equal(t, 50.0, summary.PriceMatchPercentage)
	assert.Equal(t, 25.0, summary.VarianceMatchPercentage)
	assert.Equal(t, 25.0, summary.ImpactMatchPercentage)
	assert.Equal(t, 0.0, summary.TotalCalcMatchPercentage)
}
