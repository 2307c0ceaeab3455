package groundtruth

import (
	"regexp"
	"strings"

	"github.com/sells-group/recon-cli/internal/model"
)

// leadingNonAlpha strips everything before the first letter, so that
// numbered or bulleted descriptions still match their ground-truth
// counterpart.
var leadingNonAlpha = regexp.MustCompile(`^[^a-zA-Z]*`)

// NormalizeDescription is the join key: leading non-alphabetic
// characters removed, surrounding whitespace trimmed.
func NormalizeDescription(desc string) string {
	return strings.TrimSpace(leadingNonAlpha.ReplaceAllString(desc, ""))
}

// Join inner-joins computed valuations against ground-truth records on
// normalized item description. Rows with an empty description on either
// side are dropped. The join is many-to-many: every matching pair
// yields one MatchRecord, so repeated descriptions multiply rows.
// Each record's six booleans hold exact decimal equality, no tolerance.
func Join(computed []model.LineItemValuation, truth []model.GroundTruthRecord) []model.MatchRecord {
	type truthKey struct {
		key    string
		record model.GroundTruthRecord
	}
	keyed := make([]truthKey, 0, len(truth))
	for _, gt := range truth {
		key := NormalizeDescription(gt.ItemDescriptionGroundTruth)
		if key == "" {
			continue
		}
		keyed = append(keyed, truthKey{key: key, record: gt})
	}

	var matches []model.MatchRecord
	for _, c := range computed {
		key := NormalizeDescription(c.ItemDescription)
		if key == "" {
			continue
		}
		for _, gt := range keyed {
			if gt.key != key {
				continue
			}
			matches = append(matches, compare(key, c, gt.record))
		}
	}
	return matches
}

func compare(key string, c model.LineItemValuation, gt model.GroundTruthRecord) model.MatchRecord {
	return model.MatchRecord{
		ItemDescription:    key,
		Computed:           c,
		GroundTruth:        gt,
		UnitPriceMatch:     c.UnitPriceFromContract.Equal(gt.UnitPriceGroundTruth),
		VarianceMatch:      c.Variance.Equal(gt.VarianceGroundTruth),
		ImpactMatch:        c.Impact.Equal(gt.ImpactGroundTruth),
		TotalCalcMatch:     c.TotalCalc.Equal(gt.TotalCalcGroundTruth),
		TotalInvoicedMatch: c.TotalInvoiced.Equal(gt.TotalInvoicedGroundTruth),
		CalcErrorMatch:     c.CalcError.Equal(gt.CalcErrorsGroundTruth),
	}
}
