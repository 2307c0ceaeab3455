package model

import "github.com/shopspring/decimal"

// GroundTruthRecord is one row of the manually reconciled reference
// table, normalized into the engine's schema. Numeric fields default to
// zero when the source cell is missing or non-numeric; ground truth is
// hand-maintained and must not block the pipeline.
type GroundTruthRecord struct {
	InvoiceNumber              string          `json:"invoice_number"`
	InvoiceDate                string          `json:"invoice_date"`
	InvoiceQuantity            decimal.Decimal `json:"invoice_quantity"`
	ItemDescriptionGroundTruth string          `json:"item_description_ground_truth"`
	UnitPriceGroundTruth       decimal.Decimal `json:"unit_price_ground_truth"`
	VarianceGroundTruth        decimal.Decimal `json:"variance_ground_truth"`
	ImpactGroundTruth          decimal.Decimal `json:"impact_ground_truth"`
	TotalCalcGroundTruth       decimal.Decimal `json:"total_calc_ground_truth"`
	TotalInvoicedGroundTruth   decimal.Decimal `json:"total_invoiced_ground_truth"`
	CalcErrorsGroundTruth      decimal.Decimal `json:"calc_errors_ground_truth"`
}

// MatchRecord is one joined pair of a computed valuation and a ground
// truth row, with per-field exact-equality outcomes.
type MatchRecord struct {
	ItemDescription    string            `json:"item_description"`
	Computed           LineItemValuation `json:"computed"`
	GroundTruth        GroundTruthRecord `json:"ground_truth"`
	UnitPriceMatch     bool              `json:"unit_price_match"`
	VarianceMatch      bool              `json:"variance_match"`
	ImpactMatch        bool              `json:"impact_match"`
	TotalCalcMatch     bool              `json:"total_calc_match"`
	TotalInvoicedMatch bool              `json:"total_invoiced_match"`
	CalcErrorMatch     bool              `json:"calc_error_match"`
}

// MatchSummary holds the per-field agreement percentages for one invoice.
type MatchSummary struct {
	InvoiceNumber               string  `json:"invoice_number"`
	PriceMatchPercentage        float64 `json:"price_match_percentage"`
	VarianceMatchPercentage     float64 `json:"variance_match_percentage"`
	ImpactMatchPercentage       float64 `json:"impact_match_percentage"`
	TotalCalcMatchPercentage    float64 `json:"total_calc_match_percentage"`
	TotalInvoicedMatchPercentage float64 `json:"total_invoiced_match_percentage"`
	CalcErrorMatchPercentage    float64 `json:"calc_error_match_percentage"`
}
