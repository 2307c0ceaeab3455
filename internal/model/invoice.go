package model

import "github.com/shopspring/decimal"

// Status classifies the financial impact of a line item.
type Status string

const (
	StatusOverCharged  Status = "Over Charged"
	StatusUnderCharged Status = "Under Charged"
	StatusBalanced     Status = "Balanced"
)

// RawLineItem is one line item as extracted from the invoice document.
// All numeric-like fields are kept as text until the valuation engine
// parses them; the extractor performs no numeric validation.
type RawLineItem struct {
	SalesCode       string `json:"sales_code"`
	ItemDescription string `json:"item_description"`
	ItemUM          string `json:"item_u_m"`
	ItemQuantity    string `json:"item_quantity"`
	ItemUnitPrice   string `json:"item_unit_price"`
	ItemTax         string `json:"item_tax,omitempty"`
	ItemAmount      string `json:"item_amount"`
}

// Invoice is the structured output of the invoice extractor: header
// fields plus the ordered line items, all as text.
type Invoice struct {
	InvoiceNumber          string        `json:"invoice_number"`
	InvoiceDate            string        `json:"invoice_date"`
	InvoiceTerms           string        `json:"invoice_terms,omitempty"`
	SalesPerson            string        `json:"sales_person,omitempty"`
	CustomerNumber         string        `json:"customer_number,omitempty"`
	CustomerPO             string        `json:"customer_po,omitempty"`
	CustomerNameAndAddress string        `json:"customer_name_and_address"`
	InvoiceItems           []RawLineItem `json:"invoice_items"`
	InvoiceSubTotal        string        `json:"invoice_sub_total,omitempty"`
	InvoiceTax             string        `json:"invoice_tax,omitempty"`
	InvoiceTotal           string        `json:"invoice_total"`
}

// ResolvedPrice is the contract price resolver's answer for one item
// description. A zero UnitPrice means the resolver found no price.
type ResolvedPrice struct {
	UnitPrice decimal.Decimal `json:"unit_price_from_contract"`
	Contract  string          `json:"contract"`
}

// LineItemValuation is the fully valued form of one raw line item paired
// with its resolved contract price. All derived fields carry their
// declared precision: variance 4dp, money fields 2dp.
type LineItemValuation struct {
	SalesCode       string `json:"sales_code"`
	ItemDescription string `json:"item_description"`
	ItemUM          string `json:"item_u_m"`
	ItemQuantity    string `json:"item_quantity"`
	ItemUnitPrice   string `json:"item_unit_price"`
	ItemAmount      string `json:"item_amount"`

	UnitPriceFromContract decimal.Decimal `json:"unit_price_from_contract"`
	Contract              string          `json:"contract"`
	TermInContract        bool            `json:"term_in_contract"`
	NormalizedUnitPrice   decimal.Decimal `json:"normalized_unit_price"`
	Variance              decimal.Decimal `json:"variance"`
	Impact                decimal.Decimal `json:"impact"`
	Status                Status          `json:"status"`
	TotalCalc             decimal.Decimal `json:"total_calc"`
	TotalInvoiced         decimal.Decimal `json:"total_invoiced"`
	CalcError             decimal.Decimal `json:"calc_error"`
}

// InvoiceSummary is the invoice-level roll-up: header fields plus the
// four sums over the invoice's valuations. Built once per reconciliation
// run, never mutated afterward.
type InvoiceSummary struct {
	InvoiceNumber          string          `json:"invoice_number"`
	InvoiceDate            string          `json:"invoice_date"`
	CustomerNameAndAddress string          `json:"customer_name_and_address"`
	InvoiceTotal           string          `json:"invoice_total"`
	ImpactSum              decimal.Decimal `json:"impact_sum"`
	CalcSum                decimal.Decimal `json:"calc_sum"`
	InvoicedSum            decimal.Decimal `json:"invoiced_sum"`
	ErrorSum               decimal.Decimal `json:"error_sum"`
}
