// Package report generates the narrative reconciliation report from a
// reconciled invoice table.
package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/recon-cli/internal/recon"
	"github.com/sells-group/recon-cli/pkg/anthropic"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4000
)

// FormatMarkdown and FormatCSV are the supported report formats.
const (
	FormatMarkdown = "Markdown"
	FormatCSV      = "csv"
)

const reportPrompt = `You are an expert financial analyst tasked with generating a comprehensive invoice reconciliation report for a printing company.
Your goal is to compare invoices with the corresponding contracts, identifying billing discrepancies and inconsistencies in pricing.

First, review the following invoice reconciliation data:

<reconciliation_data>
%s
</reconciliation_data>

For reference, here is a sample invoice reconciliation report:

<sample_report>
%s
</sample_report>

<report_format>
%s
</report_format>

Your task is to analyze the provided invoice reconciliation data and generate a detailed report. The report should highlight any
discrepancies between the invoiced amounts and the contracted terms, as well as identify any missing contract terms or calculation errors.

Key attributes in the reconciliation data are as follows:

1. Invoice Header:
   - invoice_number: Unique identifier for each invoice
   - invoice_date: Date the invoice was issued
   - customer_name_and_address: Name and address of the customer
   - invoice_total: Total value of the invoice

2. Derived and calculated attributes from invoice line items:
   - impact_sum: Total impact of price differences. Impact is defined in the invoice line items.
   - calc_sum: This is the sum of all the invoice line item level total_calc which is defined in the invoice line items.
   - invoiced_sum: This is the sum of all the invoice line item level total_invoiced which is defined in the invoice line items.
   - error_sum: This is defined as the difference between invoiced_sum and calc_sum.

3. Invoice Line Items:
   - sales_code: Unique identifier for each line item
   - item_description: Description of the item which is the same as the item_description in the contract.
   - item_u_m: Unit of measure
   - item_quantity: Number of items invoiced
   - item_unit_price: Unit price used in the invoice
   - item_amount: Total amount for the item
   - unit_price_from_contract: Unit price listed in the contract for the item_description
   - contract: Name of the contract that the invoice is reconciled against.
   - term_in_contract: Indicates if the item_description is listed in the contract (TRUE/FALSE)
   - variance: Difference between item_unit_price and unit_price_from_contract
   - impact: Total financial impact of the variance. variance * item_quantity
   - status: Indicates if the item is balanced, overcharged, or undercharged. If impact is positive, it is overcharged, if impact is negative, it is undercharged.
   - total_calc: Calculated as item_unit_price * item_quantity
   - total_invoiced: Actual invoiced amount as per the invoice
   - calc_error: Difference between total_invoiced and total_calc which is the total calculation error

Generate a comprehensive reconciliation report with the following structure:

1. Contract Details:
   - Contract Name: Name of the contract that the invoice is reconciled against. This is the contract from the invoice line items.

2. Invoice Details:
   - Invoice Number, Invoice Date, Customer Name and Address, Invoice Total

3. Executive Summary:
   - Number of discrepancies found (Overcharged, Undercharged, and Uncontracted Items)
   - Total impact of pricing discrepancies (impact_sum)
   - Total impact of calculation discrepancies (error_sum)

4. Detailed Findings:
   a. Invoice Details (table format): invoice number, date, customer information, total invoice amount, impact_sum, calc_sum, invoiced_sum, error_sum
   b. Invoice line item analysis (table format): item description and quantity, contracted price vs. invoiced price, variance and impact, status
   c. Calculation Errors (table format): discrepancies between total_calc and total_invoiced
   d. Uncontracted Items (table format): items not found in the contract (term_in_contract = FALSE), with a recommendation to add them to the contract
   e. Summary of Discrepancies: total impact by pricing discrepancy, by calculation errors, and of uncontracted items

5. Recommendations:
   - Actions to address discrepancies (e.g. updating contracts with right pricing)
   - Process improvements to prevent future discrepancies

6. Conclusion:
   - Overall findings and their significance
   - Importance of aligning invoices with contracts

When generating the report:
1. Use clear and concise language
2. Use human readable column names and values like Invoice Number, Date, and Customer Information etc. Do not use the column names from the reconciliation data.
3. When you see values like 35,816.00 do not include the comma in the final report. Just return the value as 35816.00.
4. Provide specific examples of discrepancies found
5. If the report format is csv or xlsx do not use any bullet points in the final report.
   Otherwise, use bullet points and tables to present information clearly.
6. If the report format is csv or xlsx, drop all the commas in the content of the report except for the comma used to separate the columns.
7. Highlight critical issues that require immediate attention
8. Maintain a professional and objective tone throughout the report

Generate the report in the %s compatible format:`

const sampleReport = `Contract Details:
Contract Name, AMA_Insurance_Agency_Inc_Statement_of_Work_No_1.pdf

Invoice Details:
Invoice Number, 105924
Invoice Date, 1/31/2024
Customer Name and Address, AMA Insurance Agency Inc. 330 N. Wabash Ave Suite 39300 Chicago IL 60611-5885
Invoice Total, 26018.96

Executive Summary:
Number of discrepancies found, 3 Overcharged 0 Undercharged 3 Uncontracted Items
Total impact of pricing discrepancies, 7684.94 overcharged
Total impact of calculation discrepancies, -99.32

Detailed Findings:
Invoice Line Item Analysis:
Item Description, Quantity, Contracted Price, Invoiced Price, Variance, Impact, Status
CASS: address standardization, 35816, 0.000, 0.005, 0.005, 179.08, Overcharged
Imaging / Indexing, 152997, 0.005, 0.005, 0.000, 0.00, Balanced
Postage - First Class Letter Rate, 35057, 0.424, 0.552, 0.128, 4487.30, Overcharged

Calculation Errors:
Item Description, Invoiced Amount, Calculated Amount, Error
Postage - First Class Letter Rate, 19251.88, 19351.46, -99.58

Uncontracted Items:
Item Description, Quantity, Invoiced Price, Impact
CASS: address standardization, 35816, 0.005, 179.08

Summary of Discrepancies:
Total impact by pricing discrepancy, 7684.94
Total impact by calculation errors, -99.32
Total impact of uncontracted items, 3197.64

Recommendations:
Correct the service charge amount for Postage in the invoice to reflect the contracted amount OR update the contract
Update the contract to include the uncontracted service items

Conclusion:
Discrepancies including 1 price mismatch and 3 uncontracted terms lead to an Over Charge of 7684.94. Calculation errors lead to an Under Charge of -99.32.`

// Generator produces narrative reports from reconciled tables.
type Generator struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// Option configures a Generator.
type Option func(*Generator)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(g *Generator) {
		g.model = model
	}
}

// NewGenerator creates a report Generator.
func NewGenerator(client anthropic.Client, opts ...Option) *Generator {
	g := &Generator{
		client:    client,
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders the reconciled table as JSON records and asks the
// model for a narrative report in the requested format.
func (g *Generator) Generate(ctx context.Context, table *recon.Table, format string) (string, error) {
	data, err := Records(table)
	if err != nil {
		return "", eris.Wrap(err, "report: serialize table")
	}

	temp := 0.2
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       g.model,
		MaxTokens:   int64(g.maxTokens),
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(reportPrompt, data, sampleReport, format, format)},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "report: create message")
	}

	zap.L().Named("report").Debug("generated report",
		zap.String("invoice_number", table.Summary.InvoiceNumber),
		zap.String("format", format))
	return resp.Text(), nil
}

// Records serializes the denormalized table as a JSON array of
// column-keyed objects, one per line item.
func Records(table *recon.Table) (string, error) {
	rows := table.Rows()
	records := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]string, len(recon.Columns))
		for i, col := range recon.Columns {
			record[col] = row[i]
		}
		records = append(records, record)
	}

	out, err := json.Marshal(records)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
