// Package extract turns raw invoice text into a structured Invoice via
// the Anthropic API. Field values stay as text; numeric validation
// belongs to the valuation engine downstream.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/recon-cli/internal/model"
	"github.com/sells-group/recon-cli/pkg/anthropic"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4000
)

const systemPrompt = "You are an expert in extracting information from invoices. " +
	"Only extract invoice and invoice line item information in JSON format and nothing else."

const schemaPrompt = `Extract the invoice below into a JSON object with this shape:

{
  "invoice_number": "the invoice number",
  "invoice_date": "the date on the invoice",
  "invoice_terms": "the terms on the invoice",
  "sales_person": "the sales person listed on the invoice",
  "customer_number": "the customer number, e.g. 10-MCDON",
  "customer_po": "the customer purchase order number",
  "customer_name_and_address": "the customer name and address, e.g. McDonalds Corporation, 2915 Jorie Boulevard, Oak Brook, IL 60523",
  "invoice_items": [
    {
      "sales_code": "the sales code of the item, e.g. OT90, LS01, POCAN01",
      "item_description": "the description of the item, e.g. Clerical Support- Reprints",
      "item_u_m": "the unit of measure, e.g. EA, U, /U, M",
      "item_quantity": "the quantity, e.g. 35,816",
      "item_unit_price": "the unit price, e.g. 5.000, 25.000, 16.910",
      "item_tax": "the tax amount for the line item",
      "item_amount": "the total amount for the line item, e.g. 2,437.95"
    }
  ],
  "invoice_sub_total": "the sub total, e.g. 26,018.96",
  "invoice_tax": "the tax amount listed on the invoice, e.g. 0.00",
  "invoice_total": "the total value of the invoice, e.g. 27,018.96"
}

Rules:
- Copy every value verbatim from the invoice, including thousands separators.
- Include every line item in document order.
- Use an empty string for fields the invoice does not show.

Invoice text:
%s`

// MalformedExtractorOutput reports a model response that could not be
// parsed into an invoice, or parsed into one missing required fields.
type MalformedExtractorOutput struct {
	Reason string
	Detail string
}

func (e *MalformedExtractorOutput) Error() string {
	return fmt.Sprintf("malformed extractor output: %s: %s", e.Reason, e.Detail)
}

// IsMalformedExtractorOutput reports whether err carries a
// MalformedExtractorOutput anywhere in its chain.
func IsMalformedExtractorOutput(err error) bool {
	var target *MalformedExtractorOutput
	return eris.As(err, &target)
}

// Extractor extracts structured invoices from invoice text.
type Extractor struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithModel overrides the default extraction model.
func WithModel(model string) Option {
	return func(e *Extractor) {
		e.model = model
	}
}

// WithMaxTokens overrides the default response token cap.
func WithMaxTokens(n int) Option {
	return func(e *Extractor) {
		e.maxTokens = n
	}
}

// New creates an Extractor backed by the given Anthropic client.
func New(client anthropic.Client, opts ...Option) *Extractor {
	e := &Extractor{
		client:    client,
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract sends invoice text to the model and parses the response into
// an Invoice. Transport failures wrap the client error; unparseable or
// incomplete responses fail with MalformedExtractorOutput.
func (e *Extractor) Extract(ctx context.Context, invoiceText string) (*model.Invoice, error) {
	log := zap.L().Named("extract")

	temp := 0.2
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.model,
		MaxTokens:   int64(e.maxTokens),
		System:      systemPrompt,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(schemaPrompt, invoiceText)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "extract: create message")
	}

	inv, err := ParseInvoice(resp.Text())
	if err != nil {
		return nil, err
	}

	log.Debug("extracted invoice",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.Int("line_items", len(inv.InvoiceItems)))
	return inv, nil
}

// ParseInvoice parses model output into an Invoice and validates its
// shape on ingress: invoice number and at least one line item are
// required, and every line item must carry a description.
func ParseInvoice(text string) (*model.Invoice, error) {
	cleaned := cleanJSONFromText(text)
	if cleaned == "" {
		return nil, &MalformedExtractorOutput{Reason: "no JSON object in response", Detail: snippet(text)}
	}

	var inv model.Invoice
	if err := json.Unmarshal([]byte(cleaned), &inv); err != nil {
		return nil, &MalformedExtractorOutput{Reason: "invalid JSON", Detail: err.Error()}
	}

	if strings.TrimSpace(inv.InvoiceNumber) == "" {
		return nil, &MalformedExtractorOutput{Reason: "missing invoice_number", Detail: snippet(cleaned)}
	}
	if len(inv.InvoiceItems) == 0 {
		return nil, &MalformedExtractorOutput{Reason: "no invoice_items", Detail: inv.InvoiceNumber}
	}
	for i, item := range inv.InvoiceItems {
		if strings.TrimSpace(item.ItemDescription) == "" {
			return nil, &MalformedExtractorOutput{
				Reason: fmt.Sprintf("invoice_items[%d] missing item_description", i),
				Detail: inv.InvoiceNumber,
			}
		}
	}
	return &inv, nil
}

// cleanJSONFromText extracts a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSONFromText(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}

func snippet(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > 120 {
		return text[:120] + "..."
	}
	return text
}
