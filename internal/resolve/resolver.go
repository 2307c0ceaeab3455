// Package resolve answers contract price questions for invoice line
// items. For each item description it generates query variants, runs
// them against the contract knowledge base, fuses the ranked results
// with reciprocal rank fusion, and asks the model for the price over
// the fused context.
package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/recon-cli/internal/fusion"
	"github.com/sells-group/recon-cli/internal/model"
	"github.com/sells-group/recon-cli/pkg/anthropic"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4000
	defaultTopK      = 4
	defaultContextN  = 8
)

const queryGenPrompt = `You are a helpful assistant that generates multiple search queries based on a single input query.
Generate multiple search queries related to: %s
Output (4 queries):`

const pricePrompt = `Answer the following question based on this context:

%s

Question: %s

Follow the following instructions:
1. If you see values like "CRE/BRE = $.01234 $.1234 then this means CRE = $.01234 and BRE = $.1234"
2. You must ONLY return a JSON object in the following format, with no additional text before or after:
{
    "price": <float>,
    "metadata": {
        "source": <contract_source>
    }
}
3. If no price is found, use 0.0 as the price value
4. Do not include any explanations or additional text - ONLY return the JSON object`

// Retriever fetches the top ranked contract passages for one query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]model.Document, error)
}

// Resolver answers contract price questions.
type Resolver struct {
	client    anthropic.Client
	retriever Retriever
	model     string
	maxTokens int
	topK      int
	contextN  int
	fusionK   int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(r *Resolver) {
		r.model = model
	}
}

// WithTopK sets how many passages each query variant retrieves.
func WithTopK(k int) Option {
	return func(r *Resolver) {
		r.topK = k
	}
}

// WithContextN caps how many fused passages feed the price prompt.
func WithContextN(n int) Option {
	return func(r *Resolver) {
		r.contextN = n
	}
}

// WithFusionK sets the reciprocal rank fusion constant.
func WithFusionK(k int) Option {
	return func(r *Resolver) {
		r.fusionK = k
	}
}

// New creates a Resolver over the given model client and retriever.
func New(client anthropic.Client, retriever Retriever, opts ...Option) *Resolver {
	r := &Resolver{
		client:    client,
		retriever: retriever,
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
		topK:      defaultTopK,
		contextN:  defaultContextN,
		fusionK:   fusion.DefaultK,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the contract unit price for one item description. A
// zero price with an empty contract name means no price was found; the
// valuation engine treats that as "term not in contract".
func (r *Resolver) Resolve(ctx context.Context, itemDescription string) (model.ResolvedPrice, error) {
	question := fmt.Sprintf("What is the cost for %s from the contract?", itemDescription)

	queries, err := r.GenerateQueries(ctx, question)
	if err != nil {
		return model.ResolvedPrice{}, eris.Wrap(err, "resolve: generate queries")
	}

	ranked := make([][]model.Document, 0, len(queries))
	for _, q := range queries {
		docs, err := r.retriever.Retrieve(ctx, q, r.topK)
		if err != nil {
			return model.ResolvedPrice{}, eris.Wrapf(err, "resolve: retrieve %q", q)
		}
		ranked = append(ranked, docs)
	}

	fused := fusion.Fuse(ranked, r.fusionK)
	top := fusion.Top(fused, r.contextN)

	contexts := make([]string, 0, len(top))
	for _, doc := range top {
		contexts = append(contexts, doc.PageContent)
	}

	resp, err := r.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     r.model,
		MaxTokens: int64(r.maxTokens),
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(pricePrompt, strings.Join(contexts, "\n\n"), question)},
		},
	})
	if err != nil {
		return model.ResolvedPrice{}, eris.Wrap(err, "resolve: create message")
	}

	price, contract := parseResponse(resp.Text())
	zap.L().Named("resolve").Debug("resolved contract price",
		zap.String("item_description", itemDescription),
		zap.String("price", price.String()),
		zap.String("contract", contract))

	return model.ResolvedPrice{UnitPrice: price, Contract: contract}, nil
}

// GenerateQueries expands one question into search query variants.
func (r *Resolver) GenerateQueries(ctx context.Context, question string) ([]string, error) {
	resp, err := r.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     r.model,
		MaxTokens: int64(r.maxTokens),
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(queryGenPrompt, question)},
		},
	})
	if err != nil {
		return nil, err
	}

	var queries []string
	for _, line := range strings.Split(resp.Text(), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			queries = append(queries, line)
		}
	}
	if len(queries) == 0 {
		queries = []string{question}
	}
	return queries, nil
}

type priceAnswer struct {
	Price    json.Number `json:"price"`
	Metadata struct {
		Source string `json:"source"`
	} `json:"metadata"`
}

// parseResponse parses the model's price answer leniently: a JSON
// object with price and metadata.source, a bare number with an
// optional dollar sign, or anything else, which yields a zero price.
// Prices round to four decimal places.
func parseResponse(text string) (decimal.Decimal, string) {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		lines := strings.Split(cleaned, "\n")
		if len(lines) > 2 {
			cleaned = strings.Join(lines[1:len(lines)-1], "\n")
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	var answer priceAnswer
	if err := json.Unmarshal([]byte(cleaned), &answer); err == nil {
		price, perr := decimal.NewFromString(answer.Price.String())
		if perr != nil {
			price = decimal.Zero
		}
		contract := answer.Metadata.Source
		if idx := strings.LastIndex(contract, "/"); idx >= 0 {
			contract = contract[idx+1:]
		}
		return price.Round(4), contract
	}

	bare := strings.TrimSpace(strings.ReplaceAll(cleaned, "$", ""))
	if price, err := decimal.NewFromString(bare); err == nil {
		return price.Round(4), ""
	}

	zap.L().Named("resolve").Warn("could not parse price from response",
		zap.String("response", cleaned))
	return decimal.Zero, ""
}
