// Package cost estimates the API spend of a reconciliation run from
// accumulated token usage.
package cost

import (
	anthropicpkg "github.com/sells-group/recon-cli/pkg/anthropic"
)

// Rates holds per-model token pricing.
type Rates struct {
	Anthropic map[string]ModelRate `yaml:"anthropic" mapstructure:"anthropic"`
}

// ModelRate holds per-model token pricing in USD per million tokens.
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Claude computes the cost of the given token usage for one model.
// Unknown models cost zero.
func (c *Calculator) Claude(model string, input, output int64) float64 {
	rate, ok := c.rates.Anthropic[model]
	if !ok {
		return 0
	}

	inCost := (float64(input) / 1e6) * rate.Input
	outCost := (float64(output) / 1e6) * rate.Output
	return inCost + outCost
}

// Total sums the cost of per-model usage as accumulated by a usage
// tracker over one run.
func (c *Calculator) Total(usage map[string]anthropicpkg.TokenUsage) float64 {
	var total float64
	for model, u := range usage {
		total += c.Claude(model, u.InputTokens, u.OutputTokens)
	}
	return total
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"claude-haiku-4-5-20251001": {
				Input:  1.00,
				Output: 5.00,
			},
			"claude-sonnet-4-5-20250929": {
				Input:  3.00,
				Output: 15.00,
			},
			"claude-sonnet-4-20250514": {
				Input:  3.00,
				Output: 15.00,
			},
		},
	}
}
