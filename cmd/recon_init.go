package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/recon-cli/internal/cost"
	"github.com/sells-group/recon-cli/internal/extract"
	"github.com/sells-group/recon-cli/internal/report"
	"github.com/sells-group/recon-cli/internal/resilience"
	"github.com/sells-group/recon-cli/internal/resolve"
	"github.com/sells-group/recon-cli/internal/store"
	anthropicpkg "github.com/sells-group/recon-cli/pkg/anthropic"
	"github.com/sells-group/recon-cli/pkg/chroma"
)

// reconEnv holds the initialized store, API clients, and pipeline
// stages needed by the reconcile/batch/serve commands.
type reconEnv struct {
	Store     store.Store
	Anthropic anthropicpkg.Client
	Usage     *anthropicpkg.UsageTracker
	Cost      *cost.Calculator
	Chroma    chroma.Client
	Extractor *extract.Extractor
	Resolver  *resolve.Resolver
	Reporter  *report.Generator
}

// Close releases resources held by the reconciliation environment.
func (re *reconEnv) Close() {
	if re.Store != nil {
		_ = re.Store.Close()
	}
}

// initRecon sets up the store, the Anthropic and Chroma clients, and
// the three LLM pipeline stages. Callers should defer env.Close().
func initRecon(ctx context.Context) (*reconEnv, error) {
	if err := cfg.Validate("recon"); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	usage := anthropicpkg.NewUsageTracker(
		anthropicpkg.NewRetryClient(
			anthropicpkg.NewClient(cfg.Anthropic.Key),
			resilience.DefaultRetryConfig(),
		),
	)
	var anthropicClient anthropicpkg.Client = usage
	chromaClient := chroma.NewClient(
		chroma.WithBaseURL(cfg.Chroma.BaseURL),
		chroma.WithRateLimit(cfg.Chroma.RateLimit),
	)

	retriever, err := resolve.NewChromaRetriever(ctx, chromaClient, cfg.Chroma.Collection)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "init contract retriever")
	}

	extractor := extract.New(anthropicClient,
		extract.WithModel(cfg.Anthropic.SonnetModel),
		extract.WithMaxTokens(cfg.Anthropic.MaxTokens),
	)
	resolver := resolve.New(anthropicClient, retriever,
		resolve.WithModel(cfg.Anthropic.HaikuModel),
		resolve.WithTopK(cfg.Recon.TopK),
		resolve.WithContextN(cfg.Recon.ContextN),
		resolve.WithFusionK(cfg.Recon.FusionK),
	)
	reporter := report.NewGenerator(anthropicClient,
		report.WithModel(cfg.Anthropic.SonnetModel),
	)

	return &reconEnv{
		Store:     st,
		Anthropic: anthropicClient,
		Usage:     usage,
		Cost:      cost.NewCalculator(cost.DefaultRates()),
		Chroma:    chromaClient,
		Extractor: extractor,
		Resolver:  resolver,
		Reporter:  reporter,
	}, nil
}
