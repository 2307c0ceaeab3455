package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/recon-cli/internal/resolve"
	"github.com/sells-group/recon-cli/pkg/chroma"
)

var ingestCollection string

var ingestCmd = &cobra.Command{
	Use:   "ingest <contract.pdf> [contract.pdf ...]",
	Short: "Index contract PDFs into the contract knowledge base",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		chromaClient := chroma.NewClient(
			chroma.WithBaseURL(cfg.Chroma.BaseURL),
			chroma.WithRateLimit(cfg.Chroma.RateLimit),
		)

		collection := ingestCollection
		if collection == "" {
			collection = cfg.Chroma.Collection
		}

		total := 0
		for _, path := range args {
			n, err := resolve.IngestContract(ctx, chromaClient, collection, path)
			if err != nil {
				return err
			}
			total += n
			zap.L().Info("contract ingested",
				zap.String("contract", path),
				zap.Int("passages", n),
			)
		}

		zap.L().Info("ingest complete",
			zap.String("collection", collection),
			zap.Int("contracts", len(args)),
			zap.Int("passages", total),
		)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestCollection, "collection", "", "target collection name (default from config)")
	rootCmd.AddCommand(ingestCmd)
}
