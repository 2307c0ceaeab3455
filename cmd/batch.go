package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/recon-cli/internal/resolve"
)

var batchManifestPath string

// batchManifest lists the clients to reconcile: each client's contract
// PDFs are ingested once, then its invoices run concurrently.
type batchManifest struct {
	Clients []batchClient `yaml:"clients"`
}

type batchClient struct {
	Name      string   `yaml:"name"`
	Contracts []string `yaml:"contracts"`
	Invoices  []string `yaml:"invoices"`
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Batch reconcile invoices from a YAML manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		manifest, err := loadManifest(batchManifestPath)
		if err != nil {
			return err
		}

		env, err := initRecon(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		return processBatch(ctx, env, manifest, cfg.Batch.MaxConcurrentInvoices)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchManifestPath, "manifest", "", "YAML manifest of clients, contracts, and invoices (required)")
	_ = batchCmd.MarkFlagRequired("manifest")
	rootCmd.AddCommand(batchCmd)
}

// loadManifest reads and validates a batch manifest file.
func loadManifest(path string) (*batchManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "batch: read manifest")
	}

	var m batchManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrap(err, "batch: parse manifest")
	}

	if len(m.Clients) == 0 {
		return nil, eris.New("batch: manifest lists no clients")
	}
	for _, c := range m.Clients {
		if c.Name == "" {
			return nil, eris.New("batch: manifest client missing name")
		}
		if len(c.Invoices) == 0 {
			return nil, eris.Errorf("batch: client %s lists no invoices", c.Name)
		}
	}
	return &m, nil
}

// processBatch ingests each client's contracts, then reconciles its
// invoices concurrently. Individual invoice failures are logged and
// counted without aborting the batch.
func processBatch(ctx context.Context, env *reconEnv, manifest *batchManifest, concurrency int) error {
	var succeeded, failed atomic.Int64

	for _, client := range manifest.Clients {
		log := zap.L().With(zap.String("client", client.Name))

		for _, contract := range client.Contracts {
			n, err := resolve.IngestContract(ctx, env.Chroma, cfg.Chroma.Collection, contract)
			if err != nil {
				return eris.Wrap(err, "batch: ingest contract")
			}
			log.Info("contract ingested", zap.String("contract", contract), zap.Int("passages", n))
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)

		for _, invoicePath := range client.Invoices {
			g.Go(func() error {
				result, err := reconcileInvoice(gctx, env, invoicePath, client.Name)
				if err != nil {
					failed.Add(1)
					log.Error("reconciliation failed", zap.String("invoice_path", invoicePath), zap.Error(err))
					return nil // don't abort batch on individual failure
				}

				succeeded.Add(1)
				log.Info("reconciliation complete",
					zap.String("invoice", result.InvoiceNumber),
					zap.String("impact_sum", result.ImpactSum.StringFixed(2)),
				)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "batch processing")
		}
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}
