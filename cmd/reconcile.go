package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/recon-cli/internal/fetcher"
	"github.com/sells-group/recon-cli/internal/model"
	"github.com/sells-group/recon-cli/internal/recon"
)

var (
	reconcileInvoicePath string
	reconcileClient      string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a single invoice PDF against the contract knowledge base",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initRecon(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := reconcileInvoice(ctx, env, reconcileInvoicePath, reconcileClient)
		if err != nil {
			return eris.Wrap(err, "reconcile")
		}

		zap.L().Info("reconciliation complete",
			zap.String("invoice", result.InvoiceNumber),
			zap.Int("line_items", result.LineItems),
			zap.String("impact_sum", result.ImpactSum.StringFixed(2)),
			zap.String("output", result.OutputPath),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileInvoicePath, "invoice", "", "invoice PDF path (required)")
	reconcileCmd.Flags().StringVar(&reconcileClient, "client", "default", "client name, used to group output files")
	_ = reconcileCmd.MarkFlagRequired("invoice")
	rootCmd.AddCommand(reconcileCmd)
}

// reconcileInvoice runs the full pipeline for one invoice: extract the
// line items, resolve each contract price, value and aggregate, write
// the output table and narrative report, and record the run. Failures
// after run creation are recorded on the run before returning.
func reconcileInvoice(ctx context.Context, env *reconEnv, invoicePath, client string) (*model.RunResult, error) {
	run, err := env.Store.CreateRun(ctx, invoicePath)
	if err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("run_id", run.ID), zap.String("invoice_path", invoicePath))
	usageBefore := env.Usage.Snapshot()

	result, err := runPipeline(ctx, env, run.ID, invoicePath, client, log)
	if err != nil {
		failure := &model.RunResult{Error: err.Error()}
		if sErr := env.Store.UpdateRunResult(ctx, run.ID, failure); sErr != nil {
			log.Warn("failed to record run failure", zap.Error(sErr))
		}
		return nil, err
	}

	usage := env.Usage.Since(usageBefore)
	for _, u := range usage {
		result.TotalTokens += u.InputTokens + u.OutputTokens
	}
	result.TotalCost = env.Cost.Total(usage)
	log.Info("run usage",
		zap.Int64("total_tokens", result.TotalTokens),
		zap.Float64("total_cost_usd", result.TotalCost),
	)

	if err := env.Store.UpdateRunResult(ctx, run.ID, result); err != nil {
		return nil, eris.Wrap(err, "record run result")
	}
	return result, nil
}

func runPipeline(ctx context.Context, env *reconEnv, runID, invoicePath, client string, log *zap.Logger) (*model.RunResult, error) {
	// Extract
	if err := env.Store.UpdateRunStatus(ctx, runID, model.RunStatusExtracting); err != nil {
		return nil, err
	}
	text, err := fetcher.PDFText(invoicePath)
	if err != nil {
		return nil, err
	}
	inv, err := env.Extractor.Extract(ctx, text)
	if err != nil {
		return nil, err
	}
	log.Info("invoice extracted",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.Int("line_items", len(inv.InvoiceItems)),
	)

	// Resolve
	if err := env.Store.UpdateRunStatus(ctx, runID, model.RunStatusResolving); err != nil {
		return nil, err
	}
	prices := make([]model.ResolvedPrice, len(inv.InvoiceItems))
	for i, item := range inv.InvoiceItems {
		prices[i], err = resolvePrice(ctx, env, item.ItemDescription)
		if err != nil {
			return nil, err
		}
	}

	// Valuate
	if err := env.Store.UpdateRunStatus(ctx, runID, model.RunStatusValuating); err != nil {
		return nil, err
	}
	valuations := make([]model.LineItemValuation, len(inv.InvoiceItems))
	for i, item := range inv.InvoiceItems {
		valuations[i], err = recon.ValueLineItem(item, prices[i])
		if err != nil {
			return nil, err
		}
	}
	summary := recon.Summarize(*inv, valuations)
	table := recon.NewTable(summary, valuations)

	outPath, err := writeTableCSV(table, client, inv.InvoiceNumber)
	if err != nil {
		return nil, err
	}
	if err := env.Store.SaveTable(ctx, runID, table); err != nil {
		return nil, err
	}

	result := &model.RunResult{
		InvoiceNumber: inv.InvoiceNumber,
		LineItems:     len(valuations),
		ImpactSum:     summary.ImpactSum,
		ErrorSum:      summary.ErrorSum,
		OutputPath:    outPath,
	}

	// Report
	if !cfg.Recon.SkipReport {
		if err := env.Store.UpdateRunStatus(ctx, runID, model.RunStatusReporting); err != nil {
			return nil, err
		}
		narrative, err := env.Reporter.Generate(ctx, table, cfg.Recon.ReportFormat)
		if err != nil {
			return nil, err
		}
		reportPath, err := writeReport(narrative, client, inv.InvoiceNumber, cfg.Recon.ReportFormat)
		if err != nil {
			return nil, err
		}
		result.ReportPath = reportPath
	}

	return result, nil
}

// resolvePrice answers one item description from the price cache when
// possible, falling through to the contract resolver on a miss.
func resolvePrice(ctx context.Context, env *reconEnv, itemDescription string) (model.ResolvedPrice, error) {
	cached, err := env.Store.GetCachedPrice(ctx, itemDescription)
	if err != nil {
		zap.L().Warn("price cache lookup failed", zap.Error(err))
	} else if cached != nil {
		return *cached, nil
	}

	price, err := env.Resolver.Resolve(ctx, itemDescription)
	if err != nil {
		return model.ResolvedPrice{}, err
	}

	ttl := time.Duration(cfg.Recon.PriceCacheHours) * time.Hour
	if ttl > 0 {
		if err := env.Store.SetCachedPrice(ctx, itemDescription, price, ttl); err != nil {
			zap.L().Warn("price cache write failed", zap.Error(err))
		}
	}
	return price, nil
}

func writeTableCSV(table *recon.Table, client, invoiceNumber string) (string, error) {
	path := reconOutputPath(cfg.Output.BaseDir, client, invoiceNumber)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", eris.Wrap(err, "create output dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrap(err, "create output file")
	}
	defer f.Close() //nolint:errcheck
	if err := table.WriteCSV(f); err != nil {
		return "", err
	}
	return path, nil
}

func writeReport(narrative, client, invoiceNumber, format string) (string, error) {
	path := reportOutputPath(cfg.Output.BaseDir, client, invoiceNumber, format)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", eris.Wrap(err, "create report dir")
	}
	if err := os.WriteFile(path, []byte(narrative), 0o644); err != nil {
		return "", eris.Wrap(err, "write report")
	}
	return path, nil
}

func reconOutputPath(baseDir, client, invoiceNumber string) string {
	return filepath.Join(baseDir, "recon_output", client, invoiceNumber+".csv")
}

func reportOutputPath(baseDir, client, invoiceNumber, format string) string {
	return filepath.Join(baseDir, "final_report_output", client, invoiceNumber+reportExt(format))
}

// reportExt maps a report format name to its file extension.
func reportExt(format string) string {
	if strings.EqualFold(format, "csv") {
		return ".csv"
	}
	return ".md"
}
