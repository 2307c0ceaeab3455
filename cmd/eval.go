package main

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/recon-cli/internal/fetcher"
	"github.com/sells-group/recon-cli/internal/groundtruth"
	"github.com/sells-group/recon-cli/internal/model"
	"github.com/sells-group/recon-cli/internal/recon"
)

var (
	evalReconCSV string
	evalTruth    string
	evalSheet    string
	evalOutDir   string
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score reconciliation output against a manually reconciled spreadsheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(evalReconCSV)
		if err != nil {
			return eris.Wrap(err, "eval: open recon csv")
		}
		defer f.Close() //nolint:errcheck

		table, err := recon.ReadCSV(f)
		if err != nil {
			return err
		}

		sheetName := evalSheet
		if sheetName == "" {
			sheetName = cfg.Recon.GroundTruthSheet
		}
		if sheetName == "" {
			sheetName = table.Summary.InvoiceNumber
		}

		sheet, err := fetcher.ReadSheet(evalTruth, sheetName)
		if err != nil {
			return err
		}

		truth := groundtruth.Format(sheet.Header, sheet.Rows)
		matches := groundtruth.Join(table.Valuations, truth)
		summary, err := groundtruth.Score(table.Summary.InvoiceNumber, matches)
		if err != nil {
			return err
		}

		outDir := evalOutDir
		if outDir == "" {
			outDir = filepath.Join(cfg.Output.BaseDir, "eval_output")
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return eris.Wrap(err, "eval: create output dir")
		}

		summaryPath := filepath.Join(outDir, summary.InvoiceNumber+"_match_summary.csv")
		if err := writeCSVFile(summaryPath, func(w io.Writer) error {
			return writeMatchSummaryCSV(w, summary)
		}); err != nil {
			return err
		}

		detailPath := filepath.Join(outDir, summary.InvoiceNumber+"_match_detail.csv")
		if err := writeCSVFile(detailPath, func(w io.Writer) error {
			return writeMatchDetailCSV(w, matches)
		}); err != nil {
			return err
		}

		zap.L().Info("evaluation complete",
			zap.String("invoice", summary.InvoiceNumber),
			zap.Int("matched_rows", len(matches)),
			zap.Float64("price_match_pct", summary.PriceMatchPercentage),
			zap.String("summary", summaryPath),
			zap.String("detail", detailPath),
		)
		return nil
	},
}

func init() {
	evalCmd.Flags().StringVar(&evalReconCSV, "recon-csv", "", "reconciliation output CSV to score (required)")
	evalCmd.Flags().StringVar(&evalTruth, "truth", "", "ground truth XLSX workbook (required)")
	evalCmd.Flags().StringVar(&evalSheet, "sheet", "", "worksheet name (default: invoice number from the recon CSV)")
	evalCmd.Flags().StringVar(&evalOutDir, "out-dir", "", "output directory (default <base_dir>/eval_output)")
	_ = evalCmd.MarkFlagRequired("recon-csv")
	_ = evalCmd.MarkFlagRequired("truth")
	rootCmd.AddCommand(evalCmd)
}

func writeCSVFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "eval: create output file")
	}
	defer f.Close() //nolint:errcheck
	return write(f)
}

// writeMatchSummaryCSV writes the six per-field match percentages as a
// one-row CSV.
func writeMatchSummaryCSV(w io.Writer, s model.MatchSummary) error {
	cw := csv.NewWriter(w)
	header := []string{
		"invoice_number",
		"price_match_percentage",
		"variance_match_percentage",
		"impact_match_percentage",
		"total_calc_match_percentage",
		"total_invoiced_match_percentage",
		"calc_error_match_percentage",
	}
	row := []string{
		s.InvoiceNumber,
		formatPct(s.PriceMatchPercentage),
		formatPct(s.VarianceMatchPercentage),
		formatPct(s.ImpactMatchPercentage),
		formatPct(s.TotalCalcMatchPercentage),
		formatPct(s.TotalInvoicedMatchPercentage),
		formatPct(s.CalcErrorMatchPercentage),
	}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "eval: write summary header")
	}
	if err := cw.Write(row); err != nil {
		return eris.Wrap(err, "eval: write summary row")
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "eval: flush summary csv")
}

// writeMatchDetailCSV writes one row per joined pair with computed and
// ground-truth values side by side plus the per-field outcomes.
func writeMatchDetailCSV(w io.Writer, matches []model.MatchRecord) error {
	cw := csv.NewWriter(w)
	header := []string{
		"item_description",
		"unit_price_computed", "unit_price_ground_truth", "unit_price_match",
		"variance_computed", "variance_ground_truth", "variance_match",
		"impact_computed", "impact_ground_truth", "impact_match",
		"total_calc_computed", "total_calc_ground_truth", "total_calc_match",
		"total_invoiced_computed", "total_invoiced_ground_truth", "total_invoiced_match",
		"calc_error_computed", "calc_error_ground_truth", "calc_error_match",
	}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "eval: write detail header")
	}
	for _, m := range matches {
		row := []string{
			m.ItemDescription,
			m.Computed.UnitPriceFromContract.StringFixed(4), m.GroundTruth.UnitPriceGroundTruth.StringFixed(4), strconv.FormatBool(m.UnitPriceMatch),
			m.Computed.Variance.StringFixed(4), m.GroundTruth.VarianceGroundTruth.StringFixed(4), strconv.FormatBool(m.VarianceMatch),
			m.Computed.Impact.StringFixed(2), m.GroundTruth.ImpactGroundTruth.StringFixed(2), strconv.FormatBool(m.ImpactMatch),
			m.Computed.TotalCalc.StringFixed(2), m.GroundTruth.TotalCalcGroundTruth.StringFixed(2), strconv.FormatBool(m.TotalCalcMatch),
			m.Computed.TotalInvoiced.StringFixed(2), m.GroundTruth.TotalInvoicedGroundTruth.StringFixed(2), strconv.FormatBool(m.TotalInvoicedMatch),
			m.Computed.CalcError.StringFixed(2), m.GroundTruth.CalcErrorsGroundTruth.StringFixed(2), strconv.FormatBool(m.CalcErrorMatch),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "eval: write detail row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "eval: flush detail csv")
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
