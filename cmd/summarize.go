package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/recon-cli/internal/fetcher"
	"github.com/sells-group/recon-cli/internal/report"
	anthropicpkg "github.com/sells-group/recon-cli/pkg/anthropic"
)

var (
	summarizeClient string
	summarizeOut    string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <contract.pdf> [contract.pdf ...]",
	Short: "Generate a CSV-format term summary of one or more contract PDFs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("recon"); err != nil {
			return err
		}

		texts := make([]string, 0, len(args))
		for _, path := range args {
			text, err := fetcher.PDFText(path)
			if err != nil {
				return eris.Wrap(err, "summarize: read contract")
			}
			texts = append(texts, text)
		}

		anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
		generator := report.NewGenerator(anthropicClient,
			report.WithModel(cfg.Anthropic.SonnetModel),
		)

		summary, err := generator.SummarizeContracts(ctx, texts)
		if err != nil {
			return err
		}

		out := summarizeOut
		if out == "" {
			out = filepath.Join(cfg.Output.BaseDir, "contract_summaries", summarizeClient+".csv")
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return eris.Wrap(err, "summarize: create output dir")
		}
		if err := os.WriteFile(out, []byte(summary), 0o644); err != nil {
			return eris.Wrap(err, "summarize: write output")
		}

		zap.L().Info("contract summary written",
			zap.String("client", summarizeClient),
			zap.Int("contracts", len(args)),
			zap.String("output", out),
		)
		fmt.Println(out)
		return nil
	},
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeClient, "client", "default", "client name, used to name the summary file")
	summarizeCmd.Flags().StringVar(&summarizeOut, "out", "", "output path (default <base_dir>/contract_summaries/<client>.csv)")
	rootCmd.AddCommand(summarizeCmd)
}
