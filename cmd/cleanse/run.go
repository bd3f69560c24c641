package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cleanse/internal/application"
	"github.com/JonMunkholm/cleanse/internal/core"
	"github.com/JonMunkholm/cleanse/internal/display"
)

var (
	runInput  string
	runOutput string
	runFormat string
	runShow   bool
	runRows   int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run detection, correction and enrichment and save the result",
	Long: `Run all three stages over the input file and write the enriched rows.

The output is written only after every stage succeeds. Without --output the
file goes to PIPELINE_OUTPUT_DIR as <input>_cleaned.<format>.

Examples:
  cleanse run --input data/customers.csv
  cleanse run --input data/customers.csv --output out.xlsx --format xlsx --show`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "input CSV or XLSX file (required)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "output file")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", "csv", "output format: csv or xlsx")
	runCmd.Flags().BoolVar(&runShow, "show", false, "preview the data after each stage")
	runCmd.Flags().IntVar(&runRows, "rows", display.DefaultPreviewRows, "rows shown per preview")
	_ = runCmd.MarkFlagRequired("input")
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	format := strings.ToLower(runFormat)
	if format != "csv" && format != "xlsx" {
		return fmt.Errorf("unsupported output format %q", runFormat)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := application.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	rs, err := readInput(runInput)
	if err != nil {
		return err
	}

	result, err := app.Pipeline.Run(ctx, rs, core.FileLoggers(app.Logs))
	if err != nil {
		return err
	}

	path := runOutput
	if path == "" {
		base := strings.TrimSuffix(filepath.Base(runInput), filepath.Ext(runInput))
		path = filepath.Join(cfg.Pipeline.OutputDir, base+"_cleaned."+format)
	}
	if err := writeOutput(path, format, result.Enriched); err != nil {
		return err
	}

	recordHistory(ctx, app.History, filepath.Base(runInput), result)

	out := cmd.OutOrStdout()
	if runShow {
		display.Preview(out, "Input", result.Input, runRows)
		display.Preview(out, "Corrected", result.Corrected, runRows)
		display.Preview(out, "Enriched", result.Enriched, runRows)
	}
	display.Summary(out, result)
	fmt.Fprintf(out, "Saved %s\n", path)
	return nil
}

// recordHistory stores the run summary. The output file is already saved, so
// a failure is only logged.
func recordHistory(ctx context.Context, store core.HistoryStore, name string, result *core.RunResult) {
	if err := store.Record(ctx, core.Summarize(name, result)); err != nil {
		slog.Warn("record run history failed", "run_id", result.ID, "error", err)
	}
}

func writeOutput(path, format string, rs *core.RecordSet) error {
	if format == "csv" {
		return core.WriteCSVFile(path, rs)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := core.WriteXLSX(f, rs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
