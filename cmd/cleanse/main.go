// Command cleanse runs the detection, correction and enrichment pipeline
// over CSV or XLSX files from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cleanse/internal/config"
	"github.com/JonMunkholm/cleanse/internal/core"
	"github.com/JonMunkholm/cleanse/internal/logging"
)

var version = "dev"

// Global flags; each overrides its PIPELINE_* setting when given.
var (
	countriesFile string
	aliasesFile   string
	threshold     int
	emailDomain   string
	logDir        string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cleanse",
	Short: "Detect, correct and enrich customer CSV data",
	Long: `cleanse finds missing values, invalid emails, duplicate rows and
non-standard country names in a customer file, fixes them, and adds
synthesized emails and an age segment.

Settings come from the environment (and a .env file); flags win.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&countriesFile, "countries", "", "canonical country list, one name per line")
	pf.StringVar(&aliasesFile, "aliases", "", "YAML map of country aliases")
	pf.IntVar(&threshold, "threshold", 0, "minimum fuzzy score (0-100) for a country match")
	pf.StringVar(&emailDomain, "domain", "", "domain for synthesized emails")
	pf.StringVar(&logDir, "log-dir", "", "directory for the stage action logs")

	rootCmd.AddCommand(runCmd, detectCmd, matchCmd, resetCmd)
}

// loadConfig reads .env and the environment, applies flag overrides, and
// sets up process logging on stderr so stdout stays clean for output.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	_ = godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("countries") {
		cfg.Pipeline.CountriesFile = countriesFile
	}
	if flags.Changed("aliases") {
		cfg.Pipeline.AliasesFile = aliasesFile
	}
	if flags.Changed("threshold") {
		cfg.Pipeline.MatchThreshold = threshold
	}
	if flags.Changed("domain") {
		cfg.Pipeline.EmailDomain = emailDomain
	}
	if flags.Changed("log-dir") {
		cfg.Pipeline.LogDir = logDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logging.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

// readInput loads a CSV or XLSX file by extension.
func readInput(path string) (*core.RecordSet, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		return core.ReadXLSX(f)
	}
	return core.ReadCSVFile(path)
}
