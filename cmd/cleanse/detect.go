package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/cleanse/internal/application"
	"github.com/JonMunkholm/cleanse/internal/core"
	"github.com/JonMunkholm/cleanse/internal/display"
	"github.com/JonMunkholm/cleanse/internal/logging"
)

var (
	detectInput  string
	detectFormat string
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Report data quality issues without changing the file",
	Args:  cobra.NoArgs,
	RunE:  runDetect,
}

func init() {
	detectCmd.Flags().StringVarP(&detectInput, "input", "i", "", "input CSV or XLSX file (required)")
	detectCmd.Flags().StringVarP(&detectFormat, "format", "f", "text", "report format: text, json or yaml")
	_ = detectCmd.MarkFlagRequired("input")
}

func runDetect(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	p, err := application.NewPipeline(cfg)
	if err != nil {
		return err
	}

	rs, err := readInput(detectInput)
	if err != nil {
		return err
	}

	logs := logging.NewStageLogs(cfg.Pipeline.LogDir)
	report, err := p.Detector(logs.Detection).Detect(rs)
	if err != nil {
		return err
	}

	return writeReport(cmd, report, detectFormat)
}

func writeReport(cmd *cobra.Command, report core.IssueReport, format string) error {
	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "text":
		display.Report(out, report)
		return nil
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}
