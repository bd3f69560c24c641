package main

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cleanse/internal/application"
	"github.com/JonMunkholm/cleanse/internal/core"
	"github.com/JonMunkholm/cleanse/internal/display"
)

var matchCmd = &cobra.Command{
	Use:   "match <name>...",
	Short: "Standardize country names against the reference list",
	Example: `  cleanse match "Untied States" USA Frnace
  cleanse match --threshold 90 "Korea, Republic of"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMatch,
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	p, err := application.NewPipeline(cfg)
	if err != nil {
		return err
	}

	c := p.Corrector(nil)
	for _, name := range args {
		country := c.StandardizeCountry(name)
		if country == core.UnknownCountry {
			display.Match(cmd.OutOrStdout(), name, "", 0)
			continue
		}
		display.Match(cmd.OutOrStdout(), name, country, core.TokenSetRatio(name, country))
	}
	return nil
}
