package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cleanse/internal/application"
)

var resetConfirm bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the stage logs and the stored run history",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetConfirm, "yes", false, "confirm the reset")
}

func runReset(cmd *cobra.Command, _ []string) error {
	if !resetConfirm {
		return errors.New("reset deletes logs and history; pass --yes to confirm")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	app, err := application.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Resetter().ResetAll(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Stage logs removed.")
	if app.Config.Database.Enabled() {
		fmt.Fprintln(cmd.OutOrStdout(), "Run history cleared.")
	}
	return nil
}
