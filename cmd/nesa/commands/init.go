package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yazin123/nesa/internal/scaffold"
)

var (
	forceInit bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a nesa.yml configuration in the current directory",
	Long: `Create a default configuration in the current directory.

Creates:
  • nesa.yml     - API, realtime channel, credential store and board layout
  • .env.example - Environment overrides (NESA_API_URL, NESA_WS_URL, ...)

Use --force to overwrite an existing configuration.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite existing nesa.yml and .env.example")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	// Check for existing files (unless --force)
	if !forceInit {
		if err := scaffold.CheckExisting(); err != nil {
			return err
		}
	}

	if err := scaffold.Initialize(forceInit); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	scaffold.PrintSuccess(cmd.OutOrStdout())
	return nil
}
