package main

import (
	"github.com/spf13/cobra"

	"nota/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var jsonOutput bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "nota",
		Short: "Nota is a local-first note client that syncs when it can",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLoggerForCLI(logLevel, cfg)
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newAddCmd(cfg, &jsonOutput),
		newListCmd(cfg, &jsonOutput),
		newEditCmd(cfg, &jsonOutput),
		newDeleteCmd(cfg),
		newSyncCmd(cfg, &jsonOutput),
		newSearchCmd(cfg, &jsonOutput),
		newLoginCmd(cfg),
		newRegisterCmd(cfg),
		newLogoutCmd(cfg),
		newMeCmd(cfg, &jsonOutput),
		newRecycleCmd(cfg, &jsonOutput),
		newGCCmd(cfg, &jsonOutput),
		newExportCmd(cfg),
		newThemeCmd(cfg),
		newConfigCmd(cfg),
	)

	return cmd
}
