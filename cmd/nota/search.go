package main

import (
	"context"

	"github.com/spf13/cobra"

	"nota/internal/config"
	"nota/internal/notes"
)

func newSearchCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <pattern>",
		Short: "Filter the feed by case-insensitive pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(ctx context.Context, svc *notes.Service) error {
				if err := loadFeed(ctx, svc, true); err != nil {
					return err
				}
				matches, err := svc.Filter(args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(matches)
				}
				for _, note := range matches {
					if err := writeNoteLine(note); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	return cmd
}
