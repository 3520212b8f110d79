package main

import (
	"context"

	"github.com/spf13/cobra"

	"nota/internal/config"
	"nota/internal/notes"
)

func newGCCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "gc",
		Short: "Remove image blobs no buffered note references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(ctx context.Context, svc *notes.Service) error {
				result, err := svc.Collect(ctx)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(result)
				}
				return writePlain("removed %d of %d orphaned blob(s)\n", result.DeletedCount, result.CandidateCount)
			})
		},
	}
}
