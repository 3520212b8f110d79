package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"nota/internal/config"
	"nota/internal/notes"
)

func newRecycleCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recycle",
		Short: "List soft-deleted notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(ctx context.Context, svc *notes.Service) error {
				recycled, err := svc.Recycled(ctx)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(recycled)
				}
				for _, note := range recycled {
					if err := writeNoteLine(note); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.AddCommand(newRecycleRestoreCmd(cfg, jsonOutput))
	return cmd
}

func newRecycleRestoreCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore a note from the recycle bin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return err
			}
			return withService(cfg, func(ctx context.Context, svc *notes.Service) error {
				note, err := svc.RestoreRecycled(ctx, id)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(note)
				}
				return writePlain("restored %d\n", note.ID)
			})
		},
	}
}
