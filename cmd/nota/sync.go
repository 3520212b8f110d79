package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"nota/internal/config"
	"nota/internal/notes"
	"nota/internal/syncer"
)

func newSyncCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [id]",
		Short: "Promote buffered notes to the server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(ctx context.Context, svc *notes.Service) error {
				svc.Engine().OnStatus(func(status syncer.Status) {
					if status == syncer.StatusPending && !*jsonOutput {
						_ = writePlain("syncing...\n")
					}
				})

				if len(args) == 1 {
					id, err := strconv.ParseInt(args[0], 10, 64)
					if err != nil {
						return err
					}
					note, err := svc.Sync(ctx, id)
					if err != nil {
						return err
					}
					if *jsonOutput {
						return writeJSON(note)
					}
					return writePlain("synced %d as %d\n", id, note.ID)
				}

				promoted, err := svc.SyncAll(ctx)
				if err != nil {
					// Earlier promotions stand; the rest stay buffered.
					_ = writePlain("synced %d note(s) before failure\n", len(promoted))
					return err
				}
				if *jsonOutput {
					return writeJSON(promoted)
				}
				return writePlain("synced %d note(s)\n", len(promoted))
			})
		},
	}
	return cmd
}
