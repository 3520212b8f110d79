package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"nota/internal/config"
	"nota/internal/notes"
)

func newListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes, local ones ahead of the remote feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(ctx context.Context, svc *notes.Service) error {
				if err := loadFeed(ctx, svc, all); err != nil {
					return err
				}

				if *jsonOutput {
					return writeJSON(svc.Snapshot())
				}
				for _, note := range svc.LocalNotes() {
					if err := writeLocalNoteLine(note); err != nil {
						return err
					}
				}
				for _, note := range svc.FeedNotes() {
					if err := writeNoteLine(note); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "fetch every remote page, not just the first")
	return cmd
}

// loadFeed pulls remote pages into the feed. Signed-out clients list only
// the local buffer.
func loadFeed(ctx context.Context, svc *notes.Service, all bool) error {
	for {
		merged, err := svc.LoadMore(ctx)
		if err != nil {
			if errors.Is(err, notes.ErrSignedOut) {
				return nil
			}
			return err
		}
		if !merged || !all {
			return nil
		}
	}
}
