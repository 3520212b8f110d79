package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"nota/internal/config"
	"nota/internal/notes"
)

func newAddCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var imagePaths []string

	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Save a note, locally first, syncing when signed in",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(ctx context.Context, svc *notes.Service) error {
				files, err := readFiles(imagePaths)
				if err != nil {
					return err
				}

				result, err := svc.Save(ctx, strings.Join(args, " "), files)
				if err != nil {
					// The note is buffered even when promotion failed.
					if result.Local.ID != 0 {
						_ = writePlain("saved locally as %d (sync failed: %v)\n", result.Local.ID, err)
						return nil
					}
					return err
				}

				if *jsonOutput {
					return writeJSON(result)
				}
				if result.Promoted != nil {
					return writePlain("synced as %d\n", result.Promoted.ID)
				}
				return writePlain("saved locally as %d\n", result.Local.ID)
			})
		},
	}

	cmd.Flags().StringSliceVarP(&imagePaths, "image", "i", nil, "attach image file (repeatable)")
	return cmd
}
