package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"nota/internal/config"
	"nota/internal/notes"
)

func newEditCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var text string
	var removeImages []string
	var addPaths []string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a note; buffered ids edit locally, server ids edit remotely",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return err
			}

			return withService(cfg, func(ctx context.Context, svc *notes.Service) error {
				files, err := readFiles(addPaths)
				if err != nil {
					return err
				}

				if isLocal(svc, id) {
					// Local removals go by blob key name.
					if err := svc.EditLocal(ctx, id, text, removeImages, files); err != nil {
						return err
					}
					return writePlain("edited local %d\n", id)
				}

				// Remote removals go by server image id.
				deleteIDs := make([]int64, 0, len(removeImages))
				for _, raw := range removeImages {
					imageID, err := strconv.ParseInt(raw, 10, 64)
					if err != nil {
						return err
					}
					deleteIDs = append(deleteIDs, imageID)
				}
				if err := loadFeed(ctx, svc, false); err != nil {
					return err
				}
				note, err := svc.EditRemote(ctx, id, text, deleteIDs, files)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(note)
				}
				return writePlain("edited %d\n", note.ID)
			})
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "replacement note text")
	cmd.Flags().StringSliceVar(&removeImages, "rm", nil, "image to remove (repeatable)")
	cmd.Flags().StringSliceVarP(&addPaths, "add", "a", nil, "image file to add (repeatable)")
	return cmd
}

func isLocal(svc *notes.Service, id int64) bool {
	for _, note := range svc.LocalNotes() {
		if note.ID == id {
			return true
		}
	}
	return false
}
