package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"nota/internal/config"
	"nota/internal/notes"
)

func newDeleteCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a note; server notes move to the recycle bin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return err
			}

			return withService(cfg, func(ctx context.Context, svc *notes.Service) error {
				if isLocal(svc, id) {
					if err := svc.DeleteLocal(ctx, id); err != nil {
						return err
					}
					return writePlain("deleted local %d\n", id)
				}
				if err := svc.DeleteRemote(ctx, id); err != nil {
					return err
				}
				return writePlain("deleted %d\n", id)
			})
		},
	}
	return cmd
}
