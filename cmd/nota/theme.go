package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"nota/internal/blobstore"
	"nota/internal/config"
	"nota/internal/session"
)

func newThemeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "theme [light|dark]",
		Short: "Show or set the display theme preference",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(ctx context.Context, store blobstore.Store, sess *session.Session) error {
				if len(args) == 0 {
					theme, err := sess.Theme(ctx)
					if err != nil {
						return err
					}
					if theme == "" {
						theme = "light"
					}
					return writePlain("%s\n", theme)
				}
				theme := args[0]
				if theme != "light" && theme != "dark" {
					return fmt.Errorf("unknown theme: %s", theme)
				}
				return sess.SetTheme(ctx, theme)
			})
		},
	}
}
