package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"nota/internal/config"
	"nota/internal/notes"
)

func newExportCmd(cfg *config.Config) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export notes: the server archive, or a local YAML snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(ctx context.Context, svc *notes.Service) error {
				if local {
					if err := loadFeed(ctx, svc, true); err != nil {
						return err
					}
					out := os.Stdout
					if len(args) == 1 {
						f, err := os.Create(args[0])
						if err != nil {
							return err
						}
						defer f.Close()
						out = f
					}
					enc := yaml.NewEncoder(out)
					defer enc.Close()
					return enc.Encode(svc.Snapshot())
				}

				path := "nota-export.zip"
				if len(args) == 1 {
					path = args[0]
				}
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := svc.Export(ctx, f); err != nil {
					return err
				}
				return writePlain("exported to %s\n", path)
			})
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "write a YAML snapshot of the local view instead")
	return cmd
}
