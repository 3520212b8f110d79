package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nota/internal/api"
	"nota/internal/blobstore"
	"nota/internal/config"
	"nota/internal/notes"
	"nota/internal/session"
)

const passwordEnvKey = "NOTA_PASSWORD"

func newLoginCmd(cfg *config.Config) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in and cache the bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pass := password
			if pass == "" {
				pass = os.Getenv(passwordEnvKey)
			}
			if pass == "" {
				return fmt.Errorf("password required (--password or %s)", passwordEnvKey)
			}

			return withStore(cfg, func(ctx context.Context, store blobstore.Store, sess *session.Session) error {
				client := api.NewClient(cfg.APIURL, "")
				resp, err := client.Login(ctx, args[0], pass)
				if err != nil {
					return err
				}
				if err := sess.SaveToken(ctx, resp.AccessToken); err != nil {
					return err
				}
				return writePlain("signed in as %s\n", args[0])
			})
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func newRegisterCmd(cfg *config.Config) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pass := password
			if pass == "" {
				pass = os.Getenv(passwordEnvKey)
			}
			if pass == "" {
				return fmt.Errorf("password required (--password or %s)", passwordEnvKey)
			}

			client := api.NewClient(cfg.APIURL, "")
			if err := client.Register(cmd.Context(), args[0], pass); err != nil {
				return err
			}
			return writePlain("registered %s\n", args[0])
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func newLogoutCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the cached session; local notes stay buffered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(ctx context.Context, store blobstore.Store, sess *session.Session) error {
				if err := sess.Clear(ctx); err != nil {
					return err
				}
				return writePlain("signed out\n")
			})
		},
	}
}

func newMeCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(ctx context.Context, svc *notes.Service) error {
				profile, err := svc.Profile(ctx)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(profile)
				}
				if err := writePlain("name: %s\n", profile.Name); err != nil {
					return err
				}
				if err := writePlain("notes: %d\n", profile.TotalItems); err != nil {
					return err
				}
				return writePlain("since: %s\n", formatTime(profile.CreatedTime))
			})
		},
	}
}
