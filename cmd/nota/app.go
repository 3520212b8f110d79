package main

import (
	"context"
	"log/slog"

	"nota/internal/api"
	"nota/internal/blobstore"
	"nota/internal/config"
	"nota/internal/notes"
	"nota/internal/session"
)

// withStore opens the durable store and hands it to fn together with the
// session living inside it.
func withStore(cfg *config.Config, fn func(ctx context.Context, store blobstore.Store, sess *session.Session) error) error {
	ctx := context.Background()
	store, err := blobstore.OpenSQLite(cfg.DataPath, cfg.QuotaBytes)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(ctx, store, session.New(store))
}

// withService assembles the full note service. Without a cached token the
// transport is nil and the service runs purely against the local buffer.
func withService(cfg *config.Config, fn func(ctx context.Context, svc *notes.Service) error) error {
	return withStore(cfg, func(ctx context.Context, store blobstore.Store, sess *session.Session) error {
		token, ok, err := sess.Token(ctx)
		if err != nil {
			return err
		}
		var transport notes.Transport
		if ok {
			transport = api.NewClient(cfg.APIURL, token)
		}
		svc := notes.New(store, transport, sess, slog.Default())
		if err := svc.Restore(ctx); err != nil {
			return err
		}
		return fn(ctx, svc)
	})
}
