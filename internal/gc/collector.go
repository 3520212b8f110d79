// Package gc reclaims image blobs that no buffered note references any
// more. It runs after every buffer mutation that can orphan a blob:
// edit-with-deletion, delete, successful sync.
package gc

import (
	"context"
	"log/slog"

	"nota/internal/blobstore"
	"nota/internal/models"
)

// Result reports one collection run.
type Result struct {
	CandidateCount int `json:"candidate_count"`
	DeletedCount   int `json:"deleted_count"`
	FailedCount    int `json:"failed_count"`
}

// Collector sweeps the blob store for orphaned image blobs.
type Collector struct {
	store  blobstore.Store
	logger *slog.Logger
}

// New creates a collector over store.
func New(store blobstore.Store, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{store: store, logger: logger}
}

// Collect removes every stored image blob whose key is not referenced by a
// live local note. Non-blob values (manifest, token, theme) are never
// touched; they are told apart by the data: value prefix. Running twice
// with no intervening mutation is a no-op.
func (c *Collector) Collect(ctx context.Context, notes []models.LocalNote) (Result, error) {
	var result Result

	referenced := map[string]struct{}{}
	for _, note := range notes {
		for _, img := range note.Images {
			referenced[img.Name] = struct{}{}
		}
	}

	keys, err := c.store.Keys(ctx)
	if err != nil {
		return result, err
	}
	for _, key := range keys {
		if _, ok := referenced[key]; ok {
			continue
		}
		value, ok, err := c.store.Get(ctx, key)
		if err != nil {
			return result, err
		}
		if !ok || !models.IsBlob(value) {
			continue
		}
		result.CandidateCount++
		if err := c.store.Remove(ctx, key); err != nil {
			c.logger.Warn("remove orphaned blob", "key", key, "error", err)
			result.FailedCount++
			continue
		}
		result.DeletedCount++
	}

	return result, nil
}
