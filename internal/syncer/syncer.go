// Package syncer promotes buffered local notes to server-confirmed notes:
// it uploads a note's images, adopts the authoritative records the server
// returns, and retires the local copy exactly once.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nota/internal/api"
	"nota/internal/buffer"
	"nota/internal/feed"
	"nota/internal/gc"
	"nota/internal/models"
)

// Status is the observable promotion state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// ErrNotFound reports a promote of an id absent from the buffer.
var ErrNotFound = errors.New("local note not found")

// ErrInFlight reports a second promote of a note whose first promotion has
// not finished. The guard makes the at-most-once promise enforced instead
// of advisory.
var ErrInFlight = errors.New("promotion already in flight")

// Transport is the subset of the API client the engine needs.
type Transport interface {
	CreateNote(ctx context.Context, text string, images []api.Upload) (models.Note, error)
}

// Engine performs promotions. It never retries on its own; a failed
// promotion leaves the local note untouched for a manual retry, and retry
// policy belongs to the caller.
type Engine struct {
	transport Transport
	buffer    *buffer.Buffer
	feed      *feed.Feed
	collector *gc.Collector
	logger    *slog.Logger

	inflight map[int64]struct{}
	status   Status
	onStatus func(Status)
}

// New creates an engine over the buffer, feed, and collector it reconciles.
func New(transport Transport, buf *buffer.Buffer, fd *feed.Feed, collector *gc.Collector, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		transport: transport,
		buffer:    buf,
		feed:      fd,
		collector: collector,
		logger:    logger,
		inflight:  map[int64]struct{}{},
		status:    StatusIdle,
	}
}

// Status returns the engine's last observed promotion state.
func (e *Engine) Status() Status {
	return e.status
}

// OnStatus registers an observer for state transitions.
func (e *Engine) OnStatus(fn func(Status)) {
	e.onStatus = fn
}

// Promote uploads one buffered note. On success the returned note is
// prepended to the feed, the local copy is removed from the buffer, and its
// blobs are garbage-collected. On failure the buffer and feed are left
// untouched. Promotion cannot be cancelled once the upload is in flight;
// it is awaited to completion or failure.
func (e *Engine) Promote(ctx context.Context, id int64) (models.Note, error) {
	var zero models.Note

	local, ok := e.buffer.Get(id)
	if !ok {
		return zero, fmt.Errorf("promote %d: %w", id, ErrNotFound)
	}
	if _, busy := e.inflight[id]; busy {
		return zero, fmt.Errorf("promote %d: %w", id, ErrInFlight)
	}
	e.inflight[id] = struct{}{}
	defer delete(e.inflight, id)

	e.setStatus(StatusPending)

	uploads, err := uploadsFromImages(local.Images)
	if err != nil {
		e.setStatus(StatusFailed)
		return zero, fmt.Errorf("promote %d: %w", id, err)
	}

	note, err := e.transport.CreateNote(ctx, local.Text, uploads)
	if err != nil {
		e.setStatus(StatusFailed)
		return zero, fmt.Errorf("promote %d: %w", id, err)
	}

	// Keep rendering the locally generated thumbnail until the server
	// asset is confirmed propagated; the returned records are adopted for
	// everything else. Positional correspondence is guaranteed by the
	// create endpoint.
	for i := range note.Images {
		if i < len(local.Images) {
			note.Images[i].Thumbnail = local.Images[i].Thumbnail
		}
	}

	e.feed.Prepend(note)
	e.buffer.Remove(ctx, id)
	if _, err := e.collector.Collect(ctx, e.buffer.Notes()); err != nil {
		e.logger.Warn("post-promotion blob collection", "note", id, "error", err)
	}

	e.setStatus(StatusSuccess)
	e.logger.Info("promoted local note", "local_id", id, "remote_id", note.ID)
	return note, nil
}

func (e *Engine) setStatus(status Status) {
	e.status = status
	if e.onStatus != nil {
		e.onStatus(status)
	}
}

// uploadsFromImages converts stored blob strings back into binary payloads
// tagged with the original filename (the synthetic id suffix stripped).
func uploadsFromImages(images []models.Image) ([]api.Upload, error) {
	if len(images) == 0 {
		return nil, nil
	}
	uploads := make([]api.Upload, 0, len(images))
	for _, img := range images {
		mediaType, data, err := models.DecodeBlob(img.Data)
		if err != nil {
			return nil, fmt.Errorf("image %q: %w", img.Name, err)
		}
		uploads = append(uploads, api.Upload{
			Filename:  models.FilenameFromKey(img.Name),
			MediaType: mediaType,
			Data:      data,
		})
	}
	return uploads, nil
}
