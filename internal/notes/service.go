// Package notes orchestrates the local buffer, the remote feed, the sync
// engine, and the garbage collector behind one surface the CLI calls.
package notes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"nota/internal/api"
	"nota/internal/blobstore"
	"nota/internal/buffer"
	"nota/internal/feed"
	"nota/internal/gc"
	"nota/internal/models"
	"nota/internal/session"
	"nota/internal/syncer"
)

// ErrSignedOut reports an operation that needs a server session when none
// is cached. Local-buffer operations keep working without one.
var ErrSignedOut = errors.New("not signed in")

// Transport is the full API surface the service depends on.
type Transport interface {
	ListNotes(ctx context.Context, offset int) ([]models.Note, error)
	CreateNote(ctx context.Context, text string, images []api.Upload) (models.Note, error)
	EditNote(ctx context.Context, id int64, text string, deleteIDs []int64, add []api.Upload) (models.Note, error)
	DeleteNote(ctx context.Context, id int64) (int64, error)
	GetProfile(ctx context.Context) (api.Profile, error)
	ListRecycled(ctx context.Context) ([]models.Note, error)
	RestoreNote(ctx context.Context, id int64) (models.Note, error)
	Export(ctx context.Context, w io.Writer) error
}

// Service wires the sync core together. A nil transport means the client
// is offline or signed out; everything local still works.
type Service struct {
	transport Transport
	buffer    *buffer.Buffer
	feed      *feed.Feed
	engine    *syncer.Engine
	collector *gc.Collector
	session   *session.Session
	logger    *slog.Logger

	profile *api.Profile
}

// New assembles a service over store. Call Restore before first use to
// rehydrate the buffer.
func New(store blobstore.Store, transport Transport, sess *session.Session, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	buf := buffer.New(store, logger)
	fd := feed.New()
	collector := gc.New(store, logger)
	return &Service{
		transport: transport,
		buffer:    buf,
		feed:      fd,
		engine:    syncer.New(transport, buf, fd, collector, logger),
		collector: collector,
		session:   sess,
		logger:    logger,
	}
}

// Restore rehydrates the local buffer from durable storage.
func (s *Service) Restore(ctx context.Context) error {
	return s.buffer.Restore(ctx)
}

// LocalNotes returns the buffered notes, newest first. These are displayed
// ahead of remote notes.
func (s *Service) LocalNotes() []models.LocalNote {
	return s.buffer.Notes()
}

// FeedNotes returns the cached remote notes, newest first.
func (s *Service) FeedNotes() []models.Note {
	return s.feed.Notes()
}

// Engine exposes the sync engine for status observation.
func (s *Service) Engine() *syncer.Engine {
	return s.engine
}

// Profile returns the last fetched profile, fetching it on first use.
func (s *Service) Profile(ctx context.Context) (api.Profile, error) {
	if s.profile != nil {
		return *s.profile, nil
	}
	return s.RefreshProfile(ctx)
}

// RefreshProfile re-fetches the profile so pagination runs off a fresh
// total_items.
func (s *Service) RefreshProfile(ctx context.Context) (api.Profile, error) {
	if s.transport == nil {
		return api.Profile{}, ErrSignedOut
	}
	profile, err := s.transport.GetProfile(ctx)
	if err != nil {
		return api.Profile{}, s.classify(ctx, err)
	}
	s.profile = &profile
	return profile, nil
}

// SaveResult reports one save: the buffered note, and the promoted remote
// note when a session was available and the upload succeeded.
type SaveResult struct {
	Local    models.LocalNote
	Promoted *models.Note
}

// Save buffers a note locally first, then attempts promotion when signed
// in. A failed promotion is reported but the local copy stays buffered for
// a manual retry.
func (s *Service) Save(ctx context.Context, text string, files []buffer.File) (SaveResult, error) {
	local, err := s.buffer.CreateLocal(ctx, text, files)
	if err != nil {
		return SaveResult{}, err
	}
	result := SaveResult{Local: local}

	if s.transport == nil {
		return result, nil
	}

	promoted, err := s.engine.Promote(ctx, local.ID)
	if err != nil {
		s.logger.Warn("save kept local, promotion failed", "id", local.ID, "error", err)
		return result, s.classify(ctx, err)
	}
	result.Promoted = &promoted

	if _, err := s.RefreshProfile(ctx); err != nil {
		s.logger.Warn("profile refresh after save", "error", err)
	}
	return result, nil
}

// Sync promotes one buffered note by id.
func (s *Service) Sync(ctx context.Context, id int64) (models.Note, error) {
	if s.transport == nil {
		return models.Note{}, ErrSignedOut
	}
	note, err := s.engine.Promote(ctx, id)
	if err != nil {
		return models.Note{}, s.classify(ctx, err)
	}
	if _, err := s.RefreshProfile(ctx); err != nil {
		s.logger.Warn("profile refresh after sync", "error", err)
	}
	return note, nil
}

// SyncAll promotes every buffered note, oldest first so server ids follow
// creation order. It stops at the first failure, leaving the rest
// buffered.
func (s *Service) SyncAll(ctx context.Context) ([]models.Note, error) {
	locals := s.buffer.Notes()
	promoted := make([]models.Note, 0, len(locals))
	for i := len(locals) - 1; i >= 0; i-- {
		note, err := s.Sync(ctx, locals[i].ID)
		if err != nil {
			return promoted, err
		}
		promoted = append(promoted, note)
	}
	return promoted, nil
}

// LoadMore fetches the next page into the feed and reports whether new
// notes arrived. It is a no-op once the feed holds total_items notes.
func (s *Service) LoadMore(ctx context.Context) (bool, error) {
	if s.transport == nil {
		return false, ErrSignedOut
	}
	profile, err := s.Profile(ctx)
	if err != nil {
		return false, err
	}
	if s.feed.Len() >= profile.TotalItems {
		return false, nil
	}
	page, err := s.transport.ListNotes(ctx, s.feed.Offset())
	if err != nil {
		return false, s.classify(ctx, err)
	}
	return s.feed.MergePage(page), nil
}

// Filter matches feed note text case-insensitively; an empty pattern
// returns the unfiltered feed.
func (s *Service) Filter(pattern string) ([]models.Note, error) {
	return s.feed.Filter(pattern)
}

// EditLocal rewrites a buffered note and collects any blobs the edit
// orphaned.
func (s *Service) EditLocal(ctx context.Context, id int64, text string, deletedNames []string, newFiles []buffer.File) error {
	if err := s.buffer.EditLocal(ctx, id, text, deletedNames, newFiles); err != nil {
		return err
	}
	return s.collect(ctx)
}

// DeleteLocal removes a buffered note and collects its blobs.
func (s *Service) DeleteLocal(ctx context.Context, id int64) error {
	if err := s.buffer.DeleteLocal(ctx, id); err != nil {
		return err
	}
	return s.collect(ctx)
}

// EditRemote edits a server note and mirrors the result into the feed.
func (s *Service) EditRemote(ctx context.Context, id int64, text string, deleteIDs []int64, addFiles []buffer.File) (models.Note, error) {
	if s.transport == nil {
		return models.Note{}, ErrSignedOut
	}
	uploads := make([]api.Upload, 0, len(addFiles))
	for _, file := range addFiles {
		uploads = append(uploads, api.Upload{Filename: file.Name, MediaType: file.MediaType, Data: file.Data})
	}
	note, err := s.transport.EditNote(ctx, id, text, deleteIDs, uploads)
	if err != nil {
		return models.Note{}, s.classify(ctx, err)
	}
	s.feed.Replace(note)
	return note, nil
}

// DeleteRemote soft-deletes a server note and drops it from the feed.
func (s *Service) DeleteRemote(ctx context.Context, id int64) error {
	if s.transport == nil {
		return ErrSignedOut
	}
	if _, err := s.transport.DeleteNote(ctx, id); err != nil {
		return s.classify(ctx, err)
	}
	s.feed.Delete(id)
	if _, err := s.RefreshProfile(ctx); err != nil {
		s.logger.Warn("profile refresh after delete", "error", err)
	}
	return nil
}

// Recycled lists soft-deleted server notes.
func (s *Service) Recycled(ctx context.Context) ([]models.Note, error) {
	if s.transport == nil {
		return nil, ErrSignedOut
	}
	recycled, err := s.transport.ListRecycled(ctx)
	if err != nil {
		return nil, s.classify(ctx, err)
	}
	return recycled, nil
}

// RestoreRecycled moves a note out of the recycle collection.
func (s *Service) RestoreRecycled(ctx context.Context, id int64) (models.Note, error) {
	if s.transport == nil {
		return models.Note{}, ErrSignedOut
	}
	note, err := s.transport.RestoreNote(ctx, id)
	if err != nil {
		return models.Note{}, s.classify(ctx, err)
	}
	return note, nil
}

// Export streams the server-side archive to w.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	if s.transport == nil {
		return ErrSignedOut
	}
	if err := s.transport.Export(ctx, w); err != nil {
		return s.classify(ctx, err)
	}
	return nil
}

// Snapshot is the local YAML export shape: the buffered notes plus the
// cached feed.
type Snapshot struct {
	Local  []models.LocalNote `yaml:"local"`
	Remote []models.Note      `yaml:"remote"`
}

// Snapshot captures the current local-first view.
func (s *Service) Snapshot() Snapshot {
	return Snapshot{Local: s.buffer.Notes(), Remote: s.feed.Notes()}
}

// Collect runs one garbage collection pass over the blob store.
func (s *Service) Collect(ctx context.Context) (gc.Result, error) {
	return s.collector.Collect(ctx, s.buffer.Notes())
}

func (s *Service) collect(ctx context.Context) error {
	result, err := s.collector.Collect(ctx, s.buffer.Notes())
	if err != nil {
		return fmt.Errorf("collect orphaned blobs: %w", err)
	}
	if result.DeletedCount > 0 {
		s.logger.Debug("collected orphaned blobs", "deleted", result.DeletedCount)
	}
	return nil
}

// classify folds the AuthExpired sign-out condition into transport errors:
// an unauthorized response clears the cached session so the client drops
// back to pure local operation.
func (s *Service) classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if api.IsAuthExpired(err) && s.session != nil {
		if clearErr := s.session.Clear(ctx); clearErr != nil {
			s.logger.Warn("clear expired session", "error", clearErr)
		} else {
			s.logger.Info("session expired, signed out")
		}
	}
	return err
}
