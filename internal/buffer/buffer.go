// Package buffer holds notes created on this client that the server has not
// confirmed yet. Notes and their image blobs are written through to the
// blob store on every mutation so the buffer survives restarts.
package buffer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"nota/internal/blobstore"
	"nota/internal/models"
)

// ManifestKey is the reserved store key holding the serialized note list.
// Image blobs live under their own derived keys; the namespaces never
// collide because blob values are recognized by their data: prefix.
const ManifestKey = "local/notes"

// File is one image upload as handed to the buffer: raw bytes plus the
// original filename and media type.
type File struct {
	Name      string
	MediaType string
	Data      []byte
}

// Buffer is the ordered, newest-first list of not-yet-synced notes.
type Buffer struct {
	store  blobstore.Store
	logger *slog.Logger
	notes  []models.LocalNote
	now    func() time.Time
}

// manifestEntry is the persisted shape of one note: image blobs are
// referenced by key, never inlined. Unknown fields in stored manifests are
// ignored so older and newer layouts round-trip.
type manifestEntry struct {
	ID          int64    `json:"id"`
	Text        string   `json:"text"`
	CreatedTime int64    `json:"created_time"`
	UpdatedTime int64    `json:"updated_time,omitempty"`
	Images      []string `json:"images"`
}

// New creates an empty buffer backed by store.
func New(store blobstore.Store, logger *slog.Logger) *Buffer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Buffer{store: store, logger: logger, now: time.Now}
}

// Notes returns the buffered notes, newest first.
func (b *Buffer) Notes() []models.LocalNote {
	out := make([]models.LocalNote, len(b.notes))
	copy(out, b.notes)
	return out
}

// Len returns the number of buffered notes.
func (b *Buffer) Len() int {
	return len(b.notes)
}

// Get returns the buffered note with the given id.
func (b *Buffer) Get(id int64) (models.LocalNote, bool) {
	for _, note := range b.notes {
		if note.ID == id {
			return note, true
		}
	}
	return models.LocalNote{}, false
}

// CreateLocal buffers a new note. The note id is the creation timestamp in
// milliseconds; each image is stored under a key derived from its filename
// and that id. A store write that fails (quota) is logged and the note is
// still accepted with its in-memory copy; only durability is lost.
func (b *Buffer) CreateLocal(ctx context.Context, text string, files []File) (models.LocalNote, error) {
	id := b.now().UnixMilli()
	note := models.LocalNote{
		ID:          id,
		Text:        text,
		CreatedTime: id,
		Images:      b.storeImages(ctx, files, id),
	}

	b.notes = append([]models.LocalNote{note}, b.notes...)
	b.persist(ctx)
	return note, nil
}

// EditLocal replaces a note's text wholesale, drops the named images, and
// appends new files. A missing id is a silent no-op for the caller.
func (b *Buffer) EditLocal(ctx context.Context, id int64, text string, deletedNames []string, newFiles []File) error {
	idx := b.indexOf(id)
	if idx < 0 {
		b.logger.Warn("edit of unknown local note", "id", id)
		return nil
	}

	note := &b.notes[idx]
	note.Text = text
	note.UpdatedTime = b.now().UnixMilli()

	if len(deletedNames) > 0 {
		deleted := make(map[string]struct{}, len(deletedNames))
		for _, name := range deletedNames {
			deleted[name] = struct{}{}
		}
		kept := note.Images[:0]
		for _, img := range note.Images {
			if _, ok := deleted[img.Name]; ok {
				if err := b.store.Remove(ctx, img.Name); err != nil {
					b.logger.Warn("remove image blob", "key", img.Name, "error", err)
				}
				continue
			}
			kept = append(kept, img)
		}
		note.Images = kept
	}

	// New blobs are keyed by the edit timestamp so a re-added filename
	// cannot collide with a surviving original.
	note.Images = append(note.Images, b.storeImages(ctx, newFiles, note.UpdatedTime)...)

	b.persist(ctx)
	return nil
}

// DeleteLocal removes a note and its image blobs. A missing id is a silent
// no-op.
func (b *Buffer) DeleteLocal(ctx context.Context, id int64) error {
	idx := b.indexOf(id)
	if idx < 0 {
		b.logger.Warn("delete of unknown local note", "id", id)
		return nil
	}
	for _, img := range b.notes[idx].Images {
		if err := b.store.Remove(ctx, img.Name); err != nil {
			b.logger.Warn("remove image blob", "key", img.Name, "error", err)
		}
	}
	b.notes = append(b.notes[:idx], b.notes[idx+1:]...)
	b.persist(ctx)
	return nil
}

// Remove drops a note from the buffer without touching its blobs. Used
// after a successful promotion; the garbage collector reclaims the blobs.
func (b *Buffer) Remove(ctx context.Context, id int64) bool {
	idx := b.indexOf(id)
	if idx < 0 {
		return false
	}
	b.notes = append(b.notes[:idx], b.notes[idx+1:]...)
	b.persist(ctx)
	return true
}

// Restore rehydrates the buffer from the persisted manifest. A note whose
// blob went missing degrades to a note with a hole in its image sequence;
// identity and ordering always survive the round-trip.
func (b *Buffer) Restore(ctx context.Context) error {
	raw, ok, err := b.store.Get(ctx, ManifestKey)
	if err != nil {
		return fmt.Errorf("read note manifest: %w", err)
	}
	if !ok {
		b.notes = nil
		return nil
	}

	var entries []manifestEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return fmt.Errorf("decode note manifest: %w", err)
	}

	notes := make([]models.LocalNote, 0, len(entries))
	for _, entry := range entries {
		note := models.LocalNote{
			ID:          entry.ID,
			Text:        entry.Text,
			CreatedTime: entry.CreatedTime,
			UpdatedTime: entry.UpdatedTime,
		}
		for _, key := range entry.Images {
			blob, found, err := b.store.Get(ctx, key)
			if err != nil {
				return fmt.Errorf("read image blob %q: %w", key, err)
			}
			if !found {
				b.logger.Warn("image blob missing on restore", "key", key, "note", entry.ID)
				continue
			}
			// ID and ItemID stay zero; only the server assigns them.
			note.Images = append(note.Images, models.Image{
				Name:      key,
				Data:      blob,
				Thumbnail: blob,
			})
		}
		notes = append(notes, note)
	}
	b.notes = notes
	return nil
}

func (b *Buffer) indexOf(id int64) int {
	for i, note := range b.notes {
		if note.ID == id {
			return i
		}
	}
	return -1
}

// storeImages converts files to blob strings, writes each under its derived
// key, and returns the image records. The local thumbnail is the full blob;
// no downscaling happens at this layer.
func (b *Buffer) storeImages(ctx context.Context, files []File, keySuffix int64) []models.Image {
	if len(files) == 0 {
		return nil
	}
	images := make([]models.Image, 0, len(files))
	for _, file := range files {
		key := models.BlobKey(file.Name, keySuffix)
		blob := models.EncodeBlob(file.MediaType, file.Data)
		if err := b.store.Put(ctx, key, blob); err != nil {
			// Known-loss window: the note stays syncable from memory,
			// but a restart before sync loses this image.
			if errors.Is(err, blobstore.ErrQuotaExceeded) {
				b.logger.Warn("image blob not persisted", "key", key, "error", err)
			} else {
				b.logger.Warn("image blob write failed", "key", key, "error", err)
			}
		}
		images = append(images, models.Image{
			Name:      key,
			Data:      blob,
			Thumbnail: blob,
		})
	}
	return images
}

// persist serializes the note list (image keys only) to the manifest key.
// Runs after every mutation; failure degrades durability, not the buffer.
func (b *Buffer) persist(ctx context.Context) {
	entries := make([]manifestEntry, 0, len(b.notes))
	for _, note := range b.notes {
		keys := make([]string, 0, len(note.Images))
		for _, img := range note.Images {
			keys = append(keys, img.Name)
		}
		entries = append(entries, manifestEntry{
			ID:          note.ID,
			Text:        note.Text,
			CreatedTime: note.CreatedTime,
			UpdatedTime: note.UpdatedTime,
			Images:      keys,
		})
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		b.logger.Error("encode note manifest", "error", err)
		return
	}
	if err := b.store.Put(ctx, ManifestKey, string(raw)); err != nil {
		b.logger.Warn("persist note manifest", "error", err)
	}
}
