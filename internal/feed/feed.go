// Package feed caches the server-confirmed notes shown to the user: an
// in-memory, append-only, deduplicated, newest-first list populated by
// offset-paginated fetches.
package feed

import (
	"fmt"
	"regexp"

	"nota/internal/models"
)

// Feed is the cached note list plus its pagination cursor. The cursor is
// the count of notes already retrieved; the consumer requests another page
// while Len() is below the profile's total_items.
type Feed struct {
	notes  []models.Note
	offset int
}

// New creates an empty feed.
func New() *Feed {
	return &Feed{}
}

// Notes returns the cached notes, newest first.
func (f *Feed) Notes() []models.Note {
	out := make([]models.Note, len(f.notes))
	copy(out, f.notes)
	return out
}

// Len returns the number of cached notes.
func (f *Feed) Len() int {
	return len(f.notes)
}

// Offset returns the pagination cursor.
func (f *Feed) Offset() int {
	return f.offset
}

// MergePage appends a fetched page to the feed and reports whether the
// feed grew. An empty page is a stop signal: the server has nothing past
// the cursor, even when a stale total_items suggests otherwise. If the
// page's first id is not strictly newer than the feed's last id the whole
// page is treated as already-seen data (a race between two fetches) and
// discarded. This is a coarse all-or-nothing dedup, not a per-element
// merge; it assumes the server never returns partially overlapping pages.
func (f *Feed) MergePage(page []models.Note) bool {
	if len(page) == 0 {
		return false
	}
	if len(f.notes) > 0 {
		last := f.notes[len(f.notes)-1]
		if last.ID >= page[0].ID {
			return false
		}
	}
	f.notes = append(f.notes, page...)
	f.offset += len(page)
	return true
}

// Prepend inserts a freshly created note at the top and advances the
// cursor, keeping offset equal to the retrieved count.
func (f *Feed) Prepend(note models.Note) {
	f.notes = append([]models.Note{note}, f.notes...)
	f.offset = len(f.notes)
}

// Replace swaps the note with the same id in place. Unknown ids are
// ignored.
func (f *Feed) Replace(note models.Note) {
	for i := range f.notes {
		if f.notes[i].ID == note.ID {
			f.notes[i] = note
			return
		}
	}
}

// Delete removes the note with the given id and reports whether it was
// present.
func (f *Feed) Delete(id int64) bool {
	for i := range f.notes {
		if f.notes[i].ID == id {
			f.notes = append(f.notes[:i], f.notes[i+1:]...)
			return true
		}
	}
	return false
}

// Filter returns the notes whose text matches pattern, case-insensitively.
// An empty pattern clears filtering and returns the whole feed. The feed
// itself is never mutated.
func (f *Feed) Filter(pattern string) ([]models.Note, error) {
	if pattern == "" {
		return f.Notes(), nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid filter pattern: %w", err)
	}
	var out []models.Note
	for _, note := range f.notes {
		if re.MatchString(note.Text) {
			out = append(out, note)
		}
	}
	return out, nil
}
