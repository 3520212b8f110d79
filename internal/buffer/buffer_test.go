package buffer

import (
	"context"
	"testing"
	"time"

	"nota/internal/blobstore"
	"nota/internal/models"
)

func testBuffer(quota int64) (*Buffer, blobstore.Store) {
	store := blobstore.NewMemoryStore(quota)
	buf := New(store, nil)
	return buf, store
}

func atMilli(buf *Buffer, ms int64) {
	buf.now = func() time.Time { return time.UnixMilli(ms) }
}

func file(name, content string) File {
	return File{Name: name, MediaType: "image/png", Data: []byte(content)}
}

func TestCreateLocalPrependsNewestFirst(t *testing.T) {
	ctx := context.Background()
	buf, store := testBuffer(0)

	atMilli(buf, 1000)
	first, err := buf.CreateLocal(ctx, "first", nil)
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	atMilli(buf, 2000)
	second, err := buf.CreateLocal(ctx, "second", []File{file("cat.png", "cat")})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	notes := buf.Notes()
	if len(notes) != 2 || notes[0].ID != second.ID || notes[1].ID != first.ID {
		t.Fatalf("unexpected order: %+v", notes)
	}
	if second.ID != 2000 || second.CreatedTime != 2000 {
		t.Fatalf("id should be the creation timestamp: %+v", second)
	}

	if len(second.Images) != 1 {
		t.Fatalf("expected one image, got %d", len(second.Images))
	}
	img := second.Images[0]
	if img.Name != "cat.png_2000" {
		t.Fatalf("unexpected blob key: %q", img.Name)
	}
	if img.Thumbnail != img.Data {
		t.Fatal("thumbnail should equal the full blob at this layer")
	}
	if value, ok, _ := store.Get(ctx, "cat.png_2000"); !ok || !models.IsBlob(value) {
		t.Fatalf("blob not stored: ok=%v value=%q", ok, value)
	}
	if _, ok, _ := store.Get(ctx, ManifestKey); !ok {
		t.Fatal("manifest not persisted")
	}
}

func TestEditLocalRemovesAndAddsIndependently(t *testing.T) {
	ctx := context.Background()
	buf, store := testBuffer(0)

	atMilli(buf, 1000)
	note, _ := buf.CreateLocal(ctx, "pics", []File{file("a.png", "a"), file("b.png", "b")})

	atMilli(buf, 5000)
	if err := buf.EditLocal(ctx, note.ID, "pics v2", []string{"a.png_1000"}, []File{file("c.png", "c")}); err != nil {
		t.Fatalf("edit: %v", err)
	}

	got, ok := buf.Get(note.ID)
	if !ok {
		t.Fatal("note vanished")
	}
	if got.Text != "pics v2" {
		t.Fatalf("text not replaced: %q", got.Text)
	}
	if got.UpdatedTime != 5000 {
		t.Fatalf("updated time: %d", got.UpdatedTime)
	}
	// Surviving originals first, then new.
	if len(got.Images) != 2 || got.Images[0].Name != "b.png_1000" || got.Images[1].Name != "c.png_5000" {
		t.Fatalf("unexpected image sequence: %+v", got.Images)
	}
	if _, ok, _ := store.Get(ctx, "a.png_1000"); ok {
		t.Fatal("deleted image blob still stored")
	}
	if _, ok, _ := store.Get(ctx, "c.png_5000"); !ok {
		t.Fatal("new image blob not stored")
	}
}

func TestEditLocalUnknownIDIsSilentNoop(t *testing.T) {
	ctx := context.Background()
	buf, _ := testBuffer(0)
	if err := buf.EditLocal(ctx, 42, "text", nil, nil); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
}

func TestDeleteLocalReleasesImages(t *testing.T) {
	ctx := context.Background()
	buf, store := testBuffer(0)

	atMilli(buf, 1000)
	note, _ := buf.CreateLocal(ctx, "bye", []File{file("a.png", "a")})

	if err := buf.DeleteLocal(ctx, note.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("note still buffered: %d", buf.Len())
	}
	if _, ok, _ := store.Get(ctx, "a.png_1000"); ok {
		t.Fatal("image blob not released")
	}
}

func TestPersistRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(buf *Buffer)
	}{
		{"empty buffer", func(buf *Buffer) {}},
		{"single note without images", func(buf *Buffer) {
			atMilli(buf, 1000)
			_, _ = buf.CreateLocal(ctx, "plain", nil)
		}},
		{"note with two images", func(buf *Buffer) {
			atMilli(buf, 1000)
			_, _ = buf.CreateLocal(ctx, "pics", []File{file("a.png", "a"), file("b.png", "b")})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := blobstore.NewMemoryStore(0)
			written := New(store, nil)
			tt.setup(written)
			want := written.Notes()

			restored := New(store, nil)
			if err := restored.Restore(ctx); err != nil {
				t.Fatalf("restore: %v", err)
			}
			got := restored.Notes()

			if len(got) != len(want) {
				t.Fatalf("expected %d notes, got %d", len(want), len(got))
			}
			for i := range want {
				if got[i].ID != want[i].ID || got[i].Text != want[i].Text || got[i].CreatedTime != want[i].CreatedTime {
					t.Fatalf("note %d mismatch: %+v vs %+v", i, got[i], want[i])
				}
				if len(got[i].Images) != len(want[i].Images) {
					t.Fatalf("note %d image count: %d vs %d", i, len(got[i].Images), len(want[i].Images))
				}
				for j := range want[i].Images {
					if got[i].Images[j].Name != want[i].Images[j].Name || got[i].Images[j].Data != want[i].Images[j].Data {
						t.Fatalf("note %d image %d mismatch", i, j)
					}
					// Unsynced images never carry server-assigned identity.
					if got[i].Images[j].ID != 0 || got[i].Images[j].ItemID != 0 {
						t.Fatalf("note %d image %d gained server identity: %+v", i, j, got[i].Images[j])
					}
				}
			}
		})
	}
}

func TestRestoreDegradesOnMissingBlob(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore(0)
	written := New(store, nil)
	atMilli(written, 1000)
	note, _ := written.CreateLocal(ctx, "pics", []File{file("a.png", "a"), file("b.png", "b")})

	if err := store.Remove(ctx, "a.png_1000"); err != nil {
		t.Fatalf("remove blob: %v", err)
	}

	restored := New(store, nil)
	if err := restored.Restore(ctx); err != nil {
		t.Fatalf("restore must not fail on a hole: %v", err)
	}
	got, ok := restored.Get(note.ID)
	if !ok {
		t.Fatal("note identity lost")
	}
	if len(got.Images) != 1 || got.Images[0].Name != "b.png_1000" {
		t.Fatalf("expected the surviving image only, got %+v", got.Images)
	}
}

func TestQuotaFailureKeepsNoteSyncable(t *testing.T) {
	ctx := context.Background()
	buf, store := testBuffer(8)

	atMilli(buf, 1000)
	note, err := buf.CreateLocal(ctx, "big", []File{file("a.png", "payload well past eight bytes")})
	if err != nil {
		t.Fatalf("create must accept the note: %v", err)
	}
	if len(note.Images) != 1 || !models.IsBlob(note.Images[0].Data) {
		t.Fatalf("in-memory image copy missing: %+v", note.Images)
	}
	// The blob never made it to durable storage: the known-loss window.
	if _, ok, _ := store.Get(ctx, "a.png_1000"); ok {
		t.Fatal("blob should not be stored past quota")
	}
}
