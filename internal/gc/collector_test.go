package gc

import (
	"context"
	"strings"
	"testing"

	"nota/internal/blobstore"
	"nota/internal/models"
)

func seedStore(t *testing.T) blobstore.Store {
	t.Helper()
	ctx := context.Background()
	store := blobstore.NewMemoryStore(0)
	entries := map[string]string{
		"cat.png_1":   models.EncodeBlob("image/png", []byte("cat")),
		"dog.png_1":   models.EncodeBlob("image/png", []byte("dog")),
		"old.png_2":   models.EncodeBlob("image/png", []byte("old")),
		"local/notes": `[{"id":1,"text":"hi","images":["cat.png_1","dog.png_1"]}]`,
		"local/token": "sometoken",
		"local/theme": "dark",
	}
	for key, value := range entries {
		if err := store.Put(ctx, key, value); err != nil {
			t.Fatalf("seed %q: %v", key, err)
		}
	}
	return store
}

func referencingNotes() []models.LocalNote {
	return []models.LocalNote{{
		ID:   1,
		Text: "hi",
		Images: []models.Image{
			{Name: "cat.png_1"},
			{Name: "dog.png_1"},
		},
	}}
}

func TestCollectRemovesOnlyOrphanedBlobs(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)

	result, err := New(store, nil).Collect(ctx, referencingNotes())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if result.DeletedCount != 1 || result.CandidateCount != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	got := strings.Join(keys, ",")
	want := "cat.png_1,dog.png_1,local/notes,local/theme,local/token"
	if got != want {
		t.Fatalf("keys after collect: %s, want %s", got, want)
	}
}

func TestCollectIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)
	collector := New(store, nil)

	if _, err := collector.Collect(ctx, referencingNotes()); err != nil {
		t.Fatalf("first collect: %v", err)
	}
	firstKeys, _ := store.Keys(ctx)

	result, err := collector.Collect(ctx, referencingNotes())
	if err != nil {
		t.Fatalf("second collect: %v", err)
	}
	if result.DeletedCount != 0 || result.CandidateCount != 0 {
		t.Fatalf("second collect should be a no-op: %+v", result)
	}
	secondKeys, _ := store.Keys(ctx)
	if strings.Join(firstKeys, ",") != strings.Join(secondKeys, ",") {
		t.Fatalf("key set changed: %v vs %v", firstKeys, secondKeys)
	}
}

func TestCollectWithEmptyBuffer(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)

	result, err := New(store, nil).Collect(ctx, nil)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if result.DeletedCount != 3 {
		t.Fatalf("expected every blob removed, got %+v", result)
	}

	// Reserved keys are never image blobs and must survive.
	for _, key := range []string{"local/notes", "local/token", "local/theme"} {
		if _, ok, _ := store.Get(ctx, key); !ok {
			t.Fatalf("reserved key %q was collected", key)
		}
	}
}
