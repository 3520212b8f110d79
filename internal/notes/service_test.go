package notes

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"nota/internal/api"
	"nota/internal/blobstore"
	"nota/internal/buffer"
	"nota/internal/models"
	"nota/internal/session"
)

// fakeAPI implements Transport with canned data and per-method failure
// switches.
type fakeAPI struct {
	nextID    int64
	profile   api.Profile
	page      []models.Note
	recycled  []models.Note
	createErr error
	listErr   error
	failAfter int

	createdTexts []string
	listOffsets  []int
	profileCalls int
}

func (f *fakeAPI) CreateNote(ctx context.Context, text string, images []api.Upload) (models.Note, error) {
	if f.createErr != nil {
		return models.Note{}, f.createErr
	}
	if f.failAfter > 0 && len(f.createdTexts) >= f.failAfter {
		return models.Note{}, errors.New("server unavailable")
	}
	f.nextID++
	f.createdTexts = append(f.createdTexts, text)
	return models.Note{ID: f.nextID, Text: text}, nil
}

func (f *fakeAPI) ListNotes(ctx context.Context, offset int) ([]models.Note, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.listOffsets = append(f.listOffsets, offset)
	return f.page, nil
}

func (f *fakeAPI) EditNote(ctx context.Context, id int64, text string, deleteIDs []int64, add []api.Upload) (models.Note, error) {
	return models.Note{ID: id, Text: text}, nil
}

func (f *fakeAPI) DeleteNote(ctx context.Context, id int64) (int64, error) {
	return id, nil
}

func (f *fakeAPI) GetProfile(ctx context.Context) (api.Profile, error) {
	f.profileCalls++
	return f.profile, nil
}

func (f *fakeAPI) ListRecycled(ctx context.Context) ([]models.Note, error) {
	return f.recycled, nil
}

func (f *fakeAPI) RestoreNote(ctx context.Context, id int64) (models.Note, error) {
	return models.Note{ID: id, Text: "restored"}, nil
}

func (f *fakeAPI) Export(ctx context.Context, w io.Writer) error {
	_, err := w.Write([]byte("archive"))
	return err
}

func newService(transport Transport) (*Service, blobstore.Store) {
	store := blobstore.NewMemoryStore(0)
	return New(store, transport, session.New(store), nil), store
}

func TestSaveOfflineStaysLocal(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(nil)

	result, err := svc.Save(ctx, "offline note", nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if result.Promoted != nil {
		t.Fatal("offline save must not promote")
	}
	if len(svc.LocalNotes()) != 1 || svc.LocalNotes()[0].Text != "offline note" {
		t.Fatalf("note not buffered: %+v", svc.LocalNotes())
	}
}

func TestSaveOnlinePromotes(t *testing.T) {
	ctx := context.Background()
	remote := &fakeAPI{profile: api.Profile{ID: 1, TotalItems: 1}}
	svc, _ := newService(remote)

	result, err := svc.Save(ctx, "online note", nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if result.Promoted == nil || result.Promoted.Text != "online note" {
		t.Fatalf("expected promotion, got %+v", result)
	}
	if len(svc.LocalNotes()) != 0 {
		t.Fatal("promoted note still buffered")
	}
	if notes := svc.FeedNotes(); len(notes) != 1 || notes[0].ID != result.Promoted.ID {
		t.Fatalf("feed not updated: %+v", notes)
	}
	if remote.profileCalls == 0 {
		t.Fatal("profile not refreshed after save")
	}
}

func TestSaveKeepsLocalOnPromotionFailure(t *testing.T) {
	ctx := context.Background()
	remote := &fakeAPI{createErr: errors.New("boom")}
	svc, _ := newService(remote)

	result, err := svc.Save(ctx, "sticky", nil)
	if err == nil {
		t.Fatal("expected promotion error")
	}
	if result.Promoted != nil {
		t.Fatal("failed promotion must not report a remote note")
	}
	if len(svc.LocalNotes()) != 1 {
		t.Fatal("local copy lost on failure")
	}
}

func TestSyncAllPromotesOldestFirst(t *testing.T) {
	ctx := context.Background()
	remote := &fakeAPI{}
	svc, _ := newService(remote)

	for _, text := range []string{"first", "second", "third"} {
		if _, err := svc.buffer.CreateLocal(ctx, text, nil); err != nil {
			t.Fatalf("buffer %q: %v", text, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	promoted, err := svc.SyncAll(ctx)
	if err != nil {
		t.Fatalf("sync all: %v", err)
	}
	if len(promoted) != 3 {
		t.Fatalf("expected 3 promotions, got %d", len(promoted))
	}
	want := []string{"first", "second", "third"}
	for i, text := range want {
		if remote.createdTexts[i] != text {
			t.Fatalf("creation order: %v", remote.createdTexts)
		}
	}
	if len(svc.LocalNotes()) != 0 {
		t.Fatal("buffer not drained")
	}
}

func TestSyncAllStopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	remote := &fakeAPI{failAfter: 1}
	svc, _ := newService(remote)

	for _, text := range []string{"first", "second", "third"} {
		_, _ = svc.buffer.CreateLocal(ctx, text, nil)
		time.Sleep(2 * time.Millisecond)
	}

	promoted, err := svc.SyncAll(ctx)
	if err == nil {
		t.Fatal("expected failure")
	}
	if len(promoted) != 1 || promoted[0].Text != "first" {
		t.Fatalf("unexpected promotions: %+v", promoted)
	}
	if len(svc.LocalNotes()) != 2 {
		t.Fatalf("expected 2 locals left, got %d", len(svc.LocalNotes()))
	}
}

func TestLoadMoreGatedByTotalItems(t *testing.T) {
	ctx := context.Background()
	remote := &fakeAPI{
		profile: api.Profile{ID: 1, TotalItems: 2},
		page:    []models.Note{{ID: 10}, {ID: 11}},
	}
	svc, _ := newService(remote)

	grew, err := svc.LoadMore(ctx)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if !grew || len(svc.FeedNotes()) != 2 {
		t.Fatalf("first page not merged: grew=%v feed=%d", grew, len(svc.FeedNotes()))
	}
	if remote.listOffsets[0] != 0 {
		t.Fatalf("first offset: %d", remote.listOffsets[0])
	}

	// Everything is cached; no further request goes out.
	grew, err = svc.LoadMore(ctx)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if grew || len(remote.listOffsets) != 1 {
		t.Fatalf("load past total_items: grew=%v calls=%d", grew, len(remote.listOffsets))
	}
}

func TestLoadMoreStopsOnStaleTotalItems(t *testing.T) {
	ctx := context.Background()
	// The profile promises more notes than the server still has, as when
	// another session deleted notes after the profile was cached.
	remote := &fakeAPI{profile: api.Profile{ID: 1, TotalItems: 5}}
	svc, _ := newService(remote)

	for i := 0; i < 3; i++ {
		grew, err := svc.LoadMore(ctx)
		if err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
		if grew {
			t.Fatalf("load %d reported growth on an empty page", i)
		}
	}
	if len(svc.FeedNotes()) != 0 {
		t.Fatalf("feed grew: %d", len(svc.FeedNotes()))
	}
}

func TestLoadMorePassesFeedOffset(t *testing.T) {
	ctx := context.Background()
	remote := &fakeAPI{
		profile: api.Profile{ID: 1, TotalItems: 4},
		page:    []models.Note{{ID: 10}, {ID: 11}},
	}
	svc, _ := newService(remote)

	if _, err := svc.LoadMore(ctx); err != nil {
		t.Fatalf("first load: %v", err)
	}
	remote.page = []models.Note{{ID: 20}, {ID: 21}}
	if _, err := svc.LoadMore(ctx); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if remote.listOffsets[1] != 2 {
		t.Fatalf("second offset: %d", remote.listOffsets[1])
	}
	if len(svc.FeedNotes()) != 4 {
		t.Fatalf("feed size: %d", len(svc.FeedNotes()))
	}
}

func TestSignedOutOperations(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(nil)

	if _, err := svc.LoadMore(ctx); !errors.Is(err, ErrSignedOut) {
		t.Fatalf("LoadMore: %v", err)
	}
	if _, err := svc.Sync(ctx, 1); !errors.Is(err, ErrSignedOut) {
		t.Fatalf("Sync: %v", err)
	}
	if err := svc.DeleteRemote(ctx, 1); !errors.Is(err, ErrSignedOut) {
		t.Fatalf("DeleteRemote: %v", err)
	}
	if err := svc.Export(ctx, io.Discard); !errors.Is(err, ErrSignedOut) {
		t.Fatalf("Export: %v", err)
	}
}

func TestAuthExpiryClearsSession(t *testing.T) {
	ctx := context.Background()
	remote := &fakeAPI{
		profile: api.Profile{ID: 1, TotalItems: 3},
		listErr: &api.APIError{Status: 401, Message: "Could not validate credentials"},
	}
	store := blobstore.NewMemoryStore(0)
	sess := session.New(store)
	if err := sess.SaveToken(ctx, "opaque-token"); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	svc := New(store, remote, sess, nil)

	if _, err := svc.Profile(ctx); err != nil {
		t.Fatalf("profile: %v", err)
	}
	_, err := svc.LoadMore(ctx)
	if !api.IsAuthExpired(err) {
		t.Fatalf("expected auth expiry, got %v", err)
	}
	if _, ok, _ := sess.Token(ctx); ok {
		t.Fatal("expired session not cleared")
	}
}

func TestEditAndDeleteRemoteMirrorFeed(t *testing.T) {
	ctx := context.Background()
	remote := &fakeAPI{profile: api.Profile{ID: 1, TotalItems: 2}, page: []models.Note{{ID: 10, Text: "old"}, {ID: 11, Text: "keep"}}}
	svc, _ := newService(remote)
	if _, err := svc.LoadMore(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	note, err := svc.EditRemote(ctx, 10, "new", nil, nil)
	if err != nil {
		t.Fatalf("edit remote: %v", err)
	}
	if note.Text != "new" || svc.FeedNotes()[0].Text != "new" {
		t.Fatalf("feed not mirrored: %+v", svc.FeedNotes())
	}

	if err := svc.DeleteRemote(ctx, 10); err != nil {
		t.Fatalf("delete remote: %v", err)
	}
	if notes := svc.FeedNotes(); len(notes) != 1 || notes[0].ID != 11 {
		t.Fatalf("feed after delete: %+v", notes)
	}
}

func TestSnapshotCapturesBothViews(t *testing.T) {
	ctx := context.Background()
	remote := &fakeAPI{profile: api.Profile{ID: 1, TotalItems: 1}, page: []models.Note{{ID: 10, Text: "remote"}}}
	svc, _ := newService(remote)
	if _, err := svc.buffer.CreateLocal(ctx, "local", nil); err != nil {
		t.Fatalf("buffer: %v", err)
	}
	if _, err := svc.LoadMore(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	snap := svc.Snapshot()
	if len(snap.Local) != 1 || snap.Local[0].Text != "local" {
		t.Fatalf("local view: %+v", snap.Local)
	}
	if len(snap.Remote) != 1 || snap.Remote[0].Text != "remote" {
		t.Fatalf("remote view: %+v", snap.Remote)
	}
}

func TestRestoreRehydratesBuffer(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore(0)
	first := New(store, nil, session.New(store), nil)
	if _, err := first.Save(ctx, "persisted", []buffer.File{{Name: "a.png", MediaType: "image/png", Data: []byte("a")}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	second := New(store, nil, session.New(store), nil)
	if err := second.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	locals := second.LocalNotes()
	if len(locals) != 1 || locals[0].Text != "persisted" || len(locals[0].Images) != 1 {
		t.Fatalf("buffer after restore: %+v", locals)
	}
}
