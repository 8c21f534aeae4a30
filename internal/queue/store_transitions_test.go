package queue_test

import (
	"context"
	"errors"
	"testing"

	"rapidphoto/internal/queue"
	"rapidphoto/internal/testsupport"
)

func TestMarkUploadingOnlyFromQueued(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.AddItem(t, store, "beach.jpg", 16)

	started, err := store.MarkUploading(ctx, item.ID)
	if err != nil {
		t.Fatalf("MarkUploading failed: %v", err)
	}
	if !started {
		t.Fatal("expected queued item to start")
	}

	// A second claim of the same item must be rejected.
	started, err = store.MarkUploading(ctx, item.ID)
	if err != nil {
		t.Fatalf("MarkUploading failed: %v", err)
	}
	if started {
		t.Fatal("expected non-queued item to be rejected")
	}

	started, err = store.MarkUploading(ctx, "missing")
	if err != nil {
		t.Fatalf("MarkUploading failed: %v", err)
	}
	if started {
		t.Fatal("expected missing item to be rejected")
	}
}

func TestRecordInitiatePersistsSlot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.AddItem(t, store, "beach.jpg", 16)

	if err := store.RecordInitiate(ctx, item.ID, "upload-1", "https://storage.example/put", "photos/raw/1"); err != nil {
		t.Fatalf("RecordInitiate failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.UploadID != "upload-1" || fetched.PresignedURL != "https://storage.example/put" || fetched.StorageKey != "photos/raw/1" {
		t.Fatalf("unexpected slot data: %#v", fetched)
	}
}

func TestSetProgressIsMonotonic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.AddItem(t, store, "beach.jpg", 16)
	if _, err := store.MarkUploading(ctx, item.ID); err != nil {
		t.Fatalf("MarkUploading failed: %v", err)
	}

	for _, progress := range []int{10, 60, 30, 200, 55} {
		if err := store.SetProgress(ctx, item.ID, progress); err != nil {
			t.Fatalf("SetProgress(%d) failed: %v", progress, err)
		}
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Progress != 100 {
		t.Fatalf("expected progress 100 after clamp, got %d", fetched.Progress)
	}
}

func TestSetProgressNeverDecreases(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.AddItem(t, store, "beach.jpg", 16)
	if _, err := store.MarkUploading(ctx, item.ID); err != nil {
		t.Fatalf("MarkUploading failed: %v", err)
	}
	if err := store.SetProgress(ctx, item.ID, 70); err != nil {
		t.Fatalf("SetProgress failed: %v", err)
	}
	if err := store.SetProgress(ctx, item.ID, 40); err != nil {
		t.Fatalf("SetProgress failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Progress != 70 {
		t.Fatalf("expected progress to hold at 70, got %d", fetched.Progress)
	}
}

func TestConfirmAndCompleteFlow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.AddItem(t, store, "beach.jpg", 16)
	if _, err := store.MarkUploading(ctx, item.ID); err != nil {
		t.Fatalf("MarkUploading failed: %v", err)
	}
	if err := store.MarkConfirming(ctx, item.ID, "abc123"); err != nil {
		t.Fatalf("MarkConfirming failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusConfirming || fetched.Progress != 100 || fetched.ETag != "abc123" {
		t.Fatalf("unexpected confirming state: %#v", fetched)
	}

	if err := store.MarkComplete(ctx, item.ID, "photo-7"); err != nil {
		t.Fatalf("MarkComplete failed: %v", err)
	}
	fetched, err = store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusComplete || fetched.PhotoID != "photo-7" {
		t.Fatalf("unexpected complete state: %#v", fetched)
	}
}

func TestRequeueRecordsAttempt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.AddItem(t, store, "beach.jpg", 16)
	if _, err := store.MarkUploading(ctx, item.ID); err != nil {
		t.Fatalf("MarkUploading failed: %v", err)
	}
	if err := store.SetProgress(ctx, item.ID, 50); err != nil {
		t.Fatalf("SetProgress failed: %v", err)
	}
	if err := store.Requeue(ctx, item.ID, 2); err != nil {
		t.Fatalf("Requeue failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusQueued || fetched.RetryCount != 2 || fetched.Progress != 0 {
		t.Fatalf("unexpected requeued state: %#v", fetched)
	}
}

func TestWritesToRemovedItemReportNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.AddItem(t, store, "beach.jpg", 16)
	if _, err := store.Remove(ctx, item.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	checks := map[string]error{
		"RecordInitiate": store.RecordInitiate(ctx, item.ID, "u", "p", "k"),
		"SetProgress":    store.SetProgress(ctx, item.ID, 10),
		"MarkConfirming": store.MarkConfirming(ctx, item.ID, "etag"),
		"MarkComplete":   store.MarkComplete(ctx, item.ID, "photo"),
		"MarkFailed":     store.MarkFailed(ctx, item.ID, "msg"),
		"Requeue":        store.Requeue(ctx, item.ID, 1),
	}
	for name, err := range checks {
		if !errors.Is(err, queue.ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", name, err)
		}
	}
}
