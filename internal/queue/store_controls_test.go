package queue_test

import (
	"context"
	"testing"

	"rapidphoto/internal/queue"
	"rapidphoto/internal/testsupport"
)

func TestResetForRetryClearsFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.AddItem(t, store, "beach.jpg", 16)
	if _, err := store.MarkUploading(ctx, item.ID); err != nil {
		t.Fatalf("MarkUploading failed: %v", err)
	}
	if err := store.Requeue(ctx, item.ID, 3); err != nil {
		t.Fatalf("Requeue failed: %v", err)
	}
	if err := store.MarkFailed(ctx, item.ID, "boom"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	if err := store.ResetForRetry(ctx, item.ID); err != nil {
		t.Fatalf("ResetForRetry failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusQueued || fetched.RetryCount != 0 || fetched.ErrorMessage != "" {
		t.Fatalf("unexpected reset state: %#v", fetched)
	}
}

func TestRetryFailedRequeuesOnlyFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	items := testsupport.AddItems(t, store, 3, 16)
	for _, item := range items[:2] {
		if _, err := store.MarkUploading(ctx, item.ID); err != nil {
			t.Fatalf("MarkUploading failed: %v", err)
		}
		if err := store.MarkFailed(ctx, item.ID, "boom"); err != nil {
			t.Fatalf("MarkFailed failed: %v", err)
		}
	}

	count, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 requeued, got %d", count)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Queued != 3 || stats.Failed != 0 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestPauseAndResumeRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	items := testsupport.AddItems(t, store, 3, 16)
	if _, err := store.MarkUploading(ctx, items[0].ID); err != nil {
		t.Fatalf("MarkUploading failed: %v", err)
	}

	paused, err := store.PauseActive(ctx)
	if err != nil {
		t.Fatalf("PauseActive failed: %v", err)
	}
	if paused != 3 {
		t.Fatalf("expected 3 paused, got %d", paused)
	}

	// Pausing again changes nothing.
	paused, err = store.PauseActive(ctx)
	if err != nil {
		t.Fatalf("PauseActive failed: %v", err)
	}
	if paused != 0 {
		t.Fatalf("expected no additional pauses, got %d", paused)
	}

	resumed, err := store.ResumePaused(ctx)
	if err != nil {
		t.Fatalf("ResumePaused failed: %v", err)
	}
	if resumed != 3 {
		t.Fatalf("expected 3 resumed, got %d", resumed)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Queued != 3 || stats.Paused != 0 {
		t.Fatalf("unexpected stats after resume: %#v", stats)
	}
}

func TestPauseLeavesTerminalItemsAlone(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	items := testsupport.AddItems(t, store, 2, 16)
	if _, err := store.MarkUploading(ctx, items[0].ID); err != nil {
		t.Fatalf("MarkUploading failed: %v", err)
	}
	if err := store.MarkFailed(ctx, items[0].ID, "boom"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	paused, err := store.PauseActive(ctx)
	if err != nil {
		t.Fatalf("PauseActive failed: %v", err)
	}
	if paused != 1 {
		t.Fatalf("expected only the queued item paused, got %d", paused)
	}

	fetched, err := store.GetByID(ctx, items[0].ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusFailed {
		t.Fatalf("expected failed item untouched, got %s", fetched.Status)
	}
}
