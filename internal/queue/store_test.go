package queue_test

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"rapidphoto/internal/queue"
	"rapidphoto/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.AddItem(t, store, "beach.jpg", 64)
	if item.ID == "" {
		t.Fatal("expected item ID to be assigned")
	}
	if item.Seq == 0 {
		t.Fatal("expected sequence number to be assigned")
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.FileName != "beach.jpg" || fetched.Status != queue.StatusQueued {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}
	if !bytes.Equal(fetched.Data, testsupport.Bytes(64)) {
		t.Fatal("expected file content to round-trip through the registry")
	}
}

func TestGetByIDNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	_, err := store.GetByID(context.Background(), "missing")
	if err != queue.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPreservesEnqueueOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	added := testsupport.AddItems(t, store, 5, 8)

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != len(added) {
		t.Fatalf("expected %d items, got %d", len(added), len(items))
	}
	for i, item := range items {
		if item.ID != added[i].ID {
			t.Fatalf("item %d out of order: got %s want %s", i, item.ID, added[i].ID)
		}
	}
}

func TestListFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	items := testsupport.AddItems(t, store, 3, 8)
	if _, err := store.MarkUploading(ctx, items[1].ID); err != nil {
		t.Fatalf("MarkUploading failed: %v", err)
	}

	uploading, err := store.List(ctx, queue.StatusUploading)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(uploading) != 1 || uploading[0].ID != items[1].ID {
		t.Fatalf("unexpected filtered result: %#v", uploading)
	}
}

func TestNextQueuedSkipsExcluded(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	items := testsupport.AddItems(t, store, 3, 8)

	next, err := store.NextQueued(ctx, nil)
	if err != nil {
		t.Fatalf("NextQueued failed: %v", err)
	}
	if next == nil || next.ID != items[0].ID {
		t.Fatalf("expected first item, got %#v", next)
	}

	exclude := map[string]struct{}{items[0].ID: {}, items[1].ID: {}}
	next, err = store.NextQueued(ctx, exclude)
	if err != nil {
		t.Fatalf("NextQueued failed: %v", err)
	}
	if next == nil || next.ID != items[2].ID {
		t.Fatalf("expected third item, got %#v", next)
	}

	exclude[items[2].ID] = struct{}{}
	next, err = store.NextQueued(ctx, exclude)
	if err != nil {
		t.Fatalf("NextQueued failed: %v", err)
	}
	if next != nil {
		t.Fatalf("expected no eligible item, got %#v", next)
	}
}

func TestStatsCountsByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	items := testsupport.AddItems(t, store, 4, 8)
	if _, err := store.MarkUploading(ctx, items[0].ID); err != nil {
		t.Fatalf("MarkUploading failed: %v", err)
	}
	if _, err := store.MarkUploading(ctx, items[1].ID); err != nil {
		t.Fatalf("MarkUploading failed: %v", err)
	}
	if err := store.MarkFailed(ctx, items[1].ID, "boom"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 4 || stats.Queued != 2 || stats.Uploading != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestRemoveDropsContent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.AddItem(t, store, "beach.jpg", 32)

	removed, err := store.Remove(ctx, item.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !removed {
		t.Fatal("expected item to be removed")
	}
	if _, err := store.GetByID(ctx, item.ID); err != queue.ErrNotFound {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}

	removed, err = store.Remove(ctx, item.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if removed {
		t.Fatal("expected second remove to report not found")
	}
}

func TestClearCompletedKeepsActiveItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	items := testsupport.AddItems(t, store, 3, 8)
	if _, err := store.MarkUploading(ctx, items[0].ID); err != nil {
		t.Fatalf("MarkUploading failed: %v", err)
	}
	if err := store.MarkConfirming(ctx, items[0].ID, "etag-1"); err != nil {
		t.Fatalf("MarkConfirming failed: %v", err)
	}
	if err := store.MarkComplete(ctx, items[0].ID, "photo-1"); err != nil {
		t.Fatalf("MarkComplete failed: %v", err)
	}

	removed, err := store.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 2 || stats.Queued != 2 {
		t.Fatalf("unexpected stats after clear: %#v", stats)
	}
}

func TestClearAllEmptiesQueue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.AddItems(t, store, 3, 8)

	removed, err := store.ClearAll(ctx)
	if err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 0 {
		t.Fatalf("expected empty queue, got %#v", stats)
	}
}

func TestOpenDiscardsInterruptedItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	items := testsupport.AddItems(t, store, 4, 8)
	if _, err := store.MarkUploading(ctx, items[0].ID); err != nil {
		t.Fatalf("MarkUploading failed: %v", err)
	}
	if err := store.MarkConfirming(ctx, items[0].ID, "etag-1"); err != nil {
		t.Fatalf("MarkConfirming failed: %v", err)
	}
	if err := store.MarkComplete(ctx, items[0].ID, "photo-1"); err != nil {
		t.Fatalf("MarkComplete failed: %v", err)
	}
	if _, err := store.MarkUploading(ctx, items[1].ID); err != nil {
		t.Fatalf("MarkUploading failed: %v", err)
	}
	if err := store.MarkFailed(ctx, items[1].ID, "boom"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	if reopened.DiscardedOnOpen() != 2 {
		t.Fatalf("expected 2 discarded items, got %d", reopened.DiscardedOnOpen())
	}

	remaining, err := reopened.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected 2 surviving items, got %d", len(remaining))
	}
	for _, item := range remaining {
		if !item.IsTerminal() {
			t.Fatalf("non-terminal item survived reopen: %#v", item)
		}
		if item.HasData() {
			t.Fatalf("expected no in-memory content after reopen for %s", item.ID)
		}
	}
}

// Transfer goroutines write transitions for different items at the same
// time; none of those writes may fail on database contention.
func TestConcurrentTransitionsDoNotContend(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	items := testsupport.AddItems(t, store, 30, 64)

	errCh := make(chan error, len(items))
	var wg sync.WaitGroup
	for _, item := range items {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			started, err := store.MarkUploading(ctx, id)
			if err != nil || !started {
				errCh <- fmt.Errorf("mark uploading %s: started=%v err=%v", id, started, err)
				return
			}
			for progress := 10; progress <= 100; progress += 10 {
				if err := store.SetProgress(ctx, id, progress); err != nil {
					errCh <- fmt.Errorf("set progress %s: %w", id, err)
					return
				}
			}
			if err := store.MarkConfirming(ctx, id, "etag-"+id); err != nil {
				errCh <- fmt.Errorf("mark confirming %s: %w", id, err)
				return
			}
			if err := store.MarkComplete(ctx, id, "photo-"+id); err != nil {
				errCh <- fmt.Errorf("mark complete %s: %w", id, err)
			}
		}(item.ID)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Errorf("concurrent write failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Complete != len(items) {
		t.Fatalf("expected %d complete items, got %+v", len(items), stats)
	}
}
