package testsupport

import (
	"context"
	"fmt"
	"testing"

	"rapidphoto/internal/config"
	"rapidphoto/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// AddItem enqueues one item with synthetic content for tests.
func AddItem(t testing.TB, store *queue.Store, fileName string, size int) *queue.Item {
	t.Helper()

	item := queue.NewItem(fileName, int64(size), "image/jpeg", "", Bytes(size))
	if err := store.AddItems(context.Background(), item); err != nil {
		t.Fatalf("store.AddItems: %v", err)
	}
	return item
}

// AddItems enqueues count items named photo-0.jpg onward, each size bytes.
func AddItems(t testing.TB, store *queue.Store, count, size int) []*queue.Item {
	t.Helper()

	items := make([]*queue.Item, 0, count)
	for i := 0; i < count; i++ {
		items = append(items, queue.NewItem(fmt.Sprintf("photo-%d.jpg", i), int64(size), "image/jpeg", "", Bytes(size)))
	}
	if err := store.AddItems(context.Background(), items...); err != nil {
		t.Fatalf("store.AddItems: %v", err)
	}
	return items
}
