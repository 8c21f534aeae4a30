package scheduler

import (
	"context"
	"errors"
	"fmt"

	"rapidphoto/internal/logging"
	"rapidphoto/internal/queue"
)

// FileInput is one file handed to AddFiles, with the content already read
// into memory.
type FileInput struct {
	FileName   string
	MimeType   string
	SourcePath string
	Data       []byte
}

// AddFiles enqueues a batch of files and wakes the dispatcher. The batch is
// capped at the configured maximum; callers should slice before calling, but
// the cap is enforced here as well.
func (m *Manager) AddFiles(ctx context.Context, files []FileInput) ([]*queue.Item, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if limit := m.cfg.Uploads.MaxBatchFiles; limit > 0 && len(files) > limit {
		return nil, fmt.Errorf("batch of %d files exceeds the %d file limit", len(files), limit)
	}

	items := make([]*queue.Item, 0, len(files))
	for _, file := range files {
		if file.FileName == "" {
			return nil, errors.New("file name is required")
		}
		items = append(items, queue.NewItem(file.FileName, int64(len(file.Data)), file.MimeType, file.SourcePath, file.Data))
	}
	if err := m.store.AddItems(ctx, items...); err != nil {
		return nil, fmt.Errorf("failed to enqueue files: %w", err)
	}

	m.markBatchActive()
	if err := m.notifier.NotifyBatchStarted(ctx, len(items)); err != nil {
		m.logger.Debug("batch start notification failed", logging.Error(err))
	}
	m.logger.Info("files enqueued",
		logging.Int("count", len(items)),
		logging.String(logging.FieldEventType, "batch_enqueued"))

	m.Wake()
	return items, nil
}

// RemoveFile deletes an item from the queue. An in-flight transfer for the
// item keeps running; its later status writes find no row and are dropped.
func (m *Manager) RemoveFile(ctx context.Context, id string) (bool, error) {
	removed, err := m.store.Remove(ctx, id)
	if err != nil {
		return false, err
	}
	if removed {
		m.logger.Info("item removed", logging.String(logging.FieldItemID, id))
	}
	return removed, nil
}

// RetryFile resets one item to queued with a fresh attempt counter and wakes
// the dispatcher. It applies regardless of the item's current status.
func (m *Manager) RetryFile(ctx context.Context, id string) error {
	if err := m.store.ResetForRetry(ctx, id); err != nil {
		return err
	}
	m.markBatchActive()
	m.Wake()
	return nil
}

// RetryAll requeues every failed item with a fresh attempt counter.
func (m *Manager) RetryAll(ctx context.Context) (int64, error) {
	count, err := m.store.RetryFailed(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		m.logger.Info("failed items requeued", logging.Int64("count", count))
		m.markBatchActive()
		m.Wake()
	}
	return count, nil
}

// PauseAll stops new dispatches and moves queued items to paused. In-flight
// transfers run to completion. Pausing an already paused scheduler is a
// no-op.
func (m *Manager) PauseAll(ctx context.Context) (int64, error) {
	m.mu.Lock()
	if m.paused {
		m.mu.Unlock()
		return 0, nil
	}
	m.paused = true
	m.mu.Unlock()

	count, err := m.store.PauseActive(ctx)
	if err != nil {
		return 0, err
	}
	m.logger.Info("queue paused",
		logging.Int64("count", count),
		logging.String(logging.FieldEventType, "queue_paused"))
	return count, nil
}

// ResumeAll moves paused items back to queued and restarts dispatching.
// Resuming a scheduler that is not paused is a no-op.
func (m *Manager) ResumeAll(ctx context.Context) (int64, error) {
	m.mu.Lock()
	if !m.paused {
		m.mu.Unlock()
		return 0, nil
	}
	m.paused = false
	m.mu.Unlock()

	count, err := m.store.ResumePaused(ctx)
	if err != nil {
		return 0, err
	}
	m.logger.Info("queue resumed",
		logging.Int64("count", count),
		logging.String(logging.FieldEventType, "queue_resumed"))
	if count > 0 {
		m.markBatchActive()
	}
	m.Wake()
	return count, nil
}

// ClearCompleted removes items that finished successfully.
func (m *Manager) ClearCompleted(ctx context.Context) (int64, error) {
	return m.store.ClearCompleted(ctx)
}

// ClearAll empties the queue. In-flight transfers keep running but their
// status writes find no rows.
func (m *Manager) ClearAll(ctx context.Context) (int64, error) {
	return m.store.ClearAll(ctx)
}

// Stats reports per-status queue counts.
func (m *Manager) Stats(ctx context.Context) (queue.Stats, error) {
	return m.store.Stats(ctx)
}

// List returns queue items filtered by status, in enqueue order.
func (m *Manager) List(ctx context.Context, statuses ...queue.Status) ([]*queue.Item, error) {
	return m.store.List(ctx, statuses...)
}
