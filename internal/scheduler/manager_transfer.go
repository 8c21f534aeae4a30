package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rapidphoto/internal/logging"
	"rapidphoto/internal/queue"
)

// runTransfer drives one item through initiate, upload, and confirm. Errors
// never escape; failures either requeue the item or mark it failed.
func (m *Manager) runTransfer(ctx context.Context, item *queue.Item) {
	logger := m.logger.With(
		logging.String(logging.FieldItemID, item.ID),
		logging.String(logging.FieldFileName, item.FileName))

	err := m.transferOnce(ctx, logger, item)
	if err == nil {
		m.checkBatchCompletion(ctx)
		return
	}
	if ctx.Err() != nil {
		// Shutdown interrupted the attempt; the row is dropped on the
		// next open, so leave it as is.
		return
	}

	logger.Warn("upload attempt failed",
		logging.Error(err),
		logging.Int("retry_count", item.RetryCount),
		logging.String(logging.FieldEventType, "upload_attempt_failed"))

	if item.RetryCount < m.maxRetries {
		m.scheduleRetry(ctx, logger, item)
		return
	}

	if markErr := m.store.MarkFailed(ctx, item.ID, err.Error()); markErr != nil && !errors.Is(markErr, queue.ErrNotFound) {
		logger.Error("failed to record terminal failure", logging.Error(markErr))
	}
	if notifyErr := m.notifier.NotifyUploadFailed(ctx, item.FileName, err.Error()); notifyErr != nil {
		logger.Debug("upload failure notification failed", logging.Error(notifyErr))
	}
	m.checkBatchCompletion(ctx)
}

// scheduleRetry waits out the backoff in the background, then returns the
// item to the queue with an incremented attempt counter. The concurrency
// slot frees immediately; the item stays out of the queue until the requeue
// write lands, so it cannot be dispatched twice.
func (m *Manager) scheduleRetry(ctx context.Context, logger *slog.Logger, item *queue.Item) {
	delay := m.backoffDelay(item.RetryCount)
	logger.Info("retrying upload",
		logging.Int("retry_count", item.RetryCount+1),
		logging.Int("max_retries", m.maxRetries),
		logging.Duration("backoff", delay),
		logging.String(logging.FieldEventType, "upload_retry_scheduled"))

	m.transferWG.Add(1)
	go func() {
		defer m.transferWG.Done()

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		if err := m.requeueWithRetry(ctx, item.ID, item.RetryCount+1); err != nil {
			if errors.Is(err, queue.ErrNotFound) {
				// Removed while waiting; nothing to requeue.
				return
			}
			// The row must not be stranded in uploading with no transfer
			// attached, so a requeue write that keeps failing ends the
			// item instead.
			logger.Error("failed to requeue item", logging.Error(err))
			if markErr := m.store.MarkFailed(ctx, item.ID, "requeue failed: "+err.Error()); markErr != nil && !errors.Is(markErr, queue.ErrNotFound) {
				logger.Error("failed to record terminal failure", logging.Error(markErr))
			}
			m.checkBatchCompletion(ctx)
			return
		}
		m.Wake()
	}()
}

// requeueWithRetry retries the requeue write a few times before giving up;
// transient database contention must not strand the item.
func (m *Manager) requeueWithRetry(ctx context.Context, id string, retryCount int) error {
	var err error
	for attempt := 0; attempt < requeueWriteAttempts; attempt++ {
		if err = m.store.Requeue(ctx, id, retryCount); err == nil || errors.Is(err, queue.ErrNotFound) {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(errorRetryInterval):
		}
	}
	return err
}

func (m *Manager) transferOnce(ctx context.Context, logger *slog.Logger, item *queue.Item) error {
	logger.Info("starting upload",
		logging.Int64("file_size", item.FileSize),
		logging.Int("retry_count", item.RetryCount),
		logging.String(logging.FieldStep, "initiate"))

	init, err := m.client.Initiate(ctx, item.FileName, item.FileSize, item.MimeType)
	if err != nil {
		return err
	}
	if err := m.store.RecordInitiate(ctx, item.ID, init.UploadID, init.PresignedURL, init.StorageKey); err != nil {
		if errors.Is(err, queue.ErrNotFound) {
			return nil
		}
		return err
	}

	etag, err := m.client.UploadRaw(ctx, init.PresignedURL, item.Data, item.MimeType, func(loaded, total int64) {
		if total <= 0 {
			return
		}
		progress := int(loaded * 100 / total)
		if err := m.store.SetProgress(ctx, item.ID, progress); err != nil && !errors.Is(err, queue.ErrNotFound) {
			logger.Debug("failed to record progress", logging.Error(err))
		}
	})
	if err != nil {
		return err
	}

	if err := m.store.MarkConfirming(ctx, item.ID, etag); err != nil {
		if errors.Is(err, queue.ErrNotFound) {
			return nil
		}
		return err
	}

	confirm, err := m.client.Confirm(ctx, init.UploadID, etag)
	if err != nil {
		return err
	}
	if err := m.store.MarkComplete(ctx, item.ID, confirm.PhotoID); err != nil && !errors.Is(err, queue.ErrNotFound) {
		return err
	}

	logger.Info("upload complete",
		logging.String("photo_id", confirm.PhotoID),
		logging.String(logging.FieldEventType, "upload_complete"))

	m.cachePhoto(ctx, logger, confirm.PhotoID)
	return nil
}

// cachePhoto fetches the created photo record for the local cache. Failures
// are logged and ignored; the upload already succeeded.
func (m *Manager) cachePhoto(ctx context.Context, logger *slog.Logger, photoID string) {
	if m.cache == nil || photoID == "" {
		return
	}
	photo, err := m.client.GetPhoto(ctx, photoID)
	if err != nil {
		logger.Warn("failed to fetch photo record for cache",
			logging.String("photo_id", photoID),
			logging.Error(err))
		return
	}
	if err := m.cache.Add(photo); err != nil {
		logger.Warn("failed to cache photo record",
			logging.String("photo_id", photoID),
			logging.Error(err))
	}
}
