package queue

import (
	"context"
	"fmt"
)

// Transition mutators used by the scheduler. Each statement updates only the
// columns it owns, keyed by id, so transfers running in parallel never lose
// each other's writes. Mutators that enforce a state-machine edge condition
// the UPDATE on the current status and report whether the row changed.

// MarkUploading transitions an item from queued to uploading and zeroes its
// progress. Returns false when the item is missing or not queued, which is
// how duplicate dispatch of a stale snapshot is rejected.
func (s *Store) MarkUploading(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE upload_items
         SET status = ?, progress = 0, error_message = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusUploading,
		nowString(),
		id,
		StatusQueued,
	)
	if err != nil {
		return false, fmt.Errorf("mark uploading: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// RecordInitiate stores the backend-assigned upload slot on the item.
func (s *Store) RecordInitiate(ctx context.Context, id, uploadID, presignedURL, storageKey string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE upload_items
         SET upload_id = ?, presigned_url = ?, storage_key = ?, updated_at = ?
         WHERE id = ?`,
		uploadID,
		presignedURL,
		storageKey,
		nowString(),
		id,
	)
	if err != nil {
		return fmt.Errorf("record initiate: %w", err)
	}
	return noRowsAsNotFound(res)
}

// SetProgress records upload progress. Progress never decreases within an
// attempt: a late-arriving smaller value is ignored by the MAX expression.
func (s *Store) SetProgress(ctx context.Context, id string, progress int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE upload_items
         SET progress = MAX(progress, ?), updated_at = ?
         WHERE id = ? AND status = ?`,
		progress,
		nowString(),
		id,
		StatusUploading,
	)
	if err != nil {
		return fmt.Errorf("set progress: %w", err)
	}
	return noRowsAsNotFound(res)
}

// MarkConfirming records the storage provider's integrity token and moves
// the item to confirming with full progress.
func (s *Store) MarkConfirming(ctx context.Context, id, etag string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE upload_items
         SET status = ?, progress = 100, etag = ?, updated_at = ?
         WHERE id = ?`,
		StatusConfirming,
		etag,
		nowString(),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark confirming: %w", err)
	}
	return noRowsAsNotFound(res)
}

// MarkComplete finalizes a successful upload with its photo record id.
func (s *Store) MarkComplete(ctx context.Context, id, photoID string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE upload_items
         SET status = ?, progress = 100, photo_id = ?, error_message = NULL, updated_at = ?
         WHERE id = ?`,
		StatusComplete,
		photoID,
		nowString(),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark complete: %w", err)
	}
	return noRowsAsNotFound(res)
}

// MarkFailed records a terminal failure with its human-readable message.
func (s *Store) MarkFailed(ctx context.Context, id, message string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE upload_items
         SET status = ?, error_message = ?, updated_at = ?
         WHERE id = ?`,
		StatusFailed,
		message,
		nowString(),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return noRowsAsNotFound(res)
}

// Requeue returns an item to the queued state after a transient failure,
// recording the retry attempt it has consumed.
func (s *Store) Requeue(ctx context.Context, id string, retryCount int) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE upload_items
         SET status = ?, progress = 0, retry_count = ?, updated_at = ?
         WHERE id = ?`,
		StatusQueued,
		retryCount,
		nowString(),
		id,
	)
	if err != nil {
		return fmt.Errorf("requeue: %w", err)
	}
	return noRowsAsNotFound(res)
}

func noRowsAsNotFound(res interface{ RowsAffected() (int64, error) }) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
