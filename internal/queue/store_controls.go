package queue

import (
	"context"
	"fmt"
)

// Control operations backing the user-facing queue commands.

// ResetForRetry forces a single item back to queued with a fresh retry
// budget, regardless of its current status.
func (s *Store) ResetForRetry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE upload_items
         SET status = ?, progress = 0, retry_count = 0, error_message = NULL, updated_at = ?
         WHERE id = ?`,
		StatusQueued,
		nowString(),
		id,
	)
	if err != nil {
		return fmt.Errorf("reset for retry: %w", err)
	}
	return noRowsAsNotFound(res)
}

// RetryFailed moves every failed item back to queued with a fresh retry budget.
func (s *Store) RetryFailed(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE upload_items
         SET status = ?, progress = 0, retry_count = 0, error_message = NULL, updated_at = ?
         WHERE status = ?`,
		StatusQueued,
		nowString(),
		StatusFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("retry failed items: %w", err)
	}
	return res.RowsAffected()
}

// PauseActive transitions every queued or uploading item to paused.
// Transfers already in flight are not cancelled; their eventual writes land
// on the paused item and are tolerated.
func (s *Store) PauseActive(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE upload_items SET status = ?, updated_at = ? WHERE status IN (?, ?)`,
		StatusPaused,
		nowString(),
		StatusQueued,
		StatusUploading,
	)
	if err != nil {
		return 0, fmt.Errorf("pause active items: %w", err)
	}
	return res.RowsAffected()
}

// ResumePaused transitions every paused item back to queued.
func (s *Store) ResumePaused(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE upload_items SET status = ?, updated_at = ? WHERE status = ?`,
		StatusQueued,
		nowString(),
		StatusPaused,
	)
	if err != nil {
		return 0, fmt.Errorf("resume paused items: %w", err)
	}
	return res.RowsAffected()
}
