package api

import (
	"context"
	"errors"

	"rapidphoto/internal/queue"
)

// QueueReader abstracts queue persistence interactions needed for API queries.
type QueueReader interface {
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Item, error)
	Stats(ctx context.Context) (queue.Stats, error)
	GetByID(ctx context.Context, id string) (*queue.Item, error)
}

// QueueService exposes read-only queue operations returning API DTOs.
type QueueService struct {
	store QueueReader
}

// NewQueueService constructs a QueueService around the provided reader.
func NewQueueService(store QueueReader) *QueueService {
	if store == nil {
		return nil
	}
	return &QueueService{store: store}
}

// List returns queue items filtered by status, in enqueue order.
func (s *QueueService) List(ctx context.Context, statuses ...queue.Status) ([]UploadItem, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	items, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromQueueItems(items), nil
}

// Summary returns queue counts in the CLI payload shape.
func (s *QueueService) Summary(ctx context.Context) (QueueSummary, error) {
	if s == nil || s.store == nil {
		return QueueSummary{}, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return QueueSummary{}, err
	}
	return FromQueueStats(stats), nil
}

// Describe fetches a single queue item.
func (s *QueueService) Describe(ctx context.Context, id string) (*UploadItem, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, queue.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	dto := FromQueueItem(item)
	return &dto, nil
}
