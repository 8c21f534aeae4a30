package api

import (
	"rapidphoto/internal/queue"
	"rapidphoto/internal/transfer"
)

// FromQueueItem converts a queue record to its API representation.
func FromQueueItem(item *queue.Item) UploadItem {
	if item == nil {
		return UploadItem{}
	}

	dto := UploadItem{
		ID:           item.ID,
		Seq:          item.Seq,
		FileName:     item.FileName,
		FileSize:     item.FileSize,
		MimeType:     item.MimeType,
		SourcePath:   item.SourcePath,
		Status:       string(item.Status),
		Progress:     item.Progress,
		UploadID:     item.UploadID,
		StorageKey:   item.StorageKey,
		ETag:         item.ETag,
		PhotoID:      item.PhotoID,
		ErrorMessage: item.ErrorMessage,
		RetryCount:   item.RetryCount,
	}
	if !item.CreatedAt.IsZero() {
		dto.CreatedAt = item.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !item.UpdatedAt.IsZero() {
		dto.UpdatedAt = item.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromQueueItems converts a slice of queue records into API DTOs.
func FromQueueItems(items []*queue.Item) []UploadItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]UploadItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromQueueItem(item))
	}
	return out
}

// FromQueueStats converts store counters to the CLI summary payload.
func FromQueueStats(stats queue.Stats) QueueSummary {
	byStatus := make(map[string]int, len(queue.AllStatuses()))
	for _, status := range queue.AllStatuses() {
		if count := stats.Count(status); count > 0 {
			byStatus[string(status)] = count
		}
	}
	inFlight := stats.Queued + stats.Uploading + stats.Confirming
	return QueueSummary{
		Total:      stats.Total,
		InFlight:   inFlight,
		ByStatus:   byStatus,
		AllSettled: stats.Total > 0 && inFlight == 0 && stats.Paused == 0,
	}
}

// FromPhoto converts a cached photo record into its API representation.
func FromPhoto(photo transfer.Photo) CachedPhoto {
	return CachedPhoto{
		ID:           photo.ID,
		FileName:     photo.FileName,
		Status:       photo.Status,
		ThumbnailURL: photo.ThumbnailURL,
		OriginalURL:  photo.OriginalURL,
		Width:        photo.Width,
		Height:       photo.Height,
		Labels:       photo.Labels,
		CreatedAt:    photo.CreatedAt,
	}
}

// FromPhotos converts a slice of cached photos into API DTOs.
func FromPhotos(photos []transfer.Photo) []CachedPhoto {
	if len(photos) == 0 {
		return nil
	}
	out := make([]CachedPhoto, 0, len(photos))
	for _, photo := range photos {
		out = append(out, FromPhoto(photo))
	}
	return out
}
