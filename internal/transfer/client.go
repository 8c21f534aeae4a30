package transfer

import (
	"context"
	"fmt"
	"time"
)

// Step identifies which remote operation produced an error.
type Step string

const (
	StepInitiate Step = "initiate"
	StepUpload   Step = "upload"
	StepConfirm  Step = "confirm"
	StepPhoto    Step = "photo"
)

// Error is a transfer failure with a message suitable for queue items.
type Error struct {
	Step    Step
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Step, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Step, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// InitiateResponse is the backend's reservation of an upload slot.
type InitiateResponse struct {
	UploadID     string    `json:"uploadId"`
	PresignedURL string    `json:"presignedUrl"`
	StorageKey   string    `json:"storageKey"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// ConfirmResponse is the backend's acknowledgement of a finished transfer.
type ConfirmResponse struct {
	PhotoID string `json:"photoId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Photo is the backend's photo record, as consumed by the local cache.
type Photo struct {
	ID           string   `json:"id"`
	FileName     string   `json:"fileName"`
	Status       string   `json:"status"`
	ThumbnailURL string   `json:"thumbnailUrl"`
	OriginalURL  string   `json:"originalUrl"`
	Width        int      `json:"width"`
	Height       int      `json:"height"`
	Labels       []string `json:"labels"`
	CreatedAt    string   `json:"createdAt"`
	TakenAt      string   `json:"takenAt"`
}

// ProgressFunc receives byte counts during a raw upload. It may be invoked
// zero or more times; loaded never exceeds total.
type ProgressFunc func(loaded, total int64)

// Client performs the remote operations of one upload attempt.
type Client interface {
	// Initiate asks the backend to reserve an upload slot and produce a
	// time-limited direct-upload URL.
	Initiate(ctx context.Context, fileName string, fileSize int64, mimeType string) (InitiateResponse, error)
	// UploadRaw streams the file content to the presigned URL, reporting
	// progress, and returns the storage provider's integrity token. A
	// missing token is a hard failure.
	UploadRaw(ctx context.Context, presignedURL string, content []byte, mimeType string, onProgress ProgressFunc) (string, error)
	// Confirm tells the backend the raw transfer is complete.
	Confirm(ctx context.Context, uploadID, etag string) (ConfirmResponse, error)
	// GetPhoto fetches the photo record created by a confirmed upload.
	GetPhoto(ctx context.Context, photoID string) (Photo, error)
}
