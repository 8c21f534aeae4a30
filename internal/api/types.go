package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// UploadItem describes a queue entry in a transport-friendly format. File
// content is never part of the payload.
type UploadItem struct {
	ID           string `json:"id"`
	Seq          int64  `json:"seq"`
	FileName     string `json:"fileName"`
	FileSize     int64  `json:"fileSize"`
	MimeType     string `json:"mimeType,omitempty"`
	SourcePath   string `json:"sourcePath,omitempty"`
	Status       string `json:"status"`
	Progress     int    `json:"progress"`
	UploadID     string `json:"uploadId,omitempty"`
	StorageKey   string `json:"storageKey,omitempty"`
	ETag         string `json:"etag,omitempty"`
	PhotoID      string `json:"photoId,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	RetryCount   int    `json:"retryCount"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

// QueueSummary captures per-status counts plus the derived totals the CLI
// renders.
type QueueSummary struct {
	Total      int            `json:"total"`
	InFlight   int            `json:"inFlight"`
	ByStatus   map[string]int `json:"byStatus"`
	AllSettled bool           `json:"allSettled"`
}

// CachedPhoto describes a photo record held in the local cache.
type CachedPhoto struct {
	ID           string   `json:"id"`
	FileName     string   `json:"fileName"`
	Status       string   `json:"status"`
	ThumbnailURL string   `json:"thumbnailUrl,omitempty"`
	OriginalURL  string   `json:"originalUrl,omitempty"`
	Width        int      `json:"width,omitempty"`
	Height       int      `json:"height,omitempty"`
	Labels       []string `json:"labels,omitempty"`
	CreatedAt    string   `json:"createdAt,omitempty"`
}
