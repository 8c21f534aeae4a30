package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an upload item.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusUploading  Status = "uploading"
	StatusConfirming Status = "confirming"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
	StatusPaused     Status = "paused"
)

var allStatuses = []Status{
	StatusQueued,
	StatusUploading,
	StatusConfirming,
	StatusComplete,
	StatusFailed,
	StatusPaused,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var inFlightStatuses = map[Status]struct{}{
	StatusUploading:  {},
	StatusConfirming: {},
}

var terminalStatuses = map[Status]struct{}{
	StatusComplete: {},
	StatusFailed:   {},
}

// Item represents one file's journey through the upload pipeline.
//
// Data holds the raw file content and exists only in memory; after a reload
// it is absent and the item cannot be transferred again. The remaining file
// metadata is captured at enqueue time so it survives independently.
type Item struct {
	ID         string
	Seq        int64
	FileName   string
	FileSize   int64
	MimeType   string
	SourcePath string
	Data       []byte

	Status       Status
	Progress     int
	UploadID     string
	PresignedURL string
	StorageKey   string
	ETag         string
	PhotoID      string
	ErrorMessage string
	RetryCount   int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsInFlight reports whether the status reflects an active transfer attempt.
func IsInFlight(status Status) bool {
	_, ok := inFlightStatuses[status]
	return ok
}

// IsTerminal reports whether no further automatic transitions occur for a status.
func IsTerminal(status Status) bool {
	_, ok := terminalStatuses[status]
	return ok
}

// IsInFlight returns true when the item is undergoing an active transfer attempt.
func (i Item) IsInFlight() bool {
	return IsInFlight(i.Status)
}

// IsTerminal returns true when the item has reached a terminal state.
func (i Item) IsTerminal() bool {
	return IsTerminal(i.Status)
}

// HasData reports whether the raw file content is still available.
func (i Item) HasData() bool {
	return len(i.Data) > 0
}

// Stats aggregates item counts per status plus the queue total.
type Stats struct {
	Total      int
	Queued     int
	Uploading  int
	Confirming int
	Complete   int
	Failed     int
	Paused     int
}

// Count returns the stat bucket for a status.
func (s Stats) Count(status Status) int {
	switch status {
	case StatusQueued:
		return s.Queued
	case StatusUploading:
		return s.Uploading
	case StatusConfirming:
		return s.Confirming
	case StatusComplete:
		return s.Complete
	case StatusFailed:
		return s.Failed
	case StatusPaused:
		return s.Paused
	default:
		return 0
	}
}
