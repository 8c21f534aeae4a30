// Package notifications sends ntfy push notifications for upload lifecycle
// events. When no topic is configured a no-op implementation is returned, so
// callers never need to guard their notify calls.
package notifications
