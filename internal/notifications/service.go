package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rapidphoto/internal/config"
)

const userAgent = "RapidPhoto/0.1.0"

// Service defines the notification surface exposed to the scheduler and daemon.
type Service interface {
	NotifyBatchStarted(ctx context.Context, count int) error
	NotifyBatchCompleted(ctx context.Context, complete, failed int, duration time.Duration) error
	NotifyUploadFailed(ctx context.Context, fileName, reason string) error
	NotifyInterruptedDiscarded(ctx context.Context, count int64) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		uploadsWanted: cfg.Notifications.Uploads,
		errorsWanted:  cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	uploadsWanted bool
	errorsWanted  bool
}

func (n *ntfyService) NotifyBatchStarted(ctx context.Context, count int) error {
	if !n.uploadsWanted {
		return nil
	}
	noun := "photos"
	if count == 1 {
		noun = "photo"
	}
	data := payload{
		title:   "RapidPhoto - Batch Started",
		message: fmt.Sprintf("Uploading %d %s", count, noun),
		tags:    []string{"rapidphoto", "batch", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, complete, failed int, duration time.Duration) error {
	if !n.uploadsWanted {
		return nil
	}
	message := fmt.Sprintf("Batch finished: %d uploaded, %d failed in %s", complete, failed, duration.Round(time.Second))
	data := payload{
		title:   "RapidPhoto - Batch Completed",
		message: message,
		tags:    []string{"rapidphoto", "batch", "completed"},
	}
	if failed > 0 {
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyUploadFailed(ctx context.Context, fileName, reason string) error {
	if !n.errorsWanted {
		return nil
	}
	data := payload{
		title:    "RapidPhoto - Upload Failed",
		message:  fmt.Sprintf("%s: %s", strings.TrimSpace(fileName), strings.TrimSpace(reason)),
		tags:     []string{"rapidphoto", "upload", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyInterruptedDiscarded(ctx context.Context, count int64) error {
	if !n.errorsWanted || count == 0 {
		return nil
	}
	noun := "uploads"
	if count == 1 {
		noun = "upload"
	}
	data := payload{
		title:   "RapidPhoto - Interrupted Uploads",
		message: fmt.Sprintf("%d interrupted %s discarded on restart; re-add the files to upload them", count, noun),
		tags:    []string{"rapidphoto", "queue", "interrupted"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:   "RapidPhoto - Test",
		message: "Notifications are working",
		tags:    []string{"rapidphoto", "test"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyBatchStarted(context.Context, int) error                       { return nil }
func (noopService) NotifyBatchCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyUploadFailed(context.Context, string, string) error            { return nil }
func (noopService) NotifyInterruptedDiscarded(context.Context, int64) error             { return nil }
func (noopService) TestNotification(context.Context) error {
	return fmt.Errorf("notifications are not configured (set notifications.ntfy_topic)")
}
