package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rapidphoto/internal/config"
)

// HTTPDoer describes the HTTP client used by the transfer service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type httpClient struct {
	baseURL   string
	authToken string
	client    HTTPDoer
}

// NewHTTPClient builds a Client from application config.
func NewHTTPClient(cfg *config.Config) Client {
	timeout := time.Duration(cfg.API.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return NewHTTPClientWithDoer(cfg.API.BaseURL, cfg.API.AuthToken, &http.Client{Timeout: timeout})
}

// NewHTTPClientWithDoer builds a Client with a custom HTTP doer (used in tests).
func NewHTTPClientWithDoer(baseURL, authToken string, doer HTTPDoer) Client {
	return &httpClient{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		authToken: strings.TrimSpace(authToken),
		client:    doer,
	}
}

type initiateRequest struct {
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	MimeType string `json:"mimeType"`
}

func (c *httpClient) Initiate(ctx context.Context, fileName string, fileSize int64, mimeType string) (InitiateResponse, error) {
	body, err := json.Marshal(initiateRequest{FileName: fileName, FileSize: fileSize, MimeType: mimeType})
	if err != nil {
		return InitiateResponse{}, &Error{Step: StepInitiate, Message: "encode request", Err: err}
	}

	var out InitiateResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/uploads/initiate", body, &out); err != nil {
		return InitiateResponse{}, wrapStep(StepInitiate, err)
	}
	if out.UploadID == "" || out.PresignedURL == "" {
		return InitiateResponse{}, &Error{Step: StepInitiate, Message: "backend returned an incomplete upload slot"}
	}
	return out, nil
}

func (c *httpClient) UploadRaw(ctx context.Context, presignedURL string, content []byte, mimeType string, onProgress ProgressFunc) (string, error) {
	total := int64(len(content))
	reader := newProgressReader(bytes.NewReader(content), total, onProgress)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, presignedURL, reader)
	if err != nil {
		return "", &Error{Step: StepUpload, Message: "build storage request", Err: err}
	}
	req.ContentLength = total
	if mimeType != "" {
		req.Header.Set("Content-Type", mimeType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &Error{Step: StepUpload, Message: "storage upload failed", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &Error{Step: StepUpload, Message: fmt.Sprintf("storage provider returned %s", resp.Status)}
	}

	etag := strings.Trim(resp.Header.Get("ETag"), `"`)
	if etag == "" {
		return "", &Error{Step: StepUpload, Message: "storage provider returned no integrity token"}
	}
	return etag, nil
}

func (c *httpClient) Confirm(ctx context.Context, uploadID, etag string) (ConfirmResponse, error) {
	body, err := json.Marshal(map[string]string{"etag": etag})
	if err != nil {
		return ConfirmResponse{}, &Error{Step: StepConfirm, Message: "encode request", Err: err}
	}

	var out ConfirmResponse
	path := fmt.Sprintf("/api/v1/uploads/%s/confirm", uploadID)
	if err := c.doJSON(ctx, http.MethodPost, path, body, &out); err != nil {
		return ConfirmResponse{}, wrapStep(StepConfirm, err)
	}
	if out.PhotoID == "" {
		return ConfirmResponse{}, &Error{Step: StepConfirm, Message: "backend confirmed without a photo id"}
	}
	return out, nil
}

func (c *httpClient) GetPhoto(ctx context.Context, photoID string) (Photo, error) {
	var out Photo
	path := fmt.Sprintf("/api/v1/photos/%s", photoID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return Photo{}, wrapStep(StepPhoto, err)
	}
	return out, nil
}

func (c *httpClient) doJSON(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s returned %s: %s", method, path, resp.Status, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func wrapStep(step Step, err error) error {
	var terr *Error
	if errors.As(err, &terr) {
		return err
	}
	return &Error{Step: step, Message: err.Error(), Err: err}
}
