package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/storyreel/api/internal/config"
	"github.com/storyreel/api/internal/model"
)

// RenderBackend defines the operations forwarded to the external render
// service.
type RenderBackend interface {
	JobStatus(ctx context.Context, jobID string) (*model.RenderJob, error)
	GenerateVoiceover(ctx context.Context, req *GenerateVoiceoverRequest) (*GenerateVoiceoverResponse, error)
	ListBackgroundImages(ctx context.Context) (json.RawMessage, error)
	FetchBackgroundImage(ctx context.Context, filename string) (*BinaryResult, error)
	DownloadAudio(ctx context.Context, filename string) (*BinaryResult, error)
}

// BackendError represents an unreachable or failing render backend: any
// transport error, timeout, or non-2xx response. StatusCode is 0 when the
// request never produced a response.
type BackendError struct {
	StatusCode int
	Detail     string
	Body       []byte
	Err        error
}

func (e *BackendError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Err != nil {
		return fmt.Sprintf("render backend unavailable: %v", e.Err)
	}
	return fmt.Sprintf("render backend error (status %d)", e.StatusCode)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// RenderClient implements RenderBackend over HTTP with a bounded timeout.
// Every operation is a single attempt; fallback decisions belong to callers.
type RenderClient struct {
	httpClient *http.Client
	baseURL    string
}

// GenerateVoiceoverRequest is the payload forwarded to the backend.
type GenerateVoiceoverRequest struct {
	Text      string `json:"text"`
	SpeakerID string `json:"speaker_id"`
}

// GenerateVoiceoverResponse is the backend's generation result.
type GenerateVoiceoverResponse struct {
	Filename string  `json:"filename"`
	AudioURL string  `json:"audio_url"`
	Duration float64 `json:"duration"`
}

// BinaryResult is a streaming binary payload proxied from the backend. The
// caller owns Body and must close it.
type BinaryResult struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// NewRenderClient creates a client for the external render backend.
func NewRenderClient(cfg *config.RenderConfig) *RenderClient {
	return &RenderClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		baseURL: cfg.BaseURL,
	}
}

// JobStatus fetches the authoritative status view for a job.
func (c *RenderClient) JobStatus(ctx context.Context, jobID string) (*model.RenderJob, error) {
	endpoint := "/render/" + url.PathEscape(jobID)
	var job model.RenderJob
	if err := c.getJSON(ctx, endpoint, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GenerateVoiceover requests voiceover synthesis from the backend.
func (c *RenderClient) GenerateVoiceover(ctx context.Context, req *GenerateVoiceoverRequest) (*GenerateVoiceoverResponse, error) {
	var result GenerateVoiceoverResponse
	if err := c.postJSON(ctx, "/voiceover/generate", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListBackgroundImages returns the backend's background-image listing without
// reshaping it.
func (c *RenderClient) ListBackgroundImages(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/bg-images", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// FetchBackgroundImage streams a single background image from the backend.
func (c *RenderClient) FetchBackgroundImage(ctx context.Context, filename string) (*BinaryResult, error) {
	return c.getBinary(ctx, "/bg-images/"+url.PathEscape(filename))
}

// DownloadAudio streams a backend-hosted audio file.
func (c *RenderClient) DownloadAudio(ctx context.Context, filename string) (*BinaryResult, error) {
	return c.getBinary(ctx, "/download/audio/"+url.PathEscape(filename))
}

// IsConfigured returns true if the client has valid configuration
func (c *RenderClient) IsConfigured() bool {
	return c.baseURL != ""
}

// postJSON sends a POST request with JSON body and parses the response
func (c *RenderClient) postJSON(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doJSON(req, result)
}

// getJSON sends a GET request and parses the JSON response
func (c *RenderClient) getJSON(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doJSON(req, result)
}

func (c *RenderClient) doJSON(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[Render API] ✗ %s %s — request failed: %v", req.Method, req.URL.String(), err)
		return &BackendError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[Render API] ✗ %s %s — failed to read response: %v", req.Method, req.URL.String(), err)
		return &BackendError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[Render API] ← %d %s %s — %s", resp.StatusCode, req.Method, req.URL.String(), string(respBody))
		return newStatusError(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// getBinary performs a GET and hands the response body back unconsumed so
// handlers can stream large assets instead of buffering them.
func (c *RenderClient) getBinary(ctx context.Context, endpoint string) (*BinaryResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[Render API] ✗ GET %s — request failed: %v", req.URL.String(), err)
		return nil, &BackendError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, newStatusError(resp.StatusCode, respBody)
	}

	return &BinaryResult{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}

// newStatusError builds a BackendError from a non-2xx response. A JSON body
// carrying a "detail" field is surfaced verbatim; upstream diagnostics take
// priority over generic error text.
func newStatusError(status int, body []byte) *BackendError {
	be := &BackendError{StatusCode: status, Body: body}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		be.Detail = payload.Detail
	}
	return be
}
