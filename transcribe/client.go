// Package transcribe calls the upstream speech-to-text API.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"timeline/metrics"
)

// contentTypes maps audio file extensions onto MIME types for the upload.
var contentTypes = map[string]string{
	".m4a":  "audio/m4a",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".webm": "audio/webm",
}

const defaultContentType = "audio/webm"

// transcriptionPaths are tried in order. Deployments differ on whether the
// API is mounted behind a /backend prefix.
var transcriptionPaths = []string{
	"/backend/v1/audio/transcriptions",
	"/v1/audio/transcriptions",
}

// Client transcribes audio through the AI Builder Space API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.SugaredLogger
}

// NewClient creates a transcription client. token may be empty; calls then
// fail with a descriptive error.
func NewClient(baseURL, token string, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Transcribe uploads audio and returns the recognized text. contentType may
// be empty, in which case it is inferred from the filename extension.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename, contentType string) (string, error) {
	if c.token == "" {
		return "", fmt.Errorf("upstream token is not configured (set AI_BUILDER_TOKEN)")
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("audio payload is empty")
	}
	if contentType == "" {
		contentType = inferContentType(filename)
	}

	start := time.Now()
	defer func() {
		metrics.TranscriptionDuration.Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	for _, path := range transcriptionPaths {
		text, err := c.post(ctx, c.baseURL+path, audio, filename, contentType)
		if err == nil {
			return text, nil
		}
		lastErr = err
		c.logger.Debugw("Transcription endpoint failed, trying next",
			"path", path,
			"error", err)
	}

	metrics.UpstreamFailures.WithLabelValues("transcribe").Inc()
	return "", fmt.Errorf("audio transcription failed: %w", lastErr)
}

// post sends one multipart upload to a single endpoint.
func (c *Client) post(ctx context.Context, endpoint string, audio []byte, filename, contentType string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio_file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("failed to write audio payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read transcription response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("transcription API returned %d: %s", resp.StatusCode, errorSummary(data))
	}

	var result struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("invalid transcription response: %w", err)
	}
	if result.Text == nil {
		return "", fmt.Errorf("transcription response missing \"text\" field")
	}
	return *result.Text, nil
}

// inferContentType maps a filename onto an audio MIME type.
func inferContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return defaultContentType
}

// errorSummary extracts a short human-readable message from an upstream error
// body, falling back to a truncated raw body.
func errorSummary(body []byte) string {
	var parsed struct {
		Detail struct {
			Message string `json:"message"`
		} `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Detail.Message != "" {
		return parsed.Detail.Message
	}
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
