package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"timeline/config"
	"timeline/core"
	"timeline/extract"
)

// stubTranscriber returns a fixed transcript or error and counts calls.
type stubTranscriber struct {
	text  string
	err   error
	calls int
}

func (s *stubTranscriber) Transcribe(ctx context.Context, audio []byte, filename, contentType string) (string, error) {
	s.calls++
	return s.text, s.err
}

// stubExtractor returns fixed events or an error and records the request.
type stubExtractor struct {
	events []core.Event
	err    error
	gotReq extract.Request
}

func (s *stubExtractor) Extract(ctx context.Context, req extract.Request) ([]core.Event, error) {
	s.gotReq = req
	return s.events, s.err
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8000
	cfg.API.Version = "1.0.0"
	cfg.API.AllowedOrigins = []string{"*"}
	cfg.API.MaxAudioBytes = 1 << 20
	cfg.API.RateLimit.RequestsPerSecond = 1000
	cfg.API.RateLimit.Burst = 1000
	return cfg
}

func newTestAPI(t *testing.T, cfg *config.Config, tr Transcriber, ex EventExtractor, cached bool) *API {
	t.Helper()
	var cache *lru.Cache[string, string]
	if cached {
		var err error
		cache, err = lru.New[string, string](8)
		require.NoError(t, err)
	}
	a := NewAPI(cfg, tr, ex, cache, zap.NewNop().Sugar())
	t.Cleanup(a.Close)
	return a
}

// audioForm builds a multipart body with an optional audio file part plus
// form fields.
func audioForm(t *testing.T, audio []byte, filename string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := w.CreateFormFile("audio", filename)
		require.NoError(t, err)
		_, err = part.Write(audio)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeError(t *testing.T, body io.Reader) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	a := newTestAPI(t, testConfig(), &stubTranscriber{}, &stubExtractor{}, false)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)
	a.Router().ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestAPIInfo(t *testing.T) {
	a := newTestAPI(t, testConfig(), &stubTranscriber{}, &stubExtractor{}, false)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api", nil)
	a.Router().ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp InfoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Timeline API", resp.Name)
	assert.Equal(t, "/api/v1/analyze", resp.Endpoints["analyze"])
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestAPI(t, testConfig(), &stubTranscriber{}, &stubExtractor{}, false)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/metrics", nil)
	a.Router().ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
