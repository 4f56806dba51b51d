package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func TestTranscribe_Success(t *testing.T) {
	var gotAuth, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/backend/v1/audio/transcriptions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("audio_file")
		require.NoError(t, err)
		defer file.Close()
		gotContentType = header.Header.Get("Content-Type")
		assert.Equal(t, "note.mp3", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "buy groceries at two"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 5*time.Second, testLogger())
	text, err := c.Transcribe(context.Background(), []byte("fake audio"), "note.mp3", "")
	require.NoError(t, err)
	assert.Equal(t, "buy groceries at two", text)
	assert.Equal(t, "Bearer tok", gotAuth)
	// Content type inferred from the .mp3 extension.
	assert.Equal(t, "audio/mpeg", gotContentType)
}

func TestTranscribe_EndpointFallback(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/backend/v1/audio/transcriptions" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"text": "hello"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 5*time.Second, testLogger())
	text, err := c.Transcribe(context.Background(), []byte("fake audio"), "a.wav", "")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, []string{"/backend/v1/audio/transcriptions", "/v1/audio/transcriptions"}, paths)
}

func TestTranscribe_AllEndpointsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"detail": {"message": "model offline"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 5*time.Second, testLogger())
	_, err := c.Transcribe(context.Background(), []byte("fake audio"), "a.wav", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model offline")
}

func TestTranscribe_MissingToken(t *testing.T) {
	c := NewClient("https://example.com", "", 5*time.Second, testLogger())
	_, err := c.Transcribe(context.Background(), []byte("fake audio"), "a.wav", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AI_BUILDER_TOKEN")
}

func TestTranscribe_EmptyAudio(t *testing.T) {
	c := NewClient("https://example.com", "tok", 5*time.Second, testLogger())
	_, err := c.Transcribe(context.Background(), nil, "a.wav", "")
	assert.Error(t, err)
}

func TestTranscribe_MissingTextField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 5*time.Second, testLogger())
	_, err := c.Transcribe(context.Background(), []byte("fake audio"), "a.wav", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text")
}

func TestInferContentType(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"a.m4a", "audio/m4a"},
		{"a.MP3", "audio/mpeg"},
		{"a.wav", "audio/wav"},
		{"a.flac", "audio/flac"},
		{"a.webm", "audio/webm"},
		{"a.unknown", "audio/webm"},
		{"noextension", "audio/webm"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, inferContentType(tt.filename), tt.filename)
	}
}
