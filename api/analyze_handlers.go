package api

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"timeline/core"
	"timeline/extract"
	"timeline/metrics"
	"timeline/timeutil"
)

// AnalyzeResponse is the success body of POST /api/v1/analyze.
type AnalyzeResponse struct {
	Success       bool         `json:"success"`
	Transcription string       `json:"transcription"`
	Events        []core.Event `json:"events"`
}

// TranscribeResponse is the success body of POST /api/v1/transcribe.
type TranscribeResponse struct {
	Success       bool   `json:"success"`
	Transcription string `json:"transcription"`
}

// analyzeAudio handles POST /api/v1/analyze. It expects a multipart form with
// an audio file plus timezone and current_time fields, transcribes the audio
// and extracts calendar events from the transcript.
func (a *API) analyzeAudio(w http.ResponseWriter, r *http.Request) {
	audio, filename, contentType, ok := a.readAudioUpload(w, r)
	if !ok {
		return
	}

	tz := strings.TrimSpace(r.FormValue("timezone"))
	if tz == "" {
		writeAPIError(w, http.StatusBadRequest, core.CodeInvalidTimezone,
			"timezone form field is required", nil, a.logger)
		return
	}
	if _, err := timeutil.ParseTimezone(tz); err != nil {
		writeAPIError(w, http.StatusBadRequest, core.CodeInvalidTimezone,
			"timezone is not recognized", err, a.logger)
		return
	}

	currentTime := strings.TrimSpace(r.FormValue("current_time"))
	if currentTime == "" {
		writeAPIError(w, http.StatusBadRequest, core.CodeInvalidCurrentTime,
			"current_time form field is required", nil, a.logger)
		return
	}
	if _, err := timeutil.ParseISOTime(currentTime); err != nil {
		writeAPIError(w, http.StatusBadRequest, core.CodeInvalidCurrentTime,
			"current_time must be an ISO 8601 timestamp", err, a.logger)
		return
	}

	transcript, ok := a.transcribeUpload(w, r, audio, filename, contentType)
	if !ok {
		return
	}

	events, err := a.extractor.Extract(r.Context(), extract.Request{
		Transcript:  transcript,
		CurrentTime: currentTime,
		Timezone:    tz,
	})
	if err != nil {
		writeAPIError(w, http.StatusUnprocessableEntity, core.CodeEventExtractionFailed,
			"event extraction failed", err, a.logger)
		return
	}

	a.logger.Infow("Audio analyzed",
		"events", len(events),
		"transcript_len", len(transcript),
		"request_id", r.Context().Value(ContextKeyRequestID))

	a.respondJSON(w, AnalyzeResponse{
		Success:       true,
		Transcription: transcript,
		Events:        events,
	}, http.StatusOK)
}

// transcribeAudio handles POST /api/v1/transcribe: transcription without
// event extraction.
func (a *API) transcribeAudio(w http.ResponseWriter, r *http.Request) {
	audio, filename, contentType, ok := a.readAudioUpload(w, r)
	if !ok {
		return
	}

	transcript, ok := a.transcribeUpload(w, r, audio, filename, contentType)
	if !ok {
		return
	}

	a.respondJSON(w, TranscribeResponse{
		Success:       true,
		Transcription: transcript,
	}, http.StatusOK)
}

// readAudioUpload parses the multipart form and returns the audio payload.
// On failure it writes the error response and returns ok=false.
func (a *API) readAudioUpload(w http.ResponseWriter, r *http.Request) (audio []byte, filename, contentType string, ok bool) {
	maxBytes := a.config.API.MaxAudioBytes
	// Slack covers the non-file form fields and multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+64*1024)

	file, header, err := r.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAPIError(w, http.StatusRequestEntityTooLarge, core.CodeInvalidAudio,
				fmt.Sprintf("audio file exceeds the %d byte limit", maxBytes), nil, a.logger)
			return nil, "", "", false
		}
		writeAPIError(w, http.StatusBadRequest, core.CodeInvalidAudio,
			"audio file is required", err, a.logger)
		return nil, "", "", false
	}
	defer file.Close()

	audio, err = io.ReadAll(file)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, core.CodeInvalidAudio,
			"failed to read audio file", err, a.logger)
		return nil, "", "", false
	}
	if len(audio) == 0 {
		writeAPIError(w, http.StatusBadRequest, core.CodeInvalidAudio,
			"audio file is empty", nil, a.logger)
		return nil, "", "", false
	}
	if int64(len(audio)) > maxBytes {
		writeAPIError(w, http.StatusRequestEntityTooLarge, core.CodeInvalidAudio,
			fmt.Sprintf("audio file exceeds the %d byte limit", maxBytes), nil, a.logger)
		return nil, "", "", false
	}

	filename = header.Filename
	if filename == "" {
		filename = "audio.webm"
	}
	return audio, filename, uploadContentType(header), true
}

// transcribeUpload resolves the transcript for an upload, consulting the
// cache first. On failure it writes the error response and returns ok=false.
func (a *API) transcribeUpload(w http.ResponseWriter, r *http.Request, audio []byte, filename, contentType string) (string, bool) {
	key := ""
	if a.transcripts != nil {
		sum := sha256.Sum256(audio)
		key = hex.EncodeToString(sum[:])
		if transcript, found := a.transcripts.Get(key); found {
			metrics.CacheHits.Inc()
			return transcript, true
		}
		metrics.CacheMisses.Inc()
	}

	transcript, err := a.transcriber.Transcribe(r.Context(), audio, filename, contentType)
	if err != nil {
		writeAPIError(w, http.StatusUnprocessableEntity, core.CodeTranscriptionFailed,
			"speech recognition failed", err, a.logger)
		return "", false
	}
	if strings.TrimSpace(transcript) == "" {
		writeAPIError(w, http.StatusUnprocessableEntity, core.CodeEmptyTranscript,
			"no speech could be recognized in the audio", nil, a.logger)
		return "", false
	}

	if a.transcripts != nil {
		a.transcripts.Add(key, transcript)
	}
	return transcript, true
}

// uploadContentType returns the Content-Type the client declared for the file
// part, if any. The transcription client infers one from the filename when
// this is empty.
func uploadContentType(header *multipart.FileHeader) string {
	ct := header.Header.Get("Content-Type")
	if ct == "application/octet-stream" {
		return ""
	}
	return ct
}
