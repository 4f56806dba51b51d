// Package extract turns transcripts into structured calendar events by way of
// the upstream chat-completions API.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"timeline/core"
	"timeline/metrics"
	"timeline/prompt"
	"timeline/timeutil"
)

const completionsPath = "/backend/v1/chat/completions"

// Sampling parameters for extraction. Low temperature keeps the model close
// to the transcript instead of inventing events.
const (
	temperature = 0.3
	maxTokens   = 2000
)

// Request carries everything the extractor needs for one transcript.
type Request struct {
	Transcript  string
	CurrentTime string // ISO 8601
	Timezone    string // IANA name or ±HH:MM offset
}

// Extractor renders prompts and calls the LLM to extract events.
type Extractor struct {
	baseURL string
	token   string
	model   string
	prompts *prompt.Loader
	tags    *core.TagVocabulary
	http    *http.Client
	logger  *zap.SugaredLogger
}

// NewExtractor creates an extractor. tags may be nil or empty to disable
// event tagging.
func NewExtractor(baseURL, token, model string, prompts *prompt.Loader, tags *core.TagVocabulary, timeout time.Duration, logger *zap.SugaredLogger) *Extractor {
	return &Extractor{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		model:   model,
		prompts: prompts,
		tags:    tags,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Extract returns the events found in the transcript. Events the model emits
// that fail validation are skipped with a warning rather than failing the
// whole request.
func (e *Extractor) Extract(ctx context.Context, req Request) ([]core.Event, error) {
	if e.token == "" {
		return nil, fmt.Errorf("upstream token is not configured (set AI_BUILDER_TOKEN)")
	}

	vars, err := e.promptVariables(req)
	if err != nil {
		return nil, err
	}

	system, user, err := e.prompts.Render(vars)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	content, err := e.complete(ctx, system, user)
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamFailures.WithLabelValues("extract").Inc()
		return nil, err
	}

	events, err := e.decodeEvents(content)
	if err != nil {
		return nil, err
	}
	metrics.EventsExtracted.Add(float64(len(events)))
	return events, nil
}

// promptVariables builds the substitution map for the prompt templates.
func (e *Extractor) promptVariables(req Request) (map[string]string, error) {
	now, err := timeutil.CurrentTimeIn(req.CurrentTime, req.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid current time: %w", err)
	}

	vars := map[string]string{
		"current_time_str": timeutil.FormatTime(now),
		"current_time_iso": now.Format(time.RFC3339),
		"current_date":     timeutil.FormatDate(now),
		"past_30min_str":   timeutil.PastISO(now, 30*time.Minute),
		"transcript":       req.Transcript,
		"timezone":         req.Timezone,
	}

	if e.tags.Empty() {
		vars["tags_section"] = ""
		vars["tags_user_section"] = ""
		vars["tag_field_section"] = ""
		return vars, nil
	}

	tmpl, err := e.prompts.Load()
	if err != nil {
		return nil, err
	}

	quoted := make([]string, len(e.tags.Tags))
	for i, t := range e.tags.Tags {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	vars["tags"] = strings.Join(e.tags.Tags, ", ")
	vars["tags_list"] = strings.Join(quoted, ", ")
	vars["tags_section"] = prompt.Substitute(tmpl.TagsSection, vars)
	vars["tags_user_section"] = "Available tags: " + vars["tags"]
	vars["tag_field_section"] = " and tag"
	return vars, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete runs one chat-completions call and returns the raw model output.
func (e *Extractor) complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+completionsPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}
	if resp.StatusCode >= 400 {
		msg := string(data)
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return "", fmt.Errorf("completion API returned %d: %s", resp.StatusCode, msg)
	}

	var result chatResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("invalid completion response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}
	content := result.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("completion response content is empty")
	}
	return content, nil
}

// decodeEvents parses the model output into validated events.
func (e *Extractor) decodeEvents(content string) ([]core.Event, error) {
	cleaned := CleanJSONContent(content)

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("model output is not a JSON event array: %w", err)
	}

	// Elements are decoded one at a time so a single malformed event does not
	// discard the rest of the batch.
	events := make([]core.Event, 0, len(raw))
	for _, msg := range raw {
		var ev core.Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			e.logger.Warnw("Skipping undecodable extracted event", "error", err)
			continue
		}
		// Tags outside the configured vocabulary are cleared, including
		// everything when tagging is disabled.
		if !e.tags.Allowed(ev.Tag) {
			ev.Tag = ""
		}
		if err := ev.Validate(); err != nil {
			e.logger.Warnw("Skipping invalid extracted event",
				"title", ev.Title,
				"error", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}
