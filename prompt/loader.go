// Package prompt loads and renders the LLM prompt templates used for event
// extraction.
//
// Templates live in a single markdown file split into sections:
//
//	## System Prompt
//	...
//	## User Prompt
//	...
//	## Tags Section Template   (optional)
//	...
//
// Placeholders use single-brace {name} syntax and are replaced verbatim.
package prompt

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Templates holds the parsed prompt sections.
type Templates struct {
	System      string
	User        string
	TagsSection string
}

// Loader reads prompt templates from disk and caches them after the first
// successful load. Templates do not change at runtime; a restart picks up
// edits.
type Loader struct {
	path string

	mu     sync.Mutex
	cached *Templates
}

// NewLoader creates a loader for the template file at path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load returns the parsed templates, reading the file on first use.
func (l *Loader) Load() (*Templates, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil {
		return l.cached, nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt templates %s: %w", l.path, err)
	}

	tmpl, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("invalid prompt templates %s: %w", l.path, err)
	}

	l.cached = tmpl
	return tmpl, nil
}

// Render returns the system and user prompts with all variables substituted.
func (l *Loader) Render(vars map[string]string) (system, user string, err error) {
	tmpl, err := l.Load()
	if err != nil {
		return "", "", err
	}
	return Substitute(tmpl.System, vars), Substitute(tmpl.User, vars), nil
}

// Parse splits a template document into its sections. System and User sections
// are mandatory.
func Parse(content string) (*Templates, error) {
	sections := splitSections(content)

	system, ok := sections["system prompt"]
	if !ok {
		return nil, fmt.Errorf("missing \"## System Prompt\" section")
	}
	user, ok := sections["user prompt"]
	if !ok {
		return nil, fmt.Errorf("missing \"## User Prompt\" section")
	}

	return &Templates{
		System:      system,
		User:        user,
		TagsSection: sections["tags section template"],
	}, nil
}

// splitSections breaks a markdown document on "## " headers, keyed by the
// lowercased header text.
func splitSections(content string) map[string]string {
	sections := make(map[string]string)
	var (
		current string
		body    []string
	)

	flush := func() {
		if current != "" {
			sections[current] = strings.TrimSpace(strings.Join(body, "\n"))
		}
		body = body[:0]
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "## ") {
			flush()
			current = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "## ")))
			continue
		}
		body = append(body, line)
	}
	flush()

	return sections
}

// Substitute replaces every {name} placeholder found in vars. Unknown
// placeholders are left in place so a malformed template is visible in the
// rendered output rather than silently blanked.
func Substitute(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
