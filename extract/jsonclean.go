package extract

import (
	"regexp"
	"strings"
)

var (
	fenceOpen  = regexp.MustCompile("(?m)^```(?:json)?\\s*\n")
	fenceClose = regexp.MustCompile("(?m)\n```\\s*$")
)

// CleanJSONContent strips markdown code fences from model output and, when
// the output wraps the JSON array in prose, slices out the outermost array.
func CleanJSONContent(content string) string {
	content = fenceOpen.ReplaceAllString(content, "")
	content = fenceClose.ReplaceAllString(content, "")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start != -1 && end > start {
		content = content[start : end+1]
	}
	return content
}
