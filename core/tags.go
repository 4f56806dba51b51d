package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TagVocabulary is the configured set of tags the extractor may assign to
// events. An empty vocabulary disables tagging entirely: events come back
// untagged and any tag the model invents is cleared.
type TagVocabulary struct {
	Tags []string `yaml:"tags"`

	allowed map[string]struct{}
}

// LoadTagVocabulary reads a YAML tag vocabulary from path. A missing file is
// not an error; it yields an empty vocabulary.
func LoadTagVocabulary(path string) (*TagVocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &TagVocabulary{}, nil
		}
		return nil, fmt.Errorf("failed to read tag vocabulary %s: %w", path, err)
	}

	var v TagVocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse tag vocabulary %s: %w", path, err)
	}
	v.index()
	return &v, nil
}

// NewTagVocabulary builds a vocabulary from an explicit tag list.
func NewTagVocabulary(tags []string) *TagVocabulary {
	v := &TagVocabulary{Tags: tags}
	v.index()
	return v
}

func (v *TagVocabulary) index() {
	v.allowed = make(map[string]struct{}, len(v.Tags))
	for _, t := range v.Tags {
		v.allowed[t] = struct{}{}
	}
}

// Empty reports whether no tags are configured.
func (v *TagVocabulary) Empty() bool {
	return v == nil || len(v.Tags) == 0
}

// Allowed reports whether tag is part of the vocabulary.
func (v *TagVocabulary) Allowed(tag string) bool {
	if v.Empty() {
		return false
	}
	_, ok := v.allowed[tag]
	return ok
}
