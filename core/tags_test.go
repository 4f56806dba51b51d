package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTagVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tags:\n  - work\n  - personal\n"), 0644))

	v, err := LoadTagVocabulary(path)
	require.NoError(t, err)
	assert.False(t, v.Empty())
	assert.True(t, v.Allowed("work"))
	assert.False(t, v.Allowed("invented"))
}

func TestLoadTagVocabulary_MissingFile(t *testing.T) {
	v, err := LoadTagVocabulary(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.True(t, v.Empty())
	assert.False(t, v.Allowed("anything"))
}

func TestLoadTagVocabulary_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tags: {not: a list"), 0644))

	_, err := LoadTagVocabulary(path)
	assert.Error(t, err)
}

func TestNewTagVocabulary(t *testing.T) {
	v := NewTagVocabulary([]string{"work"})
	assert.True(t, v.Allowed("work"))
	assert.False(t, v.Allowed("personal"))

	var nilVocab *TagVocabulary
	assert.True(t, nilVocab.Empty())
	assert.False(t, nilVocab.Allowed("work"))
}
