package io

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTemplateFromArgs(t *testing.T) {
	out, err := ReadTemplate(nil, []string{"hello", "{{user}}"}, "")
	require.NoError(t, err)
	assert.Equal(t, "hello {{user}}", out)
}

func TestReadTemplateFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file\n"), 0o644))

	out, err := ReadTemplate(nil, nil, path)
	require.NoError(t, err)
	assert.Equal(t, "from file", out)
}

func TestReadTemplateFileAndArgs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.txt")
	require.NoError(t, os.WriteFile(path, []byte("file part"), 0o644))

	out, err := ReadTemplate(nil, []string{"arg part"}, path)
	require.NoError(t, err)
	assert.Equal(t, "file part\n\narg part", out)
}

func TestReadTemplateMissingFile(t *testing.T) {
	_, err := ReadTemplate(nil, nil, filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func TestReadTemplateNoSources(t *testing.T) {
	_, err := ReadTemplate(nil, nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no template provided")
}
