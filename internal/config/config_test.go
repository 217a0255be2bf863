package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	m := NewManager()
	require.NoError(t, m.Load(path))

	// the defaults were materialized on disk
	_, err := os.Stat(path)
	assert.NoError(t, err)

	cfg := m.Config()
	assert.Equal(t, "User", cfg.Names.User)
	assert.Equal(t, "Assistant", cfg.Names.Char)
	assert.Equal(t, "default", cfg.Chat.ID)
	assert.Equal(t, "none", cfg.Expand.Backend)
	assert.Equal(t, 4096, cfg.Expand.MaxContext)
}

func TestLoadMergesUserConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[names]
user = "Alice"
char = "Seraphina"

[expand]
backend = "textgen"
max_context = 8192
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m := NewManager()
	require.NoError(t, m.Load(path))

	cfg := m.Config()
	assert.Equal(t, "Alice", cfg.Names.User)
	assert.Equal(t, "Seraphina", cfg.Names.Char)
	assert.Equal(t, "textgen", cfg.Expand.Backend)
	assert.Equal(t, 8192, cfg.Expand.MaxContext)

	// untouched keys keep their defaults
	assert.Equal(t, "default", cfg.Chat.ID)
	assert.Equal(t, "", cfg.Expand.Placeholder)
}

func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("this is [not toml"), 0o644))

	m := NewManager()
	assert.Error(t, m.Load(path))
}
