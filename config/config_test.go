package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "btm.yaml")
	body := `
storage:
  dir: /tmp/idx
  page_size: 1024
logger:
  log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/idx", cfg.Storage.Dir)
	assert.Equal(t, 1024, cfg.Storage.PageSize)
	assert.Equal(t, 64, cfg.Storage.BufferPoolPages) // untouched default
	assert.Equal(t, "debug", cfg.Logger.LogLevel)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"page size too small", func(c *Config) { c.Storage.PageSize = 128 }},
		{"page size unaligned", func(c *Config) { c.Storage.PageSize = 1026 }},
		{"page size too large", func(c *Config) { c.Storage.PageSize = 1 << 17 }},
		{"tiny pool", func(c *Config) { c.Storage.BufferPoolPages = 2 }},
		{"negative cache", func(c *Config) { c.Storage.PageCacheBytes = -1 }},
		{"no dir", func(c *Config) { c.Storage.Dir = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [not a map"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
