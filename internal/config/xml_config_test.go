package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"PORT", "DATA_DIR", "PROJECT_BACKEND"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_CreatesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8089, cfg.Server.Port)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.Storage.DataDirectory)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<DesignReview>")
	assert.Contains(t, string(data), "<MaxSessions>100</MaxSessions>")

	_, ok := cfg.ReplyDelay()
	assert.False(t, ok)
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	xmlData := `<?xml version="1.0" encoding="UTF-8"?>
<DesignReview>
  <Server>
    <Port>9000</Port>
    <BindAddress>127.0.0.1</BindAddress>
    <AllowOrigins>http://a.example, ,http://b.example</AllowOrigins>
  </Server>
  <Storage>
    <Backend>sqlite</Backend>
    <DataDirectory>/var/lib/review</DataDirectory>
  </Storage>
  <Upload>
    <PresetScale>0.5</PresetScale>
  </Upload>
  <Sessions>
    <ReplyDelayMs>250</ReplyDelayMs>
  </Sessions>
  <Advanced>
    <LogLevel>debug</LogLevel>
  </Advanced>
</DesignReview>`
	require.NoError(t, os.WriteFile(path, []byte(xmlData), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.GetServerAddr())
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/review", cfg.Storage.DataDirectory)
	assert.Equal(t, 0.5, cfg.Upload.PresetScale)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.GetAllowOrigins())
	// unset elements keep their defaults
	assert.Equal(t, 100, cfg.Sessions.MaxSessions)

	d, ok := cfg.ReplyDelay()
	assert.True(t, ok)
	assert.Equal(t, 250*time.Millisecond, d)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("DATA_DIR", "/tmp/override")
	t.Setenv("PROJECT_BACKEND", "DuckDB")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "/tmp/override", cfg.Storage.DataDirectory)
	assert.Equal(t, "duckdb", cfg.Storage.Backend)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", "<DesignReview><Server>"},
		{"unknown backend", "<DesignReview><Storage><Backend>redis</Backend></Storage></DesignReview>"},
		{"bad level", "<DesignReview><Advanced><LogLevel>loud</LogLevel></Advanced></DesignReview>"},
		{"zero scale", "<DesignReview><Upload><PresetScale>0</PresetScale></Upload></DesignReview>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.DataDirectory = filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.Storage.DataDirectory)
}
