package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithViperDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("notion_api_key", "secret")

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.NotionAPIKey)
	assert.Equal(t, "2022-06-28", cfg.NotionVersion)
	assert.Equal(t, "https://api.notion.com/v1", cfg.BaseURL)
	assert.Equal(t, "Name", cfg.TitleProperty)
	assert.InDelta(t, 3.0, cfg.RequestsPerSecond, 0.0001)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 5*time.Minute, cfg.Timeout())
	assert.Empty(t, cfg.Defaults.Visibility)
	assert.Empty(t, cfg.Defaults.Derives)
}

func TestLoad(t *testing.T) {
	t.Setenv(APIKeyEnv, "")

	// Create a temporary config file.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	data := []byte(`{
  "notion_api_key": "file-key",
  "title_property": "Title",
  "concurrency": 8,
  "defaults": {"derives": ["Debug", "Clone"], "generate_docs": true}
}`)
	err := os.WriteFile(configPath, data, 0600)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.NotionAPIKey)
	assert.Equal(t, "Title", cfg.TitleProperty)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, []string{"Debug", "Clone"}, cfg.Defaults.Derives)
	assert.True(t, cfg.Defaults.GenerateDocs)
	assert.InDelta(t, 3.0, cfg.RequestsPerSecond, 0.0001)
}

func TestLoadEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	err := os.WriteFile(configPath, []byte(`{"notion_api_key": "file-key"}`), 0600)
	require.NoError(t, err)

	t.Setenv(APIKeyEnv, "env-key")
	t.Setenv("NOTION_ENUM_CONCURRENCY", "2")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.NotionAPIKey)
	assert.Equal(t, 2, cfg.Concurrency)
}

func TestLoadMissingDefaultFileIsOptional(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(APIKeyEnv, "env-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.NotionAPIKey)
}

func TestLoadNonexistent(t *testing.T) {
	t.Setenv(APIKeyEnv, "env-key")

	_, err := Load("/nonexistent/path/config.json")
	assert.Error(t, err)
}

func TestLoadInvalidJSON(t *testing.T) {
	t.Setenv(APIKeyEnv, "env-key")

	configPath := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(configPath, []byte("{not json"), 0600)
	require.NoError(t, err)

	_, err = Load(configPath)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			NotionAPIKey:      "key",
			RequestsPerSecond: 3,
			Concurrency:       1,
			TimeoutSeconds:    10,
			Defaults:          DefaultConfig{Visibility: "pub(crate)"},
		}
	}

	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{name: "valid config", mutate: func(c *Config) {}, wantError: false},
		{name: "private visibility", mutate: func(c *Config) { c.Defaults.Visibility = "" }, wantError: false},
		{name: "missing API key", mutate: func(c *Config) { c.NotionAPIKey = "" }, wantError: true},
		{name: "zero rate", mutate: func(c *Config) { c.RequestsPerSecond = 0 }, wantError: true},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }, wantError: true},
		{name: "zero timeout", mutate: func(c *Config) { c.TimeoutSeconds = 0 }, wantError: true},
		{name: "pub visibility", mutate: func(c *Config) { c.Defaults.Visibility = "pub" }, wantError: false},
		{name: "bad visibility", mutate: func(c *Config) { c.Defaults.Visibility = "public" }, wantError: true},
		{name: "visibility with pub prefix", mutate: func(c *Config) { c.Defaults.Visibility = "pubx" }, wantError: true},
		{name: "unclosed visibility", mutate: func(c *Config) { c.Defaults.Visibility = "pub(crate" }, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestInitConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.json")

	err := InitConfig(configPath)
	require.NoError(t, err)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)

	var cfg Config
	err = json.Unmarshal(data, &cfg)
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.NotionAPIKey)
	assert.Equal(t, "Name", cfg.TitleProperty)
	assert.NotEmpty(t, cfg.Defaults.Derives)
	assert.NoError(t, cfg.Validate())

	// The written file loads back.
	loaded, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.Defaults.Derives, loaded.Defaults.Derives)
}

func TestInitConfigAlreadyExists(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	// Create file first.
	err := os.WriteFile(configPath, []byte("{}"), 0600)
	require.NoError(t, err)

	// Try to init - should fail.
	err = InitConfig(configPath)
	assert.Error(t, err)
}
