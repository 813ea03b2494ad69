package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nikogura/notion-enum/pkg/codegen"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. NOTION_ENUM_CONCURRENCY.
const EnvPrefix = "NOTION_ENUM"

// APIKeyEnv is the conventional environment variable holding the Notion integration token.
const APIKeyEnv = "NOTION_API_KEY"

// Config represents the application configuration.
type Config struct {
	NotionAPIKey      string        `json:"notion_api_key" mapstructure:"notion_api_key"`
	NotionVersion     string        `json:"notion_version" mapstructure:"notion_version"`
	BaseURL           string        `json:"base_url" mapstructure:"base_url"`
	TitleProperty     string        `json:"title_property" mapstructure:"title_property"`
	RequestsPerSecond float64       `json:"requests_per_second" mapstructure:"requests_per_second"`
	Concurrency       int           `json:"concurrency" mapstructure:"concurrency"`
	TimeoutSeconds    int           `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	Defaults          DefaultConfig `json:"defaults" mapstructure:"defaults"`
}

// DefaultConfig holds default values for generate flags.
type DefaultConfig struct {
	Derives         []string `json:"derives" mapstructure:"derives"`
	Visibility      string   `json:"visibility" mapstructure:"visibility"`
	GenerateDocs    bool     `json:"generate_docs" mapstructure:"generate_docs"`
	GenerateDisplay bool     `json:"generate_display" mapstructure:"generate_display"`
}

// Timeout returns the overall run timeout.
func (c *Config) Timeout() (timeout time.Duration) {
	timeout = time.Duration(c.TimeoutSeconds) * time.Second
	return timeout
}

// SetDefaults registers default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("notion_api_key", "")
	v.SetDefault("notion_version", "2022-06-28")
	v.SetDefault("base_url", "https://api.notion.com/v1")
	v.SetDefault("title_property", "Name")
	v.SetDefault("requests_per_second", 3.0) // Notion's average rate limit
	v.SetDefault("concurrency", 4)
	v.SetDefault("timeout_seconds", 300)

	v.SetDefault("defaults.derives", []string{})
	v.SetDefault("defaults.visibility", "")
	v.SetDefault("defaults.generate_docs", false)
	v.SetDefault("defaults.generate_display", false)
}

// BindEnv binds environment variables. NOTION_API_KEY is accepted alongside
// the prefixed form.
func BindEnv(v *viper.Viper) (err error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err = v.BindEnv("notion_api_key", EnvPrefix+"_NOTION_API_KEY", APIKeyEnv)
	if err != nil {
		err = errors.Wrap(err, "failed to bind API key environment variables")
		return err
	}

	return err
}

// DefaultPath returns $HOME/.notion-enum/config.json.
func DefaultPath() (path string, err error) {
	var homeDir string
	homeDir, err = os.UserHomeDir()
	if err != nil {
		err = errors.Wrap(err, "failed to get user home directory")
		return path, err
	}

	path = filepath.Join(homeDir, ".notion-enum", "config.json")
	return path, err
}

// Load reads configuration from file with environment variable overrides.
// An explicit configPath must exist; the default file is optional.
func Load(configPath string) (cfg Config, err error) {
	v := viper.New()
	SetDefaults(v)

	err = BindEnv(v)
	if err != nil {
		return cfg, err
	}

	// Determine config file location
	path := configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		v.SetConfigFile(path)
		v.SetConfigType("json")

		err = v.ReadInConfig()
		if err != nil {
			err = errors.Wrapf(err, "failed to read config file: %s", path)
			return cfg, err
		}
	case configPath != "":
		err = errors.Errorf("config file not found: %s (run 'notion-enum init' to create)", path)
		return cfg, err
	}

	cfg, err = LoadWithViper(v)
	return cfg, err
}

// LoadWithViper decodes and validates configuration from a prepared viper instance.
func LoadWithViper(v *viper.Viper) (cfg Config, err error) {
	err = v.Unmarshal(&cfg)
	if err != nil {
		err = errors.Wrap(err, "failed to parse configuration")
		return cfg, err
	}

	err = cfg.Validate()
	if err != nil {
		err = errors.Wrap(err, "config validation failed")
		return cfg, err
	}

	return cfg, err
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() (err error) {
	if c.NotionAPIKey == "" {
		err = errors.Errorf("notion_api_key is required (set in config or %s env var)", APIKeyEnv)
		return err
	}

	if c.RequestsPerSecond <= 0 {
		err = errors.New("requests_per_second must be positive")
		return err
	}

	if c.Concurrency < 1 {
		err = errors.New("concurrency must be at least 1")
		return err
	}

	if c.TimeoutSeconds <= 0 {
		err = errors.New("timeout_seconds must be positive")
		return err
	}

	if !codegen.IsValidVisibility(c.Defaults.Visibility) {
		err = errors.Errorf("defaults.visibility must be empty, pub or pub(<scope>), got %q", c.Defaults.Visibility)
		return err
	}

	return err
}

// InitConfig creates a default configuration file.
func InitConfig(configPath string) (err error) {
	// Determine config file location
	path := configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create config directory: %s", dir)
		return err
	}

	// Check if file already exists
	_, err = os.Stat(path)
	if err == nil {
		err = errors.Errorf("config file already exists: %s", path)
		return err
	}

	// Create default config from the registered defaults
	v := viper.New()
	SetDefaults(v)

	var defaultConfig Config
	err = v.Unmarshal(&defaultConfig)
	if err != nil {
		err = errors.Wrap(err, "failed to build default config")
		return err
	}
	defaultConfig.NotionAPIKey = "secret_..."
	defaultConfig.Defaults.Derives = []string{"Debug", "Clone", "Copy", "PartialEq", "Eq", "Hash"}

	// Write to file
	var data []byte
	data, err = json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		err = errors.Wrap(err, "failed to marshal default config")
		return err
	}

	err = os.WriteFile(path, data, 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write config file: %s", path)
		return err
	}

	return err
}
