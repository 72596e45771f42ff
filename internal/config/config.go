package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const appName = "genweb"

type Config struct {
	Provider   string           `mapstructure:"provider" yaml:"provider"`
	Output     string           `mapstructure:"output" yaml:"output"` // export path for ctrl+s and generate -o
	Generation GenerationConfig `mapstructure:"generation" yaml:"generation"`
	Editor     EditorConfig     `mapstructure:"editor" yaml:"editor"`
	Preview    PreviewConfig    `mapstructure:"preview" yaml:"preview"`
	History    HistoryConfig    `mapstructure:"history" yaml:"history"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Gemini     ProviderConfig   `mapstructure:"gemini" yaml:"gemini"`
	Anthropic  ProviderConfig   `mapstructure:"anthropic" yaml:"anthropic"`
	OpenAI     ProviderConfig   `mapstructure:"openai" yaml:"openai"`
}

// ProviderConfig holds the credentials and model for one LLM provider.
type ProviderConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model  string `mapstructure:"model" yaml:"model"`
}

// GenerationConfig tunes generation sessions.
type GenerationConfig struct {
	Temperature     float32 `mapstructure:"temperature" yaml:"temperature"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens" yaml:"max_output_tokens"`
	Placeholder     string  `mapstructure:"placeholder" yaml:"placeholder"` // shown while the first fragment is pending; empty disables
	Retries         int     `mapstructure:"retries" yaml:"retries"`
}

// EditorConfig configures the terminal editor.
type EditorConfig struct {
	Theme        string `mapstructure:"theme" yaml:"theme"` // chroma style name
	FollowStream bool   `mapstructure:"follow_stream" yaml:"follow_stream"`
	TabWidth     int    `mapstructure:"tab_width" yaml:"tab_width"` // display width of a tab character
}

type PreviewConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type HistoryConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Path     string `mapstructure:"path" yaml:"path,omitempty"` // defaults to the data dir
	MaxCount int    `mapstructure:"max_count" yaml:"max_count"` // keep at most N entries (0=unlimited)
}

type LogConfig struct {
	File  string `mapstructure:"file" yaml:"file,omitempty"`
	Level string `mapstructure:"level" yaml:"level"`
}

// Load reads config.yaml from the config dir or the working directory.
// A missing file is not an error.
func Load() (*Config, error) {
	configPath, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}
	return load(viper.New(), configPath, ".")
}

func load(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	setDefaults(v)

	// Read config file (optional - won't error if missing)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	resolveAPIKey(&cfg.Gemini, "GEMINI_API_KEY")
	resolveAPIKey(&cfg.Anthropic, "ANTHROPIC_API_KEY")
	resolveAPIKey(&cfg.OpenAI, "OPENAI_API_KEY")
	cfg.Output = expandEnv(cfg.Output)
	cfg.History.Path = expandEnv(cfg.History.Path)
	cfg.Log.File = expandEnv(cfg.Log.File)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "gemini")
	v.SetDefault("output", "website.html")
	v.SetDefault("generation.temperature", 0.7)
	v.SetDefault("generation.placeholder", "<!-- Generating... -->")
	v.SetDefault("generation.retries", 3)
	v.SetDefault("editor.theme", "monokai")
	v.SetDefault("editor.follow_stream", true)
	v.SetDefault("editor.tab_width", 4)
	v.SetDefault("preview.addr", "127.0.0.1:8765")
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.max_count", 500)
	v.SetDefault("log.level", "info")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5")
	v.SetDefault("openai.model", "gpt-4.1")
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg, err := load(viper.New())
	if err != nil {
		// Defaults alone cannot fail to unmarshal.
		panic(err)
	}
	return cfg
}

// ApplyOverrides applies provider and model overrides to the config.
// If provider is non-empty, it overrides the global provider.
// If model is non-empty, it overrides the model for the active provider.
func (c *Config) ApplyOverrides(provider, model string) {
	if provider != "" {
		c.Provider = provider
	}
	if model == "" {
		return
	}
	if p := c.ProviderSettings(c.Provider); p != nil {
		p.Model = model
	}
}

// ProviderSettings returns the section for a provider name, or nil for
// providers without settings such as "mock".
func (c *Config) ProviderSettings(name string) *ProviderConfig {
	switch name {
	case "gemini":
		return &c.Gemini
	case "anthropic":
		return &c.Anthropic
	case "openai":
		return &c.OpenAI
	}
	return nil
}

func resolveAPIKey(cfg *ProviderConfig, envVar string) {
	cfg.APIKey = expandEnv(cfg.APIKey)
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(envVar)
	}
}

// expandEnv expands ${VAR} or $VAR in a string
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}

// GetConfigDir returns the XDG config directory for genweb.
// Uses $XDG_CONFIG_HOME if set, otherwise ~/.config
func GetConfigDir() (string, error) {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, appName), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", appName), nil
}

// GetConfigPath returns the path where the config file should be located
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// GetDataDir returns the XDG data directory for genweb.
// Uses $XDG_DATA_HOME if set, otherwise ~/.local/share
func GetDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, appName)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", appName+"-data")
	}
	return filepath.Join(homeDir, ".local", "share", appName)
}

// HistoryPath returns the sqlite file used for generation history.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(GetDataDir(), "history.db")
}

// Exists returns true if a config file exists
func Exists() bool {
	path, err := GetConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Save writes the config to disk. API keys are written only when they were
// entered literally; keys from the environment stay there.
func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(`provider: %s
output: %s

generation:
  temperature: %g
  placeholder: %q
  retries: %d

editor:
  theme: %s
  follow_stream: %t
  tab_width: %d

preview:
  addr: %s

history:
  enabled: %t
  max_count: %d

gemini:
  model: %s
  # api_key: ${GEMINI_API_KEY}

anthropic:
  model: %s
  # api_key: ${ANTHROPIC_API_KEY}

openai:
  model: %s
  # api_key: ${OPENAI_API_KEY}
`, cfg.Provider, cfg.Output,
		cfg.Generation.Temperature, cfg.Generation.Placeholder, cfg.Generation.Retries,
		cfg.Editor.Theme, cfg.Editor.FollowStream, cfg.Editor.TabWidth,
		cfg.Preview.Addr, cfg.History.Enabled, cfg.History.MaxCount,
		cfg.Gemini.Model, cfg.Anthropic.Model, cfg.OpenAI.Model)

	return os.WriteFile(path, []byte(content), 0600)
}
