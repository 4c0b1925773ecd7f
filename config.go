package localai

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	defaults "github.com/Paranoid-AF/localai/default"
)

// Config represents the user's localai configuration.
type Config struct {
	Version    int              `toml:"version" json:"version"`
	Server     ServerConfig     `toml:"server" json:"server"`
	Chat       ChatConfig       `toml:"chat" json:"chat"`
	Completion CompletionConfig `toml:"completion" json:"completion"`
}

// ServerConfig holds the connection settings for the inference server.
type ServerConfig struct {
	Endpoint       string `toml:"endpoint" json:"endpoint"`
	APIKey         string `toml:"api_key" json:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
}

// ChatConfig holds the generation settings for chat requests.
type ChatConfig struct {
	Model       string  `toml:"model" json:"model"`
	MaxTokens   int     `toml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	Temperature float64 `toml:"temperature,omitempty" json:"temperature,omitempty"`
}

// CompletionConfig holds the inline completion settings.
type CompletionConfig struct {
	Enabled         *bool  `toml:"enabled" json:"enabled,omitempty"`
	Model           string `toml:"model" json:"model"`
	DelayMs         int    `toml:"delay_ms,omitempty" json:"delay_ms,omitempty"`
	CacheTTLSeconds *int   `toml:"cache_ttl_seconds" json:"cache_ttl_seconds,omitempty"`
	RedactShell     *bool  `toml:"redact_shell" json:"redact_shell,omitempty"`
}

// ConfigDir returns the config directory path.
// Resolution order: $LOCALAI_CONFIG_DIR > $XDG_CONFIG_HOME/localai > ~/.config/localai
func ConfigDir() string {
	if dir := os.Getenv("LOCALAI_CONFIG_DIR"); dir != "" {
		return dir
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "localai")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", "localai-config")
	}
	return filepath.Join(home, ".config", "localai")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// SystemPromptPath returns the path of the optional custom system prompt.
func SystemPromptPath() string {
	return filepath.Join(ConfigDir(), "system_prompt.md")
}

// DefaultConfig returns the default configuration from the embedded default_config.toml.
func DefaultConfig() *Config {
	var cfg Config
	if _, err := toml.Decode(defaults.DefaultConfigTOML, &cfg); err != nil {
		panic("localai: invalid embedded default_config.toml: " + err.Error())
	}
	return &cfg
}

// LoadConfig loads config from disk or returns defaults if not found.
func LoadConfig() (*Config, error) {
	return LoadConfigFile(ConfigPath())
}

// LoadConfigFile loads config from path, filling unset fields with defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// Apply defaults for missing fields
	defaults := DefaultConfig()
	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}
	if cfg.Server.Endpoint == "" {
		cfg.Server.Endpoint = defaults.Server.Endpoint
	}
	if cfg.Server.TimeoutSeconds == 0 {
		cfg.Server.TimeoutSeconds = defaults.Server.TimeoutSeconds
	}
	if cfg.Chat.MaxTokens == 0 {
		cfg.Chat.MaxTokens = defaults.Chat.MaxTokens
	}
	if cfg.Chat.Temperature == 0 {
		cfg.Chat.Temperature = defaults.Chat.Temperature
	}
	if cfg.Completion.Enabled == nil {
		cfg.Completion.Enabled = defaults.Completion.Enabled
	}
	if cfg.Completion.DelayMs == 0 {
		cfg.Completion.DelayMs = defaults.Completion.DelayMs
	}
	if cfg.Completion.CacheTTLSeconds == nil {
		cfg.Completion.CacheTTLSeconds = defaults.Completion.CacheTTLSeconds
	}
	if cfg.Completion.RedactShell == nil {
		cfg.Completion.RedactShell = defaults.Completion.RedactShell
	}

	return &cfg, nil
}

// SaveConfig writes cfg to the config file, creating the directory if needed.
func SaveConfig(cfg *Config) error {
	return SaveConfigFile(ConfigPath(), cfg)
}

// SaveConfigFile writes cfg to path. The file is replaced atomically so
// watchers never observe a half-written config.
func SaveConfigFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.toml")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ValidateConfig checks configuration for potential issues and returns warnings.
func ValidateConfig(cfg *Config) []string {
	var warnings []string
	if cfg == nil {
		return warnings
	}

	endpoint := ResolveEndpoint(cfg)
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		warnings = append(warnings, fmt.Sprintf("endpoint %q is not an http(s) URL", endpoint))
	} else if ResolveAPIKey(cfg) != "" && u.Scheme == "http" && !isLoopback(u.Hostname()) {
		warnings = append(warnings, "api_key is sent in plain text to a non-local http endpoint")
	}
	if cfg.Chat.Temperature < 0 || cfg.Chat.Temperature > 2 {
		warnings = append(warnings, fmt.Sprintf("chat temperature %.2f is outside 0.0-2.0", cfg.Chat.Temperature))
	}
	if cfg.Chat.MaxTokens < 0 {
		warnings = append(warnings, "chat max_tokens is negative")
	}
	if cfg.Completion.DelayMs < 0 {
		warnings = append(warnings, "completion delay_ms is negative; every keystroke will trigger a request")
	}
	return warnings
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// ResolveEndpoint returns the server base address without a trailing slash.
// Priority: $LOCALAI_ENDPOINT env > config value.
func ResolveEndpoint(cfg *Config) string {
	endpoint := os.Getenv("LOCALAI_ENDPOINT")
	if endpoint == "" && cfg != nil {
		endpoint = cfg.Server.Endpoint
	}
	return strings.TrimRight(endpoint, "/")
}

// ResolveAPIKey returns the bearer token, or empty when none is configured.
// Priority: $LOCALAI_API_KEY env > config value.
func ResolveAPIKey(cfg *Config) string {
	if key := os.Getenv("LOCALAI_API_KEY"); key != "" {
		return key
	}
	if cfg != nil {
		return cfg.Server.APIKey
	}
	return ""
}

// ResolveChatModel returns the chat model name.
// Priority: $LOCALAI_CHAT_MODEL env > config value.
func ResolveChatModel(cfg *Config) string {
	if model := os.Getenv("LOCALAI_CHAT_MODEL"); model != "" {
		return model
	}
	if cfg != nil {
		return cfg.Chat.Model
	}
	return ""
}

// ResolveCompletionModel returns the completion model name.
// Priority: $LOCALAI_COMPLETION_MODEL env > config value.
func ResolveCompletionModel(cfg *Config) string {
	if model := os.Getenv("LOCALAI_COMPLETION_MODEL"); model != "" {
		return model
	}
	if cfg != nil {
		return cfg.Completion.Model
	}
	return ""
}

// RequestTimeout returns the upstream request timeout.
func RequestTimeout(cfg *Config) time.Duration {
	if cfg == nil || cfg.Server.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(cfg.Server.TimeoutSeconds) * time.Second
}

// CompletionEnabled reports whether inline completion is turned on.
func CompletionEnabled(cfg *Config) bool {
	if cfg == nil || cfg.Completion.Enabled == nil {
		return true // default true
	}
	return *cfg.Completion.Enabled
}

// CompletionDelay returns the minimum interval between accepted completion triggers.
func CompletionDelay(cfg *Config) time.Duration {
	if cfg == nil {
		return 500 * time.Millisecond
	}
	if cfg.Completion.DelayMs < 0 {
		return 0
	}
	return time.Duration(cfg.Completion.DelayMs) * time.Millisecond
}

// CompletionCacheTTL returns how long cleaned suggestions are reused; zero disables caching.
func CompletionCacheTTL(cfg *Config) time.Duration {
	if cfg == nil || cfg.Completion.CacheTTLSeconds == nil || *cfg.Completion.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(*cfg.Completion.CacheTTLSeconds) * time.Second
}

// RedactShellEnabled reports whether shell secrets are scrubbed from completion context.
func RedactShellEnabled(cfg *Config) bool {
	if cfg == nil || cfg.Completion.RedactShell == nil {
		return false
	}
	return *cfg.Completion.RedactShell
}
