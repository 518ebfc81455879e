package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/fmuoria/jadehire-agent/internal/llm"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	appDirName = "JadeHire"
	envPrefix  = "JADEHIRE_"

	DefaultTimeZone   = "Asia/Kolkata"
	DefaultCalendarID = "primary"
	DefaultListenAddr = ":8080"
)

// Config holds application configuration
type Config struct {
	LLMBackend            string `json:"llm_backend"`
	Model                 string `json:"model"`
	GeminiAPIKey          string `json:"gemini_api_key,omitempty"`
	GoogleCloudProject    string `json:"google_cloud_project"`
	GoogleCloudLocation   string `json:"google_cloud_location"`
	GoogleCredentialsPath string `json:"google_credentials_path"`
	OAuthClientSecretPath string `json:"oauth_client_secret_path"`
	OAuthTokenPath        string `json:"oauth_token_path"`
	CalendarID            string `json:"calendar_id"`
	TimeZone              string `json:"time_zone"`
	ListenAddr            string `json:"listen_addr"`
	LogLevel              string `json:"log_level"`
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		LLMBackend:          llm.BackendVertexAI,
		Model:               llm.DefaultModel,
		GoogleCloudLocation: llm.DefaultLocation,
		CalendarID:          DefaultCalendarID,
		TimeZone:            DefaultTimeZone,
		ListenAddr:          DefaultListenAddr,
		LogLevel:            "info",
	}
}

// GetConfigDir returns the configuration directory, creating it if needed
// On Windows: %APPDATA%/JadeHire
// On Unix: ~/.config/JadeHire
func GetConfigDir() (string, error) {
	var configDir string

	if os.Getenv("APPDATA") != "" {
		configDir = filepath.Join(os.Getenv("APPDATA"), appDirName)
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", appDirName)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// GetConfigPath returns the path to the configuration file
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadDotEnv loads .env files into the process environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load loads configuration from the default config path
func Load() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom layers defaults, the JSON file at path (if present) and
// JADEHIRE_* environment variables, in increasing precedence
func LoadFrom(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides maps JADEHIRE_TIME_ZONE to time_zone and so on.
// GEMINI_API_KEY is honoured when no key is configured.
func applyEnvOverrides(config *Config) error {
	k := koanf.New(".")

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	if err := k.UnmarshalWithConf("", config, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if config.GeminiAPIKey == "" {
		config.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	return nil
}

// Save saves the configuration to the default config path
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	return c.SaveTo(configPath)
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.LLMBackend {
	case llm.BackendGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("gemini_api_key is required for the gemini backend")
		}
	case llm.BackendVertexAI:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("google_cloud_project is required")
		}
		if c.GoogleCloudLocation == "" {
			return fmt.Errorf("google_cloud_location is required")
		}
	default:
		return fmt.Errorf("llm_backend must be %q or %q, got %q", llm.BackendGemini, llm.BackendVertexAI, c.LLMBackend)
	}

	if c.GoogleCredentialsPath != "" {
		if _, err := os.Stat(c.GoogleCredentialsPath); err != nil {
			return fmt.Errorf("google credentials file not found: %w", err)
		}
	}

	if c.OAuthClientSecretPath != "" {
		if _, err := os.Stat(c.OAuthClientSecretPath); err != nil {
			return fmt.Errorf("oauth client secret file not found: %w", err)
		}
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil || c.TimeZone == "" {
		return fmt.Errorf("time_zone %q is not a valid IANA time zone", c.TimeZone)
	}

	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}

	return nil
}

// GoogleEnabled reports whether calendar and mail access can be set up
func (c *Config) GoogleEnabled() bool {
	return c.OAuthClientSecretPath != ""
}

// TokenPath returns where the OAuth token is cached
func (c *Config) TokenPath() (string, error) {
	if c.OAuthTokenPath != "" {
		return c.OAuthTokenPath, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "token.json"), nil
}

// LLMConfig returns the model client settings
func (c *Config) LLMConfig() llm.Config {
	return llm.Config{
		Backend:  c.LLMBackend,
		Model:    c.Model,
		APIKey:   c.GeminiAPIKey,
		Project:  c.GoogleCloudProject,
		Location: c.GoogleCloudLocation,
	}
}

// ApplyToEnv applies configuration values to environment variables
func (c *Config) ApplyToEnv() {
	if c.GoogleCloudProject != "" {
		os.Setenv("GOOGLE_CLOUD_PROJECT", c.GoogleCloudProject)
	}
	if c.GoogleCloudLocation != "" {
		os.Setenv("GOOGLE_CLOUD_LOCATION", c.GoogleCloudLocation)
	}
	if c.GoogleCredentialsPath != "" {
		os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", c.GoogleCredentialsPath)
	}
	if c.GeminiAPIKey != "" {
		os.Setenv("GEMINI_API_KEY", c.GeminiAPIKey)
	}
}
