package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

const (
	// ConfigDir is the directory name under $XDG_CONFIG_HOME
	ConfigDir = "memeagent"
	// ConfigFile is the config file name
	ConfigFile = "config.json"
)

// Keyring entries consulted when a credential is missing from the environment.
const (
	SecretArcadeAPIKey = "arcade_api_key"
	SecretOpenAIAPIKey = "openai_api_key"
	SecretGeminiAPIKey = "gemini_api_key"
)

// FileSystem abstracts file operations for testability
type FileSystem interface {
	ConfigHome() (string, error)
	ReadFile(path string) ([]byte, error)
}

// SecretStore looks up stored credentials by key.
type SecretStore interface {
	Get(key string) (string, error)
}

// ConfigFileReader implements FileSystem on an afero filesystem rooted at the
// XDG config home.
type ConfigFileReader struct {
	fs afero.Fs
}

// NewConfigFileReader returns a reader over the real OS filesystem.
func NewConfigFileReader() ConfigFileReader {
	return ConfigFileReader{fs: afero.NewOsFs()}
}

func (r ConfigFileReader) ConfigHome() (string, error) {
	if xdg.ConfigHome == "" {
		return "", errors.New("config home not set")
	}
	return xdg.ConfigHome, nil
}

func (r ConfigFileReader) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(r.fs, path)
}

// Loader handles configuration loading with injected dependencies
type Loader struct {
	fs      FileSystem
	getenv  func(string) string
	secrets SecretStore
}

// NewLoader creates a production Loader using the real filesystem and environment
func NewLoader(secrets SecretStore) *Loader {
	return &Loader{fs: NewConfigFileReader(), getenv: os.Getenv, secrets: secrets}
}

// NewLoaderWithFS creates a Loader with a custom filesystem and environment (for testing).
// secrets may be nil.
func NewLoaderWithFS(fs FileSystem, getenv func(string) string, secrets SecretStore) *Loader {
	return &Loader{fs: fs, getenv: getenv, secrets: secrets}
}

// Path returns the location of the config file.
func (l *Loader) Path() (string, error) {
	home, err := l.fs.ConfigHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

// Load reads configuration from $XDG_CONFIG_HOME/memeagent/config.json,
// merges it with defaults, then applies the environment and the keyring.
// Returns error for parse errors, permission issues, or validation failures.
//
// NOTE: This implementation unmarshals JSON keys directly over the default configuration.
// This allows explicit zero values (e.g., 0, false, "") in the config file to override defaults.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := l.readDotfile(cfg); err != nil {
		return nil, err
	}

	applyEnv(cfg, l.getenv)
	l.applySecrets(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (l *Loader) readDotfile(cfg *Config) error {
	configPath, err := l.Path()
	if err != nil {
		return nil // Use defaults if there is no config home
	}

	data, err := l.fs.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	// Present keys overwrite defaults (even if zero), missing keys keep them.
	return json.Unmarshal(data, cfg)
}

// applyEnv overlays identity and credentials from the environment.
func applyEnv(cfg *Config, getenv func(string) string) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}

	set(&cfg.Broker.UserID, "ARCADE_USER_ID")
	set(&cfg.Broker.APIKey, "ARCADE_API_KEY")
	set(&cfg.Broker.BaseURL, "ARCADE_BASE_URL")
	set(&cfg.Provider.Kind, "MODEL_PROVIDER")
	set(&cfg.Provider.Model, "AGENT_MODEL", "OPENAI_MODEL")

	switch cfg.Provider.Kind {
	case ProviderGemini:
		set(&cfg.Provider.APIKey, "GEMINI_API_KEY")
	case ProviderOpenAI:
		set(&cfg.Provider.APIKey, "OPENAI_API_KEY")
	}
}

// applySecrets fills credentials the environment left empty.
func (l *Loader) applySecrets(cfg *Config) {
	if l.secrets == nil {
		return
	}
	fill := func(dst *string, key string) {
		if *dst != "" {
			return
		}
		v, err := l.secrets.Get(key)
		if err != nil {
			slog.Debug("keyring lookup failed", "key", key, "error", err)
			return
		}
		*dst = v
	}

	fill(&cfg.Broker.APIKey, SecretArcadeAPIKey)
	switch cfg.Provider.Kind {
	case ProviderGemini:
		fill(&cfg.Provider.APIKey, SecretGeminiAPIKey)
	case ProviderOpenAI:
		fill(&cfg.Provider.APIKey, SecretOpenAIAPIKey)
	}
}

// LoadDotEnv loads variables from .env files into the process environment.
// Variables already set in the environment win. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}
