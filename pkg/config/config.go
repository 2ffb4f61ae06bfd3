package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

// DefaultBackendURL is used when neither the store, the environment nor the
// config file provide a backend.
const DefaultBackendURL = "http://127.0.0.1:8000"

// BackendURLEnv names the environment variable holding the deploy-time backend default.
const BackendURLEnv = "EFINDER_API_URL"

type Config struct {
	StorageDir           string    `toml:"storage_dir"`
	BackendURL           string    `toml:"backend_url"`
	RequestTimeout       Duration  `toml:"request_timeout"`
	MaxRequestsPerSecond float64   `toml:"max_requests_per_second"`
	Web                  WebConfig `toml:"web"`
}

type WebConfig struct {
	Host       string   `toml:"host"`
	Port       string   `toml:"port"`
	SessionTTL Duration `toml:"session_ttl"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func GetDefaultConfig() (*Config, error) {
	storageDir, err := GetDefaultStorageDir()
	if err != nil {
		return nil, fmt.Errorf("getting default storage directory: %w", err)
	}
	cfg := &Config{StorageDir: storageDir}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Web.Host == "" {
		c.Web.Host = "localhost"
	}
	if c.Web.Port == "" {
		c.Web.Port = "8080"
	}
	if c.Web.SessionTTL.Duration == 0 {
		c.Web.SessionTTL = Duration{30 * time.Minute}
	}
}

func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.StorageDir == "" {
		storageDir, err := GetDefaultStorageDir()
		if err != nil {
			return nil, fmt.Errorf("getting default storage directory: %w", err)
		}
		config.StorageDir = storageDir
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	return &config, nil
}

// Validate checks field-level constraints.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.StorageDir, validation.Required),
		validation.Field(&c.BackendURL, validation.By(func(v interface{}) error {
			s, _ := v.(string)
			if s == "" {
				return nil
			}
			return ValidateBackendURL(s)
		})),
		validation.Field(&c.MaxRequestsPerSecond, validation.Min(0.0)),
		validation.Field(&c.RequestTimeout, validation.By(nonNegativeDuration)),
		validation.Field(&c.Web, validation.By(func(v interface{}) error {
			w, _ := v.(WebConfig)
			return validation.ValidateStruct(&w,
				validation.Field(&w.Host, validation.Required),
				validation.Field(&w.Port, validation.Required),
			)
		})),
	)
}

func nonNegativeDuration(v interface{}) error {
	if d, ok := v.(Duration); ok && d.Duration < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

// ValidateBackendURL accepts absolute http(s) URLs with a host.
func ValidateBackendURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must use http or https")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}

// NormalizeBackendURL trims whitespace and strips a single trailing slash.
func NormalizeBackendURL(raw string) string {
	return strings.TrimSuffix(strings.TrimSpace(raw), "/")
}

// SaveConfig writes c to configPath. Concurrent writers are serialized with a
// lock file next to the config.
func (c *Config) SaveConfig(configPath string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return writeLocked(configPath, data)
}

func (c *Config) SaveTemplateConfig(configPath string) error {
	template, err := c.generateConfigTemplate()
	if err != nil {
		return fmt.Errorf("generating config template: %w", err)
	}
	return writeLocked(configPath, []byte(template))
}

func writeLocked(configPath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	lock := flock.New(configPath + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking config: %w", err)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	return os.WriteFile(configPath, data, 0644)
}

func (c *Config) generateConfigTemplate() (string, error) {
	storageDir := c.StorageDir
	if storageDir == "" {
		var err error
		storageDir, err = GetDefaultStorageDir()
		if err != nil {
			return "", fmt.Errorf("getting default storage directory: %w", err)
		}
	}

	template := strings.Replace(configTemplate, "/home/user/.local/share/efinder", storageDir, 1)
	return template, nil
}

// GetDefaultStorageDir returns the default storage directory for the database
func GetDefaultStorageDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	dir := filepath.Join(dataDir, "efinder")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating storage directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetConfigDir returns the configuration directory for efinder
func GetConfigDir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, "efinder")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
