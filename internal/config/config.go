// Package config handles bibfetch configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/matsen/bibfetch/internal/ltwa"
)

// Config represents configuration stored in ~/.config/bibfetch/config.yml.
// Priority: ENV > YAML > defaults (via env-default tags).
type Config struct {
	BibPath     string        `json:"bib_path"     yaml:"bib_path"               env:"BIBFETCH_BIB_PATH"     env-default:"references.bib"`
	DataDir     string        `json:"data_dir"     yaml:"data_dir,omitempty"     env:"BIBFETCH_DATA_DIR"`
	LTWAURL     string        `json:"ltwa_url"     yaml:"ltwa_url,omitempty"     env:"BIBFETCH_LTWA_URL"`
	LTWAUpdated string        `json:"ltwa_updated" yaml:"ltwa_updated,omitempty" env:"BIBFETCH_LTWA_UPDATED"`
	Timeout     time.Duration `json:"timeout"      yaml:"timeout"                env:"BIBFETCH_TIMEOUT"      env-default:"10s"`
	RateLimit   float64       `json:"rate_limit"   yaml:"rate_limit"             env:"BIBFETCH_RATE_LIMIT"   env-default:"5"`
	Workers     int           `json:"workers"      yaml:"workers"                env:"BIBFETCH_WORKERS"      env-default:"4"`
	Mailto      string        `json:"mailto"       yaml:"mailto,omitempty"       env:"BIBFETCH_MAILTO"`
	CacheTTL    time.Duration `json:"cache_ttl"    yaml:"cache_ttl"              env:"BIBFETCH_CACHE_TTL"    env-default:"720h"`
	LogLevel    string        `json:"log_level"    yaml:"log_level"              env:"BIBFETCH_LOG_LEVEL"    env-default:"info"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "bibfetch"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
	// DataFolder is the folder under the platform data home.
	DataFolder = "citation"
	// DBFile is the resolution cache database name.
	DBFile = "resolved.db"
	// DateLayout is the format of ltwa_updated.
	DateLayout = "2006-01-02"
)

// ErrInvalidConfig is returned when a loaded value fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Load reads configuration from path (the global config file when empty)
// and the environment. A missing file means ENV + defaults only.
func Load(path string) (*Config, error) {
	if path == "" {
		path = GlobalConfigPath()
	}

	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{
		BibPath:   "references.bib",
		Timeout:   10 * time.Second,
		RateLimit: 5,
		Workers:   4,
		CacheTTL:  720 * time.Hour,
		LogLevel:  "info",
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills values that cannot be expressed as env-default tags
// and expands ~ in paths.
func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = DataHome(DataFolder)
	}
	if c.LTWAURL == "" {
		c.LTWAURL = ltwa.DefaultURL
	}
	if c.LTWAUpdated == "" {
		c.LTWAUpdated = ltwa.DefaultUpdatedAt.Format(DateLayout)
	}
	c.BibPath = ExpandPath(c.BibPath)
	c.DataDir = ExpandPath(c.DataDir)
}

// Validate checks value ranges and formats.
func (c *Config) Validate() error {
	if _, err := c.LTWAUpdatedAt(); err != nil {
		return fmt.Errorf("%w: ltwa_updated %q: want YYYY-MM-DD", ErrInvalidConfig, c.LTWAUpdated)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("%w: rate_limit must be positive", ErrInvalidConfig)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidConfig)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("%w: cache_ttl must not be negative", ErrInvalidConfig)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalidConfig, err)
	}
	return nil
}

// LTWAUpdatedAt returns ltwa_updated as a UTC date.
func (c *Config) LTWAUpdatedAt() (time.Time, error) {
	return time.Parse(DateLayout, c.LTWAUpdated)
}

// DictionaryPath returns the cached abbreviation dictionary file.
func (c *Config) DictionaryPath() string {
	return filepath.Join(c.DataDir, ltwa.DefaultFileName)
}

// DBPath returns the resolution cache database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, DBFile)
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
