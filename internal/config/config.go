package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tally-ledger/tally/internal/log"
	"github.com/tally-ledger/tally/internal/money"
	"github.com/tally-ledger/tally/internal/period"
)

// FileName is the config file at the root of a ledger directory.
const FileName = "tally.yaml"

// Storage backends.
const (
	BackendJournal = "journal"
	BackendSQLite  = "sqlite"
)

// Environment overrides.
const (
	EnvStorageBackend = "TALLY_STORAGE_BACKEND"
	EnvSQLitePath     = "TALLY_SQLITE_PATH"
	EnvLogLevel       = "TALLY_LOG_LEVEL"
	EnvLogFormat      = "TALLY_LOG_FORMAT"
	EnvCacheTTL       = "TALLY_CACHE_TTL"
)

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Household HouseholdConfig `yaml:"household"`
	Storage   StorageConfig   `yaml:"storage"`
	Series    SeriesConfig    `yaml:"series"`
	Cache     CacheConfig     `yaml:"cache"`
	Log       LogConfig       `yaml:"log"`
}

// HouseholdConfig identifies the household and its reporting currency.
type HouseholdConfig struct {
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"`
}

// StorageConfig selects where entries live.
type StorageConfig struct {
	Backend    string `yaml:"backend"`               // "journal" or "sqlite"
	SQLitePath string `yaml:"sqlite_path,omitempty"` // relative to the ledger directory
}

// SeriesConfig holds defaults for series requests.
type SeriesConfig struct {
	Period   string `yaml:"period"`   // period key, e.g. "last_365_days"
	Interval string `yaml:"interval"` // e.g. "1 month"
	Category string `yaml:"category"` // category name for the categorised series
}

// CacheConfig sizes the series cache.
type CacheConfig struct {
	Size int    `yaml:"size"`
	TTL  string `yaml:"ttl"` // Go duration; "0" never expires
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Load reads a tally.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// LoadDir loads <root>/tally.yaml, applies .env and environment overrides,
// and validates the result.
func LoadDir(root string) (*Config, error) {
	cfg, err := Load(filepath.Join(root, FileName))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(root); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with sensible defaults for a new household.
func Default(name, currency string) *Config {
	return &Config{
		Household: HouseholdConfig{
			Name:     name,
			Currency: strings.ToUpper(currency),
		},
		Storage: StorageConfig{
			Backend:    BackendJournal,
			SQLitePath: filepath.Join("data", "tally.db"),
		},
		Series: SeriesConfig{
			Period:   period.DefaultKey,
			Interval: "1 month",
			Category: "Food & Dining",
		},
		Cache: CacheConfig{
			Size: 128,
			TTL:  "10m",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ApplyEnv overlays TALLY_* settings onto cfg. Values come from <root>/.env
// when present; the process environment takes precedence over the file.
func (c *Config) ApplyEnv(root string) error {
	vars, err := godotenv.Read(filepath.Join(root, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading .env: %w", err)
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := vars[key]
		return v, ok && v != ""
	}

	if v, ok := lookup(EnvStorageBackend); ok {
		c.Storage.Backend = v
	}
	if v, ok := lookup(EnvSQLitePath); ok {
		c.Storage.SQLitePath = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok {
		c.Log.Format = v
	}
	if v, ok := lookup(EnvCacheTTL); ok {
		c.Cache.TTL = v
	}
	return nil
}

// Validate returns an error listing every invalid setting.
func (c *Config) Validate() error {
	var problems []string

	if !money.KnownCurrency(c.Household.Currency) {
		problems = append(problems, fmt.Sprintf("unknown household currency %q", c.Household.Currency))
	}

	switch c.Storage.Backend {
	case BackendJournal:
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			problems = append(problems, "sqlite_path cannot be empty when using the sqlite backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid storage backend %q: must be %q or %q", c.Storage.Backend, BackendJournal, BackendSQLite))
	}

	if _, err := period.FromKey(c.Series.Period, time.Now()); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := period.ParseInterval(c.Series.Interval); err != nil {
		problems = append(problems, err.Error())
	}

	if c.Cache.Size < 1 {
		problems = append(problems, fmt.Sprintf("invalid cache size %d: must be at least 1", c.Cache.Size))
	}
	if _, err := c.CacheTTL(); err != nil {
		problems = append(problems, err.Error())
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		problems = append(problems, fmt.Sprintf("invalid log format %q: must be text or json", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// CacheTTL parses Cache.TTL. Empty or "0" means entries never expire.
func (c *Config) CacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" || c.Cache.TTL == "0" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid cache ttl %q: %w", c.Cache.TTL, err)
	}
	if ttl < 0 {
		return 0, fmt.Errorf("invalid cache ttl %q: must not be negative", c.Cache.TTL)
	}
	return ttl, nil
}

// SQLitePathIn resolves the database path against the ledger directory.
func (c *Config) SQLitePathIn(root string) string {
	if filepath.IsAbs(c.Storage.SQLitePath) {
		return c.Storage.SQLitePath
	}
	return filepath.Join(root, c.Storage.SQLitePath)
}

// Logger builds the structured logger described by the log section,
// writing to w.
func (c *Config) Logger(w io.Writer, component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = w
	if lvl, err := log.ParseLevel(c.Log.Level); err == nil {
		cfg.Level = lvl
	}
	cfg.Format = c.Log.Format
	cfg.Component = component
	return log.New(cfg)
}

// Interval parses Series.Interval.
func (c *Config) Interval() (period.Interval, error) {
	return period.ParseInterval(c.Series.Interval)
}
