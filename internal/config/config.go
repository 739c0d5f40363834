// Package config loads stride's settings from a YAML file, an optional
// .env file and STRIDE_* environment variables. Command-line flags are
// applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/stride/internal/constants"
	"github.com/julianstephens/stride/internal/storage"
	"github.com/julianstephens/stride/internal/utils"
)

// Environment variables read by Load.
const (
	EnvStore       = constants.EnvPrefix + "STORE"
	EnvTimezone    = constants.EnvPrefix + "TIMEZONE"
	EnvSeed        = constants.EnvPrefix + "SEED"
	EnvDebug       = constants.EnvPrefix + "DEBUG"
	EnvLogDir      = constants.EnvPrefix + "LOG_DIR"
	EnvRedisPrefix = constants.EnvPrefix + "REDIS_PREFIX"
	// EnvDBPassword supplies the password for MySQL and Redis targets.
	EnvDBPassword = constants.EnvPrefix + "DB_PASSWORD"
)

// Config holds stride's resolved settings.
type Config struct {
	// Store is a file path or a connection string without a password.
	Store       string `yaml:"store"`
	Timezone    string `yaml:"timezone"`
	Seed        bool   `yaml:"seed"`
	Debug       bool   `yaml:"debug"`
	LogDir      string `yaml:"log_dir"`
	RedisPrefix string `yaml:"redis_prefix"`

	// path is the file the config was loaded from.
	path string
}

// Default returns the built-in settings. Store is left empty so the
// keyring can supply a connection string.
func Default() *Config {
	return &Config{
		Timezone:    constants.DefaultTimezone,
		Seed:        constants.DefaultSeed,
		RedisPrefix: constants.DefaultRedisPrefix,
	}
}

// LoadDotEnv loads KEY=value pairs from the given files into the process
// environment. Missing files are skipped and variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		p = ExpandPath(p)
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to parse %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	path = ExpandPath(path)
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML to path.
func (c *Config) Save(path string) error {
	path = ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	c.path = path
	return nil
}

// Path returns the file the config was loaded from or saved to.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) applyEnvOverrides() error {
	if v, ok := lookup(EnvStore); ok {
		c.Store = v
	}
	if v, ok := lookup(EnvTimezone); ok {
		c.Timezone = v
	}
	if v, ok := lookup(EnvLogDir); ok {
		c.LogDir = v
	}
	if v, ok := lookup(EnvRedisPrefix); ok {
		c.RedisPrefix = v
	}

	var errs []error
	if v, ok := lookup(EnvSeed); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvSeed, err))
		}
		c.Seed = b
	}
	if v, ok := lookup(EnvDebug); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvDebug, err))
		}
		c.Debug = b
	}
	return errors.Join(errs...)
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Validate checks settings that would otherwise fail later.
func (c *Config) Validate() error {
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q", c.Timezone)
	}
	if c.Store != "" && storage.HasEmbeddedCredentials(c.Store) {
		return fmt.Errorf("%w: store the connection string with 'stride keyring set' or set %s", storage.ErrEmbeddedCredentials, EnvDBPassword)
	}
	return nil
}

// Location returns the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := utils.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ConnectionLookup returns a connection string kept outside the config,
// such as in the OS keyring.
type ConnectionLookup func() (string, error)

// StoreOptions decides which backend to open. An explicit Store wins;
// otherwise a connection string from lookup is used, and failing that the
// default SQLite file.
func (c *Config) StoreOptions(lookup ConnectionLookup) storage.Options {
	opts := storage.Options{
		Password:    os.Getenv(EnvDBPassword),
		RedisPrefix: c.RedisPrefix,
	}

	if c.Store != "" {
		opts.Target = ExpandPath(c.Store)
		return opts
	}
	if lookup != nil {
		if conn, err := lookup(); err == nil && strings.TrimSpace(conn) != "" {
			opts.Target = conn
			opts.AllowCredentials = true
			return opts
		}
	}
	opts.Target = ExpandPath(constants.DefaultStorePath)
	return opts
}

// ExpandPath replaces a leading ~ with the user's home directory.
// Connection strings pass through unchanged.
func ExpandPath(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	return filepath.Join(home, p[2:])
}
