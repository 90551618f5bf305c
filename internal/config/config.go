// Package config loads the fichaje configuration.
//
// The file is named by the --config flag or the FICHAJE_CONFIG
// environment variable; without either, the defaults apply. Secrets may
// come from a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"fichaje/internal/directory"
)

const (
	EnvConfig       = "FICHAJE_CONFIG"
	EnvBindPassword = "FICHAJE_LDAP_BIND_PASSWORD"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Timezone  string          `yaml:"timezone"`
	Log       LogConfig       `yaml:"log"`
	Directory DirectoryConfig `yaml:"directory"`
}

type DatabaseConfig struct {
	// Path is the SQLite database file.
	Path string `yaml:"path"`
}

type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `yaml:"level"`

	// File, when set, receives JSON logs with size based rotation.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type DirectoryConfig struct {
	URL          string `yaml:"url"`
	BindDN       string `yaml:"bind_dn"`
	BindPassword string `yaml:"bind_password"`
	BaseDN       string `yaml:"base_dn"`
}

func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "fichaje.db"},
		Timezone: "Local",
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 30,
			MaxAgeDays: 90,
		},
		Directory: DirectoryConfig{
			BaseDN: "dc=example,dc=com",
		},
	}
}

// Load reads the file at path, or the one named by FICHAJE_CONFIG when
// path is empty, over the defaults. A missing .env file is ignored.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if pw := os.Getenv(EnvBindPassword); pw != "" {
		cfg.Directory.BindPassword = pw
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log.level: %s", c.Log.Level))
	}
	return errors.Join(errs...)
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LDAP returns the directory client settings.
func (c *Config) LDAP() directory.Config {
	return directory.Config{
		URL:          c.Directory.URL,
		BindDN:       c.Directory.BindDN,
		BindPassword: c.Directory.BindPassword,
		BaseDN:       c.Directory.BaseDN,
	}
}
