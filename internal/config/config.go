// Package config handles the XDG configuration directory, file paths,
// and the optional config.toml settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// AppName is the application directory name.
	AppName = "taskboard"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"

	// SettingsFile is the TOML settings filename.
	SettingsFile = "config.toml"
)

// Environment variables that override settings.
const (
	EnvAPIURL      = "TASKBOARD_API_URL"
	EnvDatabaseURL = "DATABASE_URL"
)

// Backend names.
const (
	BackendREST        = "rest"
	BackendGoogleTasks = "googletasks"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Offline skips the remote service and works from the local cache.
	Offline bool

	// Settings holds values from config.toml layered over defaults.
	Settings Settings
}

// Settings mirrors config.toml.
type Settings struct {
	Backend string         `toml:"backend"`
	API     APISettings    `toml:"api"`
	Google  GoogleSettings `toml:"google"`
	Cache   CacheSettings  `toml:"cache"`
	Server  ServerSettings `toml:"server"`
	Log     LogSettings    `toml:"log"`
}

type APISettings struct {
	BaseURL string   `toml:"base_url"`
	Timeout Duration `toml:"timeout"`
	Token   string   `toml:"token"`
}

type GoogleSettings struct {
	TaskList string `toml:"tasklist"`
}

type CacheSettings struct {
	// Driver is file, sqlite, or memory.
	Driver string `toml:"driver"`

	// Path is a directory for the file driver and a database file for sqlite.
	// Empty means a default under the config directory.
	Path string `toml:"path"`
}

type ServerSettings struct {
	Addr   string `toml:"addr"`
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

type LogSettings struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a string ("5s") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultSettings returns the settings used when config.toml is absent.
func DefaultSettings() Settings {
	return Settings{
		Backend: BackendREST,
		API: APISettings{
			BaseURL: "http://localhost:5000/api",
			Timeout: Duration{5 * time.Second},
		},
		Google: GoogleSettings{TaskList: "@default"},
		Cache:  CacheSettings{Driver: "file"},
		Server: ServerSettings{Addr: ":5000", Driver: "sqlite3"},
		Log:    LogSettings{Level: "warn"},
	}
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/taskboard or $HOME/.config/taskboard.
// Settings are read from config.toml when it exists.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}
	settings, err := LoadSettings(cfg.SettingsPath())
	if err != nil {
		return nil, err
	}
	cfg.Settings = settings
	return cfg, nil
}

// LoadSettings decodes path over DefaultSettings and applies environment
// overrides. A missing file is not an error.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if _, err := toml.DecodeFile(path, &s); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("failed to read %s: %w", SettingsFile, err)
	}
	if v := os.Getenv(EnvAPIURL); v != "" {
		s.API.BaseURL = v
	}
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		s.Server.DSN = v
	}
	switch s.Backend {
	case BackendREST, BackendGoogleTasks:
	default:
		return Settings{}, fmt.Errorf("unknown backend in %s: %s", SettingsFile, s.Backend)
	}
	return s, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SettingsPath returns the path to config.toml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// CachePath returns the configured cache location, defaulting to
// <dir>/cache for the file driver and <dir>/cache.db for sqlite.
func (c *Config) CachePath() string {
	if c.Settings.Cache.Path != "" {
		return c.Settings.Cache.Path
	}
	if c.Settings.Cache.Driver == "sqlite" {
		return filepath.Join(c.Dir, "cache.db")
	}
	return filepath.Join(c.Dir, "cache")
}

// ServerDSN returns the server database DSN, defaulting to <dir>/tasks.db.
func (c *Config) ServerDSN() string {
	if c.Settings.Server.DSN != "" {
		return c.Settings.Server.DSN
	}
	return filepath.Join(c.Dir, "tasks.db")
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
