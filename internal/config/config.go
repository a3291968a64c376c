// Package config provides configuration management for realmstats.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

const (
	// DefaultPort is the HTTP port the stats service listens on.
	DefaultPort = 37880
	// DefaultHost is the interface the stats service binds to.
	DefaultHost = "127.0.0.1"

	// TitleMatchPrefix compares override keys and session ids up to the first '_'.
	TitleMatchPrefix = "prefix"
	// TitleMatchExact compares override keys against the full session id.
	TitleMatchExact = "exact"
)

// Setting keys, shared between settings.json and the environment.
const (
	EnvDataDir     = "REALMSTATS_DATA_DIR"
	EnvHost        = "REALMSTATS_HOST"
	EnvPort        = "REALMSTATS_PORT"
	EnvSessionsDir = "REALMSTATS_SESSIONS_DIR"
	EnvMasterStats = "REALMSTATS_MASTER_STATS"
	EnvTitles      = "REALMSTATS_TITLES"
	EnvDB          = "REALMSTATS_DB"
	EnvAdminToken  = "REALMSTATS_ADMIN_TOKEN"
	EnvTitleMatch  = "REALMSTATS_TITLE_MATCH"
)

// Config holds realmstats configuration. Paths are resolved once at startup.
type Config struct {
	Host            string
	Port            int
	SessionsDir     string
	MasterStatsPath string
	TitlesPath      string
	DBPath          string
	AdminToken      string
	TitleMatch      string
}

// DataDir returns the realmstats data directory.
func DataDir() string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".realmstats")
}

// SettingsPath returns the settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), "settings.json")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0750)
}

// Default returns the default configuration rooted at DataDir.
func Default() *Config {
	dir := DataDir()
	return &Config{
		Host:            DefaultHost,
		Port:            DefaultPort,
		SessionsDir:     filepath.Join(dir, "sessions"),
		MasterStatsPath: filepath.Join(dir, "stats", "master_stats.json"),
		TitlesPath:      filepath.Join(dir, "session_titles.json"),
		DBPath:          filepath.Join(dir, "realmstats.db"),
		TitleMatch:      TitleMatchPrefix,
	}
}

// Load reads settings.json and then applies environment overrides.
// A missing or unparsable settings file yields the defaults.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	if err == nil {
		var settings map[string]interface{}
		if json.Unmarshal(data, &settings) == nil {
			cfg.apply(func(key string) (string, bool) {
				v, ok := settings[key]
				if !ok {
					return "", false
				}
				switch t := v.(type) {
				case string:
					return t, true
				case float64:
					return strconv.FormatInt(int64(t), 10), true
				}
				return "", false
			})
		}
	}

	cfg.apply(os.LookupEnv)
	return cfg, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// AdminEnabled reports whether admin endpoints accept requests.
func (c *Config) AdminEnabled() bool {
	return c.AdminToken != ""
}

func (c *Config) apply(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str(EnvHost, &c.Host)
	str(EnvSessionsDir, &c.SessionsDir)
	str(EnvMasterStats, &c.MasterStatsPath)
	str(EnvTitles, &c.TitlesPath)
	str(EnvDB, &c.DBPath)
	str(EnvAdminToken, &c.AdminToken)

	if v, ok := lookup(EnvPort); ok {
		if port, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && port > 0 && port < 65536 {
			c.Port = port
		}
	}
	if v, ok := lookup(EnvTitleMatch); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case TitleMatchExact:
			c.TitleMatch = TitleMatchExact
		case TitleMatchPrefix:
			c.TitleMatch = TitleMatchPrefix
		}
	}
}
