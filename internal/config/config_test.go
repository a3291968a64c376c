// Package config provides configuration management for realmstats.
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

var settingKeys = []string{
	EnvDataDir, EnvHost, EnvPort, EnvSessionsDir, EnvMasterStats,
	EnvTitles, EnvDB, EnvAdminToken, EnvTitleMatch,
}

// ConfigSuite is a test suite for config operations.
type ConfigSuite struct {
	suite.Suite
	tempDir string
}

func (s *ConfigSuite) SetupTest() {
	s.tempDir = s.T().TempDir()
	s.T().Setenv("HOME", s.tempDir)
	for _, key := range settingKeys {
		s.T().Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) writeSettings(content string) {
	dir := filepath.Join(s.tempDir, ".realmstats")
	s.Require().NoError(os.MkdirAll(dir, 0750))
	s.Require().NoError(os.WriteFile(filepath.Join(dir, "settings.json"), []byte(content), 0600))
}

// TestDefault tests default configuration values.
func (s *ConfigSuite) TestDefault() {
	cfg := Default()

	s.Equal(DefaultPort, cfg.Port)
	s.Equal(DefaultHost, cfg.Host)
	s.Equal(TitleMatchPrefix, cfg.TitleMatch)
	s.Equal(filepath.Join(s.tempDir, ".realmstats", "sessions"), cfg.SessionsDir)
	s.Equal(filepath.Join(s.tempDir, ".realmstats", "stats", "master_stats.json"), cfg.MasterStatsPath)
	s.Contains(cfg.DBPath, "realmstats.db")
	s.False(cfg.AdminEnabled())
}

// TestDataDir_Override tests the data directory environment override.
func (s *ConfigSuite) TestDataDir_Override() {
	s.T().Setenv(EnvDataDir, "/srv/realm")
	s.Equal("/srv/realm", DataDir())
	s.Equal("/srv/realm/settings.json", SettingsPath())
}

// TestEnsureDataDir tests data directory creation.
func (s *ConfigSuite) TestEnsureDataDir() {
	s.NoError(EnsureDataDir())

	info, err := os.Stat(DataDir())
	s.NoError(err)
	s.True(info.IsDir())
}

// TestLoad_TableDriven tests configuration loading with various settings files.
func (s *ConfigSuite) TestLoad_TableDriven() {
	tests := []struct {
		name          string
		settingsJSON  string
		expectedPort  int
		expectedMatch string
		expectedDir   string
	}{
		{
			name:          "no settings file",
			expectedPort:  DefaultPort,
			expectedMatch: TitleMatchPrefix,
		},
		{
			name:          "custom port",
			settingsJSON:  `{"REALMSTATS_PORT": 38888}`,
			expectedPort:  38888,
			expectedMatch: TitleMatchPrefix,
		},
		{
			name:          "string port",
			settingsJSON:  `{"REALMSTATS_PORT": "39000"}`,
			expectedPort:  39000,
			expectedMatch: TitleMatchPrefix,
		},
		{
			name:          "exact title match",
			settingsJSON:  `{"REALMSTATS_TITLE_MATCH": "EXACT"}`,
			expectedPort:  DefaultPort,
			expectedMatch: TitleMatchExact,
		},
		{
			name:          "unknown title match ignored",
			settingsJSON:  `{"REALMSTATS_TITLE_MATCH": "fuzzy"}`,
			expectedPort:  DefaultPort,
			expectedMatch: TitleMatchPrefix,
		},
		{
			name:          "sessions dir",
			settingsJSON:  `{"REALMSTATS_SESSIONS_DIR": "/data/sessions"}`,
			expectedPort:  DefaultPort,
			expectedMatch: TitleMatchPrefix,
			expectedDir:   "/data/sessions",
		},
		{
			name:          "invalid JSON returns defaults",
			settingsJSON:  `{invalid}`,
			expectedPort:  DefaultPort,
			expectedMatch: TitleMatchPrefix,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			os.Remove(SettingsPath())
			if tt.settingsJSON != "" {
				s.writeSettings(tt.settingsJSON)
			}

			cfg, err := Load()
			s.Require().NoError(err)
			s.Equal(tt.expectedPort, cfg.Port)
			s.Equal(tt.expectedMatch, cfg.TitleMatch)
			if tt.expectedDir != "" {
				s.Equal(tt.expectedDir, cfg.SessionsDir)
			}
		})
	}
}

// TestLoad_EnvOverridesSettings tests that the environment wins over settings.json.
func (s *ConfigSuite) TestLoad_EnvOverridesSettings() {
	s.writeSettings(`{"REALMSTATS_PORT": 38888, "REALMSTATS_ADMIN_TOKEN": "from-file"}`)
	s.T().Setenv(EnvPort, "40000")
	s.T().Setenv(EnvAdminToken, "from-env")

	cfg, err := Load()
	s.Require().NoError(err)
	s.Equal(40000, cfg.Port)
	s.Equal("from-env", cfg.AdminToken)
	s.True(cfg.AdminEnabled())
	s.Equal("127.0.0.1:40000", cfg.Addr())
}

// TestLoad_InvalidPortIgnored tests that out-of-range ports fall back.
func (s *ConfigSuite) TestLoad_InvalidPortIgnored() {
	for _, v := range []string{"not-a-number", "0", "70000"} {
		s.T().Setenv(EnvPort, v)
		cfg, err := Load()
		s.Require().NoError(err)
		s.Equal(DefaultPort, cfg.Port, "port %q", v)
	}
}
