package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew_DefaultsAreValid(t *testing.T) {
	cfg := New()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "getloc", cfg.Geocoder.UserAgent)
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoad_JSONOverridesDefaults(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"server": {"address": ":9090"},
		"app": {"fetch_interval": "5s", "countries": ["FR", "DE"]},
		"storage": {"driver": "sqlite", "sqlite_path": "geonews.db"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, []string{"FR", "DE"}, cfg.App.Countries)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "30s", cfg.App.FetchTimeout)

	d, err := cfg.ParseDurations()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d.FetchInterval)
	assert.Equal(t, 24*time.Hour, d.GeocodeTTL)
	assert.Equal(t, 15*time.Second, d.NewsTimeout)
	assert.Equal(t, 10*time.Second, d.GeocodeTimeout)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
logger:
  level: debug
kafka:
  brokers: ["localhost:9092"]
  topic: headlines
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, "headlines", cfg.Kafka.Topic)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeFile(t, "broken.json", `{"server":`))
	assert.ErrorContains(t, err, "failed to parse JSON")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"bad interval", func(c *Config) { c.App.FetchInterval = "soon" }, "invalid app.fetch_interval"},
		{"zero timeout", func(c *Config) { c.App.FetchTimeout = "0s" }, "app.fetch_timeout must be positive"},
		{"limit", func(c *Config) { c.App.DefaultRecordLimit = 0 }, "default_record_limit"},
		{"max below default", func(c *Config) { c.App.MaxRecordLimit = 1 }, "max_record_limit"},
		{"news url", func(c *Config) { c.News.BaseURL = "not a url" }, "news.base_url"},
		{"geocoder timeout", func(c *Config) { c.Geocoder.Timeout = "-1s" }, "geocoder.timeout must be positive"},
		{"geocoder agent", func(c *Config) { c.Geocoder.UserAgent = "" }, "geocoder.user_agent"},
		{"driver", func(c *Config) { c.Storage.Driver = "mongo" }, "unknown storage.driver"},
		{"sqlite path", func(c *Config) { c.Storage.Driver = DriverSQLite }, "sqlite_path"},
		{"postgres user", func(c *Config) { c.Storage.Driver = DriverPostgres }, "database username"},
		{"kafka topic", func(c *Config) {
			c.Kafka.Brokers = []string{"k:9092"}
			c.Kafka.Topic = ""
		}, "kafka.topic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, Username: "geo", Password: "p@ss", DBName: "geonews", SSLMode: "disable"}
	assert.Equal(t, "postgres://geo:p%40ss@db:5432/geonews?sslmode=disable", db.DSN())
}
