package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config представляет основную конфигурацию geonews.
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Logger   LoggerConfig   `json:"logger" yaml:"logger"`
	App      AppConfig      `json:"app" yaml:"app"`
	News     NewsConfig     `json:"news" yaml:"news"`
	Geocoder GeocoderConfig `json:"geocoder" yaml:"geocoder"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	Database DatabaseConfig `json:"database" yaml:"database"`
	Kafka    KafkaConfig    `json:"kafka" yaml:"kafka"`
}

type ServerConfig struct {
	Address string `json:"address" yaml:"address"`
}

// LoggerConfig содержит настройки логирования.
// Если File или ErrorFile пусты, вывод идет в stdout/stderr.
type LoggerConfig struct {
	Level      string `json:"level" yaml:"level"`
	File       string `json:"file" yaml:"file"`
	ErrorFile  string `json:"error_file" yaml:"error_file"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
}

// AppConfig содержит настройки цикла обхода стран и выдачи записей.
// Countries - необязательный список кодов ISO 3166-1 alpha-2; пустой список означает все страны.
type AppConfig struct {
	FetchInterval      string   `json:"fetch_interval" yaml:"fetch_interval"`
	FetchTimeout       string   `json:"fetch_timeout" yaml:"fetch_timeout"`
	Countries          []string `json:"countries" yaml:"countries"`
	DefaultRecordLimit int      `json:"default_record_limit" yaml:"default_record_limit"`
	MaxRecordLimit     int      `json:"max_record_limit" yaml:"max_record_limit"`
}

// NewsConfig описывает источник заголовков Google News.
type NewsConfig struct {
	BaseURL   string `json:"base_url" yaml:"base_url"`
	Language  string `json:"language" yaml:"language"`
	Country   string `json:"country" yaml:"country"`
	UserAgent string `json:"user_agent" yaml:"user_agent"`
	Timeout   string `json:"timeout" yaml:"timeout"`
}

// GeocoderConfig описывает геокодер Nominatim и кэш его ответов.
type GeocoderConfig struct {
	BaseURL   string `json:"base_url" yaml:"base_url"`
	UserAgent string `json:"user_agent" yaml:"user_agent"`
	Timeout   string `json:"timeout" yaml:"timeout"`
	CacheTTL  string `json:"cache_ttl" yaml:"cache_ttl"`
	CacheSize int64  `json:"cache_size" yaml:"cache_size"`
}

type StorageConfig struct {
	Driver     string `json:"driver" yaml:"driver"`
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path"`
}

// DatabaseConfig содержит параметры подключения к PostgreSQL.
type DatabaseConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	DBName   string `json:"dbname" yaml:"dbname"`
	SSLMode  string `json:"sslmode" yaml:"sslmode"`
}

// KafkaConfig включает публикацию записей, если задан хотя бы один брокер.
type KafkaConfig struct {
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

// Enabled сообщает, настроена ли публикация в Kafka.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// DSN возвращает строку подключения к PostgreSQL в формате URI.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.Username),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.DBName,
		c.SSLMode)
}

// Load загружает конфигурацию из файла. Файлы с расширением .yaml/.yml
// разбираются как YAML, остальные как JSON. Незаданные поля берутся из New().
func Load(configPath string) (*Config, error) {
	cfg := New()
	fileData, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(fileData, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML from file %s: %w", configPath, err)
		}
	default:
		if err := json.Unmarshal(fileData, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON from file %s: %w", configPath, err)
		}
	}
	return cfg, nil
}

// New создает новый экземпляр Config со значениями по умолчанию.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Address: ":8080",
		},
		Logger: LoggerConfig{
			Level:      "info",
			MaxSizeMB:  64,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
		App: AppConfig{
			FetchInterval:      "2s",
			FetchTimeout:       "30s",
			DefaultRecordLimit: 50,
			MaxRecordLimit:     500,
		},
		News: NewsConfig{
			BaseURL:   "https://news.google.com/rss",
			Language:  "en",
			Country:   "US",
			UserAgent: "geonews/1.0",
			Timeout:   "15s",
		},
		Geocoder: GeocoderConfig{
			BaseURL:   "https://nominatim.openstreetmap.org",
			UserAgent: "getloc",
			Timeout:   "10s",
			CacheTTL:  "24h",
			CacheSize: 1000,
		},
		Storage: StorageConfig{
			Driver: DriverMemory,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Kafka: KafkaConfig{
			Topic: "geonews_records",
		},
	}
}

// Validate проверяет корректность конфигурации.
// Возвращает ошибку с описанием первой найденной проблемы.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is not set")
	}
	durations := []struct{ name, raw string }{
		{"app.fetch_interval", c.App.FetchInterval},
		{"app.fetch_timeout", c.App.FetchTimeout},
		{"news.timeout", c.News.Timeout},
		{"geocoder.timeout", c.Geocoder.Timeout},
		{"geocoder.cache_ttl", c.Geocoder.CacheTTL},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
		if parsed <= 0 {
			return fmt.Errorf("%s must be positive", d.name)
		}
	}
	if c.App.DefaultRecordLimit <= 0 {
		return fmt.Errorf("app.default_record_limit must be a positive number")
	}
	if c.App.MaxRecordLimit < c.App.DefaultRecordLimit {
		return fmt.Errorf("app.max_record_limit cannot be less than app.default_record_limit")
	}
	if _, err := url.ParseRequestURI(c.News.BaseURL); err != nil {
		return fmt.Errorf("invalid news.base_url: %s", c.News.BaseURL)
	}
	if c.News.Language == "" || c.News.Country == "" {
		return fmt.Errorf("news.language and news.country must be set")
	}
	if _, err := url.ParseRequestURI(c.Geocoder.BaseURL); err != nil {
		return fmt.Errorf("invalid geocoder.base_url: %s", c.Geocoder.BaseURL)
	}
	if c.Geocoder.UserAgent == "" {
		return fmt.Errorf("geocoder.user_agent must be set")
	}
	if c.Geocoder.CacheSize <= 0 {
		return fmt.Errorf("geocoder.cache_size must be a positive number")
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is not set")
		}
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is not set")
		}
		if c.Database.Username == "" {
			return fmt.Errorf("database username is not set")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database password is not set")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic must be set when kafka.brokers are configured")
	}
	return nil
}

// Durations - разобранные значения интервалов из конфигурации.
type Durations struct {
	FetchInterval  time.Duration
	FetchTimeout   time.Duration
	NewsTimeout    time.Duration
	GeocodeTimeout time.Duration
	GeocodeTTL     time.Duration
}

// ParseDurations разбирает строковые интервалы. Вызывать после Validate.
func (c *Config) ParseDurations() (Durations, error) {
	var d Durations
	var err error
	if d.FetchInterval, err = time.ParseDuration(c.App.FetchInterval); err != nil {
		return d, fmt.Errorf("invalid app.fetch_interval: %w", err)
	}
	if d.FetchTimeout, err = time.ParseDuration(c.App.FetchTimeout); err != nil {
		return d, fmt.Errorf("invalid app.fetch_timeout: %w", err)
	}
	if d.NewsTimeout, err = time.ParseDuration(c.News.Timeout); err != nil {
		return d, fmt.Errorf("invalid news.timeout: %w", err)
	}
	if d.GeocodeTimeout, err = time.ParseDuration(c.Geocoder.Timeout); err != nil {
		return d, fmt.Errorf("invalid geocoder.timeout: %w", err)
	}
	if d.GeocodeTTL, err = time.ParseDuration(c.Geocoder.CacheTTL); err != nil {
		return d, fmt.Errorf("invalid geocoder.cache_ttl: %w", err)
	}
	return d, nil
}
