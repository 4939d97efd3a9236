package config

import (
	"errors"
	"fmt"
	"os"

	"scantrack/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Server     ServerConfig     `yaml:"server"`
	Scanner    ScannerConfig    `yaml:"scanner"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type ServerConfig struct {
	Port      int             `yaml:"port"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type AuthConfig struct {
	Enabled      bool        `yaml:"enabled"`
	HeaderAPIKey string      `yaml:"header_api_key"`
	APIKeys      []ClientKey `yaml:"api_keys"`
}

type ClientKey struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// ScannerConfig configures the operator console binary.
type ScannerConfig struct {
	RemoteURL     string `yaml:"remote_url"`
	APIKey        string `yaml:"api_key"`
	UserID        int64  `yaml:"user_id"`
	UserName      string `yaml:"user_name"`
	DeviceID      int64  `yaml:"device_id"` // 0 means web/manual scan, sent as null
	QueueStore    string `yaml:"queue_store"` // sqlite or file
	QueuePath     string `yaml:"queue_path"` // db file for sqlite, directory for file
	QueueKey      string `yaml:"queue_key"`
	HistorySize   int    `yaml:"history_size"`
	ProbeInterval int    `yaml:"probe_interval"` // seconds
}

func Load(configPath string) (*Config, error) {
	// .env подхватывается если существует, отсутствие не ошибка
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Scanner.QueueStore != "" && c.Scanner.QueueStore != "sqlite" && c.Scanner.QueueStore != "file" {
		return fmt.Errorf("unknown queue store %q, expected sqlite or file", c.Scanner.QueueStore)
	}

	if c.Scanner.HistorySize < 0 {
		return errors.New("scanner history_size cannot be negative")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Server.Auth.HeaderAPIKey == "" {
		c.Server.Auth.HeaderAPIKey = "x-api-key"
	}

	// Scanner defaults
	if c.Scanner.RemoteURL == "" {
		c.Scanner.RemoteURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	if c.Scanner.QueueStore == "" {
		c.Scanner.QueueStore = "sqlite"
	}
	if c.Scanner.QueuePath == "" {
		if c.Scanner.QueueStore == "file" {
			c.Scanner.QueuePath = "data/queue"
		} else {
			c.Scanner.QueuePath = "data/scanner.db"
		}
	}
	if c.Scanner.QueueKey == "" {
		c.Scanner.QueueKey = models.QueueStorageKey
	}
	if c.Scanner.HistorySize == 0 {
		c.Scanner.HistorySize = models.DefaultHistorySize
	}
	if c.Scanner.ProbeInterval == 0 {
		c.Scanner.ProbeInterval = models.DefaultProbeInterval
	}
}
