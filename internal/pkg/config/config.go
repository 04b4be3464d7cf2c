package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Valkey     ValkeyConfig     `mapstructure:"valkey"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Temporal   TemporalConfig   `mapstructure:"temporal"`
	Log        LogConfig        `mapstructure:"log"`
	Elevation  ElevationConfig  `mapstructure:"elevation"`
	Fetcher    FetcherConfig    `mapstructure:"fetcher"`
	Conversion ConversionConfig `mapstructure:"conversion"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
	BodyLimitKB  int `mapstructure:"body_limit_kb"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// ElevationConfig points at an Open-Meteo compatible elevation API.
type ElevationConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	BaseURL   string `mapstructure:"base_url"`
	Timeout   int    `mapstructure:"timeout"`
	BatchSize int    `mapstructure:"batch_size"`
	CacheSize int    `mapstructure:"cache_size"`
	CacheTTL  int    `mapstructure:"cache_ttl"`
}

type FetcherConfig struct {
	UserAgent    string `mapstructure:"user_agent"`
	Timeout      int    `mapstructure:"timeout"`
	MaxBodyMB    int    `mapstructure:"max_body_mb"`
	MaxRedirects int    `mapstructure:"max_redirects"`
}

type ConversionConfig struct {
	DefaultShape string `mapstructure:"default_shape"`
	SummaryLimit int    `mapstructure:"summary_limit"`
	Creator      string `mapstructure:"creator"`
	HelpURL      string `mapstructure:"help_url"`
}

// Load reads configuration from an optional .env file, an optional config
// file and environment variables, in increasing precedence.
func Load(service string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.body_limit_kb", 8192)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "ymaps2gpx")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "ymaps2gpx")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.enabled", false)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "gpx-merge-queue")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 14)
	v.SetDefault("elevation.enabled", true)
	v.SetDefault("elevation.base_url", "https://api.open-meteo.com/v1/elevation")
	v.SetDefault("elevation.timeout", 10)
	v.SetDefault("elevation.batch_size", 100)
	v.SetDefault("elevation.cache_size", 100000)
	v.SetDefault("elevation.cache_ttl", 86400)
	v.SetDefault("fetcher.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36")
	v.SetDefault("fetcher.timeout", 20)
	v.SetDefault("fetcher.max_body_mb", 16)
	v.SetDefault("fetcher.max_redirects", 5)
	v.SetDefault("conversion.default_shape", "tracks")
	v.SetDefault("conversion.summary_limit", 10)
	v.SetDefault("conversion.creator", "ymaps2gpx")
	v.SetDefault("conversion.help_url", "https://github.com/samirrijal/ymaps2gpx#faq")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: YMAPS2GPX_ELEVATION_BASE_URL → elevation.base_url
	v.SetEnvPrefix("YMAPS2GPX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Elevation.Enabled {
		if c.Elevation.BaseURL == "" {
			errs = append(errs, "elevation.base_url is required")
		}
		if c.Elevation.BatchSize <= 0 {
			errs = append(errs, "elevation.batch_size must be positive")
		}
		if c.Elevation.Timeout <= 0 {
			errs = append(errs, "elevation.timeout must be positive")
		}
	}
	if c.Fetcher.Timeout <= 0 {
		errs = append(errs, "fetcher.timeout must be positive")
	}
	if c.Conversion.SummaryLimit <= 0 {
		errs = append(errs, "conversion.summary_limit must be positive")
	}
	switch c.Conversion.DefaultShape {
	case "routes", "tracks", "segments":
	default:
		errs = append(errs, fmt.Sprintf("conversion.default_shape must be routes, tracks or segments, got %q", c.Conversion.DefaultShape))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
