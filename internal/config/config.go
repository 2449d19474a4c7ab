// FilePath: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	TTN        TTNConfig
	Weather    WeatherConfig
	Alignment  AlignmentConfig
	Geometry   GeometryConfig
	Monitoring MonitoringConfig
	FileStore  FileStoreConfig
	Ingest     IngestConfig
	Display    DisplayConfig
	Debug      bool `mapstructure:"debug"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Warehouse PostgresConfig `mapstructure:"warehouse"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Table    string `mapstructure:"table"`
	// MaxGateways is the number of indexed *_gw_{i} column groups in the table.
	MaxGateways int `mapstructure:"max_gateways"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type TTNConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	ApplicationID     string        `mapstructure:"application_id"`
	APIKey            string        `mapstructure:"api_key"`
	Lookback          time.Duration `mapstructure:"lookback"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
}

type WeatherConfig struct {
	ForecastURL       string        `mapstructure:"forecast_url"`
	ArchiveURL        string        `mapstructure:"archive_url"`
	ArchiveAfter      time.Duration `mapstructure:"archive_after"`
	Latitude          float64       `mapstructure:"latitude"`
	Longitude         float64       `mapstructure:"longitude"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

type AlignmentConfig struct {
	Bucket        time.Duration `mapstructure:"bucket"`
	MaxTolerance  time.Duration `mapstructure:"max_tolerance"`
	HistoryWindow time.Duration `mapstructure:"history_window"`
}

type GeometryConfig struct {
	Unclamped bool `mapstructure:"unclamped"`
}

type MonitoringConfig struct {
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
}

type FileStoreConfig struct {
	BasePath        string        `mapstructure:"base_path"`
	Retention       time.Duration `mapstructure:"retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type IngestConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	Tenant   string `mapstructure:"tenant"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	ClientID string `mapstructure:"client_id"`
	QoS      byte   `mapstructure:"qos"`
}

type DisplayConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetEnvPrefix("BOAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("server.allowed_origins", []string{"*"})

	// Warehouse defaults, empty keys are registered so env overrides reach Unmarshal
	viper.SetDefault("database.warehouse.host", "")
	viper.SetDefault("database.warehouse.port", 5432)
	viper.SetDefault("database.warehouse.user", "")
	viper.SetDefault("database.warehouse.password", "")
	viper.SetDefault("database.warehouse.dbname", "")
	viper.SetDefault("database.warehouse.sslmode", "disable")
	viper.SetDefault("database.warehouse.table", "lora_iot")
	viper.SetDefault("database.warehouse.max_gateways", 3)

	// Redis defaults
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttl", "10m")

	// Device network defaults
	viper.SetDefault("ttn.base_url", "https://eu1.cloud.thethings.network")
	viper.SetDefault("ttn.application_id", "")
	viper.SetDefault("ttn.api_key", "")
	viper.SetDefault("ttn.lookback", "1h")
	viper.SetDefault("ttn.timeout", "15s")
	viper.SetDefault("ttn.requests_per_second", 1.0)
	viper.SetDefault("ttn.burst", 3)
	viper.SetDefault("ttn.max_retries", 2)
	viper.SetDefault("ttn.retry_backoff", "1s")

	// Weather defaults
	viper.SetDefault("weather.forecast_url", "https://api.open-meteo.com/v1/forecast")
	viper.SetDefault("weather.archive_url", "https://archive-api.open-meteo.com/v1/archive")
	viper.SetDefault("weather.archive_after", "2160h")
	viper.SetDefault("weather.latitude", 0.0)
	viper.SetDefault("weather.longitude", 0.0)
	viper.SetDefault("weather.timeout", "15s")
	viper.SetDefault("weather.requests_per_second", 1.0)
	viper.SetDefault("weather.burst", 3)

	// Alignment defaults, zero tolerance means unbounded nearest match
	viper.SetDefault("alignment.bucket", "1h")
	viper.SetDefault("alignment.max_tolerance", "0s")
	viper.SetDefault("alignment.history_window", "168h")

	viper.SetDefault("geometry.unclamped", false)

	viper.SetDefault("monitoring.metrics_enabled", true)

	viper.SetDefault("filestore.base_path", "./data")
	viper.SetDefault("filestore.retention", "720h")
	viper.SetDefault("filestore.cleanup_interval", "6h")

	// MQTT ingest defaults
	viper.SetDefault("ingest.enabled", false)
	viper.SetDefault("ingest.broker", "tls://eu1.cloud.thethings.network:8883")
	viper.SetDefault("ingest.tenant", "ttn")
	viper.SetDefault("ingest.username", "")
	viper.SetDefault("ingest.password", "")
	viper.SetDefault("ingest.client_id", "boat-monitor-hub")
	viper.SetDefault("ingest.qos", 1)

	viper.SetDefault("display.timezone", "Europe/Zurich")
	viper.SetDefault("debug", false)
}

func validateConfig(config *Config) error {
	if config.Database.Warehouse.Host == "" {
		return fmt.Errorf("warehouse host is required")
	}
	if config.TTN.ApplicationID == "" {
		return fmt.Errorf("ttn application id is required")
	}
	if config.TTN.APIKey == "" {
		return fmt.Errorf("ttn api key is required")
	}
	if config.Alignment.Bucket <= 0 {
		return fmt.Errorf("alignment bucket must be positive")
	}
	if config.Alignment.MaxTolerance < 0 {
		return fmt.Errorf("alignment max tolerance must not be negative")
	}
	if config.Database.Warehouse.MaxGateways < 0 {
		return fmt.Errorf("warehouse max_gateways must not be negative")
	}
	if config.Ingest.Enabled && config.Ingest.Broker == "" {
		return fmt.Errorf("ingest broker is required when ingest is enabled")
	}
	if _, err := time.LoadLocation(config.Display.Timezone); err != nil {
		return fmt.Errorf("invalid display timezone %q: %w", config.Display.Timezone, err)
	}
	return nil
}
