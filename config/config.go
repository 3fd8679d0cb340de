package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	App        AppConfig
	Server     ServerConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Usage      UsageConfig
	Geocoder   GeocoderConfig
	Fare       FareConfig
	Submission SubmissionConfig
}

// AppConfig holds process-wide settings.
type AppConfig struct {
	Env      string `mapstructure:"APP_ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	Timezone string `mapstructure:"APP_TIMEZONE"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"SERVER_HOST"`
	Port         int           `mapstructure:"SERVER_PORT"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `mapstructure:"SERVER_IDLE_TIMEOUT"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `mapstructure:"POSTGRES_HOST"`
	Port     int    `mapstructure:"POSTGRES_PORT"`
	User     string `mapstructure:"POSTGRES_USER"`
	Password string `mapstructure:"POSTGRES_PASSWORD"`
	DBName   string `mapstructure:"POSTGRES_DB"`
	SSLMode  string `mapstructure:"POSTGRES_SSLMODE"`
	MaxConns int32  `mapstructure:"POSTGRES_MAX_CONNS"`
	MinConns int32  `mapstructure:"POSTGRES_MIN_CONNS"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     int    `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
	PoolSize int    `mapstructure:"REDIS_POOL_SIZE"`
}

// Usage store backends.
const (
	UsageBackendFile     = "file"
	UsageBackendRedis    = "redis"
	UsageBackendPostgres = "postgres"
)

// UsageConfig selects where route usage statistics are kept.
type UsageConfig struct {
	Backend         string `mapstructure:"USAGE_STORE"`
	FilePath        string `mapstructure:"USAGE_FILE"`
	RedisKey        string `mapstructure:"USAGE_REDIS_KEY"`
	PopularMinCount int    `mapstructure:"USAGE_POPULAR_MIN_COUNT"`
}

// Geocoding providers.
const (
	GeocoderPostcodesIO = "postcodes"
	GeocoderGoogle      = "google"
)

// GeocoderConfig holds postcode lookup settings.
type GeocoderConfig struct {
	Provider         string        `mapstructure:"GEOCODER_PROVIDER"`
	PostcodesBaseURL string        `mapstructure:"GEOCODER_POSTCODES_URL"`
	GoogleAPIKey     string        `mapstructure:"GEOCODER_GOOGLE_API_KEY"`
	Timeout          time.Duration `mapstructure:"GEOCODER_TIMEOUT"`
	CacheTTL         time.Duration `mapstructure:"GEOCODER_CACHE_TTL"`
}

// FareConfig holds quoting policy.
type FareConfig struct {
	TableFile        string  `mapstructure:"FARE_TABLE_FILE"`
	MinDistanceMiles float64 `mapstructure:"FARE_MIN_DISTANCE_MILES"`
	MaxDistanceMiles float64 `mapstructure:"FARE_MAX_DISTANCE_MILES"`
}

// Quote-request sinks.
const (
	SinkLog     = "log"
	SinkWebhook = "webhook"
)

// SubmissionConfig holds quote-request delivery settings.
type SubmissionConfig struct {
	Sink       string        `mapstructure:"SUBMISSION_SINK"`
	WebhookURL string        `mapstructure:"SUBMISSION_WEBHOOK_URL"`
	Timeout    time.Duration `mapstructure:"SUBMISSION_TIMEOUT"`
}

// DSN returns the PostgreSQL connection string.
func (p *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode,
	)
}

// Addr returns the Redis address in host:port format.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ServerAddr returns the HTTP listen address in host:port format.
func (s *ServerConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Location loads the configured time zone.
func (a *AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: APP_TIMEZONE %q: %w", a.Timezone, err)
	}
	return loc, nil
}

// NeedsRedis reports whether any configured component uses Redis.
func (c *Config) NeedsRedis() bool {
	return c.Usage.Backend == UsageBackendRedis || c.Geocoder.CacheTTL > 0
}

// NeedsPostgres reports whether any configured component uses PostgreSQL.
func (c *Config) NeedsPostgres() bool {
	return c.Usage.Backend == UsageBackendPostgres
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// ── Defaults ────────────────────────────────────────
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("APP_TIMEZONE", "Europe/London")

	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("SERVER_READ_TIMEOUT", "5s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	viper.SetDefault("SERVER_IDLE_TIMEOUT", "120s")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "farequote")
	viper.SetDefault("POSTGRES_PASSWORD", "farequote_secret")
	viper.SetDefault("POSTGRES_DB", "farequote")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")
	viper.SetDefault("POSTGRES_MAX_CONNS", 10)
	viper.SetDefault("POSTGRES_MIN_CONNS", 2)

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_POOL_SIZE", 20)

	viper.SetDefault("USAGE_STORE", UsageBackendFile)
	viper.SetDefault("USAGE_FILE", "villageTaxiRoutes.json")
	viper.SetDefault("USAGE_REDIS_KEY", "villageTaxiRoutes")
	viper.SetDefault("USAGE_POPULAR_MIN_COUNT", 3)

	viper.SetDefault("GEOCODER_PROVIDER", GeocoderPostcodesIO)
	viper.SetDefault("GEOCODER_POSTCODES_URL", "https://api.postcodes.io")
	viper.SetDefault("GEOCODER_GOOGLE_API_KEY", "")
	viper.SetDefault("GEOCODER_TIMEOUT", "5s")
	viper.SetDefault("GEOCODER_CACHE_TTL", "0s")

	viper.SetDefault("FARE_TABLE_FILE", "")
	viper.SetDefault("FARE_MIN_DISTANCE_MILES", 0.5)
	viper.SetDefault("FARE_MAX_DISTANCE_MILES", 100.0)

	viper.SetDefault("SUBMISSION_SINK", SinkLog)
	viper.SetDefault("SUBMISSION_WEBHOOK_URL", "")
	viper.SetDefault("SUBMISSION_TIMEOUT", "10s")

	// Try to read .env file. If it doesn't exist (e.g., inside Docker),
	// env vars injected by docker-compose env_file are used instead.
	_ = viper.ReadInConfig()

	cfg := &Config{}

	// ── App ─────────────────────────────────────────────
	cfg.App = AppConfig{
		Env:      viper.GetString("APP_ENV"),
		LogLevel: viper.GetString("LOG_LEVEL"),
		Timezone: viper.GetString("APP_TIMEZONE"),
	}

	// ── Server ──────────────────────────────────────────
	cfg.Server = ServerConfig{
		Host:         viper.GetString("SERVER_HOST"),
		Port:         viper.GetInt("SERVER_PORT"),
		ReadTimeout:  viper.GetDuration("SERVER_READ_TIMEOUT"),
		WriteTimeout: viper.GetDuration("SERVER_WRITE_TIMEOUT"),
		IdleTimeout:  viper.GetDuration("SERVER_IDLE_TIMEOUT"),
	}

	// ── Postgres ────────────────────────────────────────
	cfg.Postgres = PostgresConfig{
		Host:     viper.GetString("POSTGRES_HOST"),
		Port:     viper.GetInt("POSTGRES_PORT"),
		User:     viper.GetString("POSTGRES_USER"),
		Password: viper.GetString("POSTGRES_PASSWORD"),
		DBName:   viper.GetString("POSTGRES_DB"),
		SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		MaxConns: viper.GetInt32("POSTGRES_MAX_CONNS"),
		MinConns: viper.GetInt32("POSTGRES_MIN_CONNS"),
	}

	// ── Redis ───────────────────────────────────────────
	cfg.Redis = RedisConfig{
		Host:     viper.GetString("REDIS_HOST"),
		Port:     viper.GetInt("REDIS_PORT"),
		Password: viper.GetString("REDIS_PASSWORD"),
		DB:       viper.GetInt("REDIS_DB"),
		PoolSize: viper.GetInt("REDIS_POOL_SIZE"),
	}

	// ── Usage store ─────────────────────────────────────
	cfg.Usage = UsageConfig{
		Backend:         viper.GetString("USAGE_STORE"),
		FilePath:        viper.GetString("USAGE_FILE"),
		RedisKey:        viper.GetString("USAGE_REDIS_KEY"),
		PopularMinCount: viper.GetInt("USAGE_POPULAR_MIN_COUNT"),
	}

	// ── Geocoder ────────────────────────────────────────
	cfg.Geocoder = GeocoderConfig{
		Provider:         viper.GetString("GEOCODER_PROVIDER"),
		PostcodesBaseURL: viper.GetString("GEOCODER_POSTCODES_URL"),
		GoogleAPIKey:     viper.GetString("GEOCODER_GOOGLE_API_KEY"),
		Timeout:          viper.GetDuration("GEOCODER_TIMEOUT"),
		CacheTTL:         viper.GetDuration("GEOCODER_CACHE_TTL"),
	}

	// ── Fare policy ─────────────────────────────────────
	cfg.Fare = FareConfig{
		TableFile:        viper.GetString("FARE_TABLE_FILE"),
		MinDistanceMiles: viper.GetFloat64("FARE_MIN_DISTANCE_MILES"),
		MaxDistanceMiles: viper.GetFloat64("FARE_MAX_DISTANCE_MILES"),
	}

	// ── Submission ──────────────────────────────────────
	cfg.Submission = SubmissionConfig{
		Sink:       viper.GetString("SUBMISSION_SINK"),
		WebhookURL: viper.GetString("SUBMISSION_WEBHOOK_URL"),
		Timeout:    viper.GetDuration("SUBMISSION_TIMEOUT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects inconsistent settings.
func (c *Config) Validate() error {
	switch c.Usage.Backend {
	case UsageBackendFile, UsageBackendRedis, UsageBackendPostgres:
	default:
		return fmt.Errorf("config: unknown USAGE_STORE %q", c.Usage.Backend)
	}

	switch c.Geocoder.Provider {
	case GeocoderPostcodesIO:
	case GeocoderGoogle:
		if c.Geocoder.GoogleAPIKey == "" {
			return fmt.Errorf("config: GEOCODER_GOOGLE_API_KEY is required for the google provider")
		}
	default:
		return fmt.Errorf("config: unknown GEOCODER_PROVIDER %q", c.Geocoder.Provider)
	}

	switch c.Submission.Sink {
	case SinkLog:
	case SinkWebhook:
		if c.Submission.WebhookURL == "" {
			return fmt.Errorf("config: SUBMISSION_WEBHOOK_URL is required for the webhook sink")
		}
	default:
		return fmt.Errorf("config: unknown SUBMISSION_SINK %q", c.Submission.Sink)
	}

	if c.Fare.MinDistanceMiles < 0 || c.Fare.MaxDistanceMiles <= c.Fare.MinDistanceMiles {
		return fmt.Errorf("config: distance bounds [%v, %v] are invalid",
			c.Fare.MinDistanceMiles, c.Fare.MaxDistanceMiles)
	}
	return nil
}
