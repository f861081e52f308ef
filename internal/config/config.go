package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Analytics AnalyticsConfig
	Log       LogConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	Timezone     string
	MaxIdleConns int
	MaxOpenConns int
	AutoMigrate  bool
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

// CacheConfig selects where the anchor date and top-item rankings are memoized.
type CacheConfig struct {
	Backend       string // "memory" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string
	TTL           time.Duration // zero keeps entries until invalidated
}

type AnalyticsConfig struct {
	QueryTimeout   time.Duration
	TopItemsLimit  int
	BundleLimit    int
	LabelMaxLen    int
	CurrencyPrefix string
}

type LogConfig struct {
	Level  string
	Format string
}

type TracingConfig struct {
	Enabled  bool
	Exporter string // "stdout" or "otlp"
	Endpoint string
}

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"

	TracingExporterStdout = "stdout"
	TracingExporterOTLP   = "otlp"
)

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	setDefaults()

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Database: DatabaseConfig{
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetString("DB_PORT"),
			Name:         viper.GetString("DB_NAME"),
			User:         viper.GetString("DB_USER"),
			Password:     viper.GetString("DB_PASSWORD"),
			SSLMode:      viper.GetString("DB_SSL_MODE"),
			Timezone:     viper.GetString("DB_TIMEZONE"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
			AutoMigrate:  viper.GetBool("DB_AUTO_MIGRATE"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Cache: CacheConfig{
			Backend:       viper.GetString("CACHE_BACKEND"),
			RedisAddr:     viper.GetString("REDIS_ADDR"),
			RedisPassword: viper.GetString("REDIS_PASSWORD"),
			RedisDB:       viper.GetInt("REDIS_DB"),
			Prefix:        viper.GetString("CACHE_PREFIX"),
			TTL:           time.Duration(viper.GetInt("CACHE_TTL_SECONDS")) * time.Second,
		},
		Analytics: AnalyticsConfig{
			QueryTimeout:   time.Duration(viper.GetInt("ANALYTICS_QUERY_TIMEOUT_SECONDS")) * time.Second,
			TopItemsLimit:  viper.GetInt("ANALYTICS_TOP_ITEMS_LIMIT"),
			BundleLimit:    viper.GetInt("ANALYTICS_BUNDLE_LIMIT"),
			LabelMaxLen:    viper.GetInt("ANALYTICS_LABEL_MAX_LEN"),
			CurrencyPrefix: viper.GetString("ANALYTICS_CURRENCY_PREFIX"),
		},
		Log: LogConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
		},
		Tracing: TracingConfig{
			Enabled:  viper.GetBool("TRACING_ENABLED"),
			Exporter: viper.GetString("TRACING_EXPORTER"),
			Endpoint: viper.GetString("TRACING_ENDPOINT"),
		},
	}
}

func setDefaults() {
	viper.SetDefault("APP_NAME", "merchant-api")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "grablet")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Asia/Kuala_Lumpur")
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("DB_MAX_OPEN_CONNS", 100)
	viper.SetDefault("DB_AUTO_MIGRATE", true)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:8081")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("CACHE_BACKEND", CacheBackendMemory)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_PREFIX", "merchant-api:")
	viper.SetDefault("CACHE_TTL_SECONDS", 0)
	viper.SetDefault("ANALYTICS_QUERY_TIMEOUT_SECONDS", 10)
	viper.SetDefault("ANALYTICS_TOP_ITEMS_LIMIT", 5)
	viper.SetDefault("ANALYTICS_BUNDLE_LIMIT", 3)
	viper.SetDefault("ANALYTICS_LABEL_MAX_LEN", 11)
	viper.SetDefault("ANALYTICS_CURRENCY_PREFIX", "RM")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", TracingExporterStdout)
	viper.SetDefault("TRACING_ENDPOINT", "localhost:4317")
}

// Validate rejects configuration values that select an unknown backend.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}
	if c.Tracing.Enabled {
		switch c.Tracing.Exporter {
		case TracingExporterStdout, TracingExporterOTLP:
		default:
			return fmt.Errorf("unknown TRACING_EXPORTER %q", c.Tracing.Exporter)
		}
	}
	if c.Analytics.TopItemsLimit < 1 || c.Analytics.BundleLimit < 1 {
		return fmt.Errorf("analytics limits must be positive")
	}
	if c.Database.Timezone != "" {
		if _, err := time.LoadLocation(c.Database.Timezone); err != nil {
			return fmt.Errorf("unknown DB_TIMEZONE %q: %w", c.Database.Timezone, err)
		}
	}
	return nil
}

// Location is the session time zone that DATE(order_time) is evaluated in.
// An empty or unknown zone resolves to UTC.
func (c *DatabaseConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}
