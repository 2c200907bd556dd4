package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Tracing  TracingConfig
	Sentry   SentryConfig
	Breaker  BreakerConfig
	Review   ReviewConfig
	Security SecurityConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string
	Environment    string
	ServiceName    string
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int    // per-request handler timeout in seconds
	CORSOrigins    string // Comma-separated list of allowed origins
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	MaxConns      int
	MinConns      int
	RunMigrations bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// NATSConfig holds NATS configuration for notification dispatch
type NATSConfig struct {
	URL     string
	Subject string
	Enabled bool
}

// TracingConfig holds OpenTelemetry exporter configuration
type TracingConfig struct {
	Endpoint    string
	SampleRatio float64
	Enabled     bool
}

// SentryConfig holds Sentry error reporting configuration
type SentryConfig struct {
	DSN     string
	Enabled bool
}

// BreakerConfig holds circuit breaker tuning knobs
type BreakerConfig struct {
	IntervalSeconds  int
	TimeoutSeconds   int
	FailureThreshold int
	SuccessThreshold int
}

// ReviewConfig holds review pipeline configuration
type ReviewConfig struct {
	StorageDriver         string // postgres or memory
	DailyLimit            int
	CouponValidityHours   int
	CouponCodeLength      int
	RecorderCapacity      int
	Timezone              string
	H3Resolution          int
	DefaultRadiusMeters   float64
	InflightLockSeconds   int
	BusinessCacheSeconds  int
	NotificationTimeoutMS int
	AlertMaxInFlight      int
	MemorySeedPath        string // JSON seed for the memory driver
}

// SecurityConfig holds anti-fraud thresholds
type SecurityConfig struct {
	MaxGPSAccuracyMeters     float64
	ExpectedVerificationSecs int
	MinLocationHistory       int
	SuspiciousActivityLimit  int
	SoftFlagLimit            int
	SameDeviceDailyThreshold int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			ServiceName:    serviceName,
			ReadTimeout:    getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout:   getEnvAsInt("WRITE_TIMEOUT", 10),
			RequestTimeout: getEnvAsInt("REQUEST_TIMEOUT", 15),
			CORSOrigins:    getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnv("DB_PORT", "5432"),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", "postgres"),
			DBName:        getEnv("DB_NAME", "reviews"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			MaxConns:      getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:      getEnvAsInt("DB_MIN_CONNS", 5),
			RunMigrations: getEnvAsBool("DB_RUN_MIGRATIONS", true),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Subject: getEnv("NATS_NOTIFICATION_SUBJECT", "notifications.push"),
			Enabled: getEnvAsBool("NATS_ENABLED", false),
		},
		Tracing: TracingConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1.0),
			Enabled:     getEnvAsBool("TRACING_ENABLED", false),
		},
		Sentry: SentryConfig{
			DSN:     getEnv("SENTRY_DSN", ""),
			Enabled: getEnvAsBool("SENTRY_ENABLED", false),
		},
		Breaker: BreakerConfig{
			IntervalSeconds:  getEnvAsInt("BREAKER_INTERVAL_SECONDS", 60),
			TimeoutSeconds:   getEnvAsInt("BREAKER_TIMEOUT_SECONDS", 30),
			FailureThreshold: getEnvAsInt("BREAKER_FAILURE_THRESHOLD", 5),
			SuccessThreshold: getEnvAsInt("BREAKER_SUCCESS_THRESHOLD", 1),
		},
		Review: ReviewConfig{
			StorageDriver:         getEnv("REVIEW_STORAGE_DRIVER", "postgres"),
			DailyLimit:            getEnvAsInt("REVIEW_DAILY_LIMIT", 5),
			CouponValidityHours:   getEnvAsInt("REVIEW_COUPON_VALIDITY_HOURS", 2),
			CouponCodeLength:      getEnvAsInt("REVIEW_COUPON_CODE_LENGTH", 8),
			RecorderCapacity:      getEnvAsInt("REVIEW_RECORDER_CAPACITY", 1000),
			Timezone:              getEnv("REVIEW_TIMEZONE", "Local"),
			H3Resolution:          getEnvAsInt("REVIEW_H3_RESOLUTION", 9),
			DefaultRadiusMeters:   getEnvAsFloat("REVIEW_DEFAULT_RADIUS_METERS", 50),
			InflightLockSeconds:   getEnvAsInt("REVIEW_INFLIGHT_LOCK_SECONDS", 30),
			BusinessCacheSeconds:  getEnvAsInt("REVIEW_BUSINESS_CACHE_SECONDS", 300),
			NotificationTimeoutMS: getEnvAsInt("REVIEW_NOTIFICATION_TIMEOUT_MS", 5000),
			AlertMaxInFlight:      getEnvAsInt("REVIEW_ALERT_MAX_INFLIGHT", 16),
			MemorySeedPath:        getEnv("REVIEW_MEMORY_SEED", ""),
		},
		Security: SecurityConfig{
			MaxGPSAccuracyMeters:     getEnvAsFloat("SECURITY_MAX_GPS_ACCURACY", 50),
			ExpectedVerificationSecs: getEnvAsInt("SECURITY_VERIFICATION_SECONDS", 30),
			MinLocationHistory:       getEnvAsInt("SECURITY_MIN_LOCATION_HISTORY", 5),
			SuspiciousActivityLimit:  getEnvAsInt("SECURITY_SUSPICIOUS_ACTIVITY_LIMIT", 3),
			SoftFlagLimit:            getEnvAsInt("SECURITY_SOFT_FLAG_LIMIT", 3),
			SameDeviceDailyThreshold: getEnvAsInt("SECURITY_SAME_DEVICE_THRESHOLD", 3),
		},
	}

	if cfg.Review.StorageDriver != "postgres" && cfg.Review.StorageDriver != "memory" {
		return nil, fmt.Errorf("invalid REVIEW_STORAGE_DRIVER %q", cfg.Review.StorageDriver)
	}
	if _, err := cfg.Review.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL returns the database connection URL used by migrations
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"pgx5://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Location resolves the time zone used for "today" boundaries
func (c *ReviewConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid REVIEW_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// CouponValidity returns the reward coupon lifetime
func (c *ReviewConfig) CouponValidity() time.Duration {
	return time.Duration(c.CouponValidityHours) * time.Hour
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
