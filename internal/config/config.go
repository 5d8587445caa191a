package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	SequencePostgres = "postgres"
	SequenceRedis    = "redis"
	SequenceMemory   = "memory"

	EventsLog   = "log"
	EventsRedis = "redis"
	EventsKafka = "kafka"

	CacheRedis  = "redis"
	CacheMemory = "memory"
	CacheNone   = "none"
)

type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	JWT        JWTConfig
	App        AppConfig
	Identifier IdentifierConfig
	Attendance AttendanceConfig
	Events     EventsConfig
}

type DatabaseConfig struct {
	Driver         string
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MigrateOnStart bool
}

type RedisConfig struct {
	URL string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

type IdentifierConfig struct {
	SequenceBackend       string
	RollNumberDigits      int
	RollNumberMaxAttempts int
}

type AttendanceConfig struct {
	BatchConcurrency  int
	BatchMaxEntries   int
	SummaryCacheTTL   time.Duration
	ReconcileEnabled  bool
	ReconcileInterval time.Duration
	ReconcileHour     int
}

type EventsConfig struct {
	Backend string
	// RedisKey is the list events are pushed onto when Backend is redis.
	RedisKey    string
	RedisMaxLen int64
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file loaded, using process environment", "error", err)
	}

	p := &parser{}
	config := &Config{}

	config.Database = DatabaseConfig{
		Driver:         strings.ToLower(getEnv("STORAGE_DRIVER", StoragePostgres)),
		Host:           getEnv("DB_HOST", "localhost"),
		Port:           p.getInt("DB_PORT", 5432),
		User:           getEnv("DB_USER", "postgres"),
		Password:       getEnv("DB_PASSWORD", ""),
		Name:           getEnv("DB_NAME", "attendance"),
		SSLMode:        getEnv("DB_SSL_MODE", "disable"),
		MigrateOnStart: p.getBool("MIGRATE_ON_START", false),
	}

	config.Redis = RedisConfig{
		URL: getEnv("REDIS_URL", ""),
	}

	config.Kafka = KafkaConfig{
		Brokers: getEnvSlice("KAFKA_BROKERS"),
		Topic:   getEnv("KAFKA_TOPIC", "attendance-events"),
	}

	config.App = AppConfig{
		Port:           p.getInt("APP_PORT", 8080),
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}
	if len(config.App.AllowedOrigins) == 0 {
		config.App.AllowedOrigins = []string{"http://localhost:3000"}
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: p.getDuration("JWT_ACCESS_EXPIRATION_TIME", time.Hour),
	}

	config.Identifier = IdentifierConfig{
		SequenceBackend:       strings.ToLower(getEnv("SEQUENCE_BACKEND", config.Database.Driver)),
		RollNumberDigits:      p.getInt("ROLL_NUMBER_DIGITS", 6),
		RollNumberMaxAttempts: p.getInt("ROLL_NUMBER_MAX_ATTEMPTS", 50),
	}

	config.Attendance = AttendanceConfig{
		BatchConcurrency:  p.getInt("BATCH_CONCURRENCY", 8),
		BatchMaxEntries:   p.getInt("BATCH_MAX_ENTRIES", 500),
		SummaryCacheTTL:   p.getDuration("SUMMARY_CACHE_TTL", 10*time.Minute),
		ReconcileEnabled:  p.getBool("RECONCILE_ENABLED", false),
		ReconcileInterval: p.getDuration("RECONCILE_INTERVAL", 15*time.Minute),
		ReconcileHour:     p.getInt("RECONCILE_HOUR", 23),
	}

	config.Events = EventsConfig{
		Backend:     strings.ToLower(getEnv("EVENTS_BACKEND", EventsLog)),
		RedisKey:    getEnv("EVENTS_REDIS_KEY", "attendance:events"),
		RedisMaxLen: int64(p.getInt("EVENTS_REDIS_MAX_LEN", 10000)),
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case StoragePostgres:
		if c.Database.Password == "" {
			errs = append(errs, fmt.Errorf("DB_PASSWORD is required"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be %q or %q", StoragePostgres, StorageMemory))
	}

	switch c.Identifier.SequenceBackend {
	case SequencePostgres:
		if c.Database.Driver == StorageMemory {
			errs = append(errs, fmt.Errorf("SEQUENCE_BACKEND=postgres requires STORAGE_DRIVER=postgres"))
		}
	case SequenceMemory:
		if c.Database.Driver != StorageMemory {
			errs = append(errs, fmt.Errorf("SEQUENCE_BACKEND=memory requires STORAGE_DRIVER=memory"))
		}
	case SequenceRedis:
		if c.Redis.URL == "" {
			errs = append(errs, fmt.Errorf("REDIS_URL is required when SEQUENCE_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("SEQUENCE_BACKEND must be one of %q, %q, %q", SequencePostgres, SequenceRedis, SequenceMemory))
	}

	switch c.Events.Backend {
	case EventsLog:
	case EventsRedis:
		if c.Redis.URL == "" {
			errs = append(errs, fmt.Errorf("REDIS_URL is required when EVENTS_BACKEND=redis"))
		}
	case EventsKafka:
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, fmt.Errorf("KAFKA_BROKERS is required when EVENTS_BACKEND=kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("EVENTS_BACKEND must be one of %q, %q, %q", EventsLog, EventsRedis, EventsKafka))
	}

	if c.JWT.Secret == "" {
		errs = append(errs, fmt.Errorf("JWT_SECRET_KEY is required"))
	}
	if c.Identifier.RollNumberDigits < 1 || c.Identifier.RollNumberDigits > 18 {
		errs = append(errs, fmt.Errorf("ROLL_NUMBER_DIGITS must be between 1 and 18"))
	}
	if c.Identifier.RollNumberMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("ROLL_NUMBER_MAX_ATTEMPTS must be positive"))
	}
	if c.Attendance.BatchConcurrency < 1 {
		errs = append(errs, fmt.Errorf("BATCH_CONCURRENCY must be positive"))
	}
	if c.Attendance.BatchMaxEntries < 1 {
		errs = append(errs, fmt.Errorf("BATCH_MAX_ENTRIES must be positive"))
	}
	if c.Attendance.ReconcileHour < 0 || c.Attendance.ReconcileHour > 23 {
		errs = append(errs, fmt.Errorf("RECONCILE_HOUR must be between 0 and 23"))
	}
	if c.Attendance.ReconcileEnabled && c.Attendance.ReconcileInterval <= 0 {
		errs = append(errs, fmt.Errorf("RECONCILE_INTERVAL must be positive"))
	}

	return errors.Join(errs...)
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NeedsRedis reports whether any configured component talks to Redis.
func (c *Config) NeedsRedis() bool {
	return c.Redis.URL != "" || c.Identifier.SequenceBackend == SequenceRedis || c.Events.Backend == EventsRedis
}

// SummaryCacheBackend picks where computed summaries are cached. Instances
// sharing PostgreSQL without Redis cannot see each other's invalidations, so
// caching is off there.
func (c *Config) SummaryCacheBackend() string {
	switch {
	case c.Redis.URL != "":
		return CacheRedis
	case c.Database.Driver == StorageMemory:
		return CacheMemory
	default:
		return CacheNone
	}
}

// parser collects every malformed variable instead of stopping at the first.
type parser struct {
	errs []error
}

func (p *parser) getInt(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) getBool(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) getDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
