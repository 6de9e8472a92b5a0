package config // package config loads application configuration from environment variables

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; optional subsystems (MySQL, Redis, RabbitMQ) are
// switched off when their address is left empty.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	PriceAPIURL     string        // base URL of the backend price service
	PriceAPITimeout time.Duration // per request timeout towards the price service
	CatalogPath     string        // YAML room catalog, empty for the embedded one

	SessionSecret string        // HS256 secret for the session cookie
	SessionTTL    time.Duration // idle lifetime of a price form session
	SessionCookie string        // session cookie name

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address, empty disables the users page
	DBPort string // database port number
	DBName string // database name

	AMQPURL       string // RabbitMQ URL for price updated events
	EventsEnabled bool   // publish price updated events after a successful submit
	AuditLogDir   string // directory the audit consumer appends to

	LogLevel  string // debug, info, warn, error
	LogFormat string // json or console

	Redis     RedisConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
}

// DBEnabled reports whether the users database is configured.
func (c Config) DBEnabled() bool { return c.DBHost != "" }

// Load reads configuration values from environment variables.  Missing
// required variables are collected and reported together.
func Load() (Config, error) {
	var l loader
	cfg := Config{
		Env:  l.must("APP_ENV"),
		Port: l.must("APP_PORT"),

		PriceAPIURL:     l.must("PRICE_API_URL"),
		PriceAPITimeout: envDur("PRICE_API_TIMEOUT", 10*time.Second),
		CatalogPath:     os.Getenv("ROOM_CATALOG_PATH"),

		SessionSecret: l.must("SESSION_SECRET"),
		SessionTTL:    envDur("SESSION_TTL", 30*time.Minute),
		SessionCookie: envStr("SESSION_COOKIE", "price_form_sid"),

		DBUser: os.Getenv("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: os.Getenv("DB_HOST"),
		DBPort: envStr("DB_PORT", "3306"),
		DBName: os.Getenv("DB_NAME"),

		AMQPURL:       amqpURL(),
		EventsEnabled: envBool("PRICE_EVENTS_ENABLED", true),
		AuditLogDir:   envStr("AUDIT_LOG_DIR", "logs"),

		LogLevel:  envStr("LOG_LEVEL", "info"),
		LogFormat: envStr("LOG_FORMAT", "json"),

		Redis:     LoadRedisConfig(),
		RateLimit: LoadRateLimitConfig(),
		Cache:     LoadCacheConfig(),
	}
	if cfg.DBEnabled() {
		cfg.DBUser = l.must("DB_USER")
		cfg.DBName = l.must("DB_NAME")
	}
	if err := l.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// loader records required variables that are unset.
type loader struct {
	missing []string
}

// must retrieves the value of a required environment variable.
func (l *loader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		l.missing = append(l.missing, key)
	}
	return v
}

func (l *loader) err() error {
	if len(l.missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required env vars: %s", strings.Join(l.missing, ", "))
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
