// Package config loads runtime settings from the environment (and .env).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names for STORE_BACKEND and SESSION_BACKEND.
const (
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	Port        string
	Environment string // development | production

	MongoURI      string
	MongoDatabase string
	StoreBackend  string

	SessionKeys      map[string]string // kid -> secret
	SessionActiveKid string
	SessionTTL       time.Duration
	SessionBackend   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitRPM int

	GRPCHealthPort string
	TLSCert        string
	TLSKey         string
	RequireTLS     bool

	SearchURL     string
	SearchTimeout time.Duration

	HistoryTimezone *time.Location
	LogLevel        string
}

// Production reports whether cookies must be marked Secure.
func (c *Config) Production() bool { return c.Environment == "production" }

// Load reads configuration from environment variables, after loading a .env
// file if one exists. Variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds and validates a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("APP_ENV", "development"),
		MongoURI:       os.Getenv("MONGODB_URI"),
		MongoDatabase:  getEnv("MONGODB_DATABASE", "chat_db"),
		StoreBackend:   getEnv("STORE_BACKEND", BackendMongo),
		SessionBackend: getEnv("SESSION_BACKEND", BackendMongo),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		GRPCHealthPort: os.Getenv("GRPC_HEALTH_PORT"),
		TLSCert:        os.Getenv("TLS_CERT"),
		TLSKey:         os.Getenv("TLS_KEY"),
		RequireTLS:     os.Getenv("REQUIRE_TLS") == "true",
		SearchURL:      os.Getenv("SEARCH_URL"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 14*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SearchTimeout, err = getDuration("SEARCH_TIMEOUT", 120*time.Second); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPM, err = getInt("RATE_LIMIT_RPM", 10); err != nil {
		return nil, err
	}

	tz := getEnv("HISTORY_TIMEZONE", "UTC")
	if cfg.HistoryTimezone, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid HISTORY_TIMEZONE %q: %w", tz, err)
	}

	// SESSION_KEYS (kid:secret,...) enables rotation; SESSION_SECRET is the single-key form
	if raw := os.Getenv("SESSION_KEYS"); raw != "" {
		if cfg.SessionKeys, err = ParseKeys(raw); err != nil {
			return nil, err
		}
		cfg.SessionActiveKid = os.Getenv("SESSION_ACTIVE_KID")
	} else if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		cfg.SessionKeys = map[string]string{"default": secret}
		cfg.SessionActiveKid = "default"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.SessionKeys) == 0 {
		return errors.New("either SESSION_SECRET or SESSION_KEYS must be set")
	}
	if _, ok := c.SessionKeys[c.SessionActiveKid]; !ok {
		return fmt.Errorf("SESSION_ACTIVE_KID %q is not among SESSION_KEYS", c.SessionActiveKid)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}

	switch c.StoreBackend {
	case BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.SessionBackend {
	case BackendMongo, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.NeedsMongo() && c.MongoURI == "" {
		return errors.New("MONGODB_URI environment variable is required")
	}

	if c.RequireTLS && (c.TLSCert == "" || c.TLSKey == "") {
		return errors.New("REQUIRE_TLS is true but TLS_CERT/TLS_KEY are not configured")
	}
	if c.RateLimitRPM <= 0 {
		return errors.New("RATE_LIMIT_RPM must be positive")
	}
	return nil
}

// NeedsMongo reports whether any backend is MongoDB.
func (c *Config) NeedsMongo() bool {
	return c.StoreBackend == BackendMongo || c.SessionBackend == BackendMongo
}

// ParseKeys parses "kid:secret,kid2:secret2".
func ParseKeys(raw string) (map[string]string, error) {
	keys := map[string]string{}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts := strings.SplitN(p, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid SESSION_KEYS entry: %s", p)
		}
		keys[parts[0]] = parts[1]
	}
	if len(keys) == 0 {
		return nil, errors.New("SESSION_KEYS has no entries")
	}
	return keys, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
