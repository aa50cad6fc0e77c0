package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMySQL = "mysql"
	StoreMongo = "mongo"
)

type Config struct {
	HTTPAddr      string
	JWTSecret     string
	MySQLDSN      string
	SessionStore  string
	MongoURI      string
	MongoDBName   string
	SessionTTL    time.Duration
	StoreTimeout  time.Duration
	PurgeSchedule string
	CookieSecure  bool
	LogLevel      string
}

// Load reads the env file named by START (.env-local, .env.docker, ...) or
// ./.env when START is unset, then the process environment.
func Load() (*Config, error) {
	if name := os.Getenv("START"); name != "" {
		if err := godotenv.Load(name); err != nil {
			return nil, fmt.Errorf("env file %s: %w", name, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("env file .env: %w", err)
	}

	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8082"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		MySQLDSN:      os.Getenv("MYSQL_DSN"),
		SessionStore:  getenv("SESSION_STORE", StoreMySQL),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDBName:   os.Getenv("MONGO_DB_NAME"),
		PurgeSchedule: getenv("PURGE_SCHEDULE", "@every 10m"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.SessionTTL, err = duration("SESSION_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.StoreTimeout, err = duration("STORE_TIMEOUT", 3*time.Second); err != nil {
		return nil, err
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		if cfg.CookieSecure, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("COOKIE_SECURE: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set in environment")
	}
	if c.MySQLDSN == "" {
		return errors.New("MYSQL_DSN is not set in environment")
	}
	switch c.SessionStore {
	case StoreMySQL:
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is not set in environment")
		}
		if c.MongoDBName == "" {
			return errors.New("MONGO_DB_NAME is not set in environment")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be %q or %q, got %q", StoreMySQL, StoreMongo, c.SessionStore)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.StoreTimeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
