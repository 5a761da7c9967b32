package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"todo-service/pkg/db"
)

// DriverMemory keeps notes in process memory; no database is opened
const DriverMemory = "memory"

type Config struct {
	HTTPPort string
	GRPCPort string
	LogLevel string

	DBDriver string
	Database db.Config
	// DBReadHost is an optional replica used for reads
	DBReadHost string

	RedisURL string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	ShutdownTimeout  time.Duration
}

// Load reads an optional .env file and then the environment
func Load() (*Config, error) {
	// a missing .env is fine; the environment alone is enough
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPPort:   getEnv("HTTP_PORT", "8080"),
		GRPCPort:   getEnv("GRPC_PORT", "50060"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		DBDriver:   getEnv("DB_DRIVER", string(db.MySQL)),
		DBReadHost: getEnv("DB_READ_HOST", ""),
		RedisURL:   getEnv("REDIS_URL", ""),
	}

	var err error
	if cfg.HTTPReadTimeout, err = getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPWriteTimeout, err = getEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}

	if cfg.DBDriver == DriverMemory {
		return cfg, nil
	}

	dialect, err := db.ParseDialect(cfg.DBDriver)
	if err != nil {
		return nil, err
	}

	defaultPort := 3306
	if dialect == db.Postgres {
		defaultPort = 5432
	}

	dbCfg := db.Config{
		Dialect:  dialect,
		Host:     getEnv("DB_HOST", "localhost"),
		User:     getEnv("DB_USER", "todo"),
		Password: getEnv("DB_PASSWORD", ""),
		Database: getEnv("DB_DATABASE", "todo"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
	if dbCfg.Port, err = getEnvInt("DB_PORT", defaultPort); err != nil {
		return nil, err
	}
	if dbCfg.MaxOpenConns, err = getEnvInt("DB_MAX_OPEN_CONNS", 25); err != nil {
		return nil, err
	}
	if dbCfg.MaxIdleConns, err = getEnvInt("DB_MAX_IDLE_CONNS", 5); err != nil {
		return nil, err
	}
	if dbCfg.ConnMaxLifetime, err = getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute); err != nil {
		return nil, err
	}
	cfg.Database = dbCfg

	return cfg, nil
}

// ReadDatabase is the replica config, or nil when reads share the primary
func (c *Config) ReadDatabase() *db.Config {
	if c.DBReadHost == "" || c.DBReadHost == c.Database.Host {
		return nil
	}
	read := c.Database
	read.Host = c.DBReadHost
	return &read
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
