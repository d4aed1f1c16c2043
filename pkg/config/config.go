package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port             string
	Environment      string
	TickInterval     time.Duration
	ArchiveInterval  time.Duration
	SeedData         bool
	PostgresHost     string
	PostgresPort     string
	PostgresDatabase string
	PostgresUser     string
	PostgresPassword string
	RedisURL         string
	MinioEndpoint    string
	MinioAccessKey   string
	MinioSecretKey   string
	MinioUseSSL      bool
	MinioBucket      string
}

func Load() (*Config, error) {
	var problems []string

	cfg := &Config{
		Port:             getEnv("PORT", "5000"),
		Environment:      getEnv("GO_ENV", "development"),
		TickInterval:     getDuration("TICK_INTERVAL", 5*time.Second, &problems),
		ArchiveInterval:  getDuration("ARCHIVE_INTERVAL", time.Hour, &problems),
		SeedData:         getBool("SEED_DATA", true, &problems),
		PostgresHost:     getEnv("POSTGRESQL_HOST", ""),
		PostgresPort:     getEnv("POSTGRESQL_PORT", "5432"),
		PostgresDatabase: getEnv("POSTGRESQL_DATABASE", ""),
		PostgresUser:     getEnv("POSTGRESQL_USER", ""),
		PostgresPassword: getEnv("POSTGRESQL_PASSWORD", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		MinioEndpoint:    getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:   getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:   getEnv("MINIO_SECRET_KEY", ""),
		MinioUseSSL:      getEnv("MINIO_USE_SSL", "false") == "true",
		MinioBucket:      getEnv("MINIO_BUCKET", "dashboard-archive"),
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid environment variables: %v", problems)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required settings. Each external store is optional, but a
// partially configured one is an error.
func (c *Config) Validate() error {
	var missingVars []string

	if c.Port == "" {
		missingVars = append(missingVars, "PORT")
	}
	if c.TickInterval <= 0 {
		missingVars = append(missingVars, "TICK_INTERVAL")
	}
	if c.ArchiveInterval <= 0 {
		missingVars = append(missingVars, "ARCHIVE_INTERVAL")
	}

	if c.PostgresEnabled() {
		if c.PostgresDatabase == "" {
			missingVars = append(missingVars, "POSTGRESQL_DATABASE")
		}
		if c.PostgresUser == "" {
			missingVars = append(missingVars, "POSTGRESQL_USER")
		}
		if c.PostgresPort == "" {
			missingVars = append(missingVars, "POSTGRESQL_PORT")
		}
	}

	if c.MinioEnabled() {
		if c.MinioAccessKey == "" {
			missingVars = append(missingVars, "MINIO_ACCESS_KEY")
		}
		if c.MinioSecretKey == "" {
			missingVars = append(missingVars, "MINIO_SECRET_KEY")
		}
		if c.MinioBucket == "" {
			missingVars = append(missingVars, "MINIO_BUCKET")
		}
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	if c.RedisEnabled() {
		if _, err := url.Parse(c.RedisURL); err != nil {
			return fmt.Errorf("invalid REDIS_URL format: %w", err)
		}
	}

	return nil
}

func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}

func (c *Config) PostgresEnabled() bool {
	return c.PostgresHost != ""
}

func (c *Config) MinioEnabled() bool {
	return c.MinioEndpoint != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration, problems *[]string) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*problems = append(*problems, key)
		return defaultValue
	}
	return d
}

func getBool(key string, defaultValue bool, problems *[]string) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*problems = append(*problems, key)
		return defaultValue
	}
	return b
}

func (c *Config) GetPostgresConnString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDatabase,
	)
}
