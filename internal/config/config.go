package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	DBDriver      string `yaml:"db_driver"`
	DBDSN         string `yaml:"db_dsn"`
	ServerPort    string `yaml:"server_port"`
	SessionSecret string `yaml:"session_secret"`
	CookieSecure  bool   `yaml:"cookie_secure"`

	// RedisURL switches change fan-out to Redis Pub/Sub; empty keeps it in-process.
	RedisURL           string `yaml:"redis_url"`
	RedisChannelPrefix string `yaml:"redis_channel_prefix"`

	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	GinMode   string `yaml:"gin_mode"`
}

// Load reads .env, then the optional YAML file named by CONFIG_FILE, then
// environment variables, which win over both.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	}

	overrideString(&cfg.DBDriver, "DB_DRIVER")
	overrideString(&cfg.DBDSN, "DB_DSN")
	overrideString(&cfg.ServerPort, "SERVER_PORT")
	overrideString(&cfg.SessionSecret, "SESSION_SECRET")
	overrideString(&cfg.RedisURL, "REDIS_URL")
	overrideString(&cfg.RedisChannelPrefix, "REDIS_CHANNEL_PREFIX")
	overrideString(&cfg.AdminEmail, "ADMIN_EMAIL")
	overrideString(&cfg.AdminPassword, "ADMIN_PASSWORD")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")
	overrideString(&cfg.LogFormat, "LOG_FORMAT")
	overrideString(&cfg.GinMode, "GIN_MODE")
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		cfg.CookieSecure = b
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func overrideString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.ServerPort == "" {
		c.ServerPort = "8080"
	}
	if c.RedisChannelPrefix == "" {
		c.RedisChannelPrefix = "piperacks:"
	}
	if c.AdminEmail == "" {
		c.AdminEmail = "admin@piperacks.local"
	}
	c.DBDriver = detectDatabaseDriver(c.DBDriver, c.DBDSN)
}

func (c *Config) Validate() error {
	var errs []error
	if c.DBDSN == "" {
		errs = append(errs, errors.New("DB_DSN is not set"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is not set"))
	} else if len(c.SessionSecret) < 16 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 16 bytes"))
	}
	if c.DBDriver != DriverPostgres && c.DBDriver != DriverSQLite {
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	return errors.Join(errs...)
}

// detectDatabaseDriver prefers an explicit driver and otherwise guesses from the DSN.
func detectDatabaseDriver(driver, dsn string) string {
	if driver != "" {
		return strings.ToLower(driver)
	}
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"),
		strings.HasPrefix(lower, "postgresql://"),
		strings.Contains(lower, "host="):
		return DriverPostgres
	case strings.HasPrefix(lower, "file:"),
		strings.HasSuffix(lower, ".db"),
		lower == ":memory:":
		return DriverSQLite
	default:
		return DriverPostgres
	}
}
