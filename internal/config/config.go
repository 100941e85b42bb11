package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

var (
	ErrMissingJWTSecret  = errors.New("JWT_SECRET is required")
	ErrUnknownDriver     = errors.New("unknown database driver")
	ErrInvalidBcryptCost = errors.New("bcrypt cost out of range")
	ErrInvalidJWTExpiry  = errors.New("JWT expiry must be positive")
)

// Config is built once at startup and treated as read-only afterwards.
type Config struct {
	Environment     string        `yaml:"environment" env:"ENVIRONMENT"`
	Port            string        `yaml:"port" env:"PORT"`
	GinMode         string        `yaml:"gin_mode" env:"GIN_MODE"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`

	DBDriver   string `yaml:"db_driver" env:"DB_DRIVER"`
	DBHost     string `yaml:"db_host" env:"DB_HOST"`
	DBPort     string `yaml:"db_port" env:"DB_PORT"`
	DBUser     string `yaml:"db_user" env:"DB_USER"`
	DBPassword string `yaml:"db_password" env:"DB_PASSWORD"`
	DBName     string `yaml:"db_name" env:"DB_NAME"`
	DBPath     string `yaml:"db_path" env:"DB_PATH"`
	DBLogLevel string `yaml:"db_log_level" env:"DB_LOG_LEVEL"`

	JWTSecret    string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	JWTExpiresIn time.Duration `yaml:"jwt_expires_in" env:"JWT_EXPIRES_IN"`
	JWTIssuer    string        `yaml:"jwt_issuer" env:"JWT_ISSUER"`
	BcryptCost   int           `yaml:"bcrypt_cost" env:"BCRYPT_COST"`

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"`

	OpenAIAPIKey string `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	OpenAIModel  string `yaml:"openai_model" env:"OPENAI_MODEL"`

	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Defaults returns the configuration used when nothing else is provided.
func Defaults() Config {
	return Config{
		Environment:     "development",
		Port:            "8080",
		GinMode:         "debug",
		ShutdownTimeout: 10 * time.Second,
		DBDriver:        DriverPostgres,
		DBHost:          "localhost",
		DBPort:          "5432",
		DBUser:          "taskuser",
		DBPassword:      "taskpassword",
		DBName:          "task_management",
		DBPath:          "task_management.db",
		DBLogLevel:      "warn",
		JWTExpiresIn:    7 * 24 * time.Hour,
		JWTIssuer:       "task-manager-api",
		BcryptCost:      12,
		LogLevel:        "info",
		LogFormat:       "json",
		OpenAIModel:     "gpt-4o",
	}
}

// Load reads defaults, then the optional YAML file named by CONFIG_FILE,
// then environment variables, and validates the result.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.JWTExpiresIn <= 0 {
		return ErrInvalidJWTExpiry
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("%w: %d", ErrInvalidBcryptCost, c.BcryptCost)
	}
	switch c.DBDriver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.DBDriver)
	}
	return nil
}

// DSN builds the connection string for the configured driver.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case DriverMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.DBUser,
			c.DBPassword,
			c.DBHost,
			c.DBPort,
			c.DBName,
		)
	case DriverSQLite:
		return c.DBPath
	default:
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			c.DBHost,
			c.DBPort,
			c.DBUser,
			c.DBPassword,
			c.DBName,
		)
	}
}
