package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Rhymond/go-money"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"balancete/internal/log"
	"balancete/internal/storage"
)

// DefaultFile is read when BALANCETE_CONFIG is not set. It may be absent.
const DefaultFile = "balancete.toml"

var validBackends = []string{"memory", "file", "sqlite"}

// enumSettings holds the settings restricted to a fixed set of values.
type enumSettings struct {
	DataBackend string `validate:"oneof=memory file sqlite"`
	LogFormat   string `validate:"oneof=text json"`
	BcryptCost  int    `validate:"min=4,max=31"`
}

type Config struct {
	// Storage
	DataBackend  string
	DataDir      string
	SQLiteDBPath string
	DocumentKey  string

	// Session
	SessionFile string
	SessionTTL  time.Duration

	// Bootstrap admin, seeded once
	AdminEmail    string
	AdminPassword string

	// Presentation
	Currency string

	// Logging
	LogLevel  string
	LogFormat string

	BcryptCost int
}

// fileConfig mirrors Config in the config file. Durations are strings.
type fileConfig struct {
	DataBackend   string `toml:"data_backend"`
	DataDir       string `toml:"data_dir"`
	SQLiteDBPath  string `toml:"sqlite_db_path"`
	DocumentKey   string `toml:"document_key"`
	SessionFile   string `toml:"session_file"`
	SessionTTL    string `toml:"session_ttl"`
	AdminEmail    string `toml:"admin_email"`
	AdminPassword string `toml:"admin_password"`
	Currency      string `toml:"currency"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	BcryptCost    int    `toml:"bcrypt_cost"`
}

func Defaults() *Config {
	return &Config{
		DataBackend:  "file",
		DataDir:      "./data",
		SQLiteDBPath: "./data/balancete.db",
		DocumentKey:  storage.DefaultDocumentKey,
		SessionFile:  "./data/session.json",
		SessionTTL:   12 * time.Hour,
		Currency:     "BRL",
		LogLevel:     "info",
		LogFormat:    "text",
		BcryptCost:   bcrypt.DefaultCost,
	}
}

// Load builds the configuration from defaults, then the config file, then
// the environment. Later sources win.
func Load() (*Config, error) {
	cfg := Defaults()

	path := getEnv("BALANCETE_CONFIG", DefaultFile)
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	cfg.mergeEnv()
	cfg.Currency = strings.ToUpper(cfg.Currency)
	return cfg, nil
}

// mergeFile applies the values set in a TOML file. A missing file is only an
// error when it was asked for explicitly.
func (c *Config) mergeFile(path string) error {
	var fc fileConfig
	_, err := toml.DecodeFile(path, &fc)
	if errors.Is(err, fs.ErrNotExist) && path == DefaultFile {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	setString(&c.DataBackend, fc.DataBackend)
	setString(&c.DataDir, fc.DataDir)
	setString(&c.SQLiteDBPath, fc.SQLiteDBPath)
	setString(&c.DocumentKey, fc.DocumentKey)
	setString(&c.SessionFile, fc.SessionFile)
	setString(&c.AdminEmail, fc.AdminEmail)
	setString(&c.AdminPassword, fc.AdminPassword)
	setString(&c.Currency, fc.Currency)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFormat, fc.LogFormat)
	if fc.SessionTTL != "" {
		d, err := time.ParseDuration(fc.SessionTTL)
		if err != nil {
			return fmt.Errorf("config file %s: invalid session_ttl %q: %w", path, fc.SessionTTL, err)
		}
		c.SessionTTL = d
	}
	if fc.BcryptCost != 0 {
		c.BcryptCost = fc.BcryptCost
	}
	return nil
}

func (c *Config) mergeEnv() {
	c.DataBackend = getEnv("DATA_BACKEND", c.DataBackend)
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)
	c.DocumentKey = getEnv("DOCUMENT_KEY", c.DocumentKey)
	c.SessionFile = getEnv("SESSION_FILE", c.SessionFile)
	c.SessionTTL = getEnvDuration("SESSION_TTL", c.SessionTTL)
	c.AdminEmail = getEnv("ADMIN_EMAIL", c.AdminEmail)
	c.AdminPassword = getEnv("ADMIN_PASSWORD", c.AdminPassword)
	c.Currency = getEnv("CURRENCY", c.Currency)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.BcryptCost = getEnvInt("BCRYPT_COST", c.BcryptCost)
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	errs := c.enumErrors()

	switch c.DataBackend {
	case "file":
		if c.DataDir == "" {
			errs = append(errs, "data directory cannot be empty when using file backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		}
	}

	if c.DocumentKey == "" || strings.ContainsAny(c.DocumentKey, `/\`) {
		errs = append(errs, fmt.Sprintf("invalid document key '%s'", c.DocumentKey))
	} else if c.DocumentKey == storage.AdminKey {
		errs = append(errs, fmt.Sprintf("document key '%s' is reserved", c.DocumentKey))
	}

	if c.SessionFile == "" {
		errs = append(errs, "session file cannot be empty")
	} else if filepath.Ext(c.SessionFile) == "" {
		errs = append(errs, fmt.Sprintf("session file '%s' must have an extension", c.SessionFile))
	}
	if c.SessionTTL < 0 {
		errs = append(errs, fmt.Sprintf("invalid session TTL %v: must not be negative", c.SessionTTL))
	} else if c.SessionTTL > 30*24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid session TTL %v: must be at most 30 days", c.SessionTTL))
	}

	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		errs = append(errs, "ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	if money.GetCurrency(c.Currency) == nil {
		errs = append(errs, fmt.Sprintf("unknown currency '%s'", c.Currency))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func (c *Config) enumErrors() []string {
	err := validator.New().Struct(enumSettings{
		DataBackend: c.DataBackend,
		LogFormat:   c.LogFormat,
		BcryptCost:  c.BcryptCost,
	})
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}

	var errs []string
	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "DataBackend":
			errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
		case "LogFormat":
			errs = append(errs, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
		case "BcryptCost":
			errs = append(errs, fmt.Sprintf("invalid bcrypt cost %d: must be between %d and %d", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
		}
	}
	return errs
}

// Logger builds a logger from the logging settings.
func (c *Config) Logger() *log.Logger {
	cfg := log.DefaultConfig()
	if level, err := log.ParseLevel(c.LogLevel); err == nil {
		cfg.Level = level
	}
	cfg.Format = c.LogFormat
	return log.New(cfg)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
