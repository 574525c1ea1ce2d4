package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load policies of the initial domain store population.
const (
	LoadPolicyTolerant     = "tolerant"
	LoadPolicyAllOrNothing = "all_or_nothing"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port          string   `yaml:"port" env:"SERVER_PORT"`
		Mode          string   `yaml:"mode" env:"SERVER_MODE"`
		StoragePath   string   `yaml:"storage_path" env:"STORAGE_PATH"`
		PublicBaseURL string   `yaml:"public_base_url" env:"PUBLIC_BASE_URL"`
		CORSOrigins   []string `yaml:"cors_origins" env:"CORS_ORIGINS"`
		MigrationsDir string   `yaml:"migrations_dir" env:"MIGRATIONS_DIR"`
		MaxBodyBytes  int64    `yaml:"max_body_bytes" env:"SERVER_MAX_BODY_BYTES"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
		GuestAccess           bool   `yaml:"guest_access" env:"JWT_GUEST_ACCESS"`
	} `yaml:"jwt"`

	Logging struct {
		Level      string `yaml:"level" env:"LOG_LEVEL"`
		Format     string `yaml:"format" env:"LOG_FORMAT"` // json or pretty
		File       string `yaml:"file" env:"LOG_FILE"`
		MaxSizeMB  int    `yaml:"max_size_mb" env:"LOG_MAX_SIZE_MB"`
		MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS"`
		MaxAgeDays int    `yaml:"max_age_days" env:"LOG_MAX_AGE_DAYS"`
	} `yaml:"logging"`

	Redis struct {
		Addr        string `yaml:"addr" env:"REDIS_ADDR"` // empty disables Redis
		Password    string `yaml:"password" env:"REDIS_PASSWORD"`
		DB          int    `yaml:"db" env:"REDIS_DB"`
		ChatChannel string `yaml:"chat_channel" env:"REDIS_CHAT_CHANNEL"`
	} `yaml:"redis"`

	SMTP struct {
		Host      string `yaml:"host" env:"SMTP_HOST"`
		Port      int    `yaml:"port" env:"SMTP_PORT"`
		Username  string `yaml:"username" env:"SMTP_USERNAME"`
		Password  string `yaml:"password" env:"SMTP_PASSWORD"`
		FromName  string `yaml:"from_name" env:"SMTP_FROM_NAME"`
		FromEmail string `yaml:"from_email" env:"SMTP_FROM_EMAIL"`
		UseTLS    bool   `yaml:"use_tls" env:"SMTP_USE_TLS"`
		AppURL    string `yaml:"app_url" env:"SMTP_APP_URL"`
	} `yaml:"smtp"`

	AI struct {
		APIKey         string `yaml:"api_key" env:"GEMINI_API_KEY"` // empty disables the AI features
		TextModel      string `yaml:"text_model" env:"AI_TEXT_MODEL"`
		ImageModel     string `yaml:"image_model" env:"AI_IMAGE_MODEL"`
		ImageEditModel string `yaml:"image_edit_model" env:"AI_IMAGE_EDIT_MODEL"`
		Timeout        string `yaml:"timeout" env:"AI_TIMEOUT"`
	} `yaml:"ai"`

	// Seed creates the first super admin at startup when no account with
	// AdminEmail exists. An empty AdminEmail disables it.
	Seed struct {
		AdminEmail    string `yaml:"admin_email" env:"SEED_ADMIN_EMAIL"`
		AdminPassword string `yaml:"admin_password" env:"SEED_ADMIN_PASSWORD"`
		AdminName     string `yaml:"admin_name" env:"SEED_ADMIN_NAME"`
		AdminHandle   string `yaml:"admin_handle" env:"SEED_ADMIN_HANDLE"`
	} `yaml:"seed"`

	Sync struct {
		LoadPolicy           string `yaml:"load_policy" env:"SYNC_LOAD_POLICY"`
		OverdueInterval      string `yaml:"overdue_interval" env:"SYNC_OVERDUE_INTERVAL"`
		OverdueWindow        string `yaml:"overdue_window" env:"SYNC_OVERDUE_WINDOW"`
		PersistNotifications bool   `yaml:"persist_notifications" env:"SYNC_PERSIST_NOTIFICATIONS"`
		SessionIdleTimeout   string `yaml:"session_idle_timeout" env:"SYNC_SESSION_IDLE_TIMEOUT"`
	} `yaml:"sync"`
}

// LoadConfig loads configuration from a file and environment variables.
// A .env file in the working directory is loaded first when present; it
// never overrides variables that are already set.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.StoragePath = "./uploads"
	config.Server.PublicBaseURL = "http://localhost:8080/uploads"
	config.Server.MigrationsDir = "./migrations"
	config.Server.MaxBodyBytes = 16 << 20

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "parivartan"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"

	config.JWT.AccessTokenExpiration = "24h"
	config.JWT.Issuer = "parivartan"
	config.JWT.GuestAccess = true

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.MaxSizeMB = 50
	config.Logging.MaxBackups = 5
	config.Logging.MaxAgeDays = 28

	config.Redis.ChatChannel = "parivartan:chat_messages"

	config.SMTP.Port = 587
	config.SMTP.FromName = "PARIVARTAN"
	config.SMTP.AppURL = "http://localhost:8080"

	config.AI.TextModel = "gemini-2.5-flash"
	config.AI.ImageModel = "imagen-4.0-generate-001"
	config.AI.ImageEditModel = "gemini-2.5-flash-image-preview"
	config.AI.Timeout = "60s"

	config.Seed.AdminName = "Administrator"
	config.Seed.AdminHandle = "admin"

	config.Sync.LoadPolicy = LoadPolicyTolerant
	config.Sync.OverdueInterval = "1m"
	config.Sync.OverdueWindow = "24h"
	config.Sync.PersistNotifications = true
	config.Sync.SessionIdleTimeout = "2h"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	durations := map[string]string{
		"jwt.access_token_expiration": config.JWT.AccessTokenExpiration,
		"database.conn_max_lifetime":  config.Database.ConnMaxLifetime,
		"ai.timeout":                  config.AI.Timeout,
		"sync.overdue_interval":       config.Sync.OverdueInterval,
		"sync.overdue_window":         config.Sync.OverdueWindow,
		"sync.session_idle_timeout":   config.Sync.SessionIdleTimeout,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	if config.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}

	if config.Seed.AdminEmail != "" && len(config.Seed.AdminPassword) < 8 {
		return fmt.Errorf("seed.admin_password must be at least 8 characters")
	}

	switch strings.ToLower(config.Sync.LoadPolicy) {
	case LoadPolicyTolerant, LoadPolicyAllOrNothing:
	default:
		return fmt.Errorf("sync.load_policy must be %q or %q", LoadPolicyTolerant, LoadPolicyAllOrNothing)
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// IsProduction reports whether the server runs in release mode.
func (c *Config) IsProduction() bool {
	m := strings.ToLower(c.Server.Mode)
	return m == "production" || m == "release"
}
