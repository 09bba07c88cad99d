package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig   `yaml:"server"`
	Database  DatabaseConfig `yaml:"database"`
	Media     MediaConfig    `yaml:"media"`
	JWT       JWTConfig      `yaml:"jwt"`
	Google    GoogleConfig   `yaml:"google"`
	Email     EmailConfig    `yaml:"email"`
	Push      PushConfig     `yaml:"push"`
	Reminders ReminderConfig `yaml:"reminders"`
	CarInfo   CarInfoConfig  `yaml:"car_info"`
	Images    DefaultImages  `yaml:"default_images"`
	Log       LogConfig      `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port      int    `yaml:"port" env:"SERVER_PORT"`
	Host      string `yaml:"host" env:"SERVER_HOST"`
	Profiling bool   `yaml:"profiling" env:"SERVER_PROFILING"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	DBName   string `yaml:"dbname" env:"DB_NAME"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE"`
	Migrate  bool   `yaml:"migrate" env:"DB_MIGRATE"`
}

// MediaConfig holds object storage configuration.
// Provider is "s3" (any S3-compatible endpoint through the AWS SDK) or "minio".
type MediaConfig struct {
	Provider   string `yaml:"provider" env:"MEDIA_PROVIDER"`
	Namespace  string `yaml:"namespace" env:"MEDIA_NAMESPACE"`
	Region     string `yaml:"region" env:"MEDIA_REGION"`
	Bucket     string `yaml:"bucket" env:"MEDIA_BUCKET"`
	AccessKey  string `yaml:"access_key" env:"MEDIA_ACCESS_KEY"`
	SecretKey  string `yaml:"secret_key" env:"MEDIA_SECRET_KEY"`
	Endpoint   string `yaml:"endpoint" env:"MEDIA_ENDPOINT"`
	PublicBase string `yaml:"public_base" env:"MEDIA_PUBLIC_BASE"`
	DisableSSL bool   `yaml:"disable_ssl" env:"MEDIA_DISABLE_SSL"`
	MaxSizeMB  int64  `yaml:"max_size_mb" env:"MEDIA_MAX_SIZE_MB"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret  string `yaml:"secret" env:"JWT_SECRET"`
	TTLDays int    `yaml:"ttl_days" env:"JWT_TTL_DAYS"`
}

// GoogleConfig holds Google sign-in configuration
type GoogleConfig struct {
	ClientID     string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `yaml:"redirect_url" env:"GOOGLE_REDIRECT_URL"`
}

// EmailConfig holds SendGrid configuration
type EmailConfig struct {
	APIKey   string `yaml:"api_key" env:"SENDGRID_API_KEY"`
	From     string `yaml:"from" env:"EMAIL_FROM"`
	FromName string `yaml:"from_name" env:"EMAIL_FROM_NAME"`
}

// PushConfig holds APNs token-auth configuration
type PushConfig struct {
	KeyPath    string `yaml:"key_path" env:"APNS_KEY_PATH"`
	KeyID      string `yaml:"key_id" env:"APNS_KEY_ID"`
	TeamID     string `yaml:"team_id" env:"APNS_TEAM_ID"`
	Topic      string `yaml:"topic" env:"APNS_TOPIC"`
	Production bool   `yaml:"production" env:"APNS_PRODUCTION"`
}

// ReminderConfig controls the reminder polling job
type ReminderConfig struct {
	Interval time.Duration `yaml:"interval" env:"REMINDER_INTERVAL"`
	Window   time.Duration `yaml:"window" env:"REMINDER_WINDOW"`
}

// CarInfoConfig holds the external car-data lookup settings
type CarInfoConfig struct {
	BaseURL string `yaml:"base_url" env:"CAR_INFO_BASE_URL"`
}

// DefaultImages holds the fallback URLs used when an image bundle has nothing selected
type DefaultImages struct {
	UserAvatar string `yaml:"user_avatar" env:"DEFAULT_USER_AVATAR"`
	UserPoster string `yaml:"user_poster" env:"DEFAULT_USER_POSTER"`
	CarPoster  string `yaml:"car_poster" env:"DEFAULT_CAR_POSTER"`
	NoImage    string `yaml:"no_image" env:"DEFAULT_NO_IMAGE"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// Load reads configuration from a YAML file, then applies a .env file (if present)
// and environment variables on top of it.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
		// environment only
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// A missing .env is fine, the process environment still applies.
	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the configuration used when nothing overrides a field
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			DBName:  "car_journal",
			SSLMode: "disable",
			Migrate: true,
		},
		Media: MediaConfig{
			Provider:  "s3",
			Namespace: "car-journal",
			Region:    "us-east-1",
			MaxSizeMB: 10,
		},
		JWT: JWTConfig{TTLDays: 30},
		Reminders: ReminderConfig{
			Interval: time.Minute,
			Window:   5 * time.Minute,
		},
		CarInfo: CarInfoConfig{BaseURL: "https://vpic.nhtsa.dot.gov/api"},
		Images: DefaultImages{
			UserAvatar: "https://static.car-journal.app/defaults/avatar.png",
			UserPoster: "https://static.car-journal.app/defaults/poster.png",
			CarPoster:  "https://static.car-journal.app/defaults/car.png",
			NoImage:    "https://static.car-journal.app/defaults/no-image.png",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if c.Media.Bucket == "" {
		return fmt.Errorf("media bucket is required")
	}
	switch c.Media.Provider {
	case "s3", "minio":
	default:
		return fmt.Errorf("unknown media provider %q", c.Media.Provider)
	}
	if c.Reminders.Interval <= 0 {
		return fmt.Errorf("reminder interval must be positive")
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// URL returns the connection string in URL form, as golang-migrate expects it
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}
