package config

import "time"

// Config holds all application configuration, grouped by concern. Both the
// API server and the delivery worker load the same Config; each reads the
// sections it needs.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Email    EmailConfig    `mapstructure:"email"    validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker"   validate:"required"`
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// EmailConfig contains the settings for the outbound email provider.
type EmailConfig struct {
	BaseURL     string        `mapstructure:"base_url"     validate:"required,url"`
	Sender      string        `mapstructure:"sender"       validate:"required,email"`
	SenderName  string        `mapstructure:"sender_name"  validate:"required"`
	PublicKey   string        `mapstructure:"public_key"   validate:"required"`
	PrivateKey  string        `mapstructure:"private_key"  validate:"required"`
	SendTimeout time.Duration `mapstructure:"send_timeout" validate:"required"`
}

// WorkerConfig contains the delivery worker and janitor settings.
type WorkerConfig struct {
	MetricsPort          int           `mapstructure:"metrics_port"          validate:"required,gt=0,lt=65536"`
	PollInterval         time.Duration `mapstructure:"poll_interval"         validate:"required"`
	ErrorRetryInterval   time.Duration `mapstructure:"error_retry_interval"  validate:"required"`
	IdempotencyRetention time.Duration `mapstructure:"idempotency_retention" validate:"required"`
	PurgeSchedule        string        `mapstructure:"purge_schedule"        validate:"required"`
}
