// Package config loads and validates application configuration from
// environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is prepended to every environment variable, so for example
// TASKTRACK_DATABASE_URL maps to Config.Database.URL.
const envPrefix = "TASKTRACK"

// Load reads configuration from environment variables, applies defaults,
// and validates the result. Returns a populated Config or an error
// describing the first failed validation.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so every
	// key must be registered here even when it has no default.
	for _, key := range []string{
		"database.url",
		"auth.jwt_secret",
		"email.sender",
		"email.sender_name",
		"email.public_key",
		"email.private_key",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("email.base_url", "https://api.mailjet.com/")
	v.SetDefault("email.send_timeout", 10*time.Second)

	v.SetDefault("worker.metrics_port", 9090)
	v.SetDefault("worker.poll_interval", 10*time.Second)
	v.SetDefault("worker.error_retry_interval", 3*time.Second)
	v.SetDefault("worker.idempotency_retention", 48*time.Hour)
	v.SetDefault("worker.purge_schedule", "@hourly")
}
