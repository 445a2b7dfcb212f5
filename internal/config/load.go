package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take precedence
// over values from the config file and use the GURUKUL_ prefix with
// underscores for nesting (e.g. GURUKUL_SERVER_PORT).
// Returns a populated, validated Config or an error.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("GURUKUL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing config file is fine; env vars and defaults cover everything.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for everything that has a sensible one.
// Secrets (database URL, JWT secret, authority shared secret) deliberately
// have no default so a misconfigured deployment fails at startup.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("authority.attempt_timeout", 3*time.Second)
	v.SetDefault("authority.overall_deadline", 15*time.Second)
	v.SetDefault("authority.max_retries", 2)
	v.SetDefault("authority.health_interval", 30*time.Second)
	v.SetDefault("authority.signal_ttl", 300*time.Second)
	v.SetDefault("authority.high_stakes_ttl", 60*time.Second)

	v.SetDefault("karma.death_threshold", -100.0)
	v.SetDefault("karma.merit_inheritance", 0.20)
	v.SetDefault("karma.debt_inheritance", 0.50)
	v.SetDefault("karma.learning_rate", 0.1)
	v.SetDefault("karma.discount_factor", 0.9)
}
