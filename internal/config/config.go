package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"required"`
	Authority AuthorityConfig `mapstructure:"authority" validate:"required"`
	Karma     KarmaConfig     `mapstructure:"karma"     validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains authentication settings for the HTTP surface.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// AuthorityConfig configures the exchange with the external arbiter that
// must approve every irreversible mutation.
type AuthorityConfig struct {
	// URL is the base URL of the authority's HTTP API.
	URL string `mapstructure:"url" validate:"required,url"`

	// SharedSecret is the HMAC root key. Per-context signing keys are
	// derived from it, so it must never be used to sign payloads directly.
	SharedSecret string `mapstructure:"shared_secret" validate:"required,min=32"`

	// AttemptTimeout bounds a single transmission attempt.
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout" validate:"required,gt=0"`

	// OverallDeadline bounds the caller's total wait for a decision,
	// independent of per-attempt timeouts.
	OverallDeadline time.Duration `mapstructure:"overall_deadline" validate:"required,gt=0"`

	// MaxRetries is the number of re-transmissions after the first attempt.
	// Retried signals are resent verbatim; the nonce is never regenerated.
	MaxRetries int `mapstructure:"max_retries" validate:"gte=0,lte=10"`

	// HealthInterval is how often the gate probes the authority's health
	// endpoint to decide whether to enter or leave safe mode.
	HealthInterval time.Duration `mapstructure:"health_interval" validate:"required,gt=0"`

	// SignalTTL is the default time-to-live for ordinary signals.
	SignalTTL time.Duration `mapstructure:"signal_ttl" validate:"required,gt=0"`

	// HighStakesTTL is the shorter time-to-live applied to lifecycle and
	// debt-transfer signals.
	HighStakesTTL time.Duration `mapstructure:"high_stakes_ttl" validate:"required,gt=0"`
}

// KarmaConfig holds the fixed parameters of the karma economy.
type KarmaConfig struct {
	// DeathThreshold is the in-effect karma level at or below which a
	// death evaluation is triggered. Always negative.
	DeathThreshold float64 `mapstructure:"death_threshold" validate:"required,lt=0"`

	// MeritInheritance is the fraction of positive net karma carried into
	// the next life.
	MeritInheritance float64 `mapstructure:"merit_inheritance" validate:"gt=0,lte=1"`

	// DebtInheritance is the fraction of negative net karma carried into
	// the next life. Debt is stickier than merit, so this exceeds
	// MeritInheritance.
	DebtInheritance float64 `mapstructure:"debt_inheritance" validate:"gt=0,lte=1"`

	// LearningRate is the TD-update step size for the reward table.
	LearningRate float64 `mapstructure:"learning_rate" validate:"gt=0,lte=1"`

	// DiscountFactor weights the estimated value of the candidate next role.
	DiscountFactor float64 `mapstructure:"discount_factor" validate:"gte=0,lte=1"`
}
