package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Config is read from BERRY_* environment variables.
type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	DBPath    string `env:"DB_PATH" envDefault:"berrybridge.db"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	BackendURL     string        `env:"BACKEND_URL"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`
	BackendRate    float64       `env:"BACKEND_RATE" envDefault:"20"`
	BackendBurst   int           `env:"BACKEND_BURST" envDefault:"40"`
	BackendRetries uint64        `env:"BACKEND_RETRIES" envDefault:"2"`

	// JWTSecret enables signature verification of bearer tokens. Without it,
	// claims are read unverified and role-gated routes are refused.
	JWTSecret string `env:"JWT_SECRET"`

	ServiceEmail         string `env:"SERVICE_EMAIL"`
	ServicePassword      string `env:"SERVICE_PASSWORD"`
	CredentialPassphrase string `env:"CREDENTIAL_PASSPHRASE"`

	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"5m"`
	SnapshotTTL     time.Duration `env:"SNAPSHOT_TTL" envDefault:"30m"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg, env.Options{Prefix: "BERRY_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, is.Port),
		validation.Field(&c.DBPath, validation.Required),
		validation.Field(&c.BackendURL, validation.Required, is.URL),
		validation.Field(&c.BackendTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.BackendRate, validation.Required, validation.Min(0.1)),
		validation.Field(&c.BackendBurst, validation.Required, validation.Min(1)),
		validation.Field(&c.ServiceEmail, is.Email),
		validation.Field(&c.RefreshInterval, validation.Min(10*time.Second)),
	)
	if err != nil {
		return err
	}

	if c.ServiceEmail == "" {
		return nil
	}
	return validation.ValidateStruct(&c,
		validation.Field(&c.ServicePassword, validation.Required),
		validation.Field(&c.CredentialPassphrase, validation.Required, validation.Length(12, 0)),
	)
}

// ServiceAccountEnabled reports whether a background service login is configured.
func (c Config) ServiceAccountEnabled() bool {
	return c.ServiceEmail != "" && c.ServicePassword != ""
}
