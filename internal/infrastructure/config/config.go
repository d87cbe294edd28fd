package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/ecopickup/recycling-tracker/internal/core/domain"
)

type Config struct {
	Port     string `env:"PORT,      default=5000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS, default=*"`

	Auth  AuthConfig
	Mongo MongoConfig
	Redis RedisConfig
}

// AuthConfig controls the identity gate and the configurable lifecycle rules.
type AuthConfig struct {
	// Required toggles between the authenticated and the open deployment.
	Required         bool                    `env:"AUTH_REQUIRED,           default=true"`
	JWTSecret        string                  `env:"JWT_SECRET"`
	TokenTTL         time.Duration           `env:"TOKEN_TTL,               default=24h"`
	AllowAdminSignup bool                    `env:"AUTH_ALLOW_ADMIN_SIGNUP, default=true"`
	Transitions      domain.TransitionPolicy `env:"STATUS_TRANSITIONS,      default=any"`
	Deletion         domain.DeletePolicy     `env:"DELETE_POLICY,           default=any"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=recycling"`
}

// RedisConfig is optional; an empty Addr disables idempotent submissions.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// IsProduction reports whether the service runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration from the given lookuper and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.Required && c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when AUTH_REQUIRED is true")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	switch c.Auth.Transitions {
	case domain.TransitionAny, domain.TransitionForward:
	default:
		return fmt.Errorf("STATUS_TRANSITIONS must be %q or %q, got %q", domain.TransitionAny, domain.TransitionForward, c.Auth.Transitions)
	}
	switch c.Auth.Deletion {
	case domain.DeleteAny, domain.DeleteOwnerOrAdmin:
	default:
		return fmt.Errorf("DELETE_POLICY must be %q or %q, got %q", domain.DeleteAny, domain.DeleteOwnerOrAdmin, c.Auth.Deletion)
	}
	return nil
}
