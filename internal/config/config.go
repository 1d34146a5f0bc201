package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string        `mapstructure:"PORT"`
	Env             string        `mapstructure:"ENV"`
	StoreBaseURL    string        `mapstructure:"STORE_BASE_URL"`
	StoreTimeout    time.Duration `mapstructure:"STORE_TIMEOUT"`
	PollInterval    time.Duration `mapstructure:"POLL_INTERVAL"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	AuthIssuer      string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience    string        `mapstructure:"AUTH_AUDIENCE"`
	AuthJWKSURL     string        `mapstructure:"AUTH_JWKS_URL"`
	AuthSigningKey  string        `mapstructure:"AUTH_SIGNING_KEY"`
	CORSOrigins     []string      `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORE_TIMEOUT", "10s")
	v.SetDefault("POLL_INTERVAL", "30s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("STORE_BASE_URL")
	v.BindEnv("STORE_TIMEOUT")
	v.BindEnv("POLL_INTERVAL")
	v.BindEnv("SHUTDOWN_TIMEOUT")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("AUTH_JWKS_URL")
	v.BindEnv("AUTH_SIGNING_KEY")
	v.BindEnv("CORS_ORIGINS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.StoreBaseURL == "" {
		return nil, fmt.Errorf("STORE_BASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ==========================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active; all requests get admin access.")
		log.Println("WARNING: Set ENV=production and configure AUTH_ISSUER for production.")
		log.Println("WARNING: ==========================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. The store base URL
// must be an absolute http(s) URL, the notifier cadence must be sane, and in
// non-development modes a bearer verification source (issuer or signing key)
// must be configured so that real authentication is enforced.
func (c *Config) Validate() error {
	u, err := url.Parse(c.StoreBaseURL)
	if err != nil {
		return fmt.Errorf("STORE_BASE_URL is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("STORE_BASE_URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("STORE_BASE_URL must be absolute, got %q", c.StoreBaseURL)
	}

	if c.PollInterval < time.Second {
		return fmt.Errorf("POLL_INTERVAL must be at least 1s, got %s", c.PollInterval)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive, got %s", c.StoreTimeout)
	}

	if !c.IsDev() && c.AuthIssuer == "" && c.AuthSigningKey == "" {
		return fmt.Errorf(
			"AUTH_ISSUER or AUTH_SIGNING_KEY must be set when ENV=%q. "+
				"Refusing to start without bearer verification configuration", c.Env)
	}

	return nil
}
