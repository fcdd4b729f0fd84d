package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	RPCModeHTTP     = "http"
	RPCModePostgres = "postgres"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort             string        `env:"HTTP_PORT" envDefault:"8080"`
	BackendURL           string        `env:"BACKEND_URL,required,notEmpty"`
	BackendAnonKey       string        `env:"BACKEND_ANON_KEY,required,notEmpty"`
	BackendRPCMode       string        `env:"BACKEND_RPC_MODE" envDefault:"http"`
	BackendTimeout       time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`
	DatabaseURL          string        `env:"DATABASE_URL"`
	SessionJWTSecret     string        `env:"SESSION_JWT_SECRET,required,notEmpty"`
	SessionJWTIssuer     string        `env:"SESSION_JWT_ISSUER"`
	OAuthJWKSURL         string        `env:"OAUTH_JWKS_URL"`
	OAuthAudience        string        `env:"OAUTH_AUDIENCE"`
	OAuthIssuer          string        `env:"OAUTH_ISSUER"`
	AdminRefreshInterval time.Duration `env:"ADMIN_REFRESH_INTERVAL" envDefault:"30m"`
	SMTPHost             string        `env:"SMTP_HOST"`
	SMTPPort             int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser             string        `env:"SMTP_USER"`
	SMTPPass             string        `env:"SMTP_PASS"`
	SMTPFrom             string        `env:"SMTP_FROM"`
	SMTPFromName         string        `env:"SMTP_FROM_NAME"`
	SMTPUseTLS           bool          `env:"SMTP_USE_TLS" envDefault:"false"`
	RedisAddr            string        `env:"REDIS_ADDR"`
	RedisPassword        string        `env:"REDIS_PASSWORD"`
	RedisDB              int           `env:"REDIS_DB" envDefault:"0"`
	NotifyTestLimit      int           `env:"NOTIFY_TEST_LIMIT" envDefault:"3"`
	NotifyTestWindow     time.Duration `env:"NOTIFY_TEST_WINDOW" envDefault:"10m"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.BackendRPCMode = strings.ToLower(strings.TrimSpace(c.BackendRPCMode))
	switch c.BackendRPCMode {
	case RPCModeHTTP:
	case RPCModePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("BACKEND_RPC_MODE=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("invalid BACKEND_RPC_MODE %q", c.BackendRPCMode)
	}
	if c.AdminRefreshInterval <= 0 {
		return fmt.Errorf("ADMIN_REFRESH_INTERVAL must be positive")
	}
	return nil
}
