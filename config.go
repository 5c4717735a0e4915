package identity

import (
	"time"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
)

// AppConfig is the environment backed configuration for the service. The
// signing key has no default on purpose; the process refuses to start
// without one.
type AppConfig struct {
	SigningKey    string `env:"JWT_SIGNING_KEY,required,notEmpty"`
	SigningMethod string `env:"JWT_SIGNING_METHOD" envDefault:"HS256"`
	Issuer        string `env:"JWT_ISSUER" envDefault:"campuspay-identity"`

	AccessTokenTTL       time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`
	VerificationTokenTTL time.Duration `env:"VERIFICATION_TOKEN_TTL" envDefault:"24h"`
	ResetTokenTTL        time.Duration `env:"RESET_TOKEN_TTL" envDefault:"60m"`

	HashCost int `env:"PASSWORD_HASH_COST" envDefault:"14"`

	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":8080"`
	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"file:campuspay.db?cache=shared"`

	FrontendBaseURL string `env:"FRONTEND_BASE_URL" envDefault:"http://localhost:3000"`

	EmailFromName  string `env:"EMAIL_FROM_NAME" envDefault:"CampusPay E-Wallet Team"`
	EmailFromEmail string `env:"EMAIL_FROM_EMAIL" envDefault:"noreply@campuspay.com"`
	BrevoAPIKey    string `env:"BREVO_API_KEY"`
}

var _ Config = (*AppConfig)(nil)

// LoadConfig reads the configuration from the environment.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "failed to load configuration")
	}
	return cfg, nil
}

func (c *AppConfig) GetSigningKey() string    { return c.SigningKey }
func (c *AppConfig) GetSigningMethod() string { return c.SigningMethod }
func (c *AppConfig) GetIssuer() string        { return c.Issuer }

func (c *AppConfig) GetAccessTokenTTL() time.Duration       { return c.AccessTokenTTL }
func (c *AppConfig) GetVerificationTokenTTL() time.Duration { return c.VerificationTokenTTL }
func (c *AppConfig) GetResetTokenTTL() time.Duration        { return c.ResetTokenTTL }

func (c *AppConfig) GetHashCost() int { return c.HashCost }
