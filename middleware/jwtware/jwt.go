// Package jwtware provides a fiber middleware that resolves bearer tokens to
// authenticated principals. The Resolver works on plain strings and values so
// the middleware has no import cycle with the packages that use it.
package jwtware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")

// DefaultContextKey is where the resolved principal is stored in the request
// locals when no ContextKey is configured.
const DefaultContextKey = "session:user"

type Config struct {
	// Filter skips the middleware when it returns true.
	Filter func(*fiber.Ctx) bool

	// Resolver turns a raw bearer token into the authenticated principal.
	// Required.
	Resolver func(ctx *fiber.Ctx, token string) (any, error)

	// ErrorHandler handles extraction and resolution failures.
	ErrorHandler func(ctx *fiber.Ctx, err error) error

	ContextKey string
	AuthScheme string
}

func GetDefaultConfig(config ...Config) Config {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Resolver == nil {
		panic("jwtware: Resolver is required")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(ctx *fiber.Ctx, err error) error {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "could not validate credentials",
			})
		}
	}

	return cfg
}

func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)

	return func(ctx *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(ctx) {
			return ctx.Next()
		}

		raw, err := extractRawToken(ctx, cfg.AuthScheme)
		if err != nil {
			return cfg.ErrorHandler(ctx, err)
		}

		principal, err := cfg.Resolver(ctx, raw)
		if err != nil {
			return cfg.ErrorHandler(ctx, err)
		}

		ctx.Locals(cfg.ContextKey, principal)

		return ctx.Next()
	}
}

func extractRawToken(ctx *fiber.Ctx, scheme string) (string, error) {
	header := ctx.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", ErrJWTMissingOrMalformed
	}

	if scheme == "" {
		return header, nil
	}

	prefix := scheme + " "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrJWTMissingOrMalformed
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrJWTMissingOrMalformed
	}

	return token, nil
}
