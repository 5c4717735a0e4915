package identity

import (
	"context"
	"fmt"
	"time"
)

// Logger is the pluggable logger used across the package. Every component
// falls back to defLogger when none is provided.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TokenService creates and validates the three token kinds the service
// issues: session access tokens and the two purpose tokens.
type TokenService interface {
	IssueAccess(subject string, ttl time.Duration) (string, time.Time, error)
	IssuePurposeToken(subject, purpose string, ttl time.Duration) (string, time.Time, error)
	VerifyAccess(token string) (string, error)
	VerifyPurposeToken(token, expectedPurpose string) (string, error)
}

// Notifier delivers account emails. Callers treat it as fire-and-forget:
// errors are logged by the caller, never propagated to the client.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, to, name, link string) error
	SendPasswordResetEmail(ctx context.Context, to, name, link string) error
}

// Config holds the immutable startup configuration the auth core needs.
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetIssuer() string
	GetAccessTokenTTL() time.Duration
	GetVerificationTokenTTL() time.Duration
	GetResetTokenTTL() time.Duration
	GetHashCost() int
}

type noopNotifier struct{}

func (noopNotifier) SendVerificationEmail(context.Context, string, string, string) error {
	return nil
}

func (noopNotifier) SendPasswordResetEmail(context.Context, string, string, string) error {
	return nil
}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
