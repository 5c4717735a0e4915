package identity

import (
	"context"
	"net/url"
	"strings"
)

// LinkBuilder renders the frontend URLs embedded in lifecycle emails.
type LinkBuilder struct {
	BaseURL string
}

func (b LinkBuilder) VerificationLink(token string) string {
	return b.join("/verify-email", token)
}

func (b LinkBuilder) PasswordResetLink(token string) string {
	return b.join("/reset-password", token)
}

func (b LinkBuilder) join(path, token string) string {
	base := strings.TrimRight(b.BaseURL, "/")
	return base + path + "?token=" + url.QueryEscape(token)
}

// LogNotifier writes the emails to the logger instead of sending them. It is
// the delivery path for local development, where no Brevo key is configured.
type LogNotifier struct {
	Logger Logger
}

func NewLogNotifier(logger Logger) LogNotifier {
	return LogNotifier{Logger: normalizeLogger(logger)}
}

func (n LogNotifier) SendVerificationEmail(_ context.Context, to, name, link string) error {
	n.Logger.Info("verification email for %s (%s): %s", to, name, link)
	return nil
}

func (n LogNotifier) SendPasswordResetEmail(_ context.Context, to, name, link string) error {
	n.Logger.Info("password reset email for %s (%s): %s", to, name, link)
	return nil
}
