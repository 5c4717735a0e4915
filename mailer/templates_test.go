package mailer_test

import (
	"strings"
	"testing"

	"github.com/campuspay/identity/mailer"
	"github.com/stretchr/testify/assert"
)

func TestBuildVerificationEmail(t *testing.T) {
	email := mailer.BuildVerificationEmail(mailer.VerificationEmailData{
		SiteName:  "CampusPay E-Wallet",
		Name:      "Pepe Rone",
		Link:      "https://wallet.example.edu/verify-email?token=abc",
		ExpiresIn: "24 hours",
	})

	assert.Equal(t, "Verify your CampusPay E-Wallet account", email.Subject)

	for _, body := range []string{email.TextBody, email.HTMLBody} {
		assert.Contains(t, body, "https://wallet.example.edu/verify-email?token=abc")
		assert.Contains(t, body, "24 hours")
	}
	assert.Contains(t, email.TextBody, "Hi Pepe Rone,")
	assert.True(t, strings.HasPrefix(email.HTMLBody, "<!DOCTYPE html>"))
}

func TestBuildPasswordResetEmail(t *testing.T) {
	email := mailer.BuildPasswordResetEmail(mailer.PasswordResetEmailData{
		SiteName:  "CampusPay E-Wallet",
		Name:      "Pepe Rone",
		Link:      "https://wallet.example.edu/reset-password?token=abc",
		ExpiresIn: "60 minutes",
	})

	assert.Equal(t, "Reset your CampusPay E-Wallet password", email.Subject)

	for _, body := range []string{email.TextBody, email.HTMLBody} {
		assert.Contains(t, body, "https://wallet.example.edu/reset-password?token=abc")
		assert.Contains(t, body, "60 minutes")
	}
	assert.Contains(t, email.TextBody, "ignore this email")
}

func TestHTMLBodyEscapesName(t *testing.T) {
	email := mailer.BuildVerificationEmail(mailer.VerificationEmailData{
		SiteName:  "CampusPay E-Wallet",
		Name:      "<script>alert(1)</script>",
		Link:      "https://wallet.example.edu/verify-email?token=abc",
		ExpiresIn: "24 hours",
	})

	assert.NotContains(t, email.HTMLBody, "<script>alert(1)</script>")
	assert.Contains(t, email.HTMLBody, "&lt;script&gt;")
}
