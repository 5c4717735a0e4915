package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. Session access tokens carry no purpose tag; the two
// lifecycle tokens are distinguished by theirs.
const (
	// PurposeEmailVerification scopes a token to activating an account.
	PurposeEmailVerification = "email_verification"
	// PurposePasswordReset scopes a token to replacing a password.
	PurposePasswordReset = "password_reset"
)

// TokenClaims is the claim set for every token this service signs. Subject
// is the user's email; Purpose is empty on session access tokens.
type TokenClaims struct {
	jwt.RegisteredClaims
	Purpose string `json:"purpose,omitempty"`
}

// Expires returns the expiry instant, zero when absent.
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the issuance instant, zero when absent.
func (c *TokenClaims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
