package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// Default TTLs applied when a caller passes a zero ttl.
const (
	DefaultAccessTokenTTL       = 30 * time.Minute
	DefaultVerificationTokenTTL = 24 * time.Hour
	DefaultResetTokenTTL        = 60 * time.Minute
)

// tokenService implements TokenService on symmetric HMAC JWTs. One signer
// covers all three purposes; the purpose claim is the only thing that keeps
// a verification or reset token out of the session flow, so verification
// always checks it before trusting the subject.
type tokenService struct {
	signingKey      []byte
	signingMethod   jwt.SigningMethod
	issuer          string
	accessTTL       time.Duration
	verificationTTL time.Duration
	resetTTL        time.Duration
	logger          Logger
}

// NewTokenService creates a TokenService from the startup configuration.
// An unknown signing method falls back to HS256.
func NewTokenService(cfg Config, logger Logger) TokenService {
	method := jwt.GetSigningMethod(cfg.GetSigningMethod())
	if method == nil {
		method = jwt.SigningMethodHS256
	}

	accessTTL := cfg.GetAccessTokenTTL()
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}

	verificationTTL := cfg.GetVerificationTokenTTL()
	if verificationTTL <= 0 {
		verificationTTL = DefaultVerificationTokenTTL
	}

	resetTTL := cfg.GetResetTokenTTL()
	if resetTTL <= 0 {
		resetTTL = DefaultResetTokenTTL
	}

	return &tokenService{
		signingKey:      []byte(cfg.GetSigningKey()),
		signingMethod:   method,
		issuer:          cfg.GetIssuer(),
		accessTTL:       accessTTL,
		verificationTTL: verificationTTL,
		resetTTL:        resetTTL,
		logger:          normalizeLogger(logger),
	}
}

// IssueAccess signs a session token for subject. A zero ttl uses the
// configured access TTL.
func (ts *tokenService) IssueAccess(subject string, ttl time.Duration) (string, time.Time, error) {
	if ttl == 0 {
		ttl = ts.accessTTL
	}
	return ts.sign(subject, "", ttl)
}

// IssuePurposeToken signs a token tagged with purpose. A zero ttl uses the
// configured default for that purpose.
func (ts *tokenService) IssuePurposeToken(subject, purpose string, ttl time.Duration) (string, time.Time, error) {
	switch purpose {
	case PurposeEmailVerification:
		if ttl == 0 {
			ttl = ts.verificationTTL
		}
	case PurposePasswordReset:
		if ttl == 0 {
			ttl = ts.resetTTL
		}
	default:
		return "", time.Time{}, goerrors.New("unknown token purpose", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"purpose": purpose})
	}
	return ts.sign(subject, purpose, ttl)
}

func (ts *tokenService) sign(subject, purpose string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, goerrors.New("token subject is required", goerrors.CategoryBadInput)
	}
	if ttl < 0 {
		return "", time.Time{}, goerrors.New("token TTL must be non-negative", goerrors.CategoryBadInput)
	}

	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Purpose: purpose,
	}

	token := jwt.NewWithClaims(ts.signingMethod, claims)
	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", time.Time{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign token")
	}

	return signed, expiresAt, nil
}

// VerifyAccess validates a session token and returns its subject. A token
// carrying any purpose tag is rejected even when its signature and expiry
// check out.
func (ts *tokenService) VerifyAccess(token string) (string, error) {
	return ts.verify(token, "")
}

// VerifyPurposeToken validates a purpose token against the purpose the
// consuming endpoint expects.
func (ts *tokenService) VerifyPurposeToken(token, expectedPurpose string) (string, error) {
	return ts.verify(token, expectedPurpose)
}

func (ts *tokenService) verify(raw, expectedPurpose string) (string, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token verify encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		ts.logger.Error("token verify could not decode claims")
		return "", ErrTokenMalformed
	}

	if claims.Purpose != expectedPurpose {
		return "", ErrTokenPurposeMismatch
	}

	if claims.RegisteredClaims.Subject == "" {
		return "", ErrTokenMalformed
	}

	return claims.RegisteredClaims.Subject, nil
}
