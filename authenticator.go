package identity

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// dummyHash keeps the bcrypt comparison in the login path even when the email
// is unknown, so both failure branches take comparable time.
const dummyHash = "$2a$14$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Auther authenticates accounts and mints session tokens.
type Auther struct {
	repo   RepositoryManager
	tokens TokenService
	logger Logger
}

// NewAuthenticator returns a new Auther backed by the given stores.
func NewAuthenticator(repo RepositoryManager, tokens TokenService) *Auther {
	return &Auther{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = normalizeLogger(logger)
	return s
}

// TokenService returns the TokenService instance used by this Auther.
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

// Login checks the credentials and returns a signed access token. Unknown
// emails and wrong passwords come back as the same error so callers cannot
// probe which addresses are registered.
func (s *Auther) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			ComparePasswordAndHash(password, dummyHash)
			s.logger.Warn("Login attempt for unknown email")
			return "", time.Time{}, ErrInvalidCredentials
		}
		s.logger.Error("Login lookup error: %v", err)
		return "", time.Time{}, err
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Warn("Login password mismatch for %s", user.ID)
		return "", time.Time{}, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.logger.Warn("Login blocked, account %s not verified", user.ID)
		return "", time.Time{}, ErrAccountNotActive
	}

	token, expires, err := s.tokens.IssueAccess(user.Email, 0)
	if err != nil {
		s.logger.Error("Login token issue error: %v", err)
		return "", time.Time{}, err
	}

	return token, expires, nil
}
