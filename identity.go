package identity

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// CurrentUser resolves a bearer token to the account it belongs to. Any
// failure, bad signature, expired token, unknown subject, collapses into
// ErrUnauthenticated so the caller leaks nothing about which check failed.
func (s *Auther) CurrentUser(ctx context.Context, raw string) (*User, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrUnauthenticated
	}

	subject, err := s.tokens.VerifyAccess(raw)
	if err != nil {
		s.logger.Debug("CurrentUser token rejected: %v", err)
		return nil, ErrUnauthenticated
	}

	user, err := s.repo.Users().GetByEmail(ctx, subject)
	if err != nil {
		if goerrors.IsNotFound(err) {
			s.logger.Warn("CurrentUser subject no longer exists")
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	return user, nil
}

// RequireActive gates handlers that need a verified account.
func RequireActive(user *User) error {
	if user == nil {
		return ErrUnauthenticated
	}
	if !user.IsActive {
		return ErrAccountNotActive
	}
	return nil
}

// RequireAdmin gates handlers that need an administrator. Admins still have
// to be active.
func RequireAdmin(user *User) error {
	if err := RequireActive(user); err != nil {
		return err
	}
	if !user.IsAdmin {
		return ErrAdminRequired
	}
	return nil
}
