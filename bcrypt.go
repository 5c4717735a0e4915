package identity

import (
	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

var hashCost = defaultHashCost()

// SetHashCost tunes the bcrypt cost factor. Call once at startup, before any
// request handling; out-of-range values are clamped to bcrypt's bounds.
func SetHashCost(cost int) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	hashCost = cost
}

// HashPassword will generate a salted password hash. The output embeds its
// own algorithm and cost metadata, so stored hashes stay verifiable after a
// cost change or library upgrade.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}
	return string(h), nil
}

// ComparePasswordAndHash will validate the given cleartext password against
// the stored hash. A mismatch and a malformed stored hash both come back as
// ErrMismatchedHashAndPassword; bcrypt's comparison is constant-time.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrMismatchedHashAndPassword
	}
	return nil
}
