//go:build race

package identity

import "golang.org/x/crypto/bcrypt"

func defaultHashCost() int {
	// Reduce cost for race-enabled builds so test suites can run with strict timeouts.
	return bcrypt.DefaultCost
}
