package crypto

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes plaintext using bcrypt.
func HashPassword(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
}

// ComparePassword compares plaintext to hashed secret.
func ComparePassword(hash []byte, plain string) error {
	return bcrypt.CompareHashAndPassword(hash, []byte(plain))
}

const minPasswordLength = 8

// ValidatePassword checks a candidate password against the account policy
// and returns one violation message per unmet rule.
func ValidatePassword(plain string) []string {
	var violations []string
	if len(plain) < minPasswordLength {
		violations = append(violations, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	var hasDigit, hasLower, hasUpper, hasSymbol bool
	for _, r := range plain {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		default:
			hasSymbol = true
		}
	}
	if !hasDigit {
		violations = append(violations, "password must contain a digit")
	}
	if !hasLower {
		violations = append(violations, "password must contain a lowercase letter")
	}
	if !hasUpper {
		violations = append(violations, "password must contain an uppercase letter")
	}
	if !hasSymbol {
		violations = append(violations, "password must contain a non-alphanumeric character")
	}
	return violations
}
