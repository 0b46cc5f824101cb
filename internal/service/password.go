package service

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/teamdesk/teamdesk/internal/apperr"
)

// validatePassword checks the password policy: at least 8 characters with
// one uppercase letter, one lowercase letter, and one digit.
func validatePassword(password string) []apperr.FieldError {
	var errs []apperr.FieldError

	if len(password) < 8 {
		errs = append(errs, apperr.FieldError{Field: "password", Message: "Password must be at least 8 characters long"})
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		errs = append(errs, apperr.FieldError{Field: "password", Message: "Password must contain at least one uppercase letter"})
	}
	if !hasLower {
		errs = append(errs, apperr.FieldError{Field: "password", Message: "Password must contain at least one lowercase letter"})
	}
	if !hasDigit {
		errs = append(errs, apperr.FieldError{Field: "password", Message: "Password must contain at least one number"})
	}
	return errs
}

// hashPassword hashes the password with bcrypt at the default cost.
func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// checkPassword compares a candidate password with a stored hash.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
