package auth

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var (
	ErrInvalidEmail = errors.New("please provide a valid email address")
	ErrWeakPassword = errors.New("password must have an uppercase letter, a lowercase letter and at least 6 characters")
	ErrMissingName  = errors.New("name is required")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword requires at least one lower-case and one upper-case
// letter and a length of six or more.
func ValidatePassword(password string) error {
	var lower, upper bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		}
	}
	if !lower || !upper || len([]rune(password)) < 6 {
		return ErrWeakPassword
	}
	return nil
}
