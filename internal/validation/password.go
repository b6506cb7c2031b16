// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
	minNicknameLen = 2
	maxNicknameLen = 30
)

var (
	digitRegex   = regexp.MustCompile(`[0-9]`)
	specialRegex = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`)
)

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLen)
	}
	if len(password) > maxPasswordLen {
		return fmt.Errorf("password must not exceed %d characters", maxPasswordLen)
	}

	var hasUpper, hasLower bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
	}
	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !digitRegex.MatchString(password) {
		return fmt.Errorf("password must contain at least one digit")
	}
	if !specialRegex.MatchString(password) {
		return fmt.Errorf("password must contain at least one special character (!@#$%%^&*)")
	}

	return nil
}

// ValidateNickname checks the display name shown next to boards and comments.
// Nicknames may be Hangul or any other letters, so length is counted in runes.
func ValidateNickname(nickname string) error {
	if strings.TrimSpace(nickname) != nickname {
		return fmt.Errorf("nickname cannot start or end with whitespace")
	}

	n := utf8.RuneCountInString(nickname)
	if n < minNicknameLen {
		return fmt.Errorf("nickname must be at least %d characters long", minNicknameLen)
	}
	if n > maxNicknameLen {
		return fmt.Errorf("nickname must not exceed %d characters", maxNicknameLen)
	}

	for _, r := range nickname {
		if unicode.IsControl(r) {
			return fmt.Errorf("nickname contains invalid characters")
		}
	}
	return nil
}
