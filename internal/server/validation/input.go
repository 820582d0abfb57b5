package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophbooks/internal/common"
)

// MaxFullNameLength bounds the stored display name.
const MaxFullNameLength = 28

// ValidateEmail accepts a bare RFC 5322 address such as "a@b.com". Display
// names ("A <a@b.com>") and surrounding whitespace are rejected.
func ValidateEmail(email string) error {
	if email == "" || strings.TrimSpace(email) != email {
		return fmt.Errorf("%w: value is not a valid email address", common.ErrInvalidInput)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return fmt.Errorf("%w: value is not a valid email address", common.ErrInvalidInput)
	}

	at := strings.LastIndex(email, "@")
	if !strings.Contains(email[at+1:], ".") {
		return fmt.Errorf("%w: email domain must contain a dot", common.ErrInvalidInput)
	}

	return nil
}

// ValidateFullName requires a non-blank name of at most MaxFullNameLength
// characters.
func ValidateFullName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: full_name is required", common.ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > MaxFullNameLength {
		return fmt.Errorf("%w: full_name must have at most %d characters", common.ErrInvalidInput, MaxFullNameLength)
	}
	return nil
}
