package domain

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinEmailLength    = 5
	MaxEmailLength    = 255
	MaxNameLength     = 100
	MinPasswordLength = 12
	MFACodeLength     = 6
)

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks an already normalized address.
func ValidateEmail(email string) error {
	switch n := utf8.RuneCountInString(email); {
	case n == 0:
		return invalid("email", "is required")
	case n < MinEmailLength:
		return invalid("email", "is too short")
	case n > MaxEmailLength:
		return invalid("email", "must be at most 255 characters")
	}
	if !strings.Contains(email, "@") {
		return invalid("email", "must contain @")
	}
	return nil
}

func normalizeName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		return "", invalid(field, "is required")
	case n > MaxNameLength:
		return "", invalid(field, "must be at most 100 characters")
	}
	return name, nil
}

// ValidatePassword applies the registration password policy: at least 12
// characters including an upper case letter, a lower case letter, a digit
// and a character that is none of those.
func ValidatePassword(password string) error {
	if password == "" {
		return invalid("password", "is required")
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}

	var missing []string
	if utf8.RuneCountInString(password) < MinPasswordLength {
		missing = append(missing, "at least 12 characters")
	}
	if !upper {
		missing = append(missing, "an uppercase letter")
	}
	if !lower {
		missing = append(missing, "a lowercase letter")
	}
	if !digit {
		missing = append(missing, "a digit")
	}
	if !special {
		missing = append(missing, "a special character")
	}
	if len(missing) > 0 {
		return invalid("password", "must contain "+strings.Join(missing, ", "))
	}
	return nil
}

// ValidateMFACode checks that code is exactly six ASCII digits.
func ValidateMFACode(code string) error {
	if len(code) != MFACodeLength {
		return invalid("code", "must be 6 digits")
	}
	for i := range len(code) {
		if code[i] < '0' || code[i] > '9' {
			return invalid("code", "must be 6 digits")
		}
	}
	return nil
}

// ValidateCredentials checks that both halves of a login were supplied.
func ValidateCredentials(email, password string) error {
	var errs []error
	if strings.TrimSpace(email) == "" {
		errs = append(errs, invalid("email", "is required"))
	}
	if password == "" {
		errs = append(errs, invalid("password", "is required"))
	}
	return errors.Join(errs...)
}

// Registration is the raw input of a sign-up.
type Registration struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Validate reports every problem with r at once.
func (r Registration) Validate() error {
	var errs []error
	if _, err := normalizeName("firstName", r.FirstName); err != nil {
		errs = append(errs, err)
	}
	if _, err := normalizeName("lastName", r.LastName); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateEmail(NormalizeEmail(r.Email)); err != nil {
		errs = append(errs, err)
	}
	if err := ValidatePassword(r.Password); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
