package service

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samandr77/microservices/onboarding/internal/entity"
)

const (
	EmailMaxLen    = 255
	NameMaxLen     = 100
	PasswordMinLen = 8
	// bcrypt ignores input past 72 bytes.
	PasswordMaxLen = 72
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	if len(email) > EmailMaxLen {
		return entity.ErrEmailInvalidLen
	}

	if !emailRegexp.MatchString(email) {
		return entity.ErrEmailInvalidFormat
	}

	if strings.Contains(email, "..") {
		return entity.ErrEmailInvalidFormat
	}

	return nil
}

func ValidateName(name string) error {
	nameLen := utf8.RuneCountInString(strings.TrimSpace(name))
	if nameLen < 1 || nameLen > NameMaxLen {
		return entity.ErrNameInvalidLen
	}

	return nil
}

func ValidatePassword(password string) error {
	if len(password) < PasswordMinLen || len(password) > PasswordMaxLen {
		return entity.ErrPasswordInvalidLen
	}

	var hasUpper, hasDigit bool

	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper {
		return entity.ErrPasswordNoUpperCase
	}

	if !hasDigit {
		return entity.ErrPasswordNoDigit
	}

	return nil
}

func ValidateRegistration(reg entity.Registration) error {
	if err := ValidateName(reg.Name); err != nil {
		return err
	}

	if err := ValidateName(reg.EntityName); err != nil {
		return err
	}

	if !reg.EntityType.Valid() {
		return entity.ErrEntityTypeInvalid
	}

	if err := ValidateEmail(reg.Email); err != nil {
		return err
	}

	return ValidatePassword(reg.Password)
}
