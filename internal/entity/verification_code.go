package entity

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

type Purpose string

const (
	PurposeEmailVerification Purpose = "email_verification"
	PurposePasswordReset     Purpose = "password_reset"
)

// Validity windows are fixed policy.
const (
	EmailVerificationWindow = 24 * time.Hour
	PasswordResetWindow     = 30 * time.Minute
)

func (p Purpose) Valid() bool {
	switch p {
	case PurposeEmailVerification, PurposePasswordReset:
		return true
	default:
		return false
	}
}

// Window returns how long a code issued for p stays valid, zero for unknown purposes.
func (p Purpose) Window() time.Duration {
	switch p {
	case PurposeEmailVerification:
		return EmailVerificationWindow
	case PurposePasswordReset:
		return PasswordResetWindow
	default:
		return 0
	}
}

// VerificationCode is the single live code of a subject for one purpose.
// Only the SHA-256 of the code is stored.
type VerificationCode struct {
	ID          uuid.UUID
	SubjectID   uuid.UUID
	Purpose     Purpose
	Email       string
	CodeHash    string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Attempts    int
	ResendCount int
}

func (vc VerificationCode) IsExpired(now time.Time) bool {
	return now.After(vc.ExpiresAt)
}
