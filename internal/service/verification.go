package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/microservices/onboarding/internal/entity"
	"github.com/samandr77/microservices/onboarding/pkg/clock"
	"github.com/samandr77/microservices/onboarding/pkg/config"
	"github.com/samandr77/microservices/onboarding/pkg/logger"
)

// Recipient identifies who a code is issued for and where it is delivered.
type Recipient struct {
	SubjectID uuid.UUID
	Email     string
	Name      string
	// Optional link rendered next to the code.
	Link string
}

// Verification keeps at most one live code per subject and purpose.
type Verification struct {
	repo        CodeRepository
	notifier    Notifier
	clock       clock.Clock
	codeLength  int
	maxAttempts int
}

func NewVerification(repo CodeRepository, notifier Notifier, c clock.Clock, cfg config.OTPConfig) *Verification {
	return &Verification{
		repo:        repo,
		notifier:    notifier,
		clock:       c,
		codeLength:  cfg.CodeLength,
		maxAttempts: cfg.MaxAttempts,
	}
}

// Issue replaces any live code of r for purpose with a fresh one and sends it.
// A delivery failure is logged; the code stays valid.
func (v *Verification) Issue(ctx context.Context, r Recipient, purpose entity.Purpose) (string, error) {
	return v.issue(ctx, r, purpose, false)
}

// Resend behaves like Issue but keeps count of how often the code was re-sent.
func (v *Verification) Resend(ctx context.Context, r Recipient, purpose entity.Purpose) (string, error) {
	return v.issue(ctx, r, purpose, true)
}

func (v *Verification) issue(ctx context.Context, r Recipient, purpose entity.Purpose, resend bool) (string, error) {
	code, err := v.Store(ctx, r, purpose, resend)
	if err != nil {
		return "", err
	}

	v.Deliver(ctx, r, purpose, code, resend)

	return code, nil
}

// Store saves a fresh code for r without sending it. Inside a transaction
// call Deliver only after commit.
func (v *Verification) Store(ctx context.Context, r Recipient, purpose entity.Purpose, resend bool) (string, error) {
	if !purpose.Valid() {
		return "", fmt.Errorf("unknown verification purpose %q", purpose)
	}

	code, err := GenerateCode(v.codeLength)
	if err != nil {
		return "", err
	}

	now := v.clock.Now()

	rec, err := v.repo.UpsertCode(ctx, entity.VerificationCode{
		ID:        clock.NewID(),
		SubjectID: r.SubjectID,
		Purpose:   purpose,
		Email:     r.Email,
		CodeHash:  HashCode(code),
		IssuedAt:  now,
		ExpiresAt: now.Add(purpose.Window()),
	}, resend)
	if err != nil {
		return "", fmt.Errorf("save verification code: %w", err)
	}

	slog.InfoContext(ctx, "verification code issued",
		"subject_id", r.SubjectID,
		"purpose", purpose,
		"expires_at", rec.ExpiresAt,
		"resend_count", rec.ResendCount,
	)

	return code, nil
}

func (v *Verification) Deliver(ctx context.Context, r Recipient, purpose entity.Purpose, code string, resend bool) {
	subject, body, err := renderCodeEmail(purpose, r, code, resend)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render verification email", "subject_id", r.SubjectID, "error", err)
		return
	}

	err = v.notifier.SendEmail(ctx, r.Email, subject, body)
	if err != nil {
		slog.WarnContext(ctx, "failed to deliver verification code, code stays valid",
			"subject_id", r.SubjectID,
			"purpose", purpose,
			"error", err,
		)
	}
}

// Validate consumes the live code of subjectID for purpose if it matches.
// Every failure is entity.ErrInvalidOrExpiredCode; a mismatch counts as a
// failed attempt.
func (v *Verification) Validate(ctx context.Context, subjectID uuid.UUID, purpose entity.Purpose, code string) (uuid.UUID, error) {
	err := v.Consume(ctx, subjectID, purpose, code)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidOrExpiredCode) {
			v.RegisterFailure(ctx, subjectID, purpose)
		}

		return uuid.Nil, err
	}

	return subjectID, nil
}

// Consume deletes the matching live code. It does not record failed
// attempts so it can run inside a transaction that may roll back; callers
// follow a failure with RegisterFailure.
func (v *Verification) Consume(ctx context.Context, subjectID uuid.UUID, purpose entity.Purpose, code string) error {
	code = strings.TrimSpace(code)
	if code == "" || !purpose.Valid() {
		return entity.ErrInvalidOrExpiredCode
	}

	_, err := v.repo.ConsumeCode(ctx, subjectID, purpose, HashCode(code), v.clock.Now(), v.maxAttempts)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidOrExpiredCode) {
			return entity.ErrInvalidOrExpiredCode
		}

		return fmt.Errorf("consume verification code: %w", err)
	}

	return nil
}

func (v *Verification) RegisterFailure(ctx context.Context, subjectID uuid.UUID, purpose entity.Purpose) {
	ctx = logger.SetLogType(ctx, "security")

	err := v.repo.RegisterFailedAttempt(ctx, subjectID, purpose)
	if err != nil {
		slog.ErrorContext(ctx, "failed to register verification attempt", "subject_id", subjectID, "error", err)
		return
	}

	slog.WarnContext(ctx, "invalid verification code", "subject_id", subjectID, "purpose", purpose)
}

func (v *Verification) DeleteExpired(ctx context.Context) error {
	deleted, err := v.repo.DeleteExpiredCodes(ctx, v.clock.Now())
	if err != nil {
		return fmt.Errorf("delete expired codes: %w", err)
	}

	if deleted > 0 {
		slog.InfoContext(ctx, "expired verification codes deleted", "count", deleted)
	}

	return nil
}

// GenerateCode returns a uniformly random numeric code of length digits.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length %d", length)
	}

	var sb strings.Builder

	sb.Grow(length)

	ten := big.NewInt(10)

	for range length {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}

		sb.WriteByte(byte('0' + n.Int64()))
	}

	return sb.String(), nil
}

func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
