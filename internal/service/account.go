package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/microservices/onboarding/internal/entity"
	"github.com/samandr77/microservices/onboarding/internal/token"
	"github.com/samandr77/microservices/onboarding/pkg/clock"
	"github.com/samandr77/microservices/onboarding/pkg/logger"
	"github.com/samandr77/microservices/onboarding/pkg/ratelimit"
)

const governmentEmailSuffix = ".gov"

// Register creates an unverified account and sends it an email verification
// code. The returned token verifies the email without the code.
func (s *Service) Register(ctx context.Context, reg entity.Registration) (entity.Account, string, error) {
	reg.Email = NormalizeEmail(reg.Email)
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Lastname = strings.TrimSpace(reg.Lastname)
	reg.EntityName = strings.TrimSpace(reg.EntityName)

	if err := ValidateRegistration(reg); err != nil {
		slog.InfoContext(ctx, "invalid registration", "email", reg.Email, "error", err)
		return entity.Account{}, "", fmt.Errorf("validate registration: %w", err)
	}

	if reg.EntityType == entity.EntityTypeGovernment && !strings.HasSuffix(reg.Email, governmentEmailSuffix) {
		return entity.Account{}, "", entity.ErrGovernmentEmailRequired
	}

	passwordHash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return entity.Account{}, "", fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now()

	account := entity.Account{
		ID:           clock.NewID(),
		Name:         reg.Name,
		Lastname:     reg.Lastname,
		JobTitle:     strings.TrimSpace(reg.JobTitle),
		Telephone:    strings.TrimSpace(reg.Telephone),
		Email:        reg.Email,
		PasswordHash: passwordHash,
		EntityName:   reg.EntityName,
		EntityType:   reg.EntityType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ctx = logger.SetAccountID(ctx, account.ID.String())

	var pending emailVerification

	err = s.repo.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateAccount(ctx, account); err != nil {
			return fmt.Errorf("create account: %w", err)
		}

		var err error

		pending, err = s.prepareEmailVerification(ctx, account, false)

		return err
	})
	if err != nil {
		return entity.Account{}, "", err
	}

	slog.InfoContext(ctx, "account registered", "entity_type", account.EntityType)

	s.sendEmailVerification(ctx, pending)

	return account, pending.token, nil
}

// emailVerification is a stored verification code waiting to be sent.
type emailVerification struct {
	recipient Recipient
	code      string
	token     string
	resend    bool
}

func (s *Service) prepareEmailVerification(ctx context.Context, a entity.Account, resend bool) (emailVerification, error) {
	verifyToken, _, err := s.tokens.Issue(token.Claims{
		AccountID: a.ID,
		Purpose:   token.PurposeEmailVerification,
	}, s.cfg.JWT.VerificationTokenExpiry)
	if err != nil {
		return emailVerification{}, fmt.Errorf("issue verification token: %w", err)
	}

	r := Recipient{
		SubjectID: a.ID,
		Email:     a.Email,
		Name:      a.Name,
		Link:      s.verifyLink(verifyToken),
	}

	code, err := s.codes.Store(ctx, r, entity.PurposeEmailVerification, resend)
	if err != nil {
		return emailVerification{}, fmt.Errorf("issue verification code: %w", err)
	}

	return emailVerification{recipient: r, code: code, token: verifyToken, resend: resend}, nil
}

func (s *Service) sendEmailVerification(ctx context.Context, ev emailVerification) {
	s.codes.Deliver(ctx, ev.recipient, entity.PurposeEmailVerification, ev.code, ev.resend)
}

func (s *Service) verifyLink(verifyToken string) string {
	if s.cfg.VerifyEmailURL == "" {
		return ""
	}

	u, err := url.Parse(s.cfg.VerifyEmailURL)
	if err != nil {
		return ""
	}

	q := u.Query()
	q.Set("token", verifyToken)
	u.RawQuery = q.Encode()

	return u.String()
}

func (s *Service) Login(ctx context.Context, email, password string) (entity.AccessToken, error) {
	account, err := s.repo.AccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, entity.ErrAccountNotFound) {
			return entity.AccessToken{}, entity.ErrInvalidCredentials
		}

		return entity.AccessToken{}, fmt.Errorf("get account: %w", err)
	}

	if !s.hasher.Compare(password, account.PasswordHash) {
		slog.WarnContext(logger.SetLogType(ctx, "security"), "invalid password", "account_id", account.ID)
		return entity.AccessToken{}, entity.ErrInvalidCredentials
	}

	accessToken, expiresAt, err := s.tokens.Issue(token.Claims{
		AccountID:  account.ID,
		Purpose:    token.PurposeAccess,
		EntityType: account.EntityType,
	}, s.cfg.JWT.AccessTokenExpiry)
	if err != nil {
		return entity.AccessToken{}, fmt.Errorf("issue access token: %w", err)
	}

	return entity.AccessToken{Token: accessToken, ExpiresAt: expiresAt}, nil
}

// Authenticate resolves an access token to the account it was issued for.
func (s *Service) Authenticate(_ context.Context, accessToken string) (uuid.UUID, error) {
	claims, err := s.tokens.Verify(accessToken, token.PurposeAccess)
	if err != nil {
		return uuid.Nil, err
	}

	return claims.AccountID, nil
}

func (s *Service) Session(ctx context.Context, accountID uuid.UUID) (entity.Session, error) {
	account, err := s.repo.AccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, entity.ErrAccountNotFound) {
			return entity.Session{}, nil
		}

		return entity.Session{}, fmt.Errorf("get account: %w", err)
	}

	return entity.Session{
		Authenticated: true,
		Verified:      account.IsEmailVerified,
		Account:       &account,
	}, nil
}

func (s *Service) VerifyEmailToken(ctx context.Context, verifyToken string) error {
	claims, err := s.tokens.Verify(verifyToken, token.PurposeEmailVerification)
	if err != nil {
		return err
	}

	err = s.repo.MarkEmailVerified(ctx, claims.AccountID, s.clock.Now())
	if err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}

	s.resetLimit(ctx, "resend", claims.AccountID)

	return nil
}

// VerifyEmailCode confirms the email of the account owning email with a
// numeric code. An unknown email is reported like a wrong code.
func (s *Service) VerifyEmailCode(ctx context.Context, email, code string) error {
	account, err := s.repo.AccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, entity.ErrAccountNotFound) {
			return entity.ErrInvalidOrExpiredCode
		}

		return fmt.Errorf("get account: %w", err)
	}

	err = s.repo.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.codes.Consume(ctx, account.ID, entity.PurposeEmailVerification, code); err != nil {
			return err
		}

		return s.repo.MarkEmailVerified(ctx, account.ID, s.clock.Now())
	})
	if err != nil {
		if errors.Is(err, entity.ErrInvalidOrExpiredCode) {
			s.codes.RegisterFailure(ctx, account.ID, entity.PurposeEmailVerification)
			return err
		}

		return fmt.Errorf("verify email: %w", err)
	}

	s.resetLimit(ctx, "resend", account.ID)

	return nil
}

func (s *Service) ResendVerificationCode(ctx context.Context, email string) error {
	account, err := s.repo.AccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}

	if account.IsEmailVerified {
		slog.InfoContext(ctx, "email already verified, nothing to resend", "account_id", account.ID)
		return nil
	}

	if err := s.allow(ctx, "resend", account.ID); err != nil {
		return err
	}

	pending, err := s.prepareEmailVerification(ctx, account, true)
	if err != nil {
		return err
	}

	s.sendEmailVerification(ctx, pending)

	return nil
}

// ForgotPassword sends a password reset code. It succeeds for unknown
// emails as well so callers cannot tell which addresses are registered.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	account, err := s.repo.AccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, entity.ErrAccountNotFound) {
			slog.InfoContext(ctx, "password reset requested for unknown email")
			return nil
		}

		return fmt.Errorf("get account: %w", err)
	}

	if err := s.allow(ctx, "forgot", account.ID); err != nil {
		return err
	}

	_, err = s.codes.Issue(ctx, Recipient{
		SubjectID: account.ID,
		Email:     account.Email,
		Name:      account.Name,
	}, entity.PurposePasswordReset)
	if err != nil {
		return fmt.Errorf("issue reset code: %w", err)
	}

	return nil
}

// ResetPassword consumes the reset code and replaces the password hash in
// one transaction.
func (s *Service) ResetPassword(ctx context.Context, email, code, password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}

	account, err := s.repo.AccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, entity.ErrAccountNotFound) {
			return entity.ErrInvalidOrExpiredCode
		}

		return fmt.Errorf("get account: %w", err)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.repo.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.codes.Consume(ctx, account.ID, entity.PurposePasswordReset, code); err != nil {
			return err
		}

		return s.repo.UpdatePassword(ctx, account.ID, passwordHash, s.clock.Now())
	})
	if err != nil {
		if errors.Is(err, entity.ErrInvalidOrExpiredCode) {
			s.codes.RegisterFailure(ctx, account.ID, entity.PurposePasswordReset)
			return err
		}

		return fmt.Errorf("reset password: %w", err)
	}

	slog.InfoContext(logger.SetLogType(ctx, "security"), "password reset", "account_id", account.ID)

	s.resetLimit(ctx, "forgot", account.ID)

	return nil
}

func (s *Service) allow(ctx context.Context, action string, accountID uuid.UUID) error {
	if s.limiter == nil {
		return nil
	}

	err := s.limiter.Allow(ctx, limitKey(action, accountID))

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ratelimit.ErrLimitExceeded):
		slog.WarnContext(logger.SetLogType(ctx, "security"), "rate limit exceeded", "action", action, "account_id", accountID)
		return entity.ErrTooManyRequests
	default:
		// an unavailable limiter does not block the request
		slog.ErrorContext(ctx, "rate limiter failed", "action", action, "error", err)
		return nil
	}
}

// resetLimit clears the counter of action once its flow completed.
func (s *Service) resetLimit(ctx context.Context, action string, accountID uuid.UUID) {
	if s.limiter == nil {
		return
	}

	if err := s.limiter.Reset(ctx, limitKey(action, accountID)); err != nil {
		slog.ErrorContext(ctx, "rate limiter reset failed", "action", action, "error", err)
	}
}

func limitKey(action string, accountID uuid.UUID) string {
	return action + ":" + accountID.String()
}

// AssignAccountToEntity links the account to the entity named in its
// registration, creating the entity and its onboarding on first use.
// Concurrent calls for the same (name, type) converge on one entity.
func (s *Service) AssignAccountToEntity(ctx context.Context, accountID uuid.UUID) (entity.Entity, error) {
	account, err := s.repo.AccountByID(ctx, accountID)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("get account: %w", err)
	}

	name := strings.TrimSpace(account.EntityName)
	if name == "" || account.EntityType == "" {
		return entity.Entity{}, entity.ErrIncompleteRegistration
	}

	state, err := s.machine.Initialize(account.EntityType.FlowType())
	if err != nil {
		return entity.Entity{}, fmt.Errorf("initialize onboarding: %w", err)
	}

	now := s.clock.Now()

	candidate := entity.Entity{
		ID:         clock.NewID(),
		Name:       name,
		Type:       account.EntityType,
		Onboarding: state,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var (
		assigned entity.Entity
		created  bool
	)

	err = s.repo.WithinTx(ctx, func(ctx context.Context) error {
		var getErr error

		assigned, created, getErr = s.repo.GetOrCreateEntity(ctx, candidate)
		if getErr != nil {
			return fmt.Errorf("get or create entity: %w", getErr)
		}

		if account.EntityID != nil && *account.EntityID == assigned.ID {
			return nil
		}

		return s.repo.LinkAccountToEntity(ctx, account.ID, assigned.ID, now)
	})
	if err != nil {
		return entity.Entity{}, err
	}

	ctx = logger.SetEntityID(ctx, assigned.ID.String())
	slog.InfoContext(ctx, "account assigned to entity", "created", created, "flow_type", assigned.Onboarding.FlowType)

	return assigned, nil
}

// EntityForAccount returns the entity linked to the account, assigning one
// when the account has none yet.
func (s *Service) EntityForAccount(ctx context.Context, accountID uuid.UUID) (entity.Entity, error) {
	account, err := s.repo.AccountByID(ctx, accountID)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("get account: %w", err)
	}

	if account.EntityID == nil {
		return s.AssignAccountToEntity(ctx, accountID)
	}

	e, err := s.repo.EntityByID(ctx, *account.EntityID)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("get entity: %w", err)
	}

	return e, nil
}
