package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/microservices/onboarding/internal/entity"
	"github.com/samandr77/microservices/onboarding/internal/onboarding"
	"github.com/samandr77/microservices/onboarding/pkg/clock"
	"github.com/samandr77/microservices/onboarding/pkg/config"
)

type CodeRepository interface {
	UpsertCode(ctx context.Context, code entity.VerificationCode, resend bool) (entity.VerificationCode, error)
	ConsumeCode(
		ctx context.Context,
		subjectID uuid.UUID,
		purpose entity.Purpose,
		codeHash string,
		now time.Time,
		maxAttempts int,
	) (entity.VerificationCode, error)
	RegisterFailedAttempt(ctx context.Context, subjectID uuid.UUID, purpose entity.Purpose) error
	DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error)
}

type Repository interface {
	// WithinTx runs fn atomically; repository calls made with the context
	// handed to fn take part in the same transaction.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	CreateAccount(ctx context.Context, a entity.Account) error
	AccountByID(ctx context.Context, id uuid.UUID) (entity.Account, error)
	AccountByEmail(ctx context.Context, email string) (entity.Account, error)
	MarkEmailVerified(ctx context.Context, id uuid.UUID, now time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, now time.Time) error
	LinkAccountToEntity(ctx context.Context, accountID, entityID uuid.UUID, now time.Time) error

	GetOrCreateEntity(ctx context.Context, e entity.Entity) (entity.Entity, bool, error)
	EntityByID(ctx context.Context, id uuid.UUID) (entity.Entity, error)
	UpdateOnboarding(ctx context.Context, id uuid.UUID, state entity.OnboardingState, version int64, now time.Time) (int64, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, profile entity.Profile, now time.Time) error
	UpdateDocumentImage(ctx context.Context, id uuid.UUID, url string, now time.Time) error
	ListEntities(ctx context.Context, filter entity.EntityFilter) ([]entity.Entity, int, error)
}

type Service struct {
	cfg      config.Config
	repo     Repository
	codes    *Verification
	machine  *onboarding.Machine
	hasher   Hasher
	tokens   TokenManager
	limiter  Limiter
	uploader BlobUploader
	clock    clock.Clock
}

// New wires the account, entity and onboarding operations. limiter may be
// nil, in which case resend and forgot password requests are not throttled.
func New(
	cfg config.Config,
	repo Repository,
	codes *Verification,
	machine *onboarding.Machine,
	hasher Hasher,
	tokens TokenManager,
	limiter Limiter,
	uploader BlobUploader,
	c clock.Clock,
) *Service {
	return &Service{
		cfg:      cfg,
		repo:     repo,
		codes:    codes,
		machine:  machine,
		hasher:   hasher,
		tokens:   tokens,
		limiter:  limiter,
		uploader: uploader,
		clock:    c,
	}
}
