package service_test

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/samandr77/microservices/onboarding/internal/entity"
	"github.com/samandr77/microservices/onboarding/internal/mocks"
	"github.com/samandr77/microservices/onboarding/internal/onboarding"
	"github.com/samandr77/microservices/onboarding/internal/service"
	"github.com/samandr77/microservices/onboarding/pkg/clock"
	"github.com/samandr77/microservices/onboarding/pkg/config"
	"github.com/samandr77/microservices/onboarding/pkg/security"
)

type codeKey struct {
	subjectID uuid.UUID
	purpose   entity.Purpose
}

// fakeStore keeps accounts, entities and codes in memory. Transactions are
// serialized and roll back by restoring a snapshot.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	accounts map[uuid.UUID]entity.Account
	entities map[uuid.UUID]entity.Entity
	codes    map[codeKey]entity.VerificationCode

	// versionConflicts makes the next n onboarding writes lose to a concurrent writer.
	versionConflicts int
	updatePassErr    error
	markVerifiedErr  error
	upsertCodeErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: map[uuid.UUID]entity.Account{},
		entities: map[uuid.UUID]entity.Entity{},
		codes:    map[codeKey]entity.VerificationCode{},
	}
}

type txMarker struct{}

func (f *fakeStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}

	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.mu.Lock()
	accounts, entities, codes := cloneMap(f.accounts), cloneMap(f.entities), cloneMap(f.codes)
	f.mu.Unlock()

	err := fn(context.WithValue(ctx, txMarker{}, true))
	if err != nil {
		f.mu.Lock()
		f.accounts, f.entities, f.codes = accounts, entities, codes
		f.mu.Unlock()
	}

	return err
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

func (f *fakeStore) CreateAccount(_ context.Context, a entity.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.accounts {
		if existing.Email == a.Email {
			return entity.ErrEmailInUse
		}
	}

	f.accounts[a.ID] = a

	return nil
}

func (f *fakeStore) AccountByID(_ context.Context, id uuid.UUID) (entity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok {
		return entity.Account{}, entity.ErrAccountNotFound
	}

	return a, nil
}

func (f *fakeStore) AccountByEmail(_ context.Context, email string) (entity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.accounts {
		if a.Email == email {
			return a, nil
		}
	}

	return entity.Account{}, entity.ErrAccountNotFound
}

func (f *fakeStore) updateAccount(id uuid.UUID, fn func(a *entity.Account)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok {
		return entity.ErrAccountNotFound
	}

	fn(&a)
	f.accounts[id] = a

	return nil
}

func (f *fakeStore) MarkEmailVerified(_ context.Context, id uuid.UUID, now time.Time) error {
	if f.markVerifiedErr != nil {
		return f.markVerifiedErr
	}

	return f.updateAccount(id, func(a *entity.Account) {
		a.IsEmailVerified = true
		a.UpdatedAt = now
	})
}

func (f *fakeStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string, now time.Time) error {
	if f.updatePassErr != nil {
		return f.updatePassErr
	}

	return f.updateAccount(id, func(a *entity.Account) {
		a.PasswordHash = passwordHash
		a.UpdatedAt = now
	})
}

func (f *fakeStore) LinkAccountToEntity(_ context.Context, accountID, entityID uuid.UUID, now time.Time) error {
	return f.updateAccount(accountID, func(a *entity.Account) {
		a.EntityID = &entityID
		a.UpdatedAt = now
	})
}

func (f *fakeStore) GetOrCreateEntity(_ context.Context, e entity.Entity) (entity.Entity, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.entities {
		if existing.Name == e.Name && existing.Type == e.Type {
			return existing, false, nil
		}
	}

	e.Version = 1
	f.entities[e.ID] = e

	return e, true, nil
}

func (f *fakeStore) EntityByID(_ context.Context, id uuid.UUID) (entity.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.entities[id]
	if !ok {
		return entity.Entity{}, entity.ErrEntityNotFound
	}

	e.Onboarding = e.Onboarding.Clone()

	return e, nil
}

func (f *fakeStore) UpdateOnboarding(
	_ context.Context, id uuid.UUID, state entity.OnboardingState, version int64, now time.Time,
) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.entities[id]
	if !ok {
		return 0, entity.ErrEntityNotFound
	}

	if f.versionConflicts > 0 {
		f.versionConflicts--
		e.Version++
		f.entities[id] = e

		return 0, entity.ErrVersionConflict
	}

	if e.Version != version {
		return 0, entity.ErrVersionConflict
	}

	e.Onboarding = state.Clone()
	e.Version++
	e.UpdatedAt = now
	f.entities[id] = e

	return e.Version, nil
}

func (f *fakeStore) updateEntity(id uuid.UUID, fn func(e *entity.Entity)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.entities[id]
	if !ok {
		return entity.ErrEntityNotFound
	}

	fn(&e)
	e.Version++
	f.entities[id] = e

	return nil
}

func (f *fakeStore) UpdateProfile(_ context.Context, id uuid.UUID, profile entity.Profile, now time.Time) error {
	return f.updateEntity(id, func(e *entity.Entity) {
		e.Profile = profile
		e.UpdatedAt = now
	})
}

func (f *fakeStore) UpdateDocumentImage(_ context.Context, id uuid.UUID, url string, now time.Time) error {
	return f.updateEntity(id, func(e *entity.Entity) {
		e.DocumentImage = url
		e.UpdatedAt = now
	})
}

func (f *fakeStore) ListEntities(_ context.Context, filter entity.EntityFilter) ([]entity.Entity, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []entity.Entity{}

	for _, e := range f.entities {
		if filter.Type != nil && e.Type != *filter.Type {
			continue
		}

		if filter.Status != nil && e.Onboarding.OnboardingStatus != *filter.Status {
			continue
		}

		out = append(out, e)
	}

	return out, len(out), nil
}

func (f *fakeStore) UpsertCode(_ context.Context, code entity.VerificationCode, resend bool) (entity.VerificationCode, error) {
	if f.upsertCodeErr != nil {
		return entity.VerificationCode{}, f.upsertCodeErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := codeKey{code.SubjectID, code.Purpose}

	code.Attempts = 0
	code.ResendCount = 0

	if prev, ok := f.codes[key]; ok && resend {
		code.ResendCount = prev.ResendCount + 1
	}

	f.codes[key] = code

	return code, nil
}

func (f *fakeStore) ConsumeCode(
	_ context.Context, subjectID uuid.UUID, purpose entity.Purpose, codeHash string, now time.Time, maxAttempts int,
) (entity.VerificationCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := codeKey{subjectID, purpose}

	code, ok := f.codes[key]
	if !ok || code.CodeHash != codeHash || now.After(code.ExpiresAt) || code.Attempts >= maxAttempts {
		return entity.VerificationCode{}, entity.ErrInvalidOrExpiredCode
	}

	delete(f.codes, key)

	return code, nil
}

func (f *fakeStore) RegisterFailedAttempt(_ context.Context, subjectID uuid.UUID, purpose entity.Purpose) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := codeKey{subjectID, purpose}
	if code, ok := f.codes[key]; ok {
		code.Attempts++
		f.codes[key] = code
	}

	return nil
}

func (f *fakeStore) DeleteExpiredCodes(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64

	for k, c := range f.codes {
		if c.ExpiresAt.Before(now) {
			delete(f.codes, k)
			n++
		}
	}

	return n, nil
}

func (f *fakeStore) liveCodes(subjectID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0

	for k := range f.codes {
		if k.subjectID == subjectID {
			n++
		}
	}

	return n
}

type sentEmail struct {
	address string
	subject string
	body    string
}

var codeInBody = regexp.MustCompile(`>(\d{6})<`)

type testEnv struct {
	store    *fakeStore
	clock    *clock.Manual
	notifier *mocks.MockNotifier
	tokens   *mocks.MockTokenManager
	limiter  *mocks.MockLimiter
	uploader *mocks.MockBlobUploader
	codes    *service.Verification
	s        *service.Service

	mu     sync.Mutex
	sent   []sentEmail
	resets []string
}

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctrl := gomock.NewController(t)

	env := &testEnv{
		store:    newFakeStore(),
		clock:    clock.NewManual(testStart),
		notifier: mocks.NewMockNotifier(ctrl),
		tokens:   mocks.NewMockTokenManager(ctrl),
		limiter:  mocks.NewMockLimiter(ctrl),
		uploader: mocks.NewMockBlobUploader(ctrl),
	}

	env.notifier.EXPECT().SendEmail(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, address, subject, body string) error {
			env.mu.Lock()
			defer env.mu.Unlock()

			env.sent = append(env.sent, sentEmail{address: address, subject: subject, body: body})

			return nil
		}).AnyTimes()

	env.limiter.EXPECT().Reset(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, key string) error {
			env.mu.Lock()
			defer env.mu.Unlock()

			env.resets = append(env.resets, key)

			return nil
		}).AnyTimes()

	cfg := config.Config{
		VerifyEmailURL: "https://app.example.org/verify-email",
		JWT: config.JWTConfig{
			AccessTokenExpiry:       time.Hour,
			VerificationTokenExpiry: 24 * time.Hour,
		},
		OTP: config.OTPConfig{CodeLength: 6, MaxAttempts: 5},
	}

	env.codes = service.NewVerification(env.store, env.notifier, env.clock, cfg.OTP)
	env.s = service.New(
		cfg,
		env.store,
		env.codes,
		onboarding.NewMachine(onboarding.DefaultRegistry(), env.clock),
		security.NewBcryptHasher(bcrypt.MinCost),
		env.tokens,
		env.limiter,
		env.uploader,
		env.clock,
	)

	return env
}

// lastCode returns the code from the most recent email sent to address.
func (env *testEnv) lastCode(t *testing.T, address string) string {
	t.Helper()

	env.mu.Lock()
	defer env.mu.Unlock()

	for i := len(env.sent) - 1; i >= 0; i-- {
		if env.sent[i].address != address {
			continue
		}

		m := codeInBody.FindStringSubmatch(env.sent[i].body)
		require.Len(t, m, 2, "no code in email body")

		return m[1]
	}

	require.FailNow(t, "no email sent", address)

	return ""
}

func (env *testEnv) lastEmail(address string) sentEmail {
	env.mu.Lock()
	defer env.mu.Unlock()

	for i := len(env.sent) - 1; i >= 0; i-- {
		if strings.EqualFold(env.sent[i].address, address) {
			return env.sent[i]
		}
	}

	return sentEmail{}
}

func (env *testEnv) sentCount() int {
	env.mu.Lock()
	defer env.mu.Unlock()

	return len(env.sent)
}

func (env *testEnv) limitResets() []string {
	env.mu.Lock()
	defer env.mu.Unlock()

	return append([]string(nil), env.resets...)
}
