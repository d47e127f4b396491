package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"github.com/samandr77/microservices/onboarding/internal/entity"
	"github.com/samandr77/microservices/onboarding/internal/onboarding"
	"github.com/samandr77/microservices/onboarding/internal/repository"
	"github.com/samandr77/microservices/onboarding/pkg/clock"
)

type RepositoryTestSuite struct {
	suite.Suite
	db   *pgxpool.Pool
	repo *repository.Repository
	now  time.Time
}

func (ts *RepositoryTestSuite) SetupTest() {
	ts.db = SetupTestDatabase(ts.T())
	ts.repo = repository.New(ts.db)
	ts.now = time.Now().UTC().Truncate(time.Microsecond)
}

func TestRepositoryTestSuite(t *testing.T) { //nolint:paralleltest
	suite.Run(t, new(RepositoryTestSuite))
}

func (ts *RepositoryTestSuite) createAccount(email string) entity.Account {
	a := entity.Account{
		ID:           uuid.Must(uuid.NewV4()),
		Name:         "Ana",
		Lastname:     "Rivera",
		Email:        email,
		PasswordHash: "hash",
		EntityName:   "Fundación Boricua",
		EntityType:   entity.EntityTypeNonprofit,
		CreatedAt:    ts.now,
		UpdatedAt:    ts.now,
	}

	ts.Require().NoError(ts.repo.CreateAccount(context.Background(), a))

	return a
}

func (ts *RepositoryTestSuite) newCode(subjectID uuid.UUID, hash string) entity.VerificationCode {
	return entity.VerificationCode{
		ID:        uuid.Must(uuid.NewV4()),
		SubjectID: subjectID,
		Purpose:   entity.PurposePasswordReset,
		Email:     "ana@example.com",
		CodeHash:  hash,
		IssuedAt:  ts.now,
		ExpiresAt: ts.now.Add(entity.PasswordResetWindow),
	}
}

func (ts *RepositoryTestSuite) TestCreateAccount_DuplicateEmail() {
	ts.createAccount("ana@example.com")

	err := ts.repo.CreateAccount(context.Background(), entity.Account{
		ID:        uuid.Must(uuid.NewV4()),
		Email:     "ana@example.com",
		CreatedAt: ts.now,
		UpdatedAt: ts.now,
	})
	ts.Require().ErrorIs(err, entity.ErrEmailInUse)
}

func (ts *RepositoryTestSuite) TestUpsertCode_KeepsOneLiveCode() {
	ctx := context.Background()
	a := ts.createAccount("ana@example.com")

	first, err := ts.repo.UpsertCode(ctx, ts.newCode(a.ID, "first"), false)
	ts.Require().NoError(err)
	ts.Require().Zero(first.ResendCount)

	second, err := ts.repo.UpsertCode(ctx, ts.newCode(a.ID, "second"), true)
	ts.Require().NoError(err)
	ts.Require().Equal(1, second.ResendCount)

	var liveHash string

	err = ts.db.QueryRow(ctx,
		`SELECT code_hash FROM verification_codes WHERE subject_id = $1 AND purpose = $2`,
		a.ID, entity.PurposePasswordReset).Scan(&liveHash)
	ts.Require().NoError(err)
	ts.Require().Equal("second", liveHash)

	_, err = ts.repo.ConsumeCode(ctx, a.ID, entity.PurposePasswordReset, "first", ts.now, 5)
	ts.Require().ErrorIs(err, entity.ErrInvalidOrExpiredCode)

	_, err = ts.repo.ConsumeCode(ctx, a.ID, entity.PurposePasswordReset, "second", ts.now, 5)
	ts.Require().NoError(err)

	_, err = ts.repo.ConsumeCode(ctx, a.ID, entity.PurposePasswordReset, "second", ts.now, 5)
	ts.Require().ErrorIs(err, entity.ErrInvalidOrExpiredCode)
}

func (ts *RepositoryTestSuite) TestUpsertCode_Concurrent() {
	ctx := context.Background()
	a := ts.createAccount("ana@example.com")

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := ts.repo.UpsertCode(ctx, ts.newCode(a.ID, uuid.Must(uuid.NewV4()).String()), false)
			ts.NoError(err)
		}()
	}

	wg.Wait()

	var count int

	err := ts.db.QueryRow(ctx,
		`SELECT count(*) FROM verification_codes WHERE subject_id = $1`, a.ID).Scan(&count)
	ts.Require().NoError(err)
	ts.Require().Equal(1, count)
}

func (ts *RepositoryTestSuite) TestConsumeCode_ExpiryAndAttempts() {
	ctx := context.Background()
	a := ts.createAccount("ana@example.com")

	_, err := ts.repo.UpsertCode(ctx, ts.newCode(a.ID, "hash"), false)
	ts.Require().NoError(err)

	_, err = ts.repo.ConsumeCode(ctx, a.ID, entity.PurposePasswordReset, "hash", ts.now.Add(31*time.Minute), 5)
	ts.Require().ErrorIs(err, entity.ErrInvalidOrExpiredCode)

	for range 5 {
		ts.Require().NoError(ts.repo.RegisterFailedAttempt(ctx, a.ID, entity.PurposePasswordReset))
	}

	_, err = ts.repo.ConsumeCode(ctx, a.ID, entity.PurposePasswordReset, "hash", ts.now, 5)
	ts.Require().ErrorIs(err, entity.ErrInvalidOrExpiredCode)

	deleted, err := ts.repo.DeleteExpiredCodes(ctx, ts.now.Add(time.Hour))
	ts.Require().NoError(err)
	ts.Require().EqualValues(1, deleted)
}

func (ts *RepositoryTestSuite) newEntity(name string) entity.Entity {
	state, err := onboarding.NewMachine(onboarding.DefaultRegistry(), clock.System{}).Initialize(entity.FlowTypeGovernment)
	ts.Require().NoError(err)

	return entity.Entity{
		ID:         uuid.Must(uuid.NewV4()),
		Name:       name,
		Type:       entity.EntityTypeGovernment,
		Onboarding: state,
		CreatedAt:  ts.now,
		UpdatedAt:  ts.now,
	}
}

func (ts *RepositoryTestSuite) TestGetOrCreateEntity_ConcurrentConverge() {
	ctx := context.Background()

	const workers = 10

	ids := make(chan uuid.UUID, workers)

	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			err := ts.repo.WithinTx(ctx, func(ctx context.Context) error {
				e, _, err := ts.repo.GetOrCreateEntity(ctx, ts.newEntity("Departamento de Salud"))
				if err != nil {
					return err
				}

				ids <- e.ID

				return nil
			})
			ts.NoError(err)
		}()
	}

	wg.Wait()
	close(ids)

	seen := map[uuid.UUID]struct{}{}
	for id := range ids {
		seen[id] = struct{}{}
	}

	ts.Require().Len(seen, 1)

	list, total, err := ts.repo.ListEntities(ctx, entity.EntityFilter{})
	ts.Require().NoError(err)
	ts.Require().Equal(1, total)
	ts.Require().Len(list, 1)
	ts.Require().Len(list[0].Onboarding.Steps, 3)
}

func (ts *RepositoryTestSuite) TestUpdateOnboarding_VersionCheck() {
	ctx := context.Background()

	e, created, err := ts.repo.GetOrCreateEntity(ctx, ts.newEntity("Agency"))
	ts.Require().NoError(err)
	ts.Require().True(created)
	ts.Require().EqualValues(1, e.Version)

	state := e.Onboarding.Clone()
	state.CurrentStepIndex = 2

	next, err := ts.repo.UpdateOnboarding(ctx, e.ID, state, e.Version, ts.now)
	ts.Require().NoError(err)
	ts.Require().EqualValues(2, next)

	_, err = ts.repo.UpdateOnboarding(ctx, e.ID, state, e.Version, ts.now)
	ts.Require().ErrorIs(err, entity.ErrVersionConflict)

	_, err = ts.repo.UpdateOnboarding(ctx, uuid.Must(uuid.NewV4()), state, 1, ts.now)
	ts.Require().ErrorIs(err, entity.ErrEntityNotFound)

	stored, err := ts.repo.EntityByID(ctx, e.ID)
	ts.Require().NoError(err)
	ts.Require().Equal(2, stored.Onboarding.CurrentStepIndex)
}

func (ts *RepositoryTestSuite) TestWithinTx_RollsBack() {
	ctx := context.Background()
	a := ts.createAccount("ana@example.com")

	err := ts.repo.WithinTx(ctx, func(ctx context.Context) error {
		e, _, err := ts.repo.GetOrCreateEntity(ctx, ts.newEntity("Rolled back"))
		if err != nil {
			return err
		}

		if err := ts.repo.LinkAccountToEntity(ctx, a.ID, e.ID, ts.now); err != nil {
			return err
		}

		return entity.ErrVersionConflict
	})
	ts.Require().ErrorIs(err, entity.ErrVersionConflict)

	_, err = ts.repo.EntityByNameAndType(ctx, "Rolled back", entity.EntityTypeGovernment)
	ts.Require().ErrorIs(err, entity.ErrEntityNotFound)

	stored, err := ts.repo.AccountByID(ctx, a.ID)
	ts.Require().NoError(err)
	ts.Require().Nil(stored.EntityID)
}

func (ts *RepositoryTestSuite) TestListEntities_Filters() {
	ctx := context.Background()

	gov := ts.newEntity("Agency A")
	_, _, err := ts.repo.GetOrCreateEntity(ctx, gov)
	ts.Require().NoError(err)

	np := ts.newEntity("Nonprofit B")
	np.Type = entity.EntityTypeNonprofit
	_, _, err = ts.repo.GetOrCreateEntity(ctx, np)
	ts.Require().NoError(err)

	typ := entity.EntityTypeNonprofit

	list, total, err := ts.repo.ListEntities(ctx, entity.EntityFilter{Type: &typ})
	ts.Require().NoError(err)
	ts.Require().Equal(1, total)
	ts.Require().Equal("Nonprofit B", list[0].Name)

	status := entity.StepStatusNotStarted

	_, total, err = ts.repo.ListEntities(ctx, entity.EntityFilter{Status: &status, Name: "agency"})
	ts.Require().NoError(err)
	ts.Require().Equal(1, total)

	list, total, err = ts.repo.ListEntities(ctx, entity.EntityFilter{Limit: 1, Offset: 1})
	ts.Require().NoError(err)
	ts.Require().Equal(2, total)
	ts.Require().Len(list, 1)
}
