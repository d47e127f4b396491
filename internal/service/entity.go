package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/microservices/onboarding/internal/entity"
	"github.com/samandr77/microservices/onboarding/internal/onboarding"
	"github.com/samandr77/microservices/onboarding/pkg/logger"
)

const (
	MaxImageSize = 10 << 20

	maxOnboardingUpdateRetries = 3
)

var allowedImageTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/gif":  {},
	"image/webp": {},
}

func (s *Service) Onboarding(ctx context.Context, entityID uuid.UUID) (entity.OnboardingState, error) {
	e, err := s.repo.EntityByID(ctx, entityID)
	if err != nil {
		return entity.OnboardingState{}, fmt.Errorf("get entity: %w", err)
	}

	return e.Onboarding, nil
}

// UpdateOnboarding applies u to the entity's onboarding. A concurrent write
// is detected through the entity version and the update is re-applied on
// the fresh state.
func (s *Service) UpdateOnboarding(ctx context.Context, entityID uuid.UUID, u onboarding.StepUpdate) (entity.OnboardingState, error) {
	ctx = logger.SetEntityID(ctx, entityID.String())

	for attempt := 1; attempt <= maxOnboardingUpdateRetries; attempt++ {
		e, err := s.repo.EntityByID(ctx, entityID)
		if err != nil {
			return entity.OnboardingState{}, fmt.Errorf("get entity: %w", err)
		}

		next, err := s.machine.Apply(e.Onboarding, u)
		if err != nil {
			return entity.OnboardingState{}, err
		}

		_, err = s.repo.UpdateOnboarding(ctx, entityID, next, e.Version, s.clock.Now())
		if err == nil {
			slog.InfoContext(ctx, "onboarding updated",
				"step_key", u.StepKey,
				"current_step_index", next.CurrentStepIndex,
				"progress_percent", next.ProgressPercent,
				"onboarding_status", next.OnboardingStatus,
			)

			return next, nil
		}

		if !errors.Is(err, entity.ErrVersionConflict) {
			return entity.OnboardingState{}, fmt.Errorf("save onboarding: %w", err)
		}

		slog.DebugContext(ctx, "onboarding version conflict, retrying", "attempt", attempt)
	}

	return entity.OnboardingState{}, entity.ErrVersionConflict
}

func (s *Service) ListEntities(ctx context.Context, filter entity.EntityFilter) ([]entity.Entity, int, error) {
	entities, total, err := s.repo.ListEntities(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list entities: %w", err)
	}

	return entities, total, nil
}

func (s *Service) UpdateProfile(ctx context.Context, entityID uuid.UUID, profile entity.Profile) (entity.Entity, error) {
	if err := profile.Validate(); err != nil {
		return entity.Entity{}, err
	}

	err := s.repo.UpdateProfile(ctx, entityID, profile, s.clock.Now())
	if err != nil {
		return entity.Entity{}, fmt.Errorf("update profile: %w", err)
	}

	e, err := s.repo.EntityByID(ctx, entityID)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("get entity: %w", err)
	}

	return e, nil
}

// UploadEntityImage stores the image with the blob uploader and records its URL on the entity.
func (s *Service) UploadEntityImage(ctx context.Context, entityID uuid.UUID, data []byte, filename string) (entity.UploadedFile, error) {
	if len(data) == 0 {
		return entity.UploadedFile{}, entity.ErrImageEmpty
	}

	if len(data) > MaxImageSize {
		return entity.UploadedFile{}, entity.ErrImageTooLarge
	}

	contentType := http.DetectContentType(data)
	if _, ok := allowedImageTypes[contentType]; !ok {
		return entity.UploadedFile{}, fmt.Errorf("%w: %s", entity.ErrImageUnsupportedType, contentType)
	}

	if _, err := s.repo.EntityByID(ctx, entityID); err != nil {
		return entity.UploadedFile{}, fmt.Errorf("get entity: %w", err)
	}

	file, err := s.uploader.Upload(ctx, data, filename)
	if err != nil {
		return entity.UploadedFile{}, fmt.Errorf("upload image: %w", err)
	}

	err = s.repo.UpdateDocumentImage(ctx, entityID, file.URL, s.clock.Now())
	if err != nil {
		return entity.UploadedFile{}, fmt.Errorf("save image url: %w", err)
	}

	return file, nil
}
