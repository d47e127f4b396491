package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/microservices/onboarding/internal/entity"
	"github.com/samandr77/microservices/onboarding/internal/onboarding"
	"github.com/samandr77/microservices/onboarding/internal/service"
	"github.com/samandr77/microservices/onboarding/pkg/logger"
)

const (
	maxListLimit = 100
	// room for the multipart envelope around the image
	maxUploadBody = service.MaxImageSize + 1<<20
)

// @Summary Assign the caller to its entity
// @Description Finds or creates the entity named in the caller's registration and links the account to it.
// @Tags entity
// @Produce json
// @Success 200 {object} entity.Entity
// @Failure 401 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "Registration lacks entity name or type"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /v1/entity/assign [post]
func (h *Handler) AssignEntity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID, ok := entity.AccountIDFromCtx(ctx)
	if !ok {
		SendServiceErr(ctx, w, entity.ErrInvalidToken)
		return
	}

	e, err := h.s.AssignAccountToEntity(ctx, accountID)
	if err != nil {
		SendServiceErr(ctx, w, err)
		return
	}

	SendJSON(ctx, w, http.StatusOK, e)
}

// @Summary Entity of the caller
// @Tags entity
// @Produce json
// @Success 200 {object} entity.Entity
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /v1/entity/me [get]
func (h *Handler) MyEntity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accountID, ok := entity.AccountIDFromCtx(ctx)
	if !ok {
		SendServiceErr(ctx, w, entity.ErrInvalidToken)
		return
	}

	e, err := h.s.EntityForAccount(ctx, accountID)
	if err != nil {
		SendServiceErr(ctx, w, err)
		return
	}

	SendJSON(ctx, w, http.StatusOK, e)
}

type EntitiesResponse struct {
	Items []entity.Entity `json:"items"`
	Total int             `json:"total"`
}

// @Summary List entities
// @Tags entity
// @Produce json
// @Param type query string false "Entity type"
// @Param status query string false "Onboarding status"
// @Param name query string false "Name contains"
// @Param limit query int false "Page size, at most 100"
// @Param offset query int false "Offset"
// @Success 200 {object} EntitiesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /v1/entity [get]
func (h *Handler) ListEntities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := parseEntityFilter(r.URL.Query())
	if err != nil {
		SendBadRequest(ctx, w, err)
		return
	}

	entities, total, err := h.s.ListEntities(ctx, filter)
	if err != nil {
		SendServiceErr(ctx, w, err)
		return
	}

	SendJSON(ctx, w, http.StatusOK, EntitiesResponse{Items: entities, Total: total})
}

func parseEntityFilter(q url.Values) (entity.EntityFilter, error) {
	var filter entity.EntityFilter

	if v := q.Get("type"); v != "" {
		t := entity.EntityType(v)
		if !t.Valid() {
			return filter, fmt.Errorf("unknown entity type %q", v)
		}

		filter.Type = &t
	}

	if v := q.Get("status"); v != "" {
		s := entity.StepStatus(v)
		if !s.Valid() {
			return filter, fmt.Errorf("unknown onboarding status %q", v)
		}

		filter.Status = &s
	}

	filter.Name = q.Get("name")

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("parse limit: %w", err)
		}

		filter.Limit = min(limit, maxListLimit)
	}

	if v := q.Get("offset"); v != "" {
		offset, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("parse offset: %w", err)
		}

		filter.Offset = offset
	}

	return filter, nil
}

// @Summary Onboarding state of an entity
// @Tags entity
// @Produce json
// @Param id path string true "Entity id"
// @Success 200 {object} entity.OnboardingState
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /v1/entity/{id}/onboarding [get]
func (h *Handler) Onboarding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entityID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		SendBadRequest(ctx, w, err)
		return
	}

	state, err := h.s.Onboarding(ctx, entityID)
	if err != nil {
		SendServiceErr(ctx, w, err)
		return
	}

	SendJSON(ctx, w, http.StatusOK, state)
}

type StepUpdateRequest struct {
	StepKey          string             `json:"stepKey,omitempty"`
	CurrentStepIndex int                `json:"currentStepIndex"`
	Data             entity.StepData    `json:"data,omitempty"`
	Status           *entity.StepStatus `json:"status,omitempty"`
}

// @Summary Update an onboarding step
// @Description Merges data into the step named by stepKey, or at currentStepIndex when the key is absent or unknown, and stores currentStepIndex.
// @Tags entity
// @Accept json
// @Produce json
// @Param id path string true "Entity id"
// @Param request body StepUpdateRequest true "Step update"
// @Success 200 {object} entity.OnboardingState
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Entity or step not found"
// @Failure 409 {object} ErrorResponse "Concurrent update"
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /v1/entity/{id}/onboarding [patch]
func (h *Handler) UpdateOnboarding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entityID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		SendBadRequest(ctx, w, err)
		return
	}

	ctx = logger.SetEntityID(ctx, entityID.String())

	accountID, ok := entity.AccountIDFromCtx(ctx)
	if !ok {
		SendServiceErr(ctx, w, entity.ErrInvalidToken)
		return
	}

	var req StepUpdateRequest

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	err = dec.Decode(&req)
	if err != nil {
		SendBadRequest(ctx, w, err)
		return
	}

	state, err := h.s.UpdateOnboarding(ctx, entityID, onboarding.StepUpdate{
		StepKey:          req.StepKey,
		CurrentStepIndex: req.CurrentStepIndex,
		Data:             req.Data,
		Status:           req.Status,
		ActorID:          accountID,
	})
	if err != nil {
		SendServiceErr(ctx, w, err)
		return
	}

	SendJSON(ctx, w, http.StatusOK, state)
}

// @Summary Replace the entity profile
// @Tags entity
// @Accept json
// @Produce json
// @Param id path string true "Entity id"
// @Param request body entity.Profile true "Profile"
// @Success 200 {object} entity.Entity
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /v1/entity/{id}/profile [put]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entityID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		SendBadRequest(ctx, w, err)
		return
	}

	ctx = logger.SetEntityID(ctx, entityID.String())

	var profile entity.Profile

	err = json.NewDecoder(r.Body).Decode(&profile)
	if err != nil {
		SendBadRequest(ctx, w, err)
		return
	}

	e, err := h.s.UpdateProfile(ctx, entityID, profile)
	if err != nil {
		SendServiceErr(ctx, w, err)
		return
	}

	SendJSON(ctx, w, http.StatusOK, e)
}

// @Summary Upload the entity document image
// @Tags entity
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Entity id"
// @Param file formData file true "Image, at most 10 MiB"
// @Success 201 {object} entity.UploadedFile
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "Empty, too large or not an image"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /v1/entity/{id}/image [post]
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entityID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		SendBadRequest(ctx, w, err)
		return
	}

	ctx = logger.SetEntityID(ctx, entityID.String())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			SendServiceErr(ctx, w, entity.ErrImageTooLarge)
			return
		}

		SendBadRequest(ctx, w, err)

		return
	}
	defer file.Close()

	var buf bytes.Buffer

	_, err = io.Copy(&buf, io.LimitReader(file, service.MaxImageSize+1))
	if err != nil {
		SendBadRequest(ctx, w, err)
		return
	}

	uploaded, err := h.s.UploadEntityImage(ctx, entityID, buf.Bytes(), header.Filename)
	if err != nil {
		SendServiceErr(ctx, w, err)
		return
	}

	SendJSON(ctx, w, http.StatusCreated, uploaded)
}
