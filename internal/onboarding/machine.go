package onboarding

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/microservices/onboarding/internal/entity"
	"github.com/samandr77/microservices/onboarding/pkg/clock"
)

// StepUpdate is one change to an onboarding state. A StepKey naming an
// existing step takes precedence over CurrentStepIndex when choosing the step
// to modify; CurrentStepIndex is stored as the new position either way. A nil
// Status leaves the status as is.
type StepUpdate struct {
	StepKey          string
	CurrentStepIndex int
	Data             entity.StepData
	Status           *entity.StepStatus
	ActorID          uuid.UUID
}

type Machine struct {
	registry *Registry
	clock    clock.Clock
}

func NewMachine(registry *Registry, c clock.Clock) *Machine {
	return &Machine{registry: registry, clock: c}
}

// Initialize builds a fresh state for flow with every step not started.
func (m *Machine) Initialize(flow entity.FlowType) (entity.OnboardingState, error) {
	defs, err := m.registry.Steps(flow)
	if err != nil {
		return entity.OnboardingState{}, err
	}

	steps := make([]entity.OnboardingStep, len(defs))
	for i, d := range defs {
		steps[i] = entity.OnboardingStep{
			Key:    d.Key,
			Title:  d.Title,
			Order:  i,
			Status: entity.StepStatusNotStarted,
			Data:   entity.StepData{},
		}
	}

	state := entity.OnboardingState{
		FlowType:         flow,
		CurrentStepIndex: 0,
		Steps:            steps,
	}
	state.Recompute()

	return state, nil
}

// Apply returns a new state with u applied. The input state is not modified.
func (m *Machine) Apply(state entity.OnboardingState, u StepUpdate) (entity.OnboardingState, error) {
	if len(state.Steps) == 0 {
		return entity.OnboardingState{}, entity.ErrNoStepsInitialized
	}

	idx, err := resolveStep(state, u)
	if err != nil {
		return entity.OnboardingState{}, err
	}

	if u.Status != nil && !u.Status.Valid() {
		return entity.OnboardingState{}, fmt.Errorf("%w: %q", entity.ErrInvalidStepStatus, *u.Status)
	}

	if err := u.Data.Validate(); err != nil {
		return entity.OnboardingState{}, err
	}

	now := m.clock.Now()
	next := state.Clone()
	step := &next.Steps[idx]

	step.Data = step.Data.Merge(u.Data)

	if u.Status != nil {
		applyStatus(step, *u.Status, now)
	}

	actor := u.ActorID
	step.LastUpdatedAt = &now
	step.LastUpdatedBy = &actor

	next.CurrentStepIndex = u.CurrentStepIndex
	next.LastActivityAt = &now
	next.Recompute()

	return next, nil
}

func resolveStep(state entity.OnboardingState, u StepUpdate) (int, error) {
	if u.StepKey != "" {
		if idx := state.StepIndex(u.StepKey); idx >= 0 {
			return idx, nil
		}
	}

	// an unknown key falls back to the index
	if u.CurrentStepIndex < 0 || u.CurrentStepIndex >= len(state.Steps) {
		return 0, fmt.Errorf("%w: key %q, index %d", entity.ErrInvalidStepReference, u.StepKey, u.CurrentStepIndex)
	}

	return u.CurrentStepIndex, nil
}

func applyStatus(step *entity.OnboardingStep, status entity.StepStatus, now time.Time) {
	if status != entity.StepStatusNotStarted && step.StartedAt == nil {
		step.StartedAt = &now
	}

	if status == entity.StepStatusCompleted {
		if step.Status != entity.StepStatusCompleted || step.CompletedAt == nil {
			step.CompletedAt = &now
		}
	} else {
		step.CompletedAt = nil
	}

	step.Status = status
}
