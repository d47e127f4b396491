package entity

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

type FlowType string

const (
	FlowTypeGovernment                  FlowType = "government"
	FlowTypeGrantmakerIntermediary      FlowType = "grantmaker_intermediary"
	FlowTypeFunderIntermediaryNonprofit FlowType = "funder_intermediary_nonprofit"
)

type StepStatus string

const (
	StepStatusNotStarted StepStatus = "not_started"
	StepStatusInProgress StepStatus = "in_progress"
	StepStatusCompleted  StepStatus = "completed"
)

func (s StepStatus) Valid() bool {
	switch s {
	case StepStatusNotStarted, StepStatusInProgress, StepStatusCompleted:
		return true
	default:
		return false
	}
}

type OnboardingStep struct {
	Key           string     `json:"key"`
	Title         string     `json:"title,omitempty"`
	Order         int        `json:"order"`
	Status        StepStatus `json:"status"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	LastUpdatedAt *time.Time `json:"lastUpdatedAt,omitempty"`
	LastUpdatedBy *uuid.UUID `json:"lastUpdatedBy,omitempty"`
	Data          StepData   `json:"data,omitempty"`
}

// OnboardingState is owned by its Entity. OnboardingStatus and ProgressPercent
// are derived from the steps and must only change through Recompute.
type OnboardingState struct {
	FlowType         FlowType         `json:"flowType"`
	CurrentStepIndex int              `json:"currentStepIndex"`
	Steps            []OnboardingStep `json:"steps"`
	OnboardingStatus StepStatus       `json:"onboardingStatus"`
	ProgressPercent  int              `json:"progressPercent"`
	LastActivityAt   *time.Time       `json:"lastActivityAt,omitempty"`
}

func (s *OnboardingState) Recompute() {
	s.ProgressPercent, s.OnboardingStatus = Progress(s.Steps)
}

// StepIndex returns the position of the step with key, or -1.
func (s *OnboardingState) StepIndex(key string) int {
	for i := range s.Steps {
		if s.Steps[i].Key == key {
			return i
		}
	}

	return -1
}

func (s OnboardingState) Clone() OnboardingState {
	out := s

	if s.LastActivityAt != nil {
		t := *s.LastActivityAt
		out.LastActivityAt = &t
	}

	if s.Steps != nil {
		out.Steps = make([]OnboardingStep, len(s.Steps))
		for i, step := range s.Steps {
			out.Steps[i] = step.clone()
		}
	}

	return out
}

func (s OnboardingStep) clone() OnboardingStep {
	out := s
	out.StartedAt = cloneTime(s.StartedAt)
	out.CompletedAt = cloneTime(s.CompletedAt)
	out.LastUpdatedAt = cloneTime(s.LastUpdatedAt)

	if s.LastUpdatedBy != nil {
		id := *s.LastUpdatedBy
		out.LastUpdatedBy = &id
	}

	out.Data = s.Data.Clone()

	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	v := *t

	return &v
}

// Progress derives the completion percentage and overall status of steps.
// The percentage is rounded half up; an empty step set is not started.
func Progress(steps []OnboardingStep) (int, StepStatus) {
	total := len(steps)
	if total == 0 {
		return 0, StepStatusNotStarted
	}

	completed := 0

	for _, s := range steps {
		if s.Status == StepStatusCompleted {
			completed++
		}
	}

	percent := (200*completed + total) / (2 * total)

	switch completed {
	case total:
		return percent, StepStatusCompleted
	case 0:
		return percent, StepStatusNotStarted
	default:
		return percent, StepStatusInProgress
	}
}
