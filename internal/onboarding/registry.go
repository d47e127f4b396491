// Package onboarding holds the onboarding flow definitions and the state
// machine that applies step updates to an entity's onboarding state.
package onboarding

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samandr77/microservices/onboarding/internal/entity"
)

type StepDefinition struct {
	Key   string
	Title string
}

// Registry maps a flow type to its ordered steps. It is immutable once built.
type Registry struct {
	flows map[entity.FlowType][]StepDefinition
}

func NewRegistry(flows map[entity.FlowType][]StepDefinition) (*Registry, error) {
	r := &Registry{flows: make(map[entity.FlowType][]StepDefinition, len(flows))}

	for flow, steps := range flows {
		if len(steps) == 0 {
			return nil, fmt.Errorf("flow %q has no steps", flow)
		}

		seen := make(map[string]struct{}, len(steps))

		for _, s := range steps {
			if s.Key == "" {
				return nil, fmt.Errorf("flow %q: %w", flow, errors.New("empty step key"))
			}

			if _, ok := seen[s.Key]; ok {
				return nil, fmt.Errorf("flow %q: duplicate step key %q", flow, s.Key)
			}

			seen[s.Key] = struct{}{}
		}

		r.flows[flow] = slices.Clone(steps)
	}

	return r, nil
}

// Steps returns a copy of the ordered step definitions for flow.
func (r *Registry) Steps(flow entity.FlowType) ([]StepDefinition, error) {
	steps, ok := r.flows[flow]
	if !ok {
		return nil, fmt.Errorf("%w: %q", entity.ErrUnknownFlowType, flow)
	}

	return slices.Clone(steps), nil
}

func DefaultRegistry() *Registry {
	r, err := NewRegistry(map[entity.FlowType][]StepDefinition{
		entity.FlowTypeGovernment: {
			{Key: "basic_information", Title: "Basic Information"},
			{Key: "agency_program", Title: "Agency & Program"},
			{Key: "review", Title: "Review & Submit"},
		},
		entity.FlowTypeGrantmakerIntermediary: {
			{Key: "basic_information", Title: "Basic Information"},
			{Key: "structure", Title: "Organizational Structure"},
			{Key: "strategy", Title: "Strategy"},
			{Key: "financials", Title: "Financials"},
			{Key: "human_resources", Title: "Human Resources"},
			{Key: "technology", Title: "Technology"},
			{Key: "review", Title: "Review & Submit"},
		},
		entity.FlowTypeFunderIntermediaryNonprofit: {
			{Key: "basic_information", Title: "Basic Information"},
			{Key: "strategy", Title: "Strategy"},
			{Key: "financials", Title: "Financials"},
			{Key: "impact_areas", Title: "Impact Areas"},
			{Key: "technology", Title: "Technology"},
			{Key: "review", Title: "Review & Submit"},
		},
	})
	if err != nil {
		panic(err)
	}

	return r
}
