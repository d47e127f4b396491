package entity

import (
	"encoding/json"
	"fmt"
)

const maxStepDataDepth = 16

// StepData is the free-form payload collected by an onboarding step. Values
// are limited to JSON shapes: nil, bool, numbers, strings, nested objects and
// lists of those.
type StepData map[string]any

// Merge returns a new map holding d overlaid with patch. The merge is shallow:
// a nested object in patch replaces the same key in d as a whole.
func (d StepData) Merge(patch StepData) StepData {
	merged := make(StepData, len(d)+len(patch))

	for k, v := range d {
		merged[k] = v
	}

	for k, v := range patch {
		merged[k] = v
	}

	return merged
}

func (d StepData) Clone() StepData {
	if d == nil {
		return nil
	}

	out := make(StepData, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}

	return out
}

func (d StepData) Validate() error {
	for k, v := range d {
		if err := validateValue(v, 1); err != nil {
			return fmt.Errorf("%w: field %q: %w", ErrInvalidStepData, k, err)
		}
	}

	return nil
}

func validateValue(v any, depth int) error {
	if depth > maxStepDataDepth {
		return fmt.Errorf("nesting deeper than %d levels", maxStepDataDepth)
	}

	switch val := v.(type) {
	case nil, bool, string, json.Number,
		float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case map[string]any:
		for k, nested := range val {
			if err := validateValue(nested, depth+1); err != nil {
				return fmt.Errorf("%q: %w", k, err)
			}
		}

		return nil
	case StepData:
		return validateValue(map[string]any(val), depth)
	case []any:
		for i, nested := range val {
			if err := validateValue(nested, depth+1); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}

		return nil
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, nested := range val {
			out[k] = cloneValue(nested)
		}

		return out
	case StepData:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, nested := range val {
			out[i] = cloneValue(nested)
		}

		return out
	default:
		return v
	}
}
