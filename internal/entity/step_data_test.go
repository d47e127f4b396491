package entity_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/samandr77/microservices/onboarding/internal/entity"
)

func TestStepData_Merge(t *testing.T) {
	t.Parallel()

	base := entity.StepData{"name": "Acme", "address": map[string]any{"city": "San Juan", "zip": "00901"}}
	patch := entity.StepData{"address": map[string]any{"city": "Ponce"}, "employees": 12}

	merged := base.Merge(patch)

	require.Equal(t, entity.StepData{
		"name":      "Acme",
		"address":   map[string]any{"city": "Ponce"},
		"employees": 12,
	}, merged)
	require.Equal(t, "San Juan", base["address"].(map[string]any)["city"], "receiver must not change")

	require.Equal(t, merged, merged.Merge(patch), "merging the same patch twice is a no-op")
}

func TestStepData_MergeNil(t *testing.T) {
	t.Parallel()

	var base entity.StepData

	merged := base.Merge(entity.StepData{"a": true})
	require.Equal(t, entity.StepData{"a": true}, merged)
	require.Equal(t, entity.StepData{"a": true}, merged.Merge(nil))
}

func TestStepData_Validate(t *testing.T) {
	t.Parallel()

	deep := map[string]any{}
	cur := deep

	for range 20 {
		next := map[string]any{}
		cur["x"] = next
		cur = next
	}

	tests := []struct {
		name  string
		data  entity.StepData
		errFn require.ErrorAssertionFunc
	}{
		{"empty", entity.StepData{}, require.NoError},
		{"json shapes", entity.StepData{
			"s": "x", "b": true, "n": 1.5, "i": 3, "null": nil,
			"list": []any{"a", 1, map[string]any{"k": "v"}},
			"num":  json.Number("10"),
		}, require.NoError},
		{"nested step data", entity.StepData{"inner": entity.StepData{"k": "v"}}, require.NoError},
		{"time is rejected", entity.StepData{"t": time.Now()}, require.Error},
		{"func is rejected", entity.StepData{"f": func() {}}, require.Error},
		{"nested channel is rejected", entity.StepData{"l": []any{make(chan int)}}, require.Error},
		{"too deep", entity.StepData{"deep": deep}, require.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.data.Validate()
			tt.errFn(t, err)

			if err != nil {
				require.ErrorIs(t, err, entity.ErrInvalidStepData)
			}
		})
	}
}
