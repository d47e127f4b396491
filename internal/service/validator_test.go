package service_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samandr77/microservices/onboarding/internal/entity"
	"github.com/samandr77/microservices/onboarding/internal/service"
)

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		email string
		want  error
	}{
		{"ana@acme.com", nil},
		{"ana.rivera+pr@health.gov", nil},
		{"ana@acme", entity.ErrEmailInvalidFormat},
		{"ana..rivera@acme.com", entity.ErrEmailInvalidFormat},
		{"@acme.com", entity.ErrEmailInvalidFormat},
		{strings.Repeat("a", 250) + "@acme.com", entity.ErrEmailInvalidLen},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, service.ValidateEmail(tt.email), tt.want)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		want     error
	}{
		{"valid", "Secret123", nil},
		{"too short", "Sec1", entity.ErrPasswordInvalidLen},
		{"too long", "S1" + strings.Repeat("a", 71), entity.ErrPasswordInvalidLen},
		{"no upper case", "secret123", entity.ErrPasswordNoUpperCase},
		{"no digit", "SecretPass", entity.ErrPasswordNoDigit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, service.ValidatePassword(tt.password), tt.want)
		})
	}
}

func TestValidateName(t *testing.T) {
	t.Parallel()

	require.NoError(t, service.ValidateName("Fundación Ñandú"))
	require.NoError(t, service.ValidateName(strings.Repeat("ñ", service.NameMaxLen)))
	require.ErrorIs(t, service.ValidateName("   "), entity.ErrNameInvalidLen)
	require.ErrorIs(t, service.ValidateName(strings.Repeat("a", service.NameMaxLen+1)), entity.ErrNameInvalidLen)
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	require.Equal(t, "ana@health.gov", service.NormalizeEmail("  Ana@Health.GOV "))
}
