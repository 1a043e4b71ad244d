package validator_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romusha/forumauth/pkg/validator"
)

func TestApply_AllPass(t *testing.T) {
	t.Parallel()

	err := validator.Apply(
		validator.Required("email", "alice@gmail.com"),
		validator.Required("password", "Secret123"),
	)
	assert.NoError(t, err)
}

func TestApply_CollectsFailures(t *testing.T) {
	t.Parallel()

	err := validator.Apply(
		validator.Required("email", ""),
		validator.Required("password", "   "),
		validator.Required("username", "alice42"),
	)
	require.Error(t, err)

	ve := validator.ExtractValidationErrors(err)
	require.Len(t, ve, 2)
	assert.True(t, ve.Has("email"))
	assert.True(t, ve.Has("password"))
	assert.False(t, ve.Has("username"))
	assert.Equal(t, []string{"email", "password"}, ve.Fields())
}

func TestApply_Details(t *testing.T) {
	t.Parallel()

	err := validator.Apply(
		validator.Required("email", ""),
		validator.ValidEmail("email", ""),
	)
	require.Error(t, err)

	details := validator.ExtractValidationErrors(err).Details()
	require.Contains(t, details, "email")
	assert.Len(t, details["email"], 2)
}

func TestIsValidationError(t *testing.T) {
	t.Parallel()

	err := validator.Apply(validator.Required("email", ""))
	assert.True(t, validator.IsValidationError(err))
	assert.False(t, validator.IsValidationError(fmt.Errorf("plain error")))
	assert.False(t, validator.IsValidationError(nil))
}

func TestValidEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		valid bool
	}{
		{"alice@gmail.com", true},
		{"a.b+tag@example.co.uk", true},
		{"", false},
		{"not-an-email", false},
		{"missing@domain", false},
		{"Alice <alice@gmail.com>", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			err := validator.Apply(validator.ValidEmail("email", tt.value))
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAllowedEmailDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		valid bool
	}{
		{"alice@gmail.com", true},
		{"alice@GMAIL.COM", true},
		{"alice@yahoo.com", false},
		{"alice@gmail.com.evil.com", false},
		{"no-at-sign", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			err := validator.Apply(validator.AllowedEmailDomain("email", tt.value, "gmail.com"))
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLenRules(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validator.Apply(validator.Len("paraphrase", "aB3x9", 5)))
	assert.Error(t, validator.Apply(validator.Len("paraphrase", "aB3x", 5)))
	assert.NoError(t, validator.Apply(validator.MinLen("password", "Secret123", 8)))
	assert.Error(t, validator.Apply(validator.MinLen("password", "short", 8)))
	assert.NoError(t, validator.Apply(validator.MaxLen("username", "alice", 32)))
	assert.Error(t, validator.Apply(validator.MaxLen("username", string(make([]byte, 40)), 32)))
}
