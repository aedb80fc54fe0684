package identity

import (
	"errors"
	"fmt"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueConstraintField(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantField string
		wantOK    bool
	}{
		{
			name:      "sqlite message",
			err:       errors.New("UNIQUE constraint failed: users.username"),
			wantField: "username",
			wantOK:    true,
		},
		{
			name:      "sqlite message with trailing detail",
			err:       errors.New("constraint failed: UNIQUE constraint failed: users.mobile_number (2067)"),
			wantField: "mobile_number",
			wantOK:    true,
		},
		{
			name:      "postgres message",
			err:       errors.New(`ERROR: duplicate key value violates unique constraint "users_email_key"`),
			wantField: "email",
			wantOK:    true,
		},
		{
			name:   "unrelated error",
			err:    errors.New("connection refused"),
			wantOK: false,
		},
		{
			name:   "nil error",
			err:    nil,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, ok := uniqueConstraintField(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantField, field)
		})
	}
}

func TestTranslateUniqueViolation(t *testing.T) {
	t.Run("violation becomes a field scoped validation error", func(t *testing.T) {
		err := translateUniqueViolation(errors.New("UNIQUE constraint failed: users.email"))

		var verrs validation.Errors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs, "email")
		assert.Contains(t, verrs["email"].Error(), "already exists")
	})

	t.Run("other errors pass through untouched", func(t *testing.T) {
		original := errors.New("disk full")
		assert.Equal(t, original, translateUniqueViolation(original))
	})
}

func TestFormatValidationErrorToMap(t *testing.T) {
	t.Run("flattens field errors", func(t *testing.T) {
		out := FormatValidationErrorToMap(validation.Errors{
			"username": fmt.Errorf("cannot be blank"),
			"email":    fmt.Errorf("must be a valid email address"),
		})

		assert.Equal(t, "cannot be blank", out["username"])
		assert.Equal(t, "must be a valid email address", out["email"])
	})

	t.Run("non validation errors land under a generic key", func(t *testing.T) {
		out := FormatValidationErrorToMap(errors.New("boom"))
		assert.Equal(t, "boom", out["error"])
	})

	t.Run("nil error yields an empty map", func(t *testing.T) {
		assert.Empty(t, FormatValidationErrorToMap(nil))
	})
}

func TestTokenErrorPredicates(t *testing.T) {
	assert.True(t, IsTokenExpiredError(ErrTokenExpired))
	assert.True(t, IsTokenExpiredError(errors.New("token is expired by 1h")))
	assert.False(t, IsTokenExpiredError(nil))
	assert.False(t, IsTokenExpiredError(ErrTokenMalformed))

	assert.True(t, IsMalformedError(ErrTokenMalformed))
	assert.True(t, IsMalformedError(ErrJWTMissingOrMalformed))
	assert.False(t, IsMalformedError(nil))
	assert.False(t, IsMalformedError(ErrTokenExpired))
}
