package identity

import (
	stderrors "errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
)

const (
	// TextCodeTokenExpired marks a well formed token past its expiry
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeTokenMalformed marks a token we could not parse or verify
	TextCodeTokenMalformed = "BAD_TOKEN"
	// TextCodeTokenRevoked marks a refresh token present in the revocation registry
	TextCodeTokenRevoked = "TOKEN_REVOKED"
	// TextCodeInvalidCredentials is deliberately shared by unknown-user and
	// wrong-password failures so callers cannot enumerate accounts
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode("IDENTITY_NOT_FOUND").
	WithCode(errors.CodeNotFound)

// ErrInvalidCredentials covers both unknown identifiers and password
// mismatches with a single generic message
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for well formed tokens past expiry
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens we cannot parse or verify
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenRevoked is returned when a refresh token's jti is in the registry
var ErrTokenRevoked = errors.New("token has been revoked", errors.CategoryAuth).
	WithTextCode(TextCodeTokenRevoked).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty required input
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the internal bcrypt mismatch marker; it is
// translated to ErrInvalidCredentials before leaving the package
var ErrMismatchedHashAndPassword = errors.New("hash and password mismatch", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// FormatValidationErrorToMap flattens an ozzo validation error into a
// field -> message map suitable for API responses
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if stderrors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

// uniqueConstraintField maps a store level uniqueness violation back to the
// user facing field name, so constraint errors surface with the same shape
// as validation errors. Covers sqlite and postgres message formats.
func uniqueConstraintField(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	msg := err.Error()

	if i := strings.Index(msg, "UNIQUE constraint failed: "); i >= 0 {
		rest := msg[i+len("UNIQUE constraint failed: "):]
		if j := strings.IndexByte(rest, '.'); j >= 0 {
			field := rest[j+1:]
			if k := strings.IndexAny(field, ", "); k >= 0 {
				field = field[:k]
			}
			return field, true
		}
	}

	if strings.Contains(msg, "duplicate key value violates unique constraint") {
		for _, field := range []string{"username", "email", "mobile_number"} {
			if strings.Contains(msg, field) {
				return field, true
			}
		}
	}

	return "", false
}

// translateUniqueViolation converts a store uniqueness error into a field
// scoped validation error, or returns the original error untouched.
func translateUniqueViolation(err error) error {
	field, ok := uniqueConstraintField(err)
	if !ok {
		return err
	}
	return validation.Errors{
		field: fmt.Errorf("a user with this %s already exists", strings.ReplaceAll(field, "_", " ")),
	}
}
