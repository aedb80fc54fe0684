package identity

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// DefaultContextKey is where validated claims are stored on the request
const DefaultContextKey = "identity"

// DefaultAuthScheme is the expected Authorization header scheme
const DefaultAuthScheme = "Bearer"

// ErrJWTMissingOrMalformed is returned when no usable token is presented
var ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")

// Protected returns a middleware enforcing a valid access token. On success
// the claims are stored in Locals under cfg.GetContextKey() and propagated
// to the request's user context, so downstream handlers can resolve the
// bound identity. Logout does not invalidate access tokens; a still valid
// access token passes this check until it expires.
func Protected(validator TokenValidator, cfg Config, errorHandler func(c *fiber.Ctx, err error) error) fiber.Handler {
	contextKey := cfg.GetContextKey()
	if contextKey == "" {
		contextKey = DefaultContextKey
	}

	scheme := cfg.GetAuthScheme()
	if scheme == "" {
		scheme = DefaultAuthScheme
	}

	return func(c *fiber.Ctx) error {
		raw, err := extractBearerToken(c, scheme)
		if err != nil {
			return errorHandler(c, err)
		}

		claims, err := validator.Validate(raw)
		if err != nil {
			return errorHandler(c, err)
		}

		c.Locals(contextKey, claims)
		c.SetUserContext(WithClaimsContext(c.UserContext(), claims))

		return c.Next()
	}
}

// ClaimsFromFiberContext extracts validated claims stored by Protected
func ClaimsFromFiberContext(c *fiber.Ctx, key string) (AuthClaims, bool) {
	if key == "" {
		key = DefaultContextKey
	}

	raw := c.Locals(key)
	if raw == nil {
		return nil, false
	}

	claims, ok := raw.(AuthClaims)
	return claims, ok
}

func extractBearerToken(c *fiber.Ctx, scheme string) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", ErrJWTMissingOrMalformed
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], scheme) || strings.TrimSpace(parts[1]) == "" {
		return "", ErrJWTMissingOrMalformed
	}

	return strings.TrimSpace(parts[1]), nil
}
