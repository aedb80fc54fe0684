package identity

import (
	"context"
	"reflect"
)

// Auther implements Authenticator around an identity provider, a token
// service, and a revocation registry. All collaborators are injected so the
// core stays testable in isolation; there is no ambient signing key or
// process wide revocation set.
type Auther struct {
	provider    IdentityProvider
	tokens      TokenService
	revocations RevocationRegistry
	logger      Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, tokens TokenService, revocations RevocationRegistry) *Auther {
	return &Auther{
		provider:    provider,
		tokens:      tokens,
		revocations: revocations,
		logger:      defLogger{},
	}
}

// WithLogger overrides the logger
func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

var _ Authenticator = (*Auther)(nil)

// Login verifies credentials and mints a fresh token pair. No server side
// record of the issuance is kept; the pair itself is the session.
func (s *Auther) Login(ctx context.Context, identifier, password string) (*TokenPair, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		return nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(identity)
	if err != nil {
		s.logger.Error("Login token issuance error", "error", err)
		return nil, err
	}

	return pair, nil
}

// SessionFromToken validates an access token and returns its claims. The
// revocation registry is deliberately not consulted here: only refresh
// tokens are revocable, and a still valid access token remains authoritative
// after logout until it naturally expires.
func (s *Auther) SessionFromToken(raw string) (AuthClaims, error) {
	claims, err := s.tokens.Validate(raw)
	if err != nil {
		s.logger.Debug("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	return claims, nil
}

// Refresh exchanges a refresh token for a new access token. Unlike access
// validation, the exchange always checks the revocation registry first.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		s.logger.Debug("Refresh token verification failed", "error", err)
		return "", err
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		s.logger.Error("Refresh revocation lookup failed", "error", err)
		return "", err
	}
	if revoked {
		return "", ErrTokenRevoked
	}

	identity, err := s.provider.FindIdentityByIdentifier(ctx, claims.UserID())
	if err != nil {
		s.logger.Error("Refresh identity lookup failed", "error", err)
		return "", err
	}

	return s.tokens.IssueAccess(identity)
}

// Logout parses the refresh token and inserts its jti into the revocation
// registry. Revoking an already revoked token is a no-op; only this specific
// token becomes unusable, sibling tokens of the same user are unaffected.
// Every unusable token, expired included, surfaces as the single bad token
// failure: an expired refresh token needs no revocation and the caller has
// nothing to do differently.
func (s *Auther) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		s.logger.Debug("Logout token verification failed", "error", err)
		if IsTokenExpiredError(err) {
			return ErrTokenMalformed
		}
		return err
	}

	if err := s.revocations.Revoke(ctx, claims.TokenID()); err != nil {
		s.logger.Error("Logout revocation insert failed", "error", err)
		return err
	}

	return nil
}

// IdentityFromClaims resolves the full identity bound to validated claims
func (s *Auther) IdentityFromClaims(ctx context.Context, claims AuthClaims) (Identity, error) {
	identity, err := s.provider.FindIdentityByIdentifier(ctx, claims.UserID())
	if err != nil {
		s.logger.Error("IdentityFromClaims lookup failed", "error", err)
		return nil, err
	}

	return identity, nil
}
