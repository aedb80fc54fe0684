package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenUse discriminates the two halves of a token pair
type TokenUse = string

const (
	// TokenUseAccess marks short lived request tokens
	TokenUseAccess TokenUse = "access"
	// TokenUseRefresh marks long lived, individually revocable tokens
	TokenUseRefresh TokenUse = "refresh"
)

// TokenPair is the result of a successful login
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AuthClaims represents structured JWT claims resolved from a bearer token
type AuthClaims interface {
	Subject() string
	UserID() string
	TokenID() string
	Use() TokenUse
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID      string   `json:"uid,omitempty"`
	TokenUse TokenUse `json:"use,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the bound user id
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// TokenID returns the jti, the revocation identifier for refresh tokens
func (c *JWTClaims) TokenID() string {
	return c.RegisteredClaims.ID
}

// Use returns the token use discriminator
func (c *JWTClaims) Use() TokenUse {
	return c.TokenUse
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
