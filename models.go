package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the canonical account record. Username, email, and mobile number
// are each unique across all users; the database constraint is the
// authoritative check, application level lookups only produce friendlier
// error messages.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	MobileNumber  string     `bun:"mobile_number,notnull,unique" json:"mobile_number,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Profile       *Profile   `bun:"rel:has-one,join:id=user_id" json:"profile,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// PublicView is the projection safe to return to callers. The password hash
// never leaves the package in any shape.
func (u *User) PublicView() map[string]any {
	if u == nil {
		return nil
	}
	return map[string]any{
		"id":            u.ID,
		"username":      u.Username,
		"email":         u.Email,
		"mobile_number": u.MobileNumber,
	}
}

// Profile is the optional 1:1 extension record holding non authentication
// personal data. It is created lazily on the first profile bearing update
// and owned exclusively by its user.
type Profile struct {
	bun.BaseModel  `bun:"table:user_profiles,alias:prf"`
	ID             uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID         uuid.UUID      `bun:"user_id,notnull,unique,type:uuid" json:"user_id,omitempty"`
	Fullname       string         `bun:"fullname" json:"fullname,omitempty"`
	Address        map[string]any `bun:"address,type:jsonb" json:"address,omitempty"`
	City           string         `bun:"city" json:"city,omitempty"`
	State          string         `bun:"state" json:"state,omitempty"`
	Country        string         `bun:"country" json:"country,omitempty"`
	ZipCode        string         `bun:"zip_code" json:"zip_code,omitempty"`
	AcceptedMethod string         `bun:"accepted_method" json:"accepted_method,omitempty"`
	DateJoined     *time.Time     `bun:"date_joined,nullzero,default:current_timestamp" json:"date_joined,omitempty"`
	IsActive       bool           `bun:"is_active" json:"is_active"`
}
