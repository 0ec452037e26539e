package model

import "time"

// Role is the stored entitlement tier of a user.
type Role string

const (
	RoleFree    Role = "free"
	RolePremium Role = "premium"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleFree, RolePremium, RoleAdmin:
		return true
	}
	return false
}

// User represents a principal: identity, credential and entitlement state.
type User struct {
	ID                  string     `db:"id" json:"id"`
	FirstName           string     `db:"first_name" json:"first_name"`
	LastName            string     `db:"last_name" json:"last_name"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        []byte     `db:"password_hash" json:"-"`
	Role                Role       `db:"role" json:"role"`
	PremiumExpiresAt    *time.Time `db:"premium_expires_at" json:"premium_expires_at,omitempty"`
	IsEmailVerified     bool       `db:"is_email_verified" json:"is_email_verified"`
	VerificationToken   *string    `db:"verification_token" json:"-"`
	ResetPasswordToken  *string    `db:"reset_password_token" json:"-"`
	ResetPasswordExpiry *time.Time `db:"reset_password_expires" json:"-"`
	DailyPhrasesCount   int        `db:"daily_phrases_count" json:"daily_phrases_count"`
	LastPhrasesReset    time.Time  `db:"last_phrases_reset" json:"last_phrases_reset"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// Entitlement returns the entitlement variant derived from the stored role.
func (u *User) Entitlement() Entitlement {
	switch u.Role {
	case RolePremium:
		return Premium{ExpiresAt: u.PremiumExpiresAt}
	case RoleAdmin:
		return Admin{}
	default:
		return Free{}
	}
}

// Entitlement is the closed set of access tiers. Only Free, Premium and
// Admin implement it.
type Entitlement interface {
	Role() Role
	// Unrestricted reports whether content and quota limits are lifted at t.
	Unrestricted(t time.Time) bool
	entitlement()
}

type Free struct{}

func (Free) Role() Role { return RoleFree }
func (Free) Unrestricted(time.Time) bool { return false }
func (Free) entitlement() {}

// Premium with a nil ExpiresAt never lapses. Payment reconciliation
// currently only grants lifetime premium.
type Premium struct {
	ExpiresAt *time.Time
}

func (Premium) Role() Role { return RolePremium }

func (p Premium) Unrestricted(t time.Time) bool {
	return p.ExpiresAt == nil || t.Before(*p.ExpiresAt)
}

func (Premium) entitlement() {}

type Admin struct{}

func (Admin) Role() Role { return RoleAdmin }
func (Admin) Unrestricted(time.Time) bool { return true }
func (Admin) entitlement() {}
