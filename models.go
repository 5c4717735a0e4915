package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account record. PasswordHash never serializes outward; use
// Summary for anything that crosses the API boundary.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FirstName    string     `bun:"firstname,notnull" json:"firstname,omitempty"`
	LastName     string     `bun:"lastname,notnull" json:"lastname,omitempty"`
	Email        string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Institution  string     `bun:"institution,notnull" json:"institution,omitempty"`
	StudentID    string     `bun:"student_id,notnull,unique" json:"student_id,omitempty"`
	IsActive     bool       `bun:"is_active,notnull,default:false" json:"is_active"`
	IsAdmin      bool       `bun:"is_admin,notnull,default:false" json:"is_admin"`
	PasswordHash string     `bun:"password_hash,notnull" json:"-"`
	RegisteredAt time.Time  `bun:"registered_at,nullzero" json:"registered_at,omitempty"`
	CreatedAt    *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt    *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt    *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// FullName joins the name parts for email salutations.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserSummary is the outward view of an account. It has no password field by
// construction.
type UserSummary struct {
	ID           uuid.UUID `json:"id"`
	FirstName    string    `json:"firstname"`
	LastName     string    `json:"lastname"`
	Email        string    `json:"email"`
	Institution  string    `json:"institution"`
	StudentID    string    `json:"student_id"`
	IsActive     bool      `json:"is_active"`
	IsAdmin      bool      `json:"is_admin"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Summary projects the record into its outward view.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Institution:  u.Institution,
		StudentID:    u.StudentID,
		IsActive:     u.IsActive,
		IsAdmin:      u.IsAdmin,
		RegisteredAt: u.RegisteredAt,
	}
}

// UserPatch enumerates the only fields the lifecycle may mutate after
// registration. Nil fields are left untouched.
type UserPatch struct {
	IsActive     *bool
	PasswordHash *string
}

// IsZero reports whether the patch would change nothing.
func (p UserPatch) IsZero() bool {
	return p.IsActive == nil && p.PasswordHash == nil
}

// Activate is a convenience patch that flips is_active on.
func Activate() UserPatch {
	active := true
	return UserPatch{IsActive: &active}
}

// ChangePassword is a convenience patch replacing the stored hash.
func ChangePassword(hash string) UserPatch {
	return UserPatch{PasswordHash: &hash}
}
