package models

import (
	"strings"
	"time"
)

// GuestIDPrefix marks the ids of guest viewers. Guests have no users row.
const GuestIDPrefix = "guest-"

// User defines the user model based on the 'users' table
type User struct {
	ID                string     `json:"id" db:"id"`
	Name              string     `json:"name" db:"name"`
	Handle            string     `json:"handle" db:"handle"` // empty until the profile is completed
	Email             string     `json:"email,omitempty" db:"email"`
	Password          string     `json:"-" db:"password"`
	Role              Role       `json:"role" db:"role"`
	AvatarURL         *string    `json:"avatarUrl,omitempty" db:"avatar_url"`
	FatherName        *string    `json:"fatherName,omitempty" db:"father_name"`
	DateOfBirth       *time.Time `json:"dateOfBirth,omitempty" db:"date_of_birth"`
	Course            *string    `json:"course,omitempty" db:"course"`
	Branch            *string    `json:"branch,omitempty" db:"branch"`
	RollNumber        *string    `json:"rollNumber,omitempty" db:"roll_number"`
	Year              *int       `json:"year,omitempty" db:"year"`
	Semester          *int       `json:"semester,omitempty" db:"semester"`
	TwoFactorEnabled  bool       `json:"twoFactorEnabled" db:"two_factor_enabled"`
	TwoFactorVerified bool       `json:"twoFactorVerified" db:"two_factor_verified"`
	EmailConfirmed    bool       `json:"emailConfirmed" db:"email_confirmed"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`
}

// ProfileComplete reports whether the user has both a display name and a handle.
func (u *User) ProfileComplete() bool {
	return u != nil && u.Name != "" && u.Handle != ""
}

// IsGuest reports whether u is a guest viewer.
func (u *User) IsGuest() bool {
	return u != nil && strings.HasPrefix(u.ID, GuestIDPrefix)
}

// NewGuest builds the read-only viewer identity of a guest sign-in.
func NewGuest(id string) *User {
	avatar := "https://api.dicebear.com/8.x/initials/svg?seed=Guest"
	return &User{
		ID:             id,
		Name:           "Guest Viewer",
		Handle:         "guest",
		Role:           RoleViewer,
		AvatarURL:      &avatar,
		EmailConfirmed: true,
	}
}

// ProfilePatch carries the editable profile fields. Nil fields are left unchanged.
type ProfilePatch struct {
	Name              *string
	Handle            *string
	AvatarURL         *string
	FatherName        *string
	DateOfBirth       *time.Time
	Course            *string
	Branch            *string
	RollNumber        *string
	Year              *int
	Semester          *int
	TwoFactorEnabled  *bool
	TwoFactorVerified *bool
}

// Apply copies the non-nil fields of p onto u.
func (p ProfilePatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Handle != nil {
		u.Handle = *p.Handle
	}
	if p.AvatarURL != nil {
		u.AvatarURL = p.AvatarURL
	}
	if p.FatherName != nil {
		u.FatherName = p.FatherName
	}
	if p.DateOfBirth != nil {
		u.DateOfBirth = p.DateOfBirth
	}
	if p.Course != nil {
		u.Course = p.Course
	}
	if p.Branch != nil {
		u.Branch = p.Branch
	}
	if p.RollNumber != nil {
		u.RollNumber = p.RollNumber
	}
	if p.Year != nil {
		u.Year = p.Year
	}
	if p.Semester != nil {
		u.Semester = p.Semester
	}
	if p.TwoFactorEnabled != nil {
		u.TwoFactorEnabled = *p.TwoFactorEnabled
	}
	if p.TwoFactorVerified != nil {
		u.TwoFactorVerified = *p.TwoFactorVerified
	}
}

// Token kinds stored in the user_tokens table.
const (
	TokenEmailConfirmation = "email_confirmation"
	TokenPasswordReset     = "password_reset"
)

// UserToken is a single-use mailed token (email confirmation or password reset).
type UserToken struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	Kind      string     `db:"kind"`
	Token     string     `db:"token"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
}
