package dto

import (
	"time"

	"github.com/parivartan/hub/internal/app/models"
)

// UpdateProfileRequest is a partial profile edit. Omitted fields stay unchanged.
type UpdateProfileRequest struct {
	Name              *string    `json:"name"`
	Handle            *string    `json:"handle" binding:"omitempty,handle"`
	Avatar            *string    `json:"avatar"` // data URL or public URL
	FatherName        *string    `json:"fatherName"`
	DateOfBirth       *time.Time `json:"dateOfBirth"`
	Course            *string    `json:"course"`
	Branch            *string    `json:"branch"`
	RollNumber        *string    `json:"rollNumber"`
	Year              *int       `json:"year" binding:"omitempty,min=1,max=6"`
	Semester          *int       `json:"semester" binding:"omitempty,min=1,max=12"`
	TwoFactorEnabled  *bool      `json:"twoFactorEnabled"`
	TwoFactorVerified *bool      `json:"twoFactorVerified"`
}

// AddMemberRequest is used by admins to register a member directly.
type AddMemberRequest struct {
	Name     string `json:"name" binding:"required"`
	Handle   string `json:"handle" binding:"required,handle"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"omitempty,min=8"`
	Role     string `json:"role"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// Patch converts the request into a profile patch. Avatar is resolved
// separately because it may be an upload.
func (r UpdateProfileRequest) Patch() models.ProfilePatch {
	return models.ProfilePatch{
		Name:              r.Name,
		Handle:            r.Handle,
		FatherName:        r.FatherName,
		DateOfBirth:       r.DateOfBirth,
		Course:            r.Course,
		Branch:            r.Branch,
		RollNumber:        r.RollNumber,
		Year:              r.Year,
		Semester:          r.Semester,
		TwoFactorEnabled:  r.TwoFactorEnabled,
		TwoFactorVerified: r.TwoFactorVerified,
	}
}

// MemberResponse is a directory entry with the actor's controls.
type MemberResponse struct {
	models.User
	CanChangeRole bool `json:"canChangeRole"`
	CanRemove     bool `json:"canRemove"`
}
