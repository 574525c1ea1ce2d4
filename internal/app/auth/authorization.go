package auth

import (
	"fmt"

	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/pkg/apperrors"
)

// capabilityMessages are shown when an actor lacks a capability.
var capabilityMessages = map[models.Capability]string{
	models.CapCreatePost:         "Viewers cannot create posts",
	models.CapComment:            "Viewers cannot comment",
	models.CapReact:              "Viewers cannot react to posts",
	models.CapSendChat:           "Viewers cannot send chat messages",
	models.CapCreateAnnouncement: "Only admins can manage announcements",
	models.CapCreateAchievement:  "Only admins can manage achievements",
	models.CapCreateEvent:        "Only admins can create events",
	models.CapCreateCampaign:     "Only admins can create campaigns",
	models.CapManageHomepage:     "Only admins can manage the homepage",
	models.CapManageMembers:      "Only admins can manage members",
	models.CapEditAnyTask:        "Only admins can edit tasks",
	models.CapDeleteTask:         "Only admins can delete tasks",
}

// Authorize returns a forbidden error unless actor holds capability c.
func Authorize(actor *models.User, c models.Capability) error {
	if actor != nil && models.Can(actor.Role, c) {
		return nil
	}
	msg, ok := capabilityMessages[c]
	if !ok {
		msg = fmt.Sprintf("You don't have permission to %s", humanize(c))
	}
	return apperrors.NewForbiddenError(msg)
}

// AuthorizeOwnerOr allows the record's owner when they hold ownerCap, and
// anyone holding anyCap.
func AuthorizeOwnerOr(actor *models.User, ownerID string, ownerCap, anyCap models.Capability) error {
	if actor == nil {
		return apperrors.NewForbiddenError("Sign in required")
	}
	if actor.ID == ownerID && models.Can(actor.Role, ownerCap) {
		return nil
	}
	if models.Can(actor.Role, anyCap) {
		return nil
	}
	return apperrors.NewForbiddenError("You can only change your own content")
}

// AuthorizeRoleChange applies the promotion rule.
func AuthorizeRoleChange(actor, target *models.User, newRole models.Role) error {
	if models.CanChangeRole(actor, target, newRole) {
		return nil
	}
	switch {
	case actor != nil && target != nil && actor.ID == target.ID:
		return apperrors.NewForbiddenError("You cannot change your own role")
	case !newRole.Valid():
		return apperrors.NewValidationError("role", "Unknown role")
	case target != nil && (target.Role == models.RoleSuperAdmin || newRole == models.RoleSuperAdmin):
		return apperrors.NewForbiddenError("Only a super admin can grant or revoke super admin")
	}
	return apperrors.NewForbiddenError("Only admins can manage members")
}

func humanize(c models.Capability) string {
	b := []byte(c)
	for i := range b {
		if b[i] == '_' {
			b[i] = ' '
		}
	}
	return string(b)
}
