package models

// Capability names an action gated by role.
type Capability string

const (
	CapCreatePost         Capability = "create_post"
	CapComment            Capability = "comment"
	CapReact              Capability = "react"
	CapSendChat           Capability = "send_chat"
	CapCreateTask         Capability = "create_task"
	CapMoveTask           Capability = "move_task"
	CapMarkAttendance     Capability = "mark_attendance"
	CapDonate             Capability = "donate"
	CapUseAI              Capability = "use_ai"
	CapCreateAnnouncement Capability = "create_announcement"
	CapCreateAchievement  Capability = "create_achievement"
	CapCreateEvent        Capability = "create_event"
	CapEditAnyTask        Capability = "edit_any_task"
	CapDeleteTask         Capability = "delete_task"
	CapDeleteAnyContent   Capability = "delete_any_content"
	CapCreateCampaign     Capability = "create_campaign"
	CapManageHomepage     Capability = "manage_homepage"
	CapManageMembers      Capability = "manage_members"
	CapAssignSuperAdmin   Capability = "assign_super_admin"
)

// Capabilities is the single authority on which role may do what.
var Capabilities = map[Capability]Role{
	CapCreatePost:     RoleMember,
	CapComment:        RoleMember,
	CapReact:          RoleMember,
	CapSendChat:       RoleMember,
	CapCreateTask:     RoleMember,
	CapMoveTask:       RoleMember,
	CapMarkAttendance: RoleMember,
	CapDonate:         RoleMember,
	CapUseAI:          RoleMember,

	CapCreateAnnouncement: RoleAdmin,
	CapCreateAchievement:  RoleAdmin,
	CapCreateEvent:        RoleAdmin,
	CapEditAnyTask:        RoleAdmin,
	CapDeleteTask:         RoleAdmin,
	CapDeleteAnyContent:   RoleAdmin,
	CapCreateCampaign:     RoleAdmin,
	CapManageHomepage:     RoleAdmin,
	CapManageMembers:      RoleAdmin,

	CapAssignSuperAdmin: RoleSuperAdmin,
}

// Can reports whether role meets the minimum role of capability.
// Capabilities missing from the table are denied.
func Can(role Role, c Capability) bool {
	min, ok := Capabilities[c]
	if !ok {
		return false
	}
	return role.AtLeast(min)
}

// CanChangeRole applies the promotion rule: the actor needs manage_members,
// never edits their own role, and only a super admin may move anyone to or
// from super_admin.
func CanChangeRole(actor *User, target *User, newRole Role) bool {
	if actor == nil || target == nil || !newRole.Valid() {
		return false
	}
	if actor.ID == target.ID {
		return false
	}
	if !Can(actor.Role, CapManageMembers) {
		return false
	}
	if target.Role == RoleSuperAdmin || newRole == RoleSuperAdmin {
		return Can(actor.Role, CapAssignSuperAdmin)
	}
	return true
}
