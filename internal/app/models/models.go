package models

import "strings"

// Role defines the user role; the zero value is not a valid role.
type Role string

const (
	RoleViewer     Role = "viewer"
	RoleMember     Role = "member"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// rank gives the strict ordering viewer < member < admin < super_admin.
var rank = map[Role]int{
	RoleViewer:     1,
	RoleMember:     2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

// ParseRole accepts the spellings used across the app. "guest" is the older
// name of viewer.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "viewer", "guest":
		return RoleViewer, true
	case "member":
		return RoleMember, true
	case "admin":
		return RoleAdmin, true
	case "super_admin", "super-admin", "superadmin":
		return RoleSuperAdmin, true
	}
	return "", false
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	_, ok := rank[r]
	return ok
}

// Rank returns the position in the ordering; unknown roles rank 0.
func (r Role) Rank() int {
	return rank[r]
}

// AtLeast reports r >= min. Unknown roles never satisfy anything.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r.Rank() >= min.Rank()
}

// IsAdminTier is true for admin and super_admin.
func (r Role) IsAdminTier() bool {
	return r.AtLeast(RoleAdmin)
}

// TaskStatus is the board column of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// ParseTaskStatus accepts both the lower-case and the TODO/IN_PROGRESS/DONE forms.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo":
		return TaskTodo, true
	case "in_progress", "in-progress", "inprogress":
		return TaskInProgress, true
	case "done":
		return TaskDone, true
	}
	return "", false
}

// ReactionType is one of the reactions a post accepts.
type ReactionType string

const (
	ReactionLike       ReactionType = "like"
	ReactionLove       ReactionType = "love"
	ReactionCelebrate  ReactionType = "celebrate"
	ReactionSupport    ReactionType = "support"
	ReactionInsightful ReactionType = "insightful"
)

// Valid reports whether t is a known reaction.
func (t ReactionType) Valid() bool {
	switch t {
	case ReactionLike, ReactionLove, ReactionCelebrate, ReactionSupport, ReactionInsightful:
		return true
	}
	return false
}
