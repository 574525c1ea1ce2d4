package models

import "time"

// Badge ids of the fixed catalog.
const (
	BadgeFirstPost       = "first-post"
	BadgeProlificPoster  = "prolific-poster"
	BadgeEventCreator    = "event-creator"
	BadgeSuperOrganizer  = "super-organizer"
	BadgeTaskMaster      = "task-master"
	BadgePerfectAttender = "perfect-attender"
)

// Badge is a catalog entry.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// UserBadge is an award record. Awards are never removed.
type UserBadge struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	BadgeID   string    `json:"badgeId" db:"badge_id"`
	CreatedAt time.Time `json:"earnedAt" db:"created_at"`
}

// BadgeCatalog lists every badge the app can award.
var BadgeCatalog = []Badge{
	{ID: BadgeFirstPost, Name: "First Post", Description: "Shared your first post with the community", Icon: "pen"},
	{ID: BadgeProlificPoster, Name: "Prolific Poster", Description: "Published 5 posts", Icon: "feather"},
	{ID: BadgeEventCreator, Name: "Event Creator", Description: "Organized your first event", Icon: "calendar"},
	{ID: BadgeSuperOrganizer, Name: "Super Organizer", Description: "Organized 3 events", Icon: "star"},
	{ID: BadgeTaskMaster, Name: "Task Master", Description: "Completed 10 tasks", Icon: "check"},
	{ID: BadgePerfectAttender, Name: "Perfect Attender", Description: "Attended the last 5 events", Icon: "trophy"},
}

// FindBadge looks a badge up in BadgeCatalog.
func FindBadge(id string) (Badge, bool) {
	for _, b := range BadgeCatalog {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// NotificationKind tags an AppNotification.
type NotificationKind string

const (
	NotifyBadge        NotificationKind = "badge"
	NotifyAnnouncement NotificationKind = "announcement"
	NotifyEvent        NotificationKind = "event"
	NotifyTaskAssigned NotificationKind = "task_assigned"
	NotifyTaskDue      NotificationKind = "task_due"
)

// AppNotification starts unread and can only move to read.
type AppNotification struct {
	ID        string           `json:"id" db:"id"`
	UserID    string           `json:"userId" db:"user_id"`
	Kind      NotificationKind `json:"kind" db:"kind"`
	Message   string           `json:"message" db:"message"`
	Link      string           `json:"link,omitempty" db:"link"`
	Read      bool             `json:"read" db:"read"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
}
