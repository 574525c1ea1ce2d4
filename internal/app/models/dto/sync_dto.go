package dto

import (
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/store"
	"github.com/parivartan/hub/internal/app/views"
)

// SnapshotResponse is the whole Domain Store of the session.
type SnapshotResponse struct {
	store.Snapshot
	FailedCollections []string `json:"failedCollections,omitempty"`
	UnreadChat        int      `json:"unreadChat"`
	UnreadNotices     int      `json:"unreadNotifications"`
}

// FeedItem is a post as the feed renders it.
type FeedItem struct {
	models.Post
	Author    *models.User          `json:"author,omitempty"`
	Comments  []models.Comment      `json:"comments"`
	Reactions views.ReactionSummary `json:"reactions"`
	Controls  views.ControlSet      `json:"controls"`
}

// ContentItem pairs an announcement, achievement or slide with its controls.
type ContentItem struct {
	Item     interface{}      `json:"item"`
	Controls views.ControlSet `json:"controls"`
}

type EventsResponse struct {
	Upcoming []EventItem `json:"upcoming"`
	Past     []EventItem `json:"past"`
}

type EventItem struct {
	models.Event
	Attended bool             `json:"attended"`
	Controls views.ControlSet `json:"controls"`
}

type CampaignItem struct {
	models.Campaign
	Progress float64        `json:"progress"`
	Donors   []models.Donor `json:"donors"`
}

type TaskItem struct {
	models.Task
	Overdue bool `json:"overdue"`
}

type BoardResponse struct {
	Todo       []TaskItem `json:"todo"`
	InProgress []TaskItem `json:"inProgress"`
	Done       []TaskItem `json:"done"`
}

type NotificationsResponse struct {
	Items  []models.AppNotification `json:"items"`
	Unread int                      `json:"unread"`
}

type ChatResponse struct {
	Messages []models.ChatMessage `json:"messages"`
	Unread   int                  `json:"unread"`
}

type ReactionResponse struct {
	Reaction *models.Reaction `json:"reaction"`
	Removed  bool             `json:"removed"`
}

type DonationResponse struct {
	Campaign *models.Campaign `json:"campaign"`
	Donor    *models.Donor    `json:"donor"`
}

type MarkReadResponse struct {
	Marked int `json:"marked"`
}
