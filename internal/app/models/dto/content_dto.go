package dto

import "time"

// Image fields accept either a data URL (stored on upload) or an existing public URL.

type CreatePostRequest struct {
	Content string `json:"content"`
	Image   string `json:"image"`
}

type CommentRequest struct {
	Content string `json:"content"`
}

type ReactRequest struct {
	Type string `json:"type" binding:"required"`
}

type AnnouncementRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Image   string `json:"image"`
}

type AchievementRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Date        time.Time `json:"date"`
}

type EventRequest struct {
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Date             time.Time `json:"date"`
	Time             string    `json:"time"`
	Location         string    `json:"location"`
	RegistrationLink string    `json:"registrationLink"`
	Image            string    `json:"image"`
}

type CampaignRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Goal        float64 `json:"goal"`
	QRImage     string  `json:"qrImage"`
	PaymentID   string  `json:"paymentId"`
}

type DonateRequest struct {
	Amount    float64 `json:"amount"`
	Name      string  `json:"name"`
	Anonymous bool    `json:"anonymous"`
}

type ChatMessageRequest struct {
	Content string `json:"content"`
	Image   string `json:"image"`
}

type TaskRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	AssigneeID  string    `json:"assigneeId"`
	Status      string    `json:"status"`
}

type MoveTaskRequest struct {
	Status string `json:"status" binding:"required"`
}

type SlideshowRequest struct {
	Image   string `json:"image"`
	Caption string `json:"caption"`
	Link    string `json:"link"`
}

type PopupRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Image   string `json:"image"`
}
