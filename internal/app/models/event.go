package models

import "time"

// Event is upcoming while Date >= now and past afterwards.
type Event struct {
	ID               string    `json:"id" db:"id"`
	Title            string    `json:"title" db:"title"`
	Description      string    `json:"description" db:"description"`
	Date             time.Time `json:"date" db:"event_date"`
	Time             string    `json:"time,omitempty" db:"event_time"` // display text, e.g. "10:00 AM"
	Location         string    `json:"location,omitempty" db:"location"`
	RegistrationLink *string   `json:"registrationLink,omitempty" db:"registration_link"`
	ImageURL         *string   `json:"imageUrl,omitempty" db:"image_url"`
	CreatedBy        string    `json:"createdBy" db:"created_by"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
}

// EventAttendee records attendance at a past event, unique per (event, user).
type EventAttendee struct {
	ID        string    `json:"id" db:"id"`
	EventID   string    `json:"eventId" db:"event_id"`
	UserID    string    `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Campaign is a donation drive.
type Campaign struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Goal        float64   `json:"goal" db:"goal"`
	Raised      float64   `json:"raised" db:"raised"`
	QRImageURL  *string   `json:"qrImageUrl,omitempty" db:"qr_image_url"`
	PaymentID   string    `json:"paymentId,omitempty" db:"payment_id"`
	CreatedBy   string    `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Donor is append-only. Anonymous donors carry no name.
type Donor struct {
	ID         string    `json:"id" db:"id"`
	CampaignID string    `json:"campaignId" db:"campaign_id"`
	UserID     *string   `json:"userId,omitempty" db:"user_id"`
	Name       *string   `json:"name,omitempty" db:"name"`
	Anonymous  bool      `json:"anonymous" db:"anonymous"`
	Amount     float64   `json:"amount" db:"amount"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// Task lives on the kanban board.
type Task struct {
	ID          string     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description,omitempty" db:"description"`
	DueDate     time.Time  `json:"dueDate" db:"due_date"`
	AssigneeID  *string    `json:"assigneeId,omitempty" db:"assignee_id"`
	CreatedBy   string     `json:"createdBy" db:"created_by"`
	Status      TaskStatus `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}

// AssignedTo reports whether userID is the assignee.
func (t *Task) AssignedTo(userID string) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}
