package models

import "time"

// ChatMessage represents a message in the group chat. Text, image or both.
type ChatMessage struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	Content   string    `json:"content" db:"content"`
	ImageURL  *string   `json:"imageUrl,omitempty" db:"image_url"`
	ReadBy    []string  `json:"readBy" db:"read_by"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ReadByUser reports whether userID is in ReadBy.
func (m *ChatMessage) ReadByUser(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}
