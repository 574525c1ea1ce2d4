package models

import "time"

// Post is a feed entry.
type Post struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	Content   string    `json:"content" db:"content"`
	ImageURL  *string   `json:"imageUrl,omitempty" db:"image_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Comment belongs to a post.
type Comment struct {
	ID        string    `json:"id" db:"id"`
	PostID    string    `json:"postId" db:"post_id"`
	UserID    string    `json:"userId" db:"user_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Reaction is unique per (post, user).
type Reaction struct {
	ID        string       `json:"id" db:"id"`
	PostID    string       `json:"postId" db:"post_id"`
	UserID    string       `json:"userId" db:"user_id"`
	Type      ReactionType `json:"type" db:"type"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
}

type Announcement struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	ImageURL  *string   `json:"imageUrl,omitempty" db:"image_url"`
	AuthorID  string    `json:"authorId" db:"author_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type Achievement struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	ImageURL    string    `json:"imageUrl" db:"image_url"`
	Date        time.Time `json:"date" db:"date"`
	AuthorID    string    `json:"authorId" db:"author_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// SlideshowItem is a homepage banner slide.
type SlideshowItem struct {
	ID        string    `json:"id" db:"id"`
	ImageURL  string    `json:"imageUrl" db:"image_url"`
	Caption   string    `json:"caption" db:"caption"`
	Link      *string   `json:"link,omitempty" db:"link"`
	CreatedBy string    `json:"createdBy" db:"created_by"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// PopupMessage is shown once on the homepage. At most one exists.
type PopupMessage struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	ImageURL  *string   `json:"imageUrl,omitempty" db:"image_url"`
	CreatedBy string    `json:"createdBy" db:"created_by"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
