// Package views projects a store snapshot into what a screen needs. Every
// function is pure: inputs are never modified and identical inputs give
// identical output.
package views

import (
	"sort"
	"strings"
	"time"

	"github.com/parivartan/hub/internal/app/models"
)

// Filter keeps the items where any of fields contains query, ignoring case.
// A blank query keeps everything. The result is a new slice.
func Filter[T any](items []T, query string, fields func(*T) []string) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]T, 0, len(items))
	for i := range items {
		if q == "" || matches(fields(&items[i]), q) {
			out = append(out, items[i])
		}
	}
	return out
}

func matches(fields []string, q string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func SearchPosts(posts []models.Post, query string) []models.Post {
	return Filter(posts, query, func(p *models.Post) []string { return []string{p.Content} })
}

func SearchAnnouncements(items []models.Announcement, query string) []models.Announcement {
	return Filter(items, query, func(a *models.Announcement) []string { return []string{a.Title, a.Content} })
}

func SearchAchievements(items []models.Achievement, query string) []models.Achievement {
	return Filter(items, query, func(a *models.Achievement) []string { return []string{a.Title, a.Description} })
}

func SearchEvents(items []models.Event, query string) []models.Event {
	return Filter(items, query, func(e *models.Event) []string { return []string{e.Title, e.Description, e.Location} })
}

func SearchUsers(users []models.User, query string) []models.User {
	return Filter(users, query, func(u *models.User) []string { return []string{u.Name, u.Handle} })
}

// Can is the role gate shared by the API and the mutation handlers.
func Can(actor *models.User, c models.Capability) bool {
	return actor != nil && models.Can(actor.Role, c)
}

// ControlSet says which controls render for a record.
type ControlSet struct {
	Create bool `json:"create"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
}

// Controls derives the controls for a record owned by ownerID. Authors may
// edit and delete their own records when they still hold createCap; anyone
// holding manageCap may edit and delete everything.
func Controls(actor *models.User, ownerID string, createCap, manageCap models.Capability) ControlSet {
	if actor == nil {
		return ControlSet{}
	}
	own := ownerID != "" && ownerID == actor.ID && Can(actor, createCap)
	manage := Can(actor, manageCap)
	return ControlSet{
		Create: Can(actor, createCap),
		Edit:   own || manage,
		Delete: own || manage,
	}
}

// PartitionEvents splits events into upcoming (date >= now) and past
// (date < now). Order within each side follows the input.
func PartitionEvents(events []models.Event, now time.Time) (upcoming, past []models.Event) {
	upcoming = make([]models.Event, 0, len(events))
	past = make([]models.Event, 0, len(events))
	for _, e := range events {
		if e.Date.Before(now) {
			past = append(past, e)
		} else {
			upcoming = append(upcoming, e)
		}
	}
	return upcoming, past
}

// RecentPastEvents returns up to n past events, most recent first.
func RecentPastEvents(events []models.Event, now time.Time, n int) []models.Event {
	_, past := PartitionEvents(events, now)
	sort.SliceStable(past, func(i, j int) bool { return past[i].Date.After(past[j].Date) })
	if len(past) > n {
		past = past[:n]
	}
	return past
}

// EarnedBadge is a catalog entry with the time it was awarded.
type EarnedBadge struct {
	models.Badge
	EarnedAt time.Time `json:"earnedAt"`
}

// BadgesFor joins userID's awards with the catalog. Awards whose badge is
// not in the catalog are skipped.
func BadgesFor(userID string, awards []models.UserBadge, catalog []models.Badge) []EarnedBadge {
	byID := make(map[string]models.Badge, len(catalog))
	for _, b := range catalog {
		byID[b.ID] = b
	}
	out := make([]EarnedBadge, 0)
	for _, a := range awards {
		if a.UserID != userID {
			continue
		}
		if b, ok := byID[a.BadgeID]; ok {
			out = append(out, EarnedBadge{Badge: b, EarnedAt: a.CreatedAt})
		}
	}
	return out
}

// Board is the task board grouped by column.
type Board struct {
	Todo       []models.Task `json:"todo"`
	InProgress []models.Task `json:"inProgress"`
	Done       []models.Task `json:"done"`
}

func TasksByStatus(tasks []models.Task) Board {
	b := Board{Todo: []models.Task{}, InProgress: []models.Task{}, Done: []models.Task{}}
	for _, t := range tasks {
		switch t.Status {
		case models.TaskInProgress:
			b.InProgress = append(b.InProgress, t)
		case models.TaskDone:
			b.Done = append(b.Done, t)
		default:
			b.Todo = append(b.Todo, t)
		}
	}
	return b
}

// IsOverdue reports a task that is not done and past its due date.
func IsOverdue(t models.Task, now time.Time) bool {
	return t.Status != models.TaskDone && t.DueDate.Before(now)
}

// DueWithin reports a task that is not done and due before now+window,
// including tasks that are already overdue.
func DueWithin(t models.Task, now time.Time, window time.Duration) bool {
	return t.Status != models.TaskDone && !t.DueDate.After(now.Add(window))
}

// DoneTasksAssignedTo counts completed tasks assigned to userID.
func DoneTasksAssignedTo(tasks []models.Task, userID string) int {
	n := 0
	for i := range tasks {
		if tasks[i].Status == models.TaskDone && tasks[i].AssignedTo(userID) {
			n++
		}
	}
	return n
}

// UnreadChatCount counts messages by others that userID has not read.
func UnreadChatCount(messages []models.ChatMessage, userID string) int {
	n := 0
	for i := range messages {
		if messages[i].UserID != userID && !messages[i].ReadByUser(userID) {
			n++
		}
	}
	return n
}

func PostsBy(posts []models.Post, authorID string) []models.Post {
	out := make([]models.Post, 0)
	for _, p := range posts {
		if p.UserID == authorID {
			out = append(out, p)
		}
	}
	return out
}

func EventsBy(events []models.Event, authorID string) []models.Event {
	out := make([]models.Event, 0)
	for _, e := range events {
		if e.CreatedBy == authorID {
			out = append(out, e)
		}
	}
	return out
}

func CommentsFor(comments []models.Comment, postID string) []models.Comment {
	out := make([]models.Comment, 0)
	for _, c := range comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out
}

// ReactionSummary counts the reactions on one post.
type ReactionSummary struct {
	Total  int                         `json:"total"`
	Counts map[models.ReactionType]int `json:"counts"`
	Top    []models.ReactionType       `json:"top"`
	Mine   models.ReactionType         `json:"mine,omitempty"`
}

// PostReactionSummary counts reactions on postID. Top holds at most three
// types, most used first, ties broken by name.
func PostReactionSummary(reactions []models.Reaction, postID, viewerID string) ReactionSummary {
	s := ReactionSummary{Counts: map[models.ReactionType]int{}, Top: []models.ReactionType{}}
	for _, r := range reactions {
		if r.PostID != postID {
			continue
		}
		s.Total++
		s.Counts[r.Type]++
		if r.UserID == viewerID {
			s.Mine = r.Type
		}
	}
	for t := range s.Counts {
		s.Top = append(s.Top, t)
	}
	sort.Slice(s.Top, func(i, j int) bool {
		ci, cj := s.Counts[s.Top[i]], s.Counts[s.Top[j]]
		if ci != cj {
			return ci > cj
		}
		return s.Top[i] < s.Top[j]
	})
	if len(s.Top) > 3 {
		s.Top = s.Top[:3]
	}
	return s
}

// CampaignProgress is raised as a percentage of goal, capped at 100.
func CampaignProgress(c models.Campaign) float64 {
	if c.Goal <= 0 {
		return 0
	}
	p := c.Raised * 100 / c.Goal
	if p > 100 {
		return 100
	}
	return p
}

// DonorsFor lists a campaign's donors in donation order.
func DonorsFor(donors []models.Donor, campaignID string) []models.Donor {
	out := make([]models.Donor, 0)
	for _, d := range donors {
		if d.CampaignID == campaignID {
			out = append(out, d)
		}
	}
	return out
}
