// Package store holds the in-memory domain snapshot of one session.
package store

import (
	"strings"
	"sync"

	"github.com/parivartan/hub/internal/app/models"
)

// Snapshot is a point-in-time copy of every collection. Slices are owned by
// the caller.
type Snapshot struct {
	Users         []models.User          `json:"users"`
	Posts         []models.Post          `json:"posts"`
	Comments      []models.Comment       `json:"comments"`
	Reactions     []models.Reaction      `json:"reactions"`
	Announcements []models.Announcement  `json:"announcements"`
	Achievements  []models.Achievement   `json:"achievements"`
	Events        []models.Event         `json:"events"`
	Attendees     []models.EventAttendee `json:"attendees"`
	Campaigns     []models.Campaign      `json:"campaigns"`
	Donors        []models.Donor         `json:"donors"`
	Chat          []models.ChatMessage   `json:"chat"`
	Tasks         []models.Task          `json:"tasks"`
	Badges        []models.UserBadge     `json:"badges"`
	Slideshow     []models.SlideshowItem `json:"slideshow"`
	Popup         *models.PopupMessage   `json:"popup,omitempty"`
	SetupNeeded   bool                   `json:"setupNeeded"`
}

// Store is the Domain Store. Mutation handlers patch it after each
// successful backend call and the chat feed appends to it from its own
// goroutine.
type Store struct {
	mu sync.RWMutex

	users         collection[models.User]
	posts         collection[models.Post]
	comments      collection[models.Comment]
	reactions     collection[models.Reaction]
	announcements collection[models.Announcement]
	achievements  collection[models.Achievement]
	events        collection[models.Event]
	attendees     collection[models.EventAttendee]
	campaigns     collection[models.Campaign]
	donors        collection[models.Donor]
	chat          collection[models.ChatMessage]
	tasks         collection[models.Task]
	badges        collection[models.UserBadge]
	slideshow     collection[models.SlideshowItem]
	popup         *models.PopupMessage

	setupNeeded bool
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users: newCollection(func(u *models.User) string { return u.ID }, func(a, b *models.User) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}),
		posts: newCollection(func(p *models.Post) string { return p.ID }, func(a, b *models.Post) bool {
			return a.CreatedAt.After(b.CreatedAt)
		}),
		comments: newCollection(func(c *models.Comment) string { return c.ID }, func(a, b *models.Comment) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}),
		reactions: newCollection(func(r *models.Reaction) string { return r.ID }, func(a, b *models.Reaction) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}),
		announcements: newCollection(func(a *models.Announcement) string { return a.ID }, func(a, b *models.Announcement) bool {
			return a.CreatedAt.After(b.CreatedAt)
		}),
		achievements: newCollection(func(a *models.Achievement) string { return a.ID }, func(a, b *models.Achievement) bool {
			return a.CreatedAt.After(b.CreatedAt)
		}),
		events: newCollection(func(e *models.Event) string { return e.ID }, func(a, b *models.Event) bool {
			return a.Date.Before(b.Date)
		}),
		attendees: newCollection(func(a *models.EventAttendee) string { return a.ID }, func(a, b *models.EventAttendee) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}),
		campaigns: newCollection(func(c *models.Campaign) string { return c.ID }, func(a, b *models.Campaign) bool {
			return a.CreatedAt.After(b.CreatedAt)
		}),
		donors: newCollection(func(d *models.Donor) string { return d.ID }, func(a, b *models.Donor) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}),
		chat: newCollection(func(m *models.ChatMessage) string { return m.ID }, func(a, b *models.ChatMessage) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}),
		tasks: newCollection(func(t *models.Task) string { return t.ID }, func(a, b *models.Task) bool {
			return a.DueDate.Before(b.DueDate)
		}),
		badges: newCollection(func(b *models.UserBadge) string { return b.ID }, func(a, b *models.UserBadge) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}),
		slideshow: newCollection(func(s *models.SlideshowItem) string { return s.ID }, func(a, b *models.SlideshowItem) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}),
	}
}

// Snapshot copies every collection.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Users:         s.users.snapshot(),
		Posts:         s.posts.snapshot(),
		Comments:      s.comments.snapshot(),
		Reactions:     s.reactions.snapshot(),
		Announcements: s.announcements.snapshot(),
		Achievements:  s.achievements.snapshot(),
		Events:        s.events.snapshot(),
		Attendees:     s.attendees.snapshot(),
		Campaigns:     s.campaigns.snapshot(),
		Donors:        s.donors.snapshot(),
		Chat:          s.chat.snapshot(),
		Tasks:         s.tasks.snapshot(),
		Badges:        s.badges.snapshot(),
		Slideshow:     s.slideshow.snapshot(),
		SetupNeeded:   s.setupNeeded,
	}
	if s.popup != nil {
		p := *s.popup
		snap.Popup = &p
	}
	return snap
}

// replace swaps in a complete data set. Nil slices leave the collection empty.
func (s *Store) replace(data Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users.replaceAll(data.Users)
	s.posts.replaceAll(data.Posts)
	s.comments.replaceAll(data.Comments)
	s.reactions.replaceAll(data.Reactions)
	s.announcements.replaceAll(data.Announcements)
	s.achievements.replaceAll(data.Achievements)
	s.events.replaceAll(data.Events)
	s.attendees.replaceAll(data.Attendees)
	s.campaigns.replaceAll(data.Campaigns)
	s.donors.replaceAll(data.Donors)
	s.chat.replaceAll(data.Chat)
	s.tasks.replaceAll(data.Tasks)
	s.badges.replaceAll(data.Badges)
	s.slideshow.replaceAll(data.Slideshow)
	s.popup = data.Popup
	s.setupNeeded = data.SetupNeeded
}

// SetupNeeded reports whether the last load hit a missing schema.
func (s *Store) SetupNeeded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.setupNeeded
}

func (s *Store) markSetupNeeded() {
	s.mu.Lock()
	s.setupNeeded = true
	s.mu.Unlock()
}

// Users

func (s *Store) User(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users.get(id)
}

func (s *Store) UserIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, s.users.len())
	for i := range s.users.items {
		ids = append(ids, s.users.items[i].ID)
	}
	return ids
}

func (s *Store) UpsertUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users.upsert(u)
}

// RemoveAuthoredBy drops a removed member together with everything the
// storage cascade deleted for them: their chat messages, comments,
// reactions, attendance, posts, announcements, achievements, events,
// campaigns, slides, popup, badges and every task they created or were
// assigned. Records hanging off removed posts, events and campaigns go too.
func (s *Store) RemoveAuthoredBy(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users.remove(userID)
	s.chat.removeWhere(func(m *models.ChatMessage) bool { return m.UserID == userID })
	s.comments.removeWhere(func(c *models.Comment) bool { return c.UserID == userID })
	s.reactions.removeWhere(func(r *models.Reaction) bool { return r.UserID == userID })
	s.attendees.removeWhere(func(a *models.EventAttendee) bool { return a.UserID == userID })

	posts := idSet(s.posts.removeWhere(func(p *models.Post) bool { return p.UserID == userID }))
	s.comments.removeWhere(func(c *models.Comment) bool { return posts[c.PostID] })
	s.reactions.removeWhere(func(r *models.Reaction) bool { return posts[r.PostID] })

	s.announcements.removeWhere(func(a *models.Announcement) bool { return a.AuthorID == userID })
	s.achievements.removeWhere(func(a *models.Achievement) bool { return a.AuthorID == userID })

	events := idSet(s.events.removeWhere(func(e *models.Event) bool { return e.CreatedBy == userID }))
	s.attendees.removeWhere(func(a *models.EventAttendee) bool { return events[a.EventID] })

	campaigns := idSet(s.campaigns.removeWhere(func(c *models.Campaign) bool { return c.CreatedBy == userID }))
	s.donors.removeWhere(func(d *models.Donor) bool { return campaigns[d.CampaignID] })
	s.donors.update(func(d *models.Donor) bool { return d.UserID != nil && *d.UserID == userID },
		func(d *models.Donor) { d.UserID = nil })

	s.tasks.removeWhere(func(t *models.Task) bool { return t.CreatedBy == userID || t.AssignedTo(userID) })
	s.slideshow.removeWhere(func(i *models.SlideshowItem) bool { return i.CreatedBy == userID })
	if s.popup != nil && s.popup.CreatedBy == userID {
		s.popup = nil
	}
	s.badges.removeWhere(func(b *models.UserBadge) bool { return b.UserID == userID })
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// Posts, comments and reactions

func (s *Store) Post(id string) (models.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.posts.get(id)
}

func (s *Store) UpsertPost(p models.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts.upsert(p)
}

// RemovePost drops the post with its comments and reactions.
func (s *Store) RemovePost(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts.remove(id)
	s.comments.removeWhere(func(c *models.Comment) bool { return c.PostID == id })
	s.reactions.removeWhere(func(r *models.Reaction) bool { return r.PostID == id })
}

func (s *Store) Comment(id string) (models.Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.comments.get(id)
}

func (s *Store) UpsertComment(c models.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments.upsert(c)
}

func (s *Store) RemoveComment(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments.remove(id)
}

// ReactionBy returns userID's reaction on postID.
func (s *Store) ReactionBy(postID, userID string) (models.Reaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reactions.items {
		if r.PostID == postID && r.UserID == userID {
			return r, true
		}
	}
	return models.Reaction{}, false
}

// UpsertReaction keeps at most one reaction per (post, user).
func (s *Store) UpsertReaction(r models.Reaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reactions.removeWhere(func(x *models.Reaction) bool {
		return x.PostID == r.PostID && x.UserID == r.UserID && x.ID != r.ID
	})
	s.reactions.upsert(r)
}

func (s *Store) RemoveReaction(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reactions.remove(id)
}

// Announcements and achievements

func (s *Store) Announcement(id string) (models.Announcement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.announcements.get(id)
}

func (s *Store) UpsertAnnouncement(a models.Announcement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.announcements.upsert(a)
}

func (s *Store) RemoveAnnouncement(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.announcements.remove(id)
}

func (s *Store) Achievement(id string) (models.Achievement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.achievements.get(id)
}

func (s *Store) UpsertAchievement(a models.Achievement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.achievements.upsert(a)
}

func (s *Store) RemoveAchievement(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.achievements.remove(id)
}

// Events and attendance

func (s *Store) Event(id string) (models.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events.get(id)
}

func (s *Store) UpsertEvent(e models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events.upsert(e)
}

// RemoveEvent drops the event with its attendance records.
func (s *Store) RemoveEvent(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events.remove(id)
	s.attendees.removeWhere(func(a *models.EventAttendee) bool { return a.EventID == id })
}

// Attended reports whether userID has an attendance record for eventID.
func (s *Store) Attended(eventID, userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.attendees.items {
		if a.EventID == eventID && a.UserID == userID {
			return true
		}
	}
	return false
}

func (s *Store) AddAttendee(a models.EventAttendee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendees.upsert(a)
}

// Campaigns and donors

func (s *Store) Campaign(id string) (models.Campaign, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.campaigns.get(id)
}

func (s *Store) UpsertCampaign(c models.Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns.upsert(c)
}

// RecordDonation stores the updated campaign and appends the donor together.
func (s *Store) RecordDonation(c models.Campaign, d models.Donor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns.upsert(c)
	s.donors.upsert(d)
}

// Chat

// AppendChat adds an inserted message once. A message whose id is already
// present is ignored and false is returned.
func (s *Store) AppendChat(m models.ChatMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chat.index(m.ID) >= 0 {
		return false
	}
	s.chat.upsert(m)
	return true
}

// UpsertChat replaces a message, e.g. after its read set changed.
func (s *Store) UpsertChat(m models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat.upsert(m)
}

// UnreadChatIDs lists messages userID has not read yet.
func (s *Store) UnreadChatIDs(userID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for i := range s.chat.items {
		if !s.chat.items[i].ReadByUser(userID) {
			ids = append(ids, s.chat.items[i].ID)
		}
	}
	return ids
}

// Tasks

func (s *Store) Task(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.get(id)
}

func (s *Store) UpsertTask(t models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks.upsert(t)
}

func (s *Store) RemoveTask(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks.remove(id)
}

// Badges

// HasBadge reports whether userID already holds badgeID.
func (s *Store) HasBadge(userID, badgeID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.badges.items {
		if b.UserID == userID && b.BadgeID == badgeID {
			return true
		}
	}
	return false
}

// AddBadge appends an award unless the (user, badge) pair is already held.
func (s *Store) AddBadge(b models.UserBadge) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.badges.items {
		if x.UserID == b.UserID && x.BadgeID == b.BadgeID {
			return false
		}
	}
	s.badges.upsert(b)
	return true
}

// Homepage

func (s *Store) Slide(id string) (models.SlideshowItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slideshow.get(id)
}

func (s *Store) UpsertSlide(item models.SlideshowItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slideshow.upsert(item)
}

func (s *Store) RemoveSlide(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slideshow.remove(id)
}

// Popup returns the active popup message, if any.
func (s *Store) Popup() *models.PopupMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.popup == nil {
		return nil
	}
	p := *s.popup
	return &p
}

// SetPopup replaces any existing popup.
func (s *Store) SetPopup(p models.PopupMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.popup = &p
}

// ClearPopup removes the popup when its id matches.
func (s *Store) ClearPopup(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.popup != nil && s.popup.ID == id {
		s.popup = nil
	}
}
