// Package notifications keeps the AppNotification list of each live
// session and fans new notifications out to their recipients.
package notifications

import (
	"sort"
	"sync"

	"github.com/parivartan/hub/internal/app/models"
)

// Center is one session's notification list, newest first.
type Center struct {
	mu    sync.Mutex
	items []models.AppNotification
}

// NewCenter returns an empty center.
func NewCenter() *Center {
	return &Center{}
}

// Replace swaps in a persisted list.
func (c *Center) Replace(items []models.AppNotification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(make([]models.AppNotification, 0, len(items)), items...)
	sort.SliceStable(c.items, func(i, j int) bool { return c.items[i].CreatedAt.After(c.items[j].CreatedAt) })
}

// Add prepends n unless a notification with the same id is already listed.
func (c *Center) Add(n models.AppNotification) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, x := range c.items {
		if x.ID == n.ID {
			return false
		}
	}
	c.items = append([]models.AppNotification{n}, c.items...)
	return true
}

// List returns a copy, newest first.
func (c *Center) List() []models.AppNotification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(make([]models.AppNotification, 0, len(c.items)), c.items...)
}

// Unread counts unread notifications.
func (c *Center) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, x := range c.items {
		if !x.Read {
			n++
		}
	}
	return n
}

// MarkRead moves one notification to read. It reports whether anything
// changed; read is final so a read notification stays read.
func (c *Center) MarkRead(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == id && !c.items[i].Read {
			c.items[i].Read = true
			return true
		}
	}
	return false
}

// MarkAllRead moves every unread notification to read and returns their ids.
func (c *Center) MarkAllRead() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []string
	for i := range c.items {
		if !c.items[i].Read {
			c.items[i].Read = true
			ids = append(ids, c.items[i].ID)
		}
	}
	return ids
}
