package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	"github.com/parivartan/hub/internal/pkg/realtime"
	"github.com/rs/zerolog"
)

// Repository persists notifications. A nil Repository keeps them in the
// sessions only.
type Repository interface {
	ListForUser(ctx context.Context, userID string) ([]models.AppNotification, error)
	CreateMany(ctx context.Context, items []models.AppNotification) ([]models.AppNotification, error)
	MarkRead(ctx context.Context, userID string, ids []string) error
}

// Pusher delivers an event to a user's connected clients.
type Pusher interface {
	SendToUser(userID, eventType string, data interface{})
}

// Hub creates notifications and routes them to the centers of live sessions.
type Hub struct {
	repo   Repository
	push   Pusher
	logger zerolog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	centers map[string]*Center
}

// NewHub creates a Hub. repo and push may be nil.
func NewHub(repo Repository, push Pusher, logger zerolog.Logger) *Hub {
	return &Hub{
		repo:    repo,
		push:    push,
		logger:  logger,
		now:     time.Now,
		centers: make(map[string]*Center),
	}
}

// Persistent reports whether notifications survive a session reload.
func (h *Hub) Persistent() bool {
	return h.repo != nil
}

// Attach registers the center of userID's session and fills it with the
// persisted notifications.
func (h *Hub) Attach(ctx context.Context, userID string, c *Center) error {
	h.mu.Lock()
	h.centers[userID] = c
	h.mu.Unlock()

	if h.repo == nil {
		return nil
	}
	items, err := h.repo.ListForUser(ctx, userID)
	if err != nil {
		return err
	}
	c.Replace(items)
	return nil
}

// Detach unregisters c if it is still the center of userID.
func (h *Hub) Detach(userID string, c *Center) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.centers[userID] == c {
		delete(h.centers, userID)
	}
}

func (h *Hub) center(userID string) *Center {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.centers[userID]
}

// Notify appends one unread notification per distinct recipient and
// delivers it to the recipient's live session and connected clients.
func (h *Hub) Notify(ctx context.Context, recipients []string, kind models.NotificationKind, message, link string) ([]models.AppNotification, error) {
	seen := make(map[string]bool, len(recipients))
	items := make([]models.AppNotification, 0, len(recipients))
	for _, userID := range recipients {
		if userID == "" || seen[userID] {
			continue
		}
		seen[userID] = true
		items = append(items, models.AppNotification{
			UserID:  userID,
			Kind:    kind,
			Message: message,
			Link:    link,
		})
	}
	if len(items) == 0 {
		return items, nil
	}

	if h.repo != nil {
		saved, err := h.repo.CreateMany(ctx, items)
		if err != nil {
			h.logger.Error().Err(err).Str("kind", string(kind)).Int("recipients", len(items)).Msg("Failed to store notifications")
			return nil, err
		}
		items = saved
	} else {
		now := h.now()
		for i := range items {
			items[i].ID = uuid.NewString()
			items[i].CreatedAt = now
		}
	}

	for _, n := range items {
		if c := h.center(n.UserID); c != nil {
			c.Add(n)
		}
		if h.push != nil {
			h.push.SendToUser(n.UserID, realtime.EventNotification, n)
		}
	}
	return items, nil
}

// MarkRead moves one of userID's notifications to read.
func (h *Hub) MarkRead(ctx context.Context, userID, id string) error {
	c := h.center(userID)
	if c == nil {
		return apperrors.ErrUnauthenticated
	}
	if !c.MarkRead(id) {
		return nil
	}
	if h.repo != nil {
		return h.repo.MarkRead(ctx, userID, []string{id})
	}
	return nil
}

// MarkAllRead moves every unread notification of userID to read.
func (h *Hub) MarkAllRead(ctx context.Context, userID string) error {
	c := h.center(userID)
	if c == nil {
		return apperrors.ErrUnauthenticated
	}
	ids := c.MarkAllRead()
	if len(ids) == 0 || h.repo == nil {
		return nil
	}
	return h.repo.MarkRead(ctx, userID, ids)
}
