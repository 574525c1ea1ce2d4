package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/parivartan/hub/internal/app/models"
	"github.com/rs/zerolog"
)

type memoryRepo struct {
	mu    sync.Mutex
	rows  []models.AppNotification
	fail  error
	reads []string
}

func (r *memoryRepo) ListForUser(ctx context.Context, userID string) ([]models.AppNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AppNotification
	for _, n := range r.rows {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *memoryRepo) CreateMany(ctx context.Context, items []models.AppNotification) ([]models.AppNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	saved := make([]models.AppNotification, len(items))
	for i, n := range items {
		n.ID = fmt.Sprintf("n%d", len(r.rows)+1)
		n.CreatedAt = time.Now()
		r.rows = append(r.rows, n)
		saved[i] = n
	}
	return saved, nil
}

func (r *memoryRepo) MarkRead(ctx context.Context, userID string, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads = append(r.reads, ids...)
	return nil
}

type recordingPusher struct {
	mu   sync.Mutex
	sent map[string]int
}

func (p *recordingPusher) SendToUser(userID, eventType string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sent == nil {
		p.sent = map[string]int{}
	}
	p.sent[userID]++
}

func TestCenterReadIsFinal(t *testing.T) {
	c := NewCenter()
	c.Add(models.AppNotification{ID: "a"})
	c.Add(models.AppNotification{ID: "b"})

	if c.Unread() != 2 {
		t.Fatalf("unread = %d", c.Unread())
	}
	if !c.MarkRead("a") {
		t.Fatal("first mark should change state")
	}
	if c.MarkRead("a") {
		t.Fatal("marking a read notification again changes nothing")
	}
	if ids := c.MarkAllRead(); len(ids) != 1 || ids[0] != "b" {
		t.Fatalf("mark all = %v", ids)
	}
	if c.Unread() != 0 {
		t.Fatal("everything should be read")
	}
	if c.Add(models.AppNotification{ID: "a"}) {
		t.Fatal("duplicate id must not be added")
	}
	if list := c.List(); list[0].ID != "b" {
		t.Fatalf("newest first expected, got %+v", list)
	}
}

func TestNotifyPersistsAndDelivers(t *testing.T) {
	repo := &memoryRepo{}
	push := &recordingPusher{}
	h := NewHub(repo, push, zerolog.Nop())

	live := NewCenter()
	if err := h.Attach(context.Background(), "u1", live); err != nil {
		t.Fatal(err)
	}

	items, err := h.Notify(context.Background(), []string{"u1", "u2", "u1", ""}, models.NotifyAnnouncement, "New announcement", "/announcements")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("expected one notification per distinct recipient, got %d", len(items))
	}
	if live.Unread() != 1 {
		t.Fatalf("live session should receive its notification, unread = %d", live.Unread())
	}
	if push.sent["u1"] != 1 || push.sent["u2"] != 1 {
		t.Fatalf("pushes = %v", push.sent)
	}

	// A new session for u2 picks the persisted notification up.
	later := NewCenter()
	if err := h.Attach(context.Background(), "u2", later); err != nil {
		t.Fatal(err)
	}
	if later.Unread() != 1 {
		t.Fatal("persisted notification should survive a reload")
	}

	if err := h.MarkAllRead(context.Background(), "u2"); err != nil {
		t.Fatal(err)
	}
	if len(repo.reads) != 1 {
		t.Fatalf("read state should be persisted, got %v", repo.reads)
	}
}

func TestNotifyWithoutPersistence(t *testing.T) {
	h := NewHub(nil, nil, zerolog.Nop())
	c := NewCenter()
	_ = h.Attach(context.Background(), "u1", c)

	items, err := h.Notify(context.Background(), []string{"u1"}, models.NotifyBadge, "Badge", "")
	if err != nil || len(items) != 1 || items[0].ID == "" {
		t.Fatalf("items = %+v err = %v", items, err)
	}
	if c.Unread() != 1 {
		t.Fatal("session center should hold the notification")
	}

	h.Detach("u1", c)
	if err := h.MarkRead(context.Background(), "u1", items[0].ID); err == nil {
		t.Fatal("detached user has no center")
	}
}

func TestNotifyStorageFailure(t *testing.T) {
	boom := errors.New("db down")
	h := NewHub(&memoryRepo{fail: boom}, nil, zerolog.Nop())
	c := NewCenter()
	_ = h.Attach(context.Background(), "u1", c)

	if _, err := h.Notify(context.Background(), []string{"u1"}, models.NotifyEvent, "x", ""); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if c.Unread() != 0 {
		t.Fatal("nothing should be delivered when storing fails")
	}
}
