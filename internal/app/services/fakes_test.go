package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/parivartan/hub/internal/app/badges"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/session"
	"github.com/parivartan/hub/internal/app/store"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	"github.com/parivartan/hub/internal/pkg/genai"
	"github.com/rs/zerolog"
)

var errDown = errors.New("connection refused")

var (
	viewer = models.User{ID: "v1", Name: "Vik", Handle: "vik", Role: models.RoleViewer}
	member = models.User{ID: "m1", Name: "Asha", Handle: "asha", Role: models.RoleMember}
	other  = models.User{ID: "m2", Name: "Ravi", Handle: "ravi", Role: models.RoleMember}
	admin  = models.User{ID: "a1", Name: "Meera", Handle: "meera", Role: models.RoleAdmin}
	super  = models.User{ID: "s1", Name: "Dev", Handle: "dev", Role: models.RoleSuperAdmin}
)

func everyone() []models.User {
	return []models.User{viewer, member, other, admin, super}
}

// openSession loads a session for actor over the given sources. Users
// default to everyone.
func openSession(t *testing.T, actor models.User, src store.Sources) *session.Session {
	t.Helper()
	if src.Users == nil {
		src.Users = func(context.Context) ([]models.User, error) { return everyone(), nil }
	}
	loader := store.NewLoader(src, store.PolicyTolerant, zerolog.Nop())
	m := session.NewManager(loader, nil, nil, session.Config{}, zerolog.Nop())
	sess := m.Open(actor)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sess.Wait(ctx); err != nil {
		t.Fatalf("session load: %v", err)
	}
	t.Cleanup(func() { m.End(actor.ID, "test") })
	return sess
}

// seq hands out ids like "post-1".
type seq struct {
	mu sync.Mutex
	n  int
}

func (s *seq) next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", prefix, s.n)
}

type memoryAwards struct {
	mu   sync.Mutex
	seq  seq
	held map[string]bool
}

func (a *memoryAwards) Award(ctx context.Context, userID, badgeID string) (*models.UserBadge, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.held == nil {
		a.held = make(map[string]bool)
	}
	key := userID + "/" + badgeID
	inserted := !a.held[key]
	a.held[key] = true
	return &models.UserBadge{ID: a.seq.next("badge"), UserID: userID, BadgeID: badgeID, CreatedAt: time.Now()}, inserted, nil
}

type sentNotification struct {
	recipients []string
	kind       models.NotificationKind
	message    string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(ctx context.Context, recipients []string, kind models.NotificationKind, message, link string) ([]models.AppNotification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{append([]string(nil), recipients...), kind, message})
	return nil, nil
}

func (n *recordingNotifier) ofKind(kind models.NotificationKind) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentNotification
	for _, s := range n.sent {
		if s.kind == kind {
			out = append(out, s)
		}
	}
	return out
}

type fixedModerator genai.Verdict

func (m fixedModerator) Moderate(context.Context, string) genai.Verdict {
	return genai.Verdict(m)
}

func newDeps(notifier *recordingNotifier) Deps {
	return Deps{
		Badges:    badges.NewEngine(&memoryAwards{}, notifier, zerolog.Nop()),
		Moderator: fixedModerator(genai.Safe),
		Logger:    zerolog.Nop(),
	}
}

func requireKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("err = %v, want %v", err, kind)
	}
}

// memoryPosts implements PostRepository.
type memoryPosts struct {
	seq     seq
	fail    error
	calls   int
	deleted []string
}

func (r *memoryPosts) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	r.calls++
	if r.fail != nil {
		return nil, apperrors.NewBackendError("Failed to save", r.fail)
	}
	saved := *p
	saved.ID = r.seq.next("post")
	saved.CreatedAt = time.Now()
	return &saved, nil
}

func (r *memoryPosts) Delete(ctx context.Context, id string) error {
	r.calls++
	if r.fail != nil {
		return apperrors.NewBackendError("Failed to delete", r.fail)
	}
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *memoryPosts) CreateComment(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	r.calls++
	saved := *c
	saved.ID = r.seq.next("comment")
	saved.CreatedAt = time.Now()
	return &saved, nil
}

func (r *memoryPosts) DeleteComment(ctx context.Context, id string) error {
	r.calls++
	return nil
}

func (r *memoryPosts) UpsertReaction(ctx context.Context, rc *models.Reaction) (*models.Reaction, error) {
	r.calls++
	saved := *rc
	saved.ID = r.seq.next("reaction")
	return &saved, nil
}

func (r *memoryPosts) DeleteReaction(ctx context.Context, id string) error {
	r.calls++
	r.deleted = append(r.deleted, id)
	return nil
}
