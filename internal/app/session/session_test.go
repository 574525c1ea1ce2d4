package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/parivartan/hub/internal/app/auth"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/notifications"
	"github.com/parivartan/hub/internal/app/store"
	"github.com/parivartan/hub/internal/pkg/realtime"
	"github.com/rs/zerolog"
)

func TestEvaluateGate(t *testing.T) {
	tests := []struct {
		name string
		user *models.User
		want State
	}{
		{"no user", nil, Unauthenticated},
		{"missing handle", &models.User{ID: "u1", Name: "Asha"}, ProfileIncomplete},
		{"missing name", &models.User{ID: "u1", Handle: "asha"}, ProfileIncomplete},
		{"complete", &models.User{ID: "u1", Name: "Asha", Handle: "asha"}, Authenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.user); got != tt.want {
				t.Fatalf("Evaluate = %s, want %s", got, tt.want)
			}
		})
	}
}

type countingNotifier struct {
	mu    sync.Mutex
	calls []string
	fail  error
}

func (n *countingNotifier) Notify(ctx context.Context, recipients []string, kind models.NotificationKind, message, link string) ([]models.AppNotification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return nil, n.fail
	}
	n.calls = append(n.calls, message)
	return []models.AppNotification{{UserID: recipients[0], Kind: kind, Message: message}}, nil
}

func loadedSession(t *testing.T, tasks ...models.Task) *Session {
	t.Helper()
	s := newSession(models.User{ID: "u1", Name: "Asha", Handle: "asha"}, time.Now())
	l := store.NewLoader(store.Sources{
		Tasks: func(ctx context.Context) ([]models.Task, error) { return tasks, nil },
	}, store.PolicyTolerant, zerolog.Nop())
	if _, err := l.Load(context.Background(), s.Store); err != nil {
		t.Fatalf("load: %v", err)
	}
	s.goLive()
	close(s.ready)
	return s
}

func TestOverdueScannerNotifiesOncePerTask(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	me := "u1"
	other := "u2"
	s := loadedSession(t,
		models.Task{ID: "t1", Title: "Print posters", DueDate: now.Add(-time.Hour), AssigneeID: &me, Status: models.TaskTodo},
		models.Task{ID: "t2", Title: "Book hall", DueDate: now.Add(-time.Hour), AssigneeID: &other, Status: models.TaskTodo},
		models.Task{ID: "t3", Title: "Collect funds", DueDate: now.Add(-time.Hour), AssigneeID: &me, Status: models.TaskDone},
		models.Task{ID: "t4", Title: "Plan trip", DueDate: now.Add(72 * time.Hour), AssigneeID: &me, Status: models.TaskTodo},
	)

	n := &countingNotifier{}
	sc := newOverdueScanner(s, n, time.Minute, 24*time.Hour, zerolog.Nop())
	sc.now = func() time.Time { return now }

	if got := sc.scan(context.Background()); got != 1 {
		t.Fatalf("first scan raised %d, want 1", got)
	}
	if got := sc.scan(context.Background()); got != 0 {
		t.Fatalf("second scan raised %d, want 0", got)
	}
	if len(n.calls) != 1 || n.calls[0] != `Task "Print posters" is overdue.` {
		t.Fatalf("unexpected notifications: %q", n.calls)
	}
}

func TestOverdueScannerRetriesAfterFailure(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	me := "u1"
	s := loadedSession(t,
		models.Task{ID: "t1", Title: "Print posters", DueDate: now.Add(2 * time.Hour), AssigneeID: &me, Status: models.TaskInProgress},
	)

	n := &countingNotifier{fail: errors.New("db down")}
	sc := newOverdueScanner(s, n, time.Minute, 24*time.Hour, zerolog.Nop())
	sc.now = func() time.Time { return now }

	if got := sc.scan(context.Background()); got != 0 {
		t.Fatalf("failed notify counted: %d", got)
	}
	n.fail = nil
	if got := sc.scan(context.Background()); got != 1 {
		t.Fatalf("retry raised %d, want 1", got)
	}
}

type recordingPusher struct {
	mu        sync.Mutex
	direct    map[string][]string
	broadcast []string
}

func newRecordingPusher() *recordingPusher {
	return &recordingPusher{direct: make(map[string][]string)}
}

func (p *recordingPusher) SendToUser(userID, eventType string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.direct[userID] = append(p.direct[userID], eventType)
}

func (p *recordingPusher) Broadcast(eventType string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broadcast = append(p.broadcast, eventType)
}

func (p *recordingPusher) sentTo(userID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.direct[userID]...)
}

func newTestManager(sources store.Sources, policy store.Policy, push Pusher) *Manager {
	loader := store.NewLoader(sources, policy, zerolog.Nop())
	hub := notifications.NewHub(nil, nil, zerolog.Nop())
	return NewManager(loader, hub, push, Config{OverdueInterval: time.Hour}, zerolog.Nop())
}

func waitLoaded(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestManagerOpenReusesSession(t *testing.T) {
	m := newTestManager(store.Sources{}, store.PolicyTolerant, nil)
	u := models.User{ID: "u1", Name: "Asha", Handle: "asha"}

	a := m.Open(u)
	waitLoaded(t, a)
	b := m.Open(u)
	if a != b {
		t.Fatal("Open created a second session for the same user")
	}
	if m.Count() != 1 {
		t.Fatalf("Count = %d", m.Count())
	}
	if _, ok := a.Store.User("u1"); !ok {
		t.Fatal("actor should be in the loaded store")
	}
	m.End("u1", "test")
}

func TestManagerDropsSessionWhenLoadFails(t *testing.T) {
	boom := errors.New("timeout")
	m := newTestManager(store.Sources{
		Posts: func(ctx context.Context) ([]models.Post, error) { return nil, boom },
	}, store.PolicyAllOrNothing, nil)

	s := m.Open(models.User{ID: "u1", Name: "Asha", Handle: "asha"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Wait(ctx); !errors.Is(err, boom) {
		t.Fatalf("Wait = %v, want %v", err, boom)
	}

	deadline := time.Now().Add(2 * time.Second)
	for m.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("failed session was not dropped")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestApplyChatReachesEverySession(t *testing.T) {
	push := newRecordingPusher()
	m := newTestManager(store.Sources{}, store.PolicyTolerant, push)
	a := m.Open(models.User{ID: "u1", Name: "Asha", Handle: "asha"})
	b := m.Open(models.User{ID: "u2", Name: "Ravi", Handle: "ravi"})
	waitLoaded(t, a)
	waitLoaded(t, b)

	msg := models.ChatMessage{ID: "c1", UserID: "u1", Content: "hi", ReadBy: []string{"u1"}, CreatedAt: time.Now()}
	m.ApplyChat(msg)
	m.ApplyChat(msg)

	for _, s := range []*Session{a, b} {
		if got := len(s.Store.Snapshot().Chat); got != 1 {
			t.Fatalf("session %s has %d chat messages, want 1", s.UserID, got)
		}
	}
	if len(push.broadcast) != 2 || push.broadcast[0] != realtime.EventChatMessage {
		t.Fatalf("unexpected broadcasts: %v", push.broadcast)
	}
	if got := b.Store.UnreadChatIDs("u2"); len(got) != 1 {
		t.Fatalf("u2 unread = %v", got)
	}
}

func TestApplyChatDuringLoadIsReplayed(t *testing.T) {
	fetched := make(chan struct{})
	release := make(chan struct{})
	early := models.ChatMessage{ID: "c1", UserID: "u2", Content: "before", CreatedAt: time.Now().Add(-time.Minute)}
	m := newTestManager(store.Sources{
		Chat: func(ctx context.Context) ([]models.ChatMessage, error) {
			close(fetched)
			<-release
			return []models.ChatMessage{early}, nil
		},
	}, store.PolicyTolerant, nil)

	s := m.Open(models.User{ID: "u1", Name: "Asha", Handle: "asha"})
	<-fetched
	late := models.ChatMessage{ID: "c2", UserID: "u2", Content: "during load", CreatedAt: time.Now()}
	m.ApplyChat(late)
	m.ApplyChat(early)
	close(release)
	waitLoaded(t, s)

	chat := s.Store.Snapshot().Chat
	if len(chat) != 2 {
		t.Fatalf("chat after load = %+v, want both messages once", chat)
	}
	ids := map[string]bool{}
	for _, c := range chat {
		ids[c.ID] = true
	}
	if !ids["c1"] || !ids["c2"] {
		t.Fatalf("chat ids = %v", ids)
	}
	m.End("u1", "test")
}

func TestSignedOutEndsSession(t *testing.T) {
	push := newRecordingPusher()
	m := newTestManager(store.Sources{}, store.PolicyTolerant, push)
	waitLoaded(t, m.Open(models.User{ID: "u1", Name: "Asha", Handle: "asha"}))

	events := make(chan auth.Event, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, events, nil) }()

	events <- auth.Event{Type: auth.SignedOut, UserID: "u1"}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := m.Get("u1"); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("session survived sign out")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}

	sent := push.sentTo("u1")
	if len(sent) != 1 || sent[0] != realtime.EventSessionEnded {
		t.Fatalf("client not told about the end: %v", sent)
	}
}

func TestTouchRefreshesActorInStore(t *testing.T) {
	m := newTestManager(store.Sources{}, store.PolicyTolerant, nil)
	s := m.Open(models.User{ID: "u1", Name: "Asha", Handle: "asha", Role: models.RoleMember})
	waitLoaded(t, s)

	m.Open(models.User{ID: "u1", Name: "Asha", Handle: "asha", Role: models.RoleAdmin})
	if s.Actor().Role != models.RoleAdmin {
		t.Fatalf("actor role = %s", s.Actor().Role)
	}
	if u, _ := s.Store.User("u1"); u.Role != models.RoleAdmin {
		t.Fatalf("store role = %s", u.Role)
	}
	m.End("u1", "test")
}

type presencePusher struct {
	*recordingPusher
	online map[string]int
}

func (p *presencePusher) GetClientsCount(userID string) int {
	return p.online[userID]
}

func TestEvictIdleSparesConnectedUsers(t *testing.T) {
	push := &presencePusher{recordingPusher: newRecordingPusher(), online: map[string]int{"u2": 1}}
	loader := store.NewLoader(store.Sources{}, store.PolicyTolerant, zerolog.Nop())
	m := NewManager(loader, nil, push, Config{IdleTimeout: time.Hour}, zerolog.Nop())

	start := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return start }
	waitLoaded(t, m.Open(models.User{ID: "u1", Name: "Asha", Handle: "asha"}))
	waitLoaded(t, m.Open(models.User{ID: "u2", Name: "Ravi", Handle: "ravi"}))

	m.now = func() time.Time { return start.Add(30 * time.Minute) }
	m.evictIdle()
	if m.Count() != 2 {
		t.Fatalf("sessions evicted before the timeout: %d left", m.Count())
	}

	m.now = func() time.Time { return start.Add(2 * time.Hour) }
	m.evictIdle()
	if _, ok := m.Get("u1"); ok {
		t.Fatal("idle session without a connection survived")
	}
	if _, ok := m.Get("u2"); !ok {
		t.Fatal("session with an open websocket was evicted")
	}
}
