package session

import (
	"context"
	"sync"
	"time"

	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/notifications"
	"github.com/parivartan/hub/internal/app/store"
)

// Session is the live state of one signed-in user: the Domain Store, the
// notification center and the overdue scanner.
type Session struct {
	UserID        string
	Store         *store.Store
	Notifications *notifications.Center

	mutations sync.Mutex

	mu       sync.RWMutex
	actor    models.User
	lastSeen time.Time

	ready   chan struct{}
	report  *store.LoadReport
	loadErr error

	// Chat inserted while the initial load runs is queued until it lands.
	chatMu      sync.Mutex
	chatLive    bool
	pendingChat []models.ChatMessage

	cancel context.CancelFunc
}

func newSession(user models.User, now time.Time) *Session {
	return &Session{
		UserID:        user.ID,
		Store:         store.New(),
		Notifications: notifications.NewCenter(),
		actor:         user,
		lastSeen:      now,
		ready:         make(chan struct{}),
		cancel:        func() {},
	}
}

// Actor returns the latest record of the signed-in user.
func (s *Session) Actor() models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actor
}

// Touch records activity and refreshes the actor record, which the
// middleware reads from storage on every request.
func (s *Session) Touch(user models.User, now time.Time) {
	s.mu.Lock()
	s.actor = user
	s.lastSeen = now
	s.mu.Unlock()

	select {
	case <-s.ready:
		s.Store.UpsertUser(user)
	default:
	}
}

func (s *Session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

// Serialize blocks until no other mutation of this session is running and
// returns the release func. Mutations of one session run in request order.
func (s *Session) Serialize() (release func()) {
	s.mutations.Lock()
	return s.mutations.Unlock
}

// Wait blocks until the initial load finished. It returns the load error
// under the all-or-nothing policy.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.ready:
		return s.loadErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// deliverChat appends an inserted message to the store, or queues it while
// the initial load could still overwrite the chat list.
func (s *Session) deliverChat(msg models.ChatMessage) {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()
	if !s.chatLive {
		s.pendingChat = append(s.pendingChat, msg)
		return
	}
	s.Store.AppendChat(msg)
}

// goLive replays queued chat into the loaded store. AppendChat drops
// messages the load already fetched.
func (s *Session) goLive() {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()
	for _, msg := range s.pendingChat {
		s.Store.AppendChat(msg)
	}
	s.pendingChat = nil
	s.chatLive = true
}

// Loaded reports whether the initial load has finished.
func (s *Session) Loaded() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// LoadReport returns the outcome of the most recent load.
func (s *Session) LoadReport() *store.LoadReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

func (s *Session) setReport(r *store.LoadReport) {
	s.mu.Lock()
	s.report = r
	s.mu.Unlock()
}
