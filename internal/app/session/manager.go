package session

import (
	"context"
	"sync"
	"time"

	"github.com/parivartan/hub/internal/app/auth"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/notifications"
	"github.com/parivartan/hub/internal/app/store"
	"github.com/parivartan/hub/internal/pkg/realtime"
	"github.com/rs/zerolog"
)

// Pusher delivers events to connected websocket clients.
type Pusher interface {
	SendToUser(userID, eventType string, data interface{})
	Broadcast(eventType string, data interface{})
}

// presence is implemented by pushers that track open connections.
type presence interface {
	GetClientsCount(userID string) int
}

// Config tunes session behaviour.
type Config struct {
	OverdueInterval time.Duration
	OverdueWindow   time.Duration
	IdleTimeout     time.Duration
}

// Manager owns every live session. It is created by the composition root;
// there is no package-level session state.
type Manager struct {
	loader *store.Loader
	hub    *notifications.Hub
	push   Pusher
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	base     context.Context
}

// NewManager creates a Manager. push may be nil.
func NewManager(loader *store.Loader, hub *notifications.Hub, push Pusher, cfg Config, logger zerolog.Logger) *Manager {
	if cfg.OverdueInterval <= 0 {
		cfg.OverdueInterval = time.Minute
	}
	if cfg.OverdueWindow <= 0 {
		cfg.OverdueWindow = 24 * time.Hour
	}
	return &Manager{
		loader:   loader,
		hub:      hub,
		push:     push,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
		base:     context.Background(),
	}
}

// Get returns the live session of userID.
func (m *Manager) Get(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Open returns the session of user, creating it and starting its initial
// load when there is none. Callers wait for the load with Session.Wait.
func (m *Manager) Open(user models.User) *Session {
	m.mu.Lock()
	if s, ok := m.sessions[user.ID]; ok {
		m.mu.Unlock()
		s.Touch(user, m.now())
		return s
	}

	s := newSession(user, m.now())
	ctx, cancel := context.WithCancel(m.base)
	s.cancel = cancel
	m.sessions[user.ID] = s
	m.mu.Unlock()

	m.logger.Info().Str("userID", user.ID).Msg("Session opened")
	go m.start(ctx, s)
	return s
}

func (m *Manager) start(ctx context.Context, s *Session) {
	report, err := m.loader.Load(ctx, s.Store)
	s.setReport(report)
	s.loadErr = err

	if err == nil {
		if m.hub != nil {
			if herr := m.hub.Attach(ctx, s.UserID, s.Notifications); herr != nil {
				m.logger.Error().Err(herr).Str("userID", s.UserID).Msg("Failed to load notifications")
			}
		}
		s.Store.UpsertUser(s.Actor())
		s.goLive()
	}
	close(s.ready)

	if err != nil {
		// Drop the session so the next request retries the load.
		m.remove(s)
		return
	}

	if m.hub != nil {
		sc := newOverdueScanner(s, m.hub, m.cfg.OverdueInterval, m.cfg.OverdueWindow, m.logger)
		go sc.run(ctx)
	}
}

// Reload repeats the bulk load into the existing session store.
func (m *Manager) Reload(ctx context.Context, s *Session) (*store.LoadReport, error) {
	report, err := m.loader.Load(ctx, s.Store)
	if report != nil {
		s.setReport(report)
	}
	return report, err
}

// End tears down userID's session: the scanner stops, the notification
// center is detached and connected clients are told.
func (m *Manager) End(userID, reason string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	s.cancel()
	if m.hub != nil {
		m.hub.Detach(userID, s.Notifications)
	}
	if m.push != nil {
		m.push.SendToUser(userID, realtime.EventSessionEnded, map[string]string{"reason": reason})
	}
	m.logger.Info().Str("userID", userID).Str("reason", reason).Msg("Session ended")
}

func (m *Manager) remove(s *Session) {
	m.mu.Lock()
	if m.sessions[s.UserID] == s {
		delete(m.sessions, s.UserID)
	}
	m.mu.Unlock()
	s.cancel()
}

// ApplyChat appends an inserted chat message to every live session and
// forwards it to connected clients.
func (m *Manager) ApplyChat(msg models.ChatMessage) {
	m.mu.Lock()
	live := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		live = append(live, s)
	}
	m.mu.Unlock()

	for _, s := range live {
		s.deliverChat(msg)
	}
	if m.push != nil {
		m.push.Broadcast(realtime.EventChatMessage, msg)
	}
}

// Run drives sessions from auth events and the chat feed until ctx is done.
// Sessions idle for longer than IdleTimeout are ended.
func (m *Manager) Run(ctx context.Context, events <-chan auth.Event, feed realtime.Feed) error {
	m.mu.Lock()
	m.base = ctx
	m.mu.Unlock()

	var chat <-chan models.ChatMessage
	if feed != nil {
		ch, err := feed.Subscribe(ctx)
		if err != nil {
			return err
		}
		chat = ch
	}

	sweep := time.NewTicker(time.Minute)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			m.endAll("shutdown")
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			m.handleAuthEvent(ev)
		case msg, ok := <-chat:
			if !ok {
				m.logger.Warn().Msg("Chat feed closed")
				chat = nil
				continue
			}
			m.ApplyChat(msg)
		case <-sweep.C:
			m.evictIdle()
		}
	}
}

func (m *Manager) handleAuthEvent(ev auth.Event) {
	m.logger.Debug().Str("userID", ev.UserID).Str("event", ev.Type.String()).Msg("Auth event")
	switch ev.Type {
	case auth.SignedOut:
		m.End(ev.UserID, "signed_out")
	case auth.SignedIn:
		// Warm the session so the first screen does not wait for the load.
		if ev.User != nil && Evaluate(ev.User) == Authenticated {
			m.Open(*ev.User)
		}
	case auth.ProfileUpdated:
		if ev.User == nil {
			return
		}
		if s, ok := m.Get(ev.UserID); ok {
			s.Touch(*ev.User, m.now())
		}
	}
}

func (m *Manager) evictIdle() {
	if m.cfg.IdleTimeout <= 0 {
		return
	}
	cutoff := m.now().Add(-m.cfg.IdleTimeout)
	m.mu.Lock()
	var idle []string
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	m.mu.Unlock()

	// A user with an open websocket is still looking at the app.
	if p, ok := m.push.(presence); ok {
		kept := idle[:0]
		for _, id := range idle {
			if p.GetClientsCount(id) == 0 {
				kept = append(kept, id)
			}
		}
		idle = kept
	}

	for _, id := range idle {
		m.End(id, "idle")
	}
}

func (m *Manager) endAll(reason string) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.End(id, reason)
	}
}
