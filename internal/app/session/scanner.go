package session

import (
	"context"
	"fmt"
	"time"

	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/views"
	"github.com/rs/zerolog"
)

// Notifier raises AppNotifications.
type Notifier interface {
	Notify(ctx context.Context, recipients []string, kind models.NotificationKind, message, link string) ([]models.AppNotification, error)
}

// overdueScanner notifies the session user about their tasks that are due
// soon or overdue, once per task for the lifetime of the session.
type overdueScanner struct {
	sess     *Session
	notifier Notifier
	interval time.Duration
	window   time.Duration
	now      func() time.Time
	logger   zerolog.Logger

	notified map[string]bool
}

func newOverdueScanner(sess *Session, notifier Notifier, interval, window time.Duration, logger zerolog.Logger) *overdueScanner {
	return &overdueScanner{
		sess:     sess,
		notifier: notifier,
		interval: interval,
		window:   window,
		now:      time.Now,
		logger:   logger,
		notified: make(map[string]bool),
	}
}

// scan checks the store once and returns how many notifications it raised.
func (sc *overdueScanner) scan(ctx context.Context) int {
	now := sc.now()
	raised := 0
	for _, t := range sc.sess.Store.Snapshot().Tasks {
		if sc.notified[t.ID] || !t.AssignedTo(sc.sess.UserID) || !views.DueWithin(t, now, sc.window) {
			continue
		}

		msg := fmt.Sprintf("Task %q is due soon (%s).", t.Title, t.DueDate.Format("Jan 2, 15:04"))
		if views.IsOverdue(t, now) {
			msg = fmt.Sprintf("Task %q is overdue.", t.Title)
		}
		if _, err := sc.notifier.Notify(ctx, []string{sc.sess.UserID}, models.NotifyTaskDue, msg, "/tasks"); err != nil {
			sc.logger.Warn().Err(err).Str("taskID", t.ID).Msg("Failed to raise due notification, will retry")
			continue
		}
		sc.notified[t.ID] = true
		raised++
	}
	return raised
}

// run scans right away and then on every tick until ctx is cancelled.
func (sc *overdueScanner) run(ctx context.Context) {
	sc.scan(ctx)
	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sc.scan(ctx)
		}
	}
}
