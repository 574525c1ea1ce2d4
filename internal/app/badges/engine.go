// Package badges evaluates the badge rule table after successful mutations
// and raises the notifications that go with them.
package badges

import (
	"context"
	"fmt"
	"time"

	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/store"
	"github.com/parivartan/hub/internal/app/views"
	"github.com/rs/zerolog"
)

// Trigger names the mutation outcome a rule reacts to.
type Trigger string

const (
	PostCreated      Trigger = "post_created"
	EventCreated     Trigger = "event_created"
	TaskCompleted    Trigger = "task_completed"
	AttendanceMarked Trigger = "attendance_marked"
)

// PerfectAttendanceWindow is how many of the most recent past events a user
// must have attended for perfect-attender.
const PerfectAttendanceWindow = 5

// Rule awards Badge to the subject of Trigger when Check holds. Checks read
// the store as it is after the mutation was patched in.
type Rule struct {
	Trigger Trigger
	Badge   string
	Check   func(snap *store.Snapshot, userID string, now time.Time) bool
}

// Rules is the badge rule table.
var Rules = []Rule{
	{PostCreated, models.BadgeFirstPost, postCountAtLeast(1)},
	{PostCreated, models.BadgeProlificPoster, postCountAtLeast(5)},
	{EventCreated, models.BadgeEventCreator, eventCountAtLeast(1)},
	{EventCreated, models.BadgeSuperOrganizer, eventCountAtLeast(3)},
	{TaskCompleted, models.BadgeTaskMaster, func(snap *store.Snapshot, userID string, _ time.Time) bool {
		return views.DoneTasksAssignedTo(snap.Tasks, userID) >= 10
	}},
	{AttendanceMarked, models.BadgePerfectAttender, attendedRecentEvents},
}

func postCountAtLeast(n int) func(*store.Snapshot, string, time.Time) bool {
	return func(snap *store.Snapshot, userID string, _ time.Time) bool {
		return len(views.PostsBy(snap.Posts, userID)) >= n
	}
}

func eventCountAtLeast(n int) func(*store.Snapshot, string, time.Time) bool {
	return func(snap *store.Snapshot, userID string, _ time.Time) bool {
		return len(views.EventsBy(snap.Events, userID)) >= n
	}
}

func attendedRecentEvents(snap *store.Snapshot, userID string, now time.Time) bool {
	recent := views.RecentPastEvents(snap.Events, now, PerfectAttendanceWindow)
	if len(recent) < PerfectAttendanceWindow {
		return false
	}
	attended := make(map[string]bool)
	for _, a := range snap.Attendees {
		if a.UserID == userID {
			attended[a.EventID] = true
		}
	}
	for _, e := range recent {
		if !attended[e.ID] {
			return false
		}
	}
	return true
}

// Awarder stores an award at most once per (user, badge).
type Awarder interface {
	Award(ctx context.Context, userID, badgeID string) (*models.UserBadge, bool, error)
}

// Notifier raises AppNotifications.
type Notifier interface {
	Notify(ctx context.Context, recipients []string, kind models.NotificationKind, message, link string) ([]models.AppNotification, error)
}

// Engine runs the rule table.
type Engine struct {
	awards   Awarder
	notifier Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(awards Awarder, notifier Notifier, logger zerolog.Logger) *Engine {
	return &Engine{awards: awards, notifier: notifier, logger: logger, now: time.Now}
}

// Evaluate runs every rule for trigger against userID and returns the badges
// awarded now. Failures are logged; the mutation that fired the trigger has
// already succeeded and is not affected.
func (e *Engine) Evaluate(ctx context.Context, st *store.Store, trigger Trigger, userID string) []models.UserBadge {
	if userID == "" {
		return nil
	}
	snap := st.Snapshot()
	now := e.now()

	var awarded []models.UserBadge
	for _, rule := range Rules {
		if rule.Trigger != trigger || st.HasBadge(userID, rule.Badge) {
			continue
		}
		if !rule.Check(&snap, userID, now) {
			continue
		}
		if b, ok := e.award(ctx, st, userID, rule.Badge); ok {
			awarded = append(awarded, *b)
		}
	}
	return awarded
}

func (e *Engine) award(ctx context.Context, st *store.Store, userID, badgeID string) (*models.UserBadge, bool) {
	rec, inserted, err := e.awards.Award(ctx, userID, badgeID)
	if err != nil {
		e.logger.Error().Err(err).Str("userID", userID).Str("badgeID", badgeID).Msg("Failed to award badge")
		return nil, false
	}
	st.AddBadge(*rec)
	if !inserted {
		// Awarded earlier from another session; the store just caught up.
		return nil, false
	}

	name := badgeID
	if b, ok := models.FindBadge(badgeID); ok {
		name = b.Name
	}
	e.logger.Info().Str("userID", userID).Str("badgeID", badgeID).Msg("Badge awarded")
	e.notify(ctx, []string{userID}, models.NotifyBadge,
		fmt.Sprintf("Congratulations! You earned the %s badge.", name), "/profile")
	return rec, true
}

// Broadcast notifies every member in the store except the actor.
func (e *Engine) Broadcast(ctx context.Context, st *store.Store, actorID string, kind models.NotificationKind, message, link string) {
	recipients := make([]string, 0)
	for _, id := range st.UserIDs() {
		if id != actorID {
			recipients = append(recipients, id)
		}
	}
	e.notify(ctx, recipients, kind, message, link)
}

// TaskAssigned notifies the assignee of a task assigned by someone else.
func (e *Engine) TaskAssigned(ctx context.Context, actorID string, task models.Task) {
	if task.AssigneeID == nil || *task.AssigneeID == "" || *task.AssigneeID == actorID {
		return
	}
	e.notify(ctx, []string{*task.AssigneeID}, models.NotifyTaskAssigned,
		fmt.Sprintf("You have been assigned a new task: %s", task.Title), "/tasks")
}

func (e *Engine) notify(ctx context.Context, recipients []string, kind models.NotificationKind, message, link string) {
	if e.notifier == nil || len(recipients) == 0 {
		return
	}
	if _, err := e.notifier.Notify(ctx, recipients, kind, message, link); err != nil {
		e.logger.Error().Err(err).Str("kind", string(kind)).Msg("Failed to raise notification")
	}
}
