package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/parivartan/hub/internal/app/auth"
	"github.com/parivartan/hub/internal/app/badges"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/session"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	"github.com/parivartan/hub/internal/pkg/helpers"
	"github.com/parivartan/hub/internal/pkg/validation"
)

// EventRepository persists events and attendance.
type EventRepository interface {
	Create(ctx context.Context, e *models.Event) (*models.Event, error)
	Delete(ctx context.Context, id string) error
	AddAttendee(ctx context.Context, eventID, userID string) (*models.EventAttendee, error)
}

// EventInput is the form of a new event.
type EventInput struct {
	Title            string
	Description      string
	Date             time.Time
	Time             string
	Location         string
	RegistrationLink string
	Image            string
}

// EventService manages events and attendance.
type EventService interface {
	CreateEvent(ctx context.Context, sess *session.Session, in EventInput) (*models.Event, error)
	DeleteEvent(ctx context.Context, sess *session.Session, id string, c Confirmer) error
	// MarkAttendance records that the actor attended a past event.
	MarkAttendance(ctx context.Context, sess *session.Session, eventID string) (*models.EventAttendee, error)
}

type eventServiceImpl struct {
	repo EventRepository
	now  func() time.Time
	Deps
}

// NewEventService creates an EventService.
func NewEventService(repo EventRepository, deps Deps) EventService {
	return &eventServiceImpl{repo: repo, now: time.Now, Deps: deps}
}

func (s *eventServiceImpl) CreateEvent(ctx context.Context, sess *session.Session, in EventInput) (*models.Event, error) {
	title, err := validation.RequireText("title", in.Title)
	if err != nil {
		return nil, err
	}
	desc, err := validation.RequireText("description", in.Description)
	if err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		return nil, apperrors.NewValidationError("date", "date is required")
	}
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapCreateEvent); err != nil {
		return nil, err
	}
	imageURL, err := resolveImage(ctx, s.Images, in.Image, "", "events")
	if err != nil {
		return nil, err
	}

	event, err := s.repo.Create(ctx, &models.Event{
		Title:            title,
		Description:      desc,
		Date:             in.Date,
		Time:             strings.TrimSpace(in.Time),
		Location:         strings.TrimSpace(in.Location),
		RegistrationLink: helpers.NullIfEmpty(in.RegistrationLink),
		ImageURL:         imageURL,
		CreatedBy:        actor.ID,
	})
	if err != nil {
		s.Logger.Error().Err(err).Str("userID", actor.ID).Msg("Failed to create event")
		return nil, err
	}

	sess.Store.UpsertEvent(*event)
	s.Badges.Evaluate(ctx, sess.Store, badges.EventCreated, actor.ID)
	s.Badges.Broadcast(ctx, sess.Store, actor.ID, models.NotifyEvent,
		fmt.Sprintf("New event: %s on %s", event.Title, helpers.FormatDate(event.Date)), "/events")
	return event, nil
}

func (s *eventServiceImpl) DeleteEvent(ctx context.Context, sess *session.Session, id string, c Confirmer) error {
	event, ok := sess.Store.Event(id)
	if !ok {
		return apperrors.NewResourceNotFoundError("event not found")
	}
	actor := actorOf(sess)
	if err := auth.AuthorizeOwnerOr(actor, event.CreatedBy, models.CapCreateEvent, models.CapDeleteAnyContent); err != nil {
		return err
	}
	if err := confirm(ctx, c, "Are you sure you want to delete this event?"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.Logger.Error().Err(err).Str("eventID", id).Str("userID", actor.ID).Msg("Failed to delete event")
		return err
	}
	sess.Store.RemoveEvent(id)
	return nil
}

func (s *eventServiceImpl) MarkAttendance(ctx context.Context, sess *session.Session, eventID string) (*models.EventAttendee, error) {
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapMarkAttendance); err != nil {
		return nil, err
	}
	event, ok := sess.Store.Event(eventID)
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("event not found")
	}
	if !event.Date.Before(s.now()) {
		return nil, apperrors.NewValidationError("eventId", "Attendance can only be marked for past events")
	}
	if sess.Store.Attended(eventID, actor.ID) {
		return nil, apperrors.NewCustomError(apperrors.ErrResourceAlreadyExists, "You already marked attendance for this event")
	}

	attendee, err := s.repo.AddAttendee(ctx, eventID, actor.ID)
	if err != nil {
		s.Logger.Error().Err(err).Str("eventID", eventID).Str("userID", actor.ID).Msg("Failed to mark attendance")
		return nil, err
	}
	sess.Store.AddAttendee(*attendee)
	s.Badges.Evaluate(ctx, sess.Store, badges.AttendanceMarked, actor.ID)
	return attendee, nil
}
