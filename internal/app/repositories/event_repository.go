package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	"github.com/parivartan/hub/internal/pkg/dberrors"
)

var eventColumns = []string{
	"id", "title", "description", "event_date", "event_time", "location",
	"registration_link", "image_url", "created_by", "created_at",
}

func scanEvent(row pgx.Row, e *models.Event) error {
	return row.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Location,
		&e.RegistrationLink, &e.ImageURL, &e.CreatedBy, &e.CreatedAt)
}

func scanAttendee(row pgx.Row, a *models.EventAttendee) error {
	return row.Scan(&a.ID, &a.EventID, &a.UserID, &a.CreatedAt)
}

// EventRepository handles events and attendance records
type EventRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db, sb: newBuilder()}
}

// List returns events by date, earliest first.
func (r *EventRepository) List(ctx context.Context) ([]models.Event, error) {
	query := r.sb.Select(eventColumns...).From("events").OrderBy("event_date ASC", "created_at ASC")
	return selectAll(ctx, r.db, query, "listing events", scanEvent)
}

func (r *EventRepository) Create(ctx context.Context, e *models.Event) (*models.Event, error) {
	query := r.sb.Insert("events").
		Columns("title", "description", "event_date", "event_time", "location", "registration_link", "image_url", "created_by").
		Values(e.Title, e.Description, e.Date, e.Time, e.Location, e.RegistrationLink, e.ImageURL, e.CreatedBy).
		Suffix("RETURNING id, title, description, event_date, event_time, location, registration_link, image_url, created_by, created_at")
	return queryOne(ctx, r.db, query, "creating event", "event", scanEvent)
}

// Delete removes an event and its attendance records.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	return execDelete(ctx, r.db, r.sb, "events", id)
}

// ListAttendees returns attendance records in creation order.
func (r *EventRepository) ListAttendees(ctx context.Context) ([]models.EventAttendee, error) {
	query := r.sb.Select("id", "event_id", "user_id", "created_at").
		From("event_attendees").OrderBy("created_at ASC")
	return selectAll(ctx, r.db, query, "listing attendees", scanAttendee)
}

// AddAttendee records attendance. A second record for the same pair is a conflict.
func (r *EventRepository) AddAttendee(ctx context.Context, eventID, userID string) (*models.EventAttendee, error) {
	query := r.sb.Insert("event_attendees").
		Columns("event_id", "user_id").
		Values(eventID, userID).
		Suffix("RETURNING id, event_id, user_id, created_at")
	rec, err := queryOne(ctx, r.db, query, "marking attendance", "attendance", scanAttendee)
	switch {
	case err == nil:
		return rec, nil
	case dberrors.IsDuplicateConstraintError(err, "event_attendees_event_user_key"):
		return nil, apperrors.NewCustomError(apperrors.ErrResourceAlreadyExists, "Attendance already marked for this event")
	case dberrors.IsForeignKeyViolation(err):
		return nil, apperrors.NewResourceNotFoundError("event not found")
	}
	return nil, err
}
