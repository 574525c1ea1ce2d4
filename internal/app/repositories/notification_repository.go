package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parivartan/hub/internal/app/models"
)

func scanNotification(row pgx.Row, n *models.AppNotification) error {
	return row.Scan(&n.ID, &n.UserID, &n.Kind, &n.Message, &n.Link, &n.Read, &n.CreatedAt)
}

// NotificationRepository persists app notifications so they survive a reload
type NotificationRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db, sb: newBuilder()}
}

// ListForUser returns a user's notifications newest first.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string) ([]models.AppNotification, error) {
	query := r.sb.Select("id", "user_id", "kind", "message", "link", "read", "created_at").
		From("app_notifications").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC")
	return selectAll(ctx, r.db, query, "listing notifications", scanNotification)
}

// CreateMany inserts one notification per recipient and returns them.
func (r *NotificationRepository) CreateMany(ctx context.Context, items []models.AppNotification) ([]models.AppNotification, error) {
	if len(items) == 0 {
		return []models.AppNotification{}, nil
	}
	insert := r.sb.Insert("app_notifications").Columns("user_id", "kind", "message", "link")
	for _, n := range items {
		insert = insert.Values(n.UserID, n.Kind, n.Message, n.Link)
	}
	insert = insert.Suffix("RETURNING id, user_id, kind, message, link, read, created_at")

	sql, args, err := insert.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build create notifications query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, storageError("creating notifications", err)
	}
	defer rows.Close()

	saved := make([]models.AppNotification, 0, len(items))
	for rows.Next() {
		var n models.AppNotification
		if err := scanNotification(rows, &n); err != nil {
			return nil, storageError("creating notifications", err)
		}
		saved = append(saved, n)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("creating notifications", err)
	}
	return saved, nil
}

// MarkRead moves the given notifications of userID to read. Already read
// rows are left alone.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID string, ids []string) error {
	update := r.sb.Update("app_notifications").
		Set("read", true).
		Where(squirrel.Eq{"user_id": userID, "read": false})
	if ids != nil {
		update = update.Where(squirrel.Eq{"id": ids})
	}
	sql, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build mark read query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return storageError("marking notifications read", err)
	}
	return nil
}
