package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parivartan/hub/internal/app/models"
)

func scanUserBadge(row pgx.Row, b *models.UserBadge) error {
	return row.Scan(&b.ID, &b.UserID, &b.BadgeID, &b.CreatedAt)
}

// BadgeRepository stores badge awards
type BadgeRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewBadgeRepository creates a new BadgeRepository
func NewBadgeRepository(db *pgxpool.Pool) *BadgeRepository {
	return &BadgeRepository{db: db, sb: newBuilder()}
}

// List returns every award in the order it was earned.
func (r *BadgeRepository) List(ctx context.Context) ([]models.UserBadge, error) {
	query := r.sb.Select("id", "user_id", "badge_id", "created_at").
		From("user_badges").OrderBy("created_at ASC")
	return selectAll(ctx, r.db, query, "listing badges", scanUserBadge)
}

// Award stores (userID, badgeID) once. The existing record is returned with
// inserted=false when the user already holds the badge.
func (r *BadgeRepository) Award(ctx context.Context, userID, badgeID string) (*models.UserBadge, bool, error) {
	sql, args, err := r.sb.Insert("user_badges").
		Columns("user_id", "badge_id").
		Values(userID, badgeID).
		Suffix("ON CONFLICT (user_id, badge_id) DO UPDATE SET user_id = EXCLUDED.user_id " +
			"RETURNING id, user_id, badge_id, created_at, (xmax = 0) AS inserted").
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build award badge query: %w", err)
	}

	var b models.UserBadge
	var inserted bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&b.ID, &b.UserID, &b.BadgeID, &b.CreatedAt, &inserted); err != nil {
		return nil, false, storageError("awarding badge", err)
	}
	return &b, inserted, nil
}
