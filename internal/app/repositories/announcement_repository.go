package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parivartan/hub/internal/app/models"
)

const (
	announcementReturning = "RETURNING id, title, content, image_url, author_id, created_at"
	achievementReturning  = "RETURNING id, title, description, image_url, date, author_id, created_at"
)

func scanAnnouncement(row pgx.Row, a *models.Announcement) error {
	return row.Scan(&a.ID, &a.Title, &a.Content, &a.ImageURL, &a.AuthorID, &a.CreatedAt)
}

func scanAchievement(row pgx.Row, a *models.Achievement) error {
	return row.Scan(&a.ID, &a.Title, &a.Description, &a.ImageURL, &a.Date, &a.AuthorID, &a.CreatedAt)
}

// AnnouncementRepository handles announcements and achievements
type AnnouncementRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAnnouncementRepository creates a new AnnouncementRepository
func NewAnnouncementRepository(db *pgxpool.Pool) *AnnouncementRepository {
	return &AnnouncementRepository{db: db, sb: newBuilder()}
}

// List returns announcements newest first.
func (r *AnnouncementRepository) List(ctx context.Context) ([]models.Announcement, error) {
	query := r.sb.Select("id", "title", "content", "image_url", "author_id", "created_at").
		From("announcements").OrderBy("created_at DESC")
	return selectAll(ctx, r.db, query, "listing announcements", scanAnnouncement)
}

func (r *AnnouncementRepository) Create(ctx context.Context, a *models.Announcement) (*models.Announcement, error) {
	query := r.sb.Insert("announcements").
		Columns("title", "content", "image_url", "author_id").
		Values(a.Title, a.Content, a.ImageURL, a.AuthorID).
		Suffix(announcementReturning)
	return queryOne(ctx, r.db, query, "creating announcement", "announcement", scanAnnouncement)
}

func (r *AnnouncementRepository) Update(ctx context.Context, a *models.Announcement) (*models.Announcement, error) {
	query := r.sb.Update("announcements").
		Set("title", a.Title).
		Set("content", a.Content).
		Set("image_url", a.ImageURL).
		Where(squirrel.Eq{"id": a.ID}).
		Suffix(announcementReturning)
	return queryOne(ctx, r.db, query, "updating announcement", "announcement", scanAnnouncement)
}

func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	return execDelete(ctx, r.db, r.sb, "announcements", id)
}

// ListAchievements returns achievements newest first.
func (r *AnnouncementRepository) ListAchievements(ctx context.Context) ([]models.Achievement, error) {
	query := r.sb.Select("id", "title", "description", "image_url", "date", "author_id", "created_at").
		From("achievements").OrderBy("created_at DESC")
	return selectAll(ctx, r.db, query, "listing achievements", scanAchievement)
}

func (r *AnnouncementRepository) CreateAchievement(ctx context.Context, a *models.Achievement) (*models.Achievement, error) {
	query := r.sb.Insert("achievements").
		Columns("title", "description", "image_url", "date", "author_id").
		Values(a.Title, a.Description, a.ImageURL, a.Date, a.AuthorID).
		Suffix(achievementReturning)
	return queryOne(ctx, r.db, query, "creating achievement", "achievement", scanAchievement)
}

func (r *AnnouncementRepository) UpdateAchievement(ctx context.Context, a *models.Achievement) (*models.Achievement, error) {
	query := r.sb.Update("achievements").
		Set("title", a.Title).
		Set("description", a.Description).
		Set("image_url", a.ImageURL).
		Set("date", a.Date).
		Where(squirrel.Eq{"id": a.ID}).
		Suffix(achievementReturning)
	return queryOne(ctx, r.db, query, "updating achievement", "achievement", scanAchievement)
}

func (r *AnnouncementRepository) DeleteAchievement(ctx context.Context, id string) error {
	return execDelete(ctx, r.db, r.sb, "achievements", id)
}
