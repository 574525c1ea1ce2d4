package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/db"
	"github.com/parivartan/hub/internal/pkg/dberrors"
	"github.com/parivartan/hub/internal/pkg/logger"
)

func scanSlide(row pgx.Row, s *models.SlideshowItem) error {
	return row.Scan(&s.ID, &s.ImageURL, &s.Caption, &s.Link, &s.CreatedBy, &s.CreatedAt)
}

func scanPopup(row pgx.Row, p *models.PopupMessage) error {
	return row.Scan(&p.ID, &p.Title, &p.Content, &p.ImageURL, &p.CreatedBy, &p.CreatedAt)
}

// HomepageRepository handles the slideshow and the popup message
type HomepageRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewHomepageRepository creates a new HomepageRepository
func NewHomepageRepository(db *pgxpool.Pool) *HomepageRepository {
	return &HomepageRepository{db: db, sb: newBuilder()}
}

// ListSlides returns slides in creation order.
func (r *HomepageRepository) ListSlides(ctx context.Context) ([]models.SlideshowItem, error) {
	query := r.sb.Select("id", "image_url", "caption", "link", "created_by", "created_at").
		From("slideshow_items").OrderBy("created_at ASC")
	return selectAll(ctx, r.db, query, "listing slides", scanSlide)
}

func (r *HomepageRepository) CreateSlide(ctx context.Context, s *models.SlideshowItem) (*models.SlideshowItem, error) {
	query := r.sb.Insert("slideshow_items").
		Columns("image_url", "caption", "link", "created_by").
		Values(s.ImageURL, s.Caption, s.Link, s.CreatedBy).
		Suffix("RETURNING id, image_url, caption, link, created_by, created_at")
	return queryOne(ctx, r.db, query, "creating slide", "slide", scanSlide)
}

func (r *HomepageRepository) DeleteSlide(ctx context.Context, id string) error {
	return execDelete(ctx, r.db, r.sb, "slideshow_items", id)
}

// GetPopup returns the active popup, or nil when there is none.
func (r *HomepageRepository) GetPopup(ctx context.Context) (*models.PopupMessage, error) {
	sql, args, err := r.sb.Select("id", "title", "content", "image_url", "created_by", "created_at").
		From("popup_messages").OrderBy("created_at DESC").Limit(1).ToSql()
	if err != nil {
		return nil, err
	}
	var p models.PopupMessage
	if err := scanPopup(r.db.QueryRow(ctx, sql, args...), &p); err != nil {
		if dberrors.IsNoRows(err) {
			return nil, nil
		}
		return nil, storageError("getting popup", err)
	}
	return &p, nil
}

// ReplacePopup deletes any existing popup and stores p, atomically.
func (r *HomepageRepository) ReplacePopup(ctx context.Context, p *models.PopupMessage) (*models.PopupMessage, error) {
	var saved *models.PopupMessage
	err := db.WithTransaction(ctx, r.db, logger.Component("repositories"), func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM popup_messages"); err != nil {
			return storageError("clearing popup", err)
		}
		insert := r.sb.Insert("popup_messages").
			Columns("title", "content", "image_url", "created_by").
			Values(p.Title, p.Content, p.ImageURL, p.CreatedBy).
			Suffix("RETURNING id, title, content, image_url, created_by, created_at")
		rec, err := queryOne(ctx, tx, insert, "creating popup", "popup", scanPopup)
		if err != nil {
			return err
		}
		saved = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *HomepageRepository) DeletePopup(ctx context.Context, id string) error {
	return execDelete(ctx, r.db, r.sb, "popup_messages", id)
}
