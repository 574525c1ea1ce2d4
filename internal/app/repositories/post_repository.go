package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	"github.com/parivartan/hub/internal/pkg/dberrors"
)

func scanPost(row pgx.Row, p *models.Post) error {
	return row.Scan(&p.ID, &p.UserID, &p.Content, &p.ImageURL, &p.CreatedAt)
}

func scanComment(row pgx.Row, c *models.Comment) error {
	return row.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt)
}

func scanReaction(row pgx.Row, r *models.Reaction) error {
	return row.Scan(&r.ID, &r.PostID, &r.UserID, &r.Type, &r.CreatedAt)
}

// PostRepository handles the feed: posts, comments and reactions
type PostRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db *pgxpool.Pool) *PostRepository {
	return &PostRepository{db: db, sb: newBuilder()}
}

// List returns posts newest first.
func (r *PostRepository) List(ctx context.Context) ([]models.Post, error) {
	query := r.sb.Select("id", "user_id", "content", "image_url", "created_at").
		From("posts").OrderBy("created_at DESC")
	return selectAll(ctx, r.db, query, "listing posts", scanPost)
}

// Create inserts a post and returns the canonical row.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	query := r.sb.Insert("posts").
		Columns("user_id", "content", "image_url").
		Values(post.UserID, post.Content, post.ImageURL).
		Suffix("RETURNING id, user_id, content, image_url, created_at")
	return queryOne(ctx, r.db, query, "creating post", "post", scanPost)
}

// Delete removes a post with its comments and reactions.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	return execDelete(ctx, r.db, r.sb, "posts", id)
}

// ListComments returns comments oldest first.
func (r *PostRepository) ListComments(ctx context.Context) ([]models.Comment, error) {
	query := r.sb.Select("id", "post_id", "user_id", "content", "created_at").
		From("comments").OrderBy("created_at ASC")
	return selectAll(ctx, r.db, query, "listing comments", scanComment)
}

// CreateComment inserts a comment on an existing post.
func (r *PostRepository) CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	query := r.sb.Insert("comments").
		Columns("post_id", "user_id", "content").
		Values(comment.PostID, comment.UserID, comment.Content).
		Suffix("RETURNING id, post_id, user_id, content, created_at")
	c, err := queryOne(ctx, r.db, query, "creating comment", "comment", scanComment)
	if err != nil && dberrors.IsForeignKeyViolation(err) {
		return nil, apperrors.NewResourceNotFoundError("post not found")
	}
	return c, err
}

// DeleteComment removes a comment.
func (r *PostRepository) DeleteComment(ctx context.Context, id string) error {
	return execDelete(ctx, r.db, r.sb, "comments", id)
}

// ListReactions returns reactions in creation order.
func (r *PostRepository) ListReactions(ctx context.Context) ([]models.Reaction, error) {
	query := r.sb.Select("id", "post_id", "user_id", "type", "created_at").
		From("reactions").OrderBy("created_at ASC")
	return selectAll(ctx, r.db, query, "listing reactions", scanReaction)
}

// UpsertReaction stores the user's reaction on a post, replacing an earlier one.
func (r *PostRepository) UpsertReaction(ctx context.Context, reaction *models.Reaction) (*models.Reaction, error) {
	query := r.sb.Insert("reactions").
		Columns("post_id", "user_id", "type").
		Values(reaction.PostID, reaction.UserID, reaction.Type).
		Suffix("ON CONFLICT (post_id, user_id) DO UPDATE SET type = EXCLUDED.type, created_at = now() " +
			"RETURNING id, post_id, user_id, type, created_at")
	rec, err := queryOne(ctx, r.db, query, "saving reaction", "reaction", scanReaction)
	if err != nil && dberrors.IsForeignKeyViolation(err) {
		return nil, apperrors.NewResourceNotFoundError("post not found")
	}
	return rec, err
}

// DeleteReaction removes a reaction.
func (r *PostRepository) DeleteReaction(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("reaction id is required")
	}
	return execDelete(ctx, r.db, r.sb, "reactions", id)
}
