package services

import (
	"context"
	"strings"

	"github.com/parivartan/hub/internal/app/auth"
	"github.com/parivartan/hub/internal/app/badges"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/session"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	"github.com/parivartan/hub/internal/pkg/validation"
)

// PostRepository persists posts, comments and reactions.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	Delete(ctx context.Context, id string) error
	CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	UpsertReaction(ctx context.Context, reaction *models.Reaction) (*models.Reaction, error)
	DeleteReaction(ctx context.Context, id string) error
}

// PostService handles the feed.
type PostService interface {
	CreatePost(ctx context.Context, sess *session.Session, content, image string) (*models.Post, error)
	DeletePost(ctx context.Context, sess *session.Session, id string, c Confirmer) error
	AddComment(ctx context.Context, sess *session.Session, postID, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, sess *session.Session, id string, c Confirmer) error
	// React toggles: the same type again removes the reaction (nil result),
	// another type replaces it.
	React(ctx context.Context, sess *session.Session, postID string, kind models.ReactionType) (*models.Reaction, error)
}

type postServiceImpl struct {
	repo PostRepository
	Deps
}

// NewPostService creates a PostService.
func NewPostService(repo PostRepository, deps Deps) PostService {
	return &postServiceImpl{repo: repo, Deps: deps}
}

func (s *postServiceImpl) CreatePost(ctx context.Context, sess *session.Session, content, image string) (*models.Post, error) {
	content, err := validation.RequireText("content", content)
	if err != nil {
		return nil, err
	}
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapCreatePost); err != nil {
		return nil, err
	}
	if err := moderate(ctx, s.Moderator, content, "post"); err != nil {
		s.Logger.Info().Str("userID", actor.ID).Msg("Post rejected by moderation")
		return nil, err
	}

	imageURL, err := resolveImage(ctx, s.Images, image, "", "posts")
	if err != nil {
		return nil, err
	}

	post, err := s.repo.Create(ctx, &models.Post{UserID: actor.ID, Content: content, ImageURL: imageURL})
	if err != nil {
		s.Logger.Error().Err(err).Str("userID", actor.ID).Msg("Failed to create post")
		return nil, err
	}

	sess.Store.UpsertPost(*post)
	s.Badges.Evaluate(ctx, sess.Store, badges.PostCreated, actor.ID)
	return post, nil
}

func (s *postServiceImpl) DeletePost(ctx context.Context, sess *session.Session, id string, c Confirmer) error {
	post, ok := sess.Store.Post(id)
	if !ok {
		return apperrors.NewResourceNotFoundError("post not found")
	}
	actor := actorOf(sess)
	if err := auth.AuthorizeOwnerOr(actor, post.UserID, models.CapCreatePost, models.CapDeleteAnyContent); err != nil {
		return err
	}
	if err := confirm(ctx, c, "Are you sure you want to delete this post?"); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.Logger.Error().Err(err).Str("postID", id).Str("userID", actor.ID).Msg("Failed to delete post")
		return err
	}
	sess.Store.RemovePost(id)
	if post.ImageURL != nil {
		discardImage(s.Images, *post.ImageURL, s.Logger)
	}
	return nil
}

func (s *postServiceImpl) AddComment(ctx context.Context, sess *session.Session, postID, content string) (*models.Comment, error) {
	content, err := validation.RequireText("content", content)
	if err != nil {
		return nil, err
	}
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapComment); err != nil {
		return nil, err
	}
	if _, ok := sess.Store.Post(postID); !ok {
		return nil, apperrors.NewResourceNotFoundError("post not found")
	}
	if err := moderate(ctx, s.Moderator, content, "comment"); err != nil {
		return nil, err
	}

	comment, err := s.repo.CreateComment(ctx, &models.Comment{PostID: postID, UserID: actor.ID, Content: content})
	if err != nil {
		s.Logger.Error().Err(err).Str("postID", postID).Str("userID", actor.ID).Msg("Failed to add comment")
		return nil, err
	}
	sess.Store.UpsertComment(*comment)
	return comment, nil
}

func (s *postServiceImpl) DeleteComment(ctx context.Context, sess *session.Session, id string, c Confirmer) error {
	comment, ok := sess.Store.Comment(id)
	if !ok {
		return apperrors.NewResourceNotFoundError("comment not found")
	}
	actor := actorOf(sess)
	if err := auth.AuthorizeOwnerOr(actor, comment.UserID, models.CapComment, models.CapDeleteAnyContent); err != nil {
		return err
	}
	if err := confirm(ctx, c, "Are you sure you want to delete this comment?"); err != nil {
		return err
	}

	if err := s.repo.DeleteComment(ctx, id); err != nil {
		s.Logger.Error().Err(err).Str("commentID", id).Str("userID", actor.ID).Msg("Failed to delete comment")
		return err
	}
	sess.Store.RemoveComment(id)
	return nil
}

func (s *postServiceImpl) React(ctx context.Context, sess *session.Session, postID string, kind models.ReactionType) (*models.Reaction, error) {
	kind = models.ReactionType(strings.ToLower(strings.TrimSpace(string(kind))))
	if !kind.Valid() {
		return nil, apperrors.NewValidationError("type", "Unknown reaction")
	}
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapReact); err != nil {
		return nil, err
	}
	if _, ok := sess.Store.Post(postID); !ok {
		return nil, apperrors.NewResourceNotFoundError("post not found")
	}

	if existing, ok := sess.Store.ReactionBy(postID, actor.ID); ok && existing.Type == kind {
		if err := s.repo.DeleteReaction(ctx, existing.ID); err != nil {
			s.Logger.Error().Err(err).Str("postID", postID).Str("userID", actor.ID).Msg("Failed to remove reaction")
			return nil, err
		}
		sess.Store.RemoveReaction(existing.ID)
		return nil, nil
	}

	reaction, err := s.repo.UpsertReaction(ctx, &models.Reaction{PostID: postID, UserID: actor.ID, Type: kind})
	if err != nil {
		s.Logger.Error().Err(err).Str("postID", postID).Str("userID", actor.ID).Msg("Failed to react")
		return nil, err
	}
	sess.Store.UpsertReaction(*reaction)
	return reaction, nil
}
