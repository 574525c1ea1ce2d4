package services

import (
	"context"
	"strings"

	"github.com/parivartan/hub/internal/app/auth"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/session"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	"github.com/parivartan/hub/internal/pkg/helpers"
	"github.com/parivartan/hub/internal/pkg/validation"
)

// HomepageRepository persists the slideshow and the popup.
type HomepageRepository interface {
	CreateSlide(ctx context.Context, s *models.SlideshowItem) (*models.SlideshowItem, error)
	DeleteSlide(ctx context.Context, id string) error
	ReplacePopup(ctx context.Context, p *models.PopupMessage) (*models.PopupMessage, error)
	DeletePopup(ctx context.Context, id string) error
}

// HomepageService manages the homepage banner slides and the popup. All of
// it is admin-tier.
type HomepageService interface {
	AddSlide(ctx context.Context, sess *session.Session, image, caption, link string) (*models.SlideshowItem, error)
	DeleteSlide(ctx context.Context, sess *session.Session, id string, c Confirmer) error
	// SetPopup replaces any existing popup.
	SetPopup(ctx context.Context, sess *session.Session, title, content, image string) (*models.PopupMessage, error)
	DeletePopup(ctx context.Context, sess *session.Session, c Confirmer) error
}

type homepageServiceImpl struct {
	repo HomepageRepository
	Deps
}

// NewHomepageService creates a HomepageService.
func NewHomepageService(repo HomepageRepository, deps Deps) HomepageService {
	return &homepageServiceImpl{repo: repo, Deps: deps}
}

func (s *homepageServiceImpl) AddSlide(ctx context.Context, sess *session.Session, image, caption, link string) (*models.SlideshowItem, error) {
	if strings.TrimSpace(image) == "" {
		return nil, apperrors.NewValidationError("image", "An image is required for slides")
	}
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapManageHomepage); err != nil {
		return nil, err
	}
	imageURL, err := resolveImage(ctx, s.Images, image, "", "slideshow")
	if err != nil {
		return nil, err
	}
	if imageURL == nil {
		return nil, apperrors.NewValidationError("image", "An image is required for slides")
	}

	item, err := s.repo.CreateSlide(ctx, &models.SlideshowItem{
		ImageURL:  *imageURL,
		Caption:   strings.TrimSpace(caption),
		Link:      helpers.NullIfEmpty(link),
		CreatedBy: actor.ID,
	})
	if err != nil {
		s.Logger.Error().Err(err).Str("userID", actor.ID).Msg("Failed to add slide")
		return nil, err
	}
	sess.Store.UpsertSlide(*item)
	return item, nil
}

func (s *homepageServiceImpl) DeleteSlide(ctx context.Context, sess *session.Session, id string, c Confirmer) error {
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapManageHomepage); err != nil {
		return err
	}
	slide, ok := sess.Store.Slide(id)
	if !ok {
		return apperrors.NewResourceNotFoundError("slide not found")
	}
	if err := confirm(ctx, c, "Are you sure you want to delete this slide?"); err != nil {
		return err
	}
	if err := s.repo.DeleteSlide(ctx, id); err != nil {
		s.Logger.Error().Err(err).Str("slideID", id).Str("userID", actor.ID).Msg("Failed to delete slide")
		return err
	}
	sess.Store.RemoveSlide(id)
	discardImage(s.Images, slide.ImageURL, s.Logger)
	return nil
}

func (s *homepageServiceImpl) SetPopup(ctx context.Context, sess *session.Session, title, content, image string) (*models.PopupMessage, error) {
	title, err := validation.RequireText("title", title)
	if err != nil {
		return nil, err
	}
	content, err = validation.RequireText("content", content)
	if err != nil {
		return nil, err
	}
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapManageHomepage); err != nil {
		return nil, err
	}
	current := ""
	if p := sess.Store.Popup(); p != nil {
		current = helpers.Deref(p.ImageURL)
	}
	imageURL, err := resolveImage(ctx, s.Images, image, current, "popup")
	if err != nil {
		return nil, err
	}

	popup, err := s.repo.ReplacePopup(ctx, &models.PopupMessage{
		Title:     title,
		Content:   content,
		ImageURL:  imageURL,
		CreatedBy: actor.ID,
	})
	if err != nil {
		s.Logger.Error().Err(err).Str("userID", actor.ID).Msg("Failed to set popup")
		return nil, err
	}
	sess.Store.SetPopup(*popup)
	return popup, nil
}

func (s *homepageServiceImpl) DeletePopup(ctx context.Context, sess *session.Session, c Confirmer) error {
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapManageHomepage); err != nil {
		return err
	}
	popup := sess.Store.Popup()
	if popup == nil {
		return apperrors.NewResourceNotFoundError("popup not found")
	}
	if err := confirm(ctx, c, "Are you sure you want to remove the popup?"); err != nil {
		return err
	}
	if err := s.repo.DeletePopup(ctx, popup.ID); err != nil {
		s.Logger.Error().Err(err).Str("popupID", popup.ID).Str("userID", actor.ID).Msg("Failed to delete popup")
		return err
	}
	sess.Store.ClearPopup(popup.ID)
	return nil
}
