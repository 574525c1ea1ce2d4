package services

import (
	"context"
	"fmt"
	"time"

	"github.com/parivartan/hub/internal/app/auth"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/session"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	"github.com/parivartan/hub/internal/pkg/helpers"
	"github.com/parivartan/hub/internal/pkg/validation"
)

// AnnouncementRepository persists announcements and achievements.
type AnnouncementRepository interface {
	Create(ctx context.Context, a *models.Announcement) (*models.Announcement, error)
	Update(ctx context.Context, a *models.Announcement) (*models.Announcement, error)
	Delete(ctx context.Context, id string) error
	CreateAchievement(ctx context.Context, a *models.Achievement) (*models.Achievement, error)
	UpdateAchievement(ctx context.Context, a *models.Achievement) (*models.Achievement, error)
	DeleteAchievement(ctx context.Context, id string) error
}

// AnnouncementInput is the editable part of an announcement.
type AnnouncementInput struct {
	Title   string
	Content string
	Image   string
}

// AchievementInput is the editable part of an achievement.
type AchievementInput struct {
	Title       string
	Description string
	Image       string
	Date        time.Time
}

// AnnouncementService manages announcements and achievements. Both are
// admin-tier.
type AnnouncementService interface {
	CreateAnnouncement(ctx context.Context, sess *session.Session, in AnnouncementInput) (*models.Announcement, error)
	UpdateAnnouncement(ctx context.Context, sess *session.Session, id string, in AnnouncementInput) (*models.Announcement, error)
	DeleteAnnouncement(ctx context.Context, sess *session.Session, id string, c Confirmer) error
	CreateAchievement(ctx context.Context, sess *session.Session, in AchievementInput) (*models.Achievement, error)
	UpdateAchievement(ctx context.Context, sess *session.Session, id string, in AchievementInput) (*models.Achievement, error)
	DeleteAchievement(ctx context.Context, sess *session.Session, id string, c Confirmer) error
}

type announcementServiceImpl struct {
	repo AnnouncementRepository
	Deps
}

// NewAnnouncementService creates an AnnouncementService.
func NewAnnouncementService(repo AnnouncementRepository, deps Deps) AnnouncementService {
	return &announcementServiceImpl{repo: repo, Deps: deps}
}

func (s *announcementServiceImpl) validateAnnouncement(ctx context.Context, in AnnouncementInput, current string) (*models.Announcement, error) {
	title, err := validation.RequireText("title", in.Title)
	if err != nil {
		return nil, err
	}
	content, err := validation.RequireText("content", in.Content)
	if err != nil {
		return nil, err
	}
	imageURL, err := resolveImage(ctx, s.Images, in.Image, current, "announcements")
	if err != nil {
		return nil, err
	}
	return &models.Announcement{Title: title, Content: content, ImageURL: imageURL}, nil
}

func (s *announcementServiceImpl) CreateAnnouncement(ctx context.Context, sess *session.Session, in AnnouncementInput) (*models.Announcement, error) {
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapCreateAnnouncement); err != nil {
		return nil, err
	}
	a, err := s.validateAnnouncement(ctx, in, "")
	if err != nil {
		return nil, err
	}
	a.AuthorID = actor.ID

	saved, err := s.repo.Create(ctx, a)
	if err != nil {
		s.Logger.Error().Err(err).Str("userID", actor.ID).Msg("Failed to create announcement")
		return nil, err
	}

	sess.Store.UpsertAnnouncement(*saved)
	s.Badges.Broadcast(ctx, sess.Store, actor.ID, models.NotifyAnnouncement,
		fmt.Sprintf("New announcement: %s", saved.Title), "/announcements")
	return saved, nil
}

func (s *announcementServiceImpl) UpdateAnnouncement(ctx context.Context, sess *session.Session, id string, in AnnouncementInput) (*models.Announcement, error) {
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapCreateAnnouncement); err != nil {
		return nil, err
	}
	current, ok := sess.Store.Announcement(id)
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("announcement not found")
	}
	a, err := s.validateAnnouncement(ctx, in, helpers.Deref(current.ImageURL))
	if err != nil {
		return nil, err
	}
	a.ID = id
	a.AuthorID = current.AuthorID
	if a.ImageURL == nil {
		a.ImageURL = current.ImageURL
	}

	saved, err := s.repo.Update(ctx, a)
	if err != nil {
		s.Logger.Error().Err(err).Str("announcementID", id).Str("userID", actor.ID).Msg("Failed to update announcement")
		return nil, err
	}
	sess.Store.UpsertAnnouncement(*saved)
	return saved, nil
}

func (s *announcementServiceImpl) DeleteAnnouncement(ctx context.Context, sess *session.Session, id string, c Confirmer) error {
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapCreateAnnouncement); err != nil {
		return err
	}
	if _, ok := sess.Store.Announcement(id); !ok {
		return apperrors.NewResourceNotFoundError("announcement not found")
	}
	if err := confirm(ctx, c, "Are you sure you want to delete this announcement?"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.Logger.Error().Err(err).Str("announcementID", id).Str("userID", actor.ID).Msg("Failed to delete announcement")
		return err
	}
	sess.Store.RemoveAnnouncement(id)
	return nil
}

// validateAchievement requires an image unless keep already has one.
func (s *announcementServiceImpl) validateAchievement(ctx context.Context, in AchievementInput, keep string) (*models.Achievement, error) {
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
	imageURL, err := resolveImage(ctx, s.Images, in.Image, keep, "achievements")
	if err != nil {
		return nil, err
	}
	image := keep
	if imageURL != nil {
		image = *imageURL
	}
	if image == "" {
		return nil, apperrors.NewValidationError("image", "An image is required for achievements")
	}
	return &models.Achievement{Title: title, Description: desc, ImageURL: image, Date: in.Date}, nil
}

func (s *announcementServiceImpl) CreateAchievement(ctx context.Context, sess *session.Session, in AchievementInput) (*models.Achievement, error) {
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapCreateAchievement); err != nil {
		return nil, err
	}
	a, err := s.validateAchievement(ctx, in, "")
	if err != nil {
		return nil, err
	}
	a.AuthorID = actor.ID

	saved, err := s.repo.CreateAchievement(ctx, a)
	if err != nil {
		s.Logger.Error().Err(err).Str("userID", actor.ID).Msg("Failed to create achievement")
		return nil, err
	}
	sess.Store.UpsertAchievement(*saved)
	return saved, nil
}

func (s *announcementServiceImpl) UpdateAchievement(ctx context.Context, sess *session.Session, id string, in AchievementInput) (*models.Achievement, error) {
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapCreateAchievement); err != nil {
		return nil, err
	}
	current, ok := sess.Store.Achievement(id)
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("achievement not found")
	}
	a, err := s.validateAchievement(ctx, in, current.ImageURL)
	if err != nil {
		return nil, err
	}
	a.ID = id
	a.AuthorID = current.AuthorID

	saved, err := s.repo.UpdateAchievement(ctx, a)
	if err != nil {
		s.Logger.Error().Err(err).Str("achievementID", id).Str("userID", actor.ID).Msg("Failed to update achievement")
		return nil, err
	}
	sess.Store.UpsertAchievement(*saved)
	return saved, nil
}

func (s *announcementServiceImpl) DeleteAchievement(ctx context.Context, sess *session.Session, id string, c Confirmer) error {
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapCreateAchievement); err != nil {
		return err
	}
	if _, ok := sess.Store.Achievement(id); !ok {
		return apperrors.NewResourceNotFoundError("achievement not found")
	}
	if err := confirm(ctx, c, "Are you sure you want to delete this achievement?"); err != nil {
		return err
	}
	if err := s.repo.DeleteAchievement(ctx, id); err != nil {
		s.Logger.Error().Err(err).Str("achievementID", id).Str("userID", actor.ID).Msg("Failed to delete achievement")
		return err
	}
	sess.Store.RemoveAchievement(id)
	return nil
}
