package services

import (
	"context"
	"strings"

	"github.com/parivartan/hub/internal/app/auth"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/session"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	"github.com/parivartan/hub/internal/pkg/validation"
)

// CampaignRepository persists campaigns and donations.
type CampaignRepository interface {
	Create(ctx context.Context, c *models.Campaign) (*models.Campaign, error)
	// Donate appends the donor and increments the raised total in one call.
	Donate(ctx context.Context, donor *models.Donor) (*models.Campaign, *models.Donor, error)
}

// CampaignInput is the form of a new campaign.
type CampaignInput struct {
	Title       string
	Description string
	Goal        float64
	QRImage     string
	PaymentID   string
}

// DonationInput is one donation. Name is ignored for anonymous donors.
type DonationInput struct {
	Amount    float64
	Name      string
	Anonymous bool
}

// CampaignService manages donation drives.
type CampaignService interface {
	CreateCampaign(ctx context.Context, sess *session.Session, in CampaignInput) (*models.Campaign, error)
	Donate(ctx context.Context, sess *session.Session, campaignID string, in DonationInput) (*models.Campaign, *models.Donor, error)
}

type campaignServiceImpl struct {
	repo CampaignRepository
	Deps
}

// NewCampaignService creates a CampaignService.
func NewCampaignService(repo CampaignRepository, deps Deps) CampaignService {
	return &campaignServiceImpl{repo: repo, Deps: deps}
}

func (s *campaignServiceImpl) CreateCampaign(ctx context.Context, sess *session.Session, in CampaignInput) (*models.Campaign, error) {
	title, err := validation.RequireText("title", in.Title)
	if err != nil {
		return nil, err
	}
	desc, err := validation.RequireText("description", in.Description)
	if err != nil {
		return nil, err
	}
	if err := validation.RequirePositive("goal", in.Goal); err != nil {
		return nil, err
	}
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapCreateCampaign); err != nil {
		return nil, err
	}
	qr, err := resolveImage(ctx, s.Images, in.QRImage, "", "campaigns")
	if err != nil {
		return nil, err
	}

	campaign, err := s.repo.Create(ctx, &models.Campaign{
		Title:       title,
		Description: desc,
		Goal:        in.Goal,
		QRImageURL:  qr,
		PaymentID:   strings.TrimSpace(in.PaymentID),
		CreatedBy:   actor.ID,
	})
	if err != nil {
		s.Logger.Error().Err(err).Str("userID", actor.ID).Msg("Failed to create campaign")
		return nil, err
	}
	sess.Store.UpsertCampaign(*campaign)
	return campaign, nil
}

func (s *campaignServiceImpl) Donate(ctx context.Context, sess *session.Session, campaignID string, in DonationInput) (*models.Campaign, *models.Donor, error) {
	if err := validation.RequirePositive("amount", in.Amount); err != nil {
		return nil, nil, err
	}
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapDonate); err != nil {
		return nil, nil, err
	}
	if _, ok := sess.Store.Campaign(campaignID); !ok {
		return nil, nil, apperrors.NewResourceNotFoundError("campaign not found")
	}

	donor := &models.Donor{
		CampaignID: campaignID,
		UserID:     &actor.ID,
		Anonymous:  in.Anonymous,
		Amount:     in.Amount,
	}
	if !in.Anonymous {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			name = actor.Name
		}
		donor.Name = &name
	}

	campaign, saved, err := s.repo.Donate(ctx, donor)
	if err != nil {
		s.Logger.Error().Err(err).Str("campaignID", campaignID).Str("userID", actor.ID).Msg("Failed to record donation")
		return nil, nil, err
	}
	sess.Store.RecordDonation(*campaign, *saved)
	return campaign, saved, nil
}
