package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/db"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	"github.com/parivartan/hub/internal/pkg/dberrors"
	"github.com/parivartan/hub/internal/pkg/logger"
)

const campaignReturning = "RETURNING id, title, description, goal, raised, qr_image_url, payment_id, created_by, created_at"

func scanCampaign(row pgx.Row, c *models.Campaign) error {
	return row.Scan(&c.ID, &c.Title, &c.Description, &c.Goal, &c.Raised, &c.QRImageURL, &c.PaymentID, &c.CreatedBy, &c.CreatedAt)
}

func scanDonor(row pgx.Row, d *models.Donor) error {
	return row.Scan(&d.ID, &d.CampaignID, &d.UserID, &d.Name, &d.Anonymous, &d.Amount, &d.CreatedAt)
}

// CampaignRepository handles donation campaigns and donors
type CampaignRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCampaignRepository creates a new CampaignRepository
func NewCampaignRepository(db *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{db: db, sb: newBuilder()}
}

// List returns campaigns newest first.
func (r *CampaignRepository) List(ctx context.Context) ([]models.Campaign, error) {
	query := r.sb.Select("id", "title", "description", "goal", "raised", "qr_image_url", "payment_id", "created_by", "created_at").
		From("campaigns").OrderBy("created_at DESC")
	return selectAll(ctx, r.db, query, "listing campaigns", scanCampaign)
}

func (r *CampaignRepository) Create(ctx context.Context, c *models.Campaign) (*models.Campaign, error) {
	query := r.sb.Insert("campaigns").
		Columns("title", "description", "goal", "qr_image_url", "payment_id", "created_by").
		Values(c.Title, c.Description, c.Goal, c.QRImageURL, c.PaymentID, c.CreatedBy).
		Suffix(campaignReturning)
	return queryOne(ctx, r.db, query, "creating campaign", "campaign", scanCampaign)
}

// ListDonors returns donors in creation order.
func (r *CampaignRepository) ListDonors(ctx context.Context) ([]models.Donor, error) {
	query := r.sb.Select("id", "campaign_id", "user_id", "name", "anonymous", "amount", "created_at").
		From("donors").OrderBy("created_at ASC")
	return selectAll(ctx, r.db, query, "listing donors", scanDonor)
}

// Donate appends the donor and increments the campaign's raised total in
// one transaction. The total is incremented, never recomputed from donors.
func (r *CampaignRepository) Donate(ctx context.Context, donor *models.Donor) (*models.Campaign, *models.Donor, error) {
	var campaign *models.Campaign
	var saved *models.Donor

	err := db.WithTransaction(ctx, r.db, logger.Component("repositories"), func(ctx context.Context, tx pgx.Tx) error {
		insert := r.sb.Insert("donors").
			Columns("campaign_id", "user_id", "name", "anonymous", "amount").
			Values(donor.CampaignID, donor.UserID, donor.Name, donor.Anonymous, donor.Amount).
			Suffix("RETURNING id, campaign_id, user_id, name, anonymous, amount, created_at")
		d, err := queryOne(ctx, tx, insert, "recording donation", "donor", scanDonor)
		if err != nil {
			if dberrors.IsForeignKeyViolation(err) {
				return apperrors.NewResourceNotFoundError("campaign not found")
			}
			return err
		}

		update := r.sb.Update("campaigns").
			Set("raised", squirrel.Expr("raised + ?", donor.Amount)).
			Where(squirrel.Eq{"id": donor.CampaignID}).
			Suffix(campaignReturning)
		c, err := queryOne(ctx, tx, update, "incrementing raised total", "campaign", scanCampaign)
		if err != nil {
			return err
		}

		campaign, saved = c, d
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("error donating to campaign %s: %w", donor.CampaignID, err)
	}
	return campaign, saved, nil
}
