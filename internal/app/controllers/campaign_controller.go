package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parivartan/hub/internal/app/models/dto"
	"github.com/parivartan/hub/internal/app/services"
	"github.com/parivartan/hub/internal/app/views"
	"github.com/parivartan/hub/internal/middleware"
)

// CampaignController serves donation drives.
type CampaignController struct {
	campaigns services.CampaignService
}

// NewCampaignController creates a new CampaignController
func NewCampaignController(campaigns services.CampaignService) *CampaignController {
	return &CampaignController{campaigns: campaigns}
}

func (c *CampaignController) ListCampaigns(ctx *gin.Context) {
	snap := middleware.SessionFrom(ctx).Store.Snapshot()
	items := make([]dto.CampaignItem, 0, len(snap.Campaigns))
	for _, campaign := range snap.Campaigns {
		items = append(items, dto.CampaignItem{
			Campaign: campaign,
			Progress: views.CampaignProgress(campaign),
			Donors:   views.DonorsFor(snap.Donors, campaign.ID),
		})
	}
	respond(ctx, http.StatusOK, items, "")
}

func (c *CampaignController) CreateCampaign(ctx *gin.Context) {
	var req dto.CampaignRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	campaign, err := c.campaigns.CreateCampaign(ctx.Request.Context(), middleware.SessionFrom(ctx), services.CampaignInput{
		Title:       req.Title,
		Description: req.Description,
		Goal:        req.Goal,
		QRImage:     req.QRImage,
		PaymentID:   req.PaymentID,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, campaign, "")
}

func (c *CampaignController) Donate(ctx *gin.Context) {
	var req dto.DonateRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	campaign, donor, err := c.campaigns.Donate(ctx.Request.Context(), middleware.SessionFrom(ctx), ctx.Param("id"), services.DonationInput{
		Amount:    req.Amount,
		Name:      req.Name,
		Anonymous: req.Anonymous,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, dto.DonationResponse{Campaign: campaign, Donor: donor}, "Thank you for your donation")
}
