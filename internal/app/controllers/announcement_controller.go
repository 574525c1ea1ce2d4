package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/models/dto"
	"github.com/parivartan/hub/internal/app/services"
	"github.com/parivartan/hub/internal/app/views"
	"github.com/parivartan/hub/internal/middleware"
)

// AnnouncementController serves announcements and achievements.
type AnnouncementController struct {
	announcements services.AnnouncementService
}

// NewAnnouncementController creates a new AnnouncementController
func NewAnnouncementController(announcements services.AnnouncementService) *AnnouncementController {
	return &AnnouncementController{announcements: announcements}
}

func (c *AnnouncementController) ListAnnouncements(ctx *gin.Context) {
	sess := middleware.SessionFrom(ctx)
	actor := sess.Actor()
	found := views.SearchAnnouncements(sess.Store.Snapshot().Announcements, ctx.Query("q"))
	items := make([]dto.ContentItem, 0, len(found))
	for _, a := range found {
		items = append(items, dto.ContentItem{
			Item:     a,
			Controls: views.Controls(&actor, a.AuthorID, models.CapCreateAnnouncement, models.CapDeleteAnyContent),
		})
	}
	respond(ctx, http.StatusOK, items, "")
}

func (c *AnnouncementController) CreateAnnouncement(ctx *gin.Context) {
	var req dto.AnnouncementRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	a, err := c.announcements.CreateAnnouncement(ctx.Request.Context(), middleware.SessionFrom(ctx), services.AnnouncementInput{
		Title:   req.Title,
		Content: req.Content,
		Image:   req.Image,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, a, "")
}

func (c *AnnouncementController) UpdateAnnouncement(ctx *gin.Context) {
	var req dto.AnnouncementRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	a, err := c.announcements.UpdateAnnouncement(ctx.Request.Context(), middleware.SessionFrom(ctx), ctx.Param("id"), services.AnnouncementInput{
		Title:   req.Title,
		Content: req.Content,
		Image:   req.Image,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, a, "")
}

func (c *AnnouncementController) DeleteAnnouncement(ctx *gin.Context) {
	if err := c.announcements.DeleteAnnouncement(ctx.Request.Context(), middleware.SessionFrom(ctx), ctx.Param("id"), confirmFrom(ctx)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, nil, "Announcement deleted")
}

func (c *AnnouncementController) ListAchievements(ctx *gin.Context) {
	sess := middleware.SessionFrom(ctx)
	actor := sess.Actor()
	found := views.SearchAchievements(sess.Store.Snapshot().Achievements, ctx.Query("q"))
	items := make([]dto.ContentItem, 0, len(found))
	for _, a := range found {
		items = append(items, dto.ContentItem{
			Item:     a,
			Controls: views.Controls(&actor, a.AuthorID, models.CapCreateAchievement, models.CapDeleteAnyContent),
		})
	}
	respond(ctx, http.StatusOK, items, "")
}

func (c *AnnouncementController) CreateAchievement(ctx *gin.Context) {
	var req dto.AchievementRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	a, err := c.announcements.CreateAchievement(ctx.Request.Context(), middleware.SessionFrom(ctx), achievementInput(req))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, a, "")
}

func (c *AnnouncementController) UpdateAchievement(ctx *gin.Context) {
	var req dto.AchievementRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	a, err := c.announcements.UpdateAchievement(ctx.Request.Context(), middleware.SessionFrom(ctx), ctx.Param("id"), achievementInput(req))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, a, "")
}

func (c *AnnouncementController) DeleteAchievement(ctx *gin.Context) {
	if err := c.announcements.DeleteAchievement(ctx.Request.Context(), middleware.SessionFrom(ctx), ctx.Param("id"), confirmFrom(ctx)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, nil, "Achievement deleted")
}

func achievementInput(req dto.AchievementRequest) services.AchievementInput {
	return services.AchievementInput{
		Title:       req.Title,
		Description: req.Description,
		Image:       req.Image,
		Date:        req.Date,
	}
}
