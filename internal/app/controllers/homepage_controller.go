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

// HomepageController serves the slideshow and the popup.
type HomepageController struct {
	homepage services.HomepageService
}

// NewHomepageController creates a new HomepageController
func NewHomepageController(homepage services.HomepageService) *HomepageController {
	return &HomepageController{homepage: homepage}
}

func (c *HomepageController) Homepage(ctx *gin.Context) {
	sess := middleware.SessionFrom(ctx)
	actor := sess.Actor()
	snap := sess.Store.Snapshot()
	slides := make([]dto.ContentItem, 0, len(snap.Slideshow))
	for _, s := range snap.Slideshow {
		slides = append(slides, dto.ContentItem{
			Item:     s,
			Controls: views.Controls(&actor, s.CreatedBy, models.CapManageHomepage, models.CapManageHomepage),
		})
	}
	respond(ctx, http.StatusOK, gin.H{"slides": slides, "popup": snap.Popup}, "")
}

func (c *HomepageController) AddSlide(ctx *gin.Context) {
	var req dto.SlideshowRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	slide, err := c.homepage.AddSlide(ctx.Request.Context(), middleware.SessionFrom(ctx), req.Image, req.Caption, req.Link)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, slide, "")
}

func (c *HomepageController) DeleteSlide(ctx *gin.Context) {
	if err := c.homepage.DeleteSlide(ctx.Request.Context(), middleware.SessionFrom(ctx), ctx.Param("id"), confirmFrom(ctx)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, nil, "Slide deleted")
}

// SetPopup replaces the popup.
func (c *HomepageController) SetPopup(ctx *gin.Context) {
	var req dto.PopupRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	popup, err := c.homepage.SetPopup(ctx.Request.Context(), middleware.SessionFrom(ctx), req.Title, req.Content, req.Image)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, popup, "")
}

func (c *HomepageController) DeletePopup(ctx *gin.Context) {
	if err := c.homepage.DeletePopup(ctx.Request.Context(), middleware.SessionFrom(ctx), confirmFrom(ctx)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, nil, "Popup removed")
}
