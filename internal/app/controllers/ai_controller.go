package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parivartan/hub/internal/app/models/dto"
	"github.com/parivartan/hub/internal/app/services"
	"github.com/parivartan/hub/internal/middleware"
	"github.com/parivartan/hub/internal/pkg/genai"
)

// AIController exposes the content generation helpers.
type AIController struct {
	ai services.AIService
}

// NewAIController creates a new AIController
func NewAIController(ai services.AIService) *AIController {
	return &AIController{ai: ai}
}

func (c *AIController) GenerateText(ctx *gin.Context) {
	var req dto.GenerateTextRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	text, err := c.ai.GenerateText(ctx.Request.Context(), middleware.SessionFrom(ctx), req.Kind, req.Prompt)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, dto.GeneratedTextResponse{Text: text}, "")
}

func (c *AIController) GenerateImage(ctx *gin.Context) {
	var req dto.GenerateImageRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	url, err := c.ai.GenerateImage(ctx.Request.Context(), middleware.SessionFrom(ctx), req.Prompt, req.SourceImage)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, dto.GeneratedImageResponse{ImageURL: url}, "")
}

func (c *AIController) Moderate(ctx *gin.Context) {
	var req dto.ModerateRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	verdict, err := c.ai.Moderate(ctx.Request.Context(), middleware.SessionFrom(ctx), req.Text)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, dto.ModerationResponse{
		Verdict: verdict.String(),
		Allowed: genai.AllowPublication(verdict),
	}, "")
}

// Assistant answers a chat turn of the help assistant.
func (c *AIController) Assistant(ctx *gin.Context) {
	var req dto.AssistantRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	history := make([]genai.Turn, 0, len(req.History))
	for _, t := range req.History {
		history = append(history, genai.Turn{Role: t.Role, Text: t.Text})
	}
	reply, err := c.ai.Assistant(ctx.Request.Context(), middleware.SessionFrom(ctx), history, req.Message)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, dto.GeneratedTextResponse{Text: reply}, "")
}
