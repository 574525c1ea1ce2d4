package services

import (
	"context"
	"strings"

	"github.com/parivartan/hub/internal/app/auth"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/session"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	"github.com/parivartan/hub/internal/pkg/filestorage"
	"github.com/parivartan/hub/internal/pkg/genai"
)

// ContentBridge is the generative-content collaborator.
type ContentBridge interface {
	GenerateText(ctx context.Context, kind genai.ContentKind, idea string) (string, error)
	GenerateImage(ctx context.Context, prompt string, source []byte, aspectRatio string) (string, error)
	Moderate(ctx context.Context, text string) genai.Verdict
	AssistantReply(ctx context.Context, history []genai.Turn, message string) (string, error)
}

// AIService exposes the content helpers to members. Nothing here touches
// the store: the results fill forms the member still has to submit.
type AIService interface {
	GenerateText(ctx context.Context, sess *session.Session, kind, prompt string) (string, error)
	// GenerateImage returns the public reference of the stored image.
	// sourceImage is an optional data URL to edit instead of generating.
	GenerateImage(ctx context.Context, sess *session.Session, prompt, sourceImage string) (string, error)
	Moderate(ctx context.Context, sess *session.Session, text string) (genai.Verdict, error)
	Assistant(ctx context.Context, sess *session.Session, history []genai.Turn, message string) (string, error)
}

type aiServiceImpl struct {
	bridge ContentBridge
	Deps
}

// NewAIService creates an AIService.
func NewAIService(bridge ContentBridge, deps Deps) AIService {
	return &aiServiceImpl{bridge: bridge, Deps: deps}
}

func (s *aiServiceImpl) GenerateText(ctx context.Context, sess *session.Session, kind, prompt string) (string, error) {
	if err := auth.Authorize(actorOf(sess), models.CapUseAI); err != nil {
		return "", err
	}
	return s.bridge.GenerateText(ctx, genai.ContentKind(strings.ToLower(strings.TrimSpace(kind))), prompt)
}

func (s *aiServiceImpl) GenerateImage(ctx context.Context, sess *session.Session, prompt, sourceImage string) (string, error) {
	if err := auth.Authorize(actorOf(sess), models.CapUseAI); err != nil {
		return "", err
	}
	var source []byte
	if strings.TrimSpace(sourceImage) != "" {
		data, err := filestorage.DecodeDataURL(sourceImage)
		if err != nil {
			return "", apperrors.NewValidationError("sourceImage", "The source image could not be read")
		}
		source = data
	}
	return s.bridge.GenerateImage(ctx, prompt, source, "1:1")
}

func (s *aiServiceImpl) Moderate(ctx context.Context, sess *session.Session, text string) (genai.Verdict, error) {
	if err := auth.Authorize(actorOf(sess), models.CapUseAI); err != nil {
		return genai.CheckFailed, err
	}
	return s.bridge.Moderate(ctx, text), nil
}

func (s *aiServiceImpl) Assistant(ctx context.Context, sess *session.Session, history []genai.Turn, message string) (string, error) {
	// The help bot is open to every signed-in visitor, viewers included.
	return s.bridge.AssistantReply(ctx, history, message)
}
