package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/parivartan/hub/internal/pkg/apperrors"
	"github.com/parivartan/hub/internal/pkg/filestorage"
	"github.com/rs/zerolog"
)

// Verdict is the outcome of a moderation check.
type Verdict int

const (
	// CheckFailed means the model could not be asked or gave no usable answer.
	CheckFailed Verdict = iota
	Safe
	Unsafe
)

func (v Verdict) String() string {
	switch v {
	case Safe:
		return "SAFE"
	case Unsafe:
		return "UNSAFE"
	default:
		return "CHECK_FAILED"
	}
}

// AllowPublication is the moderation policy: only an explicit Unsafe blocks
// content. A failed check lets the content through so an outage of the model
// never stops members from posting.
func AllowPublication(v Verdict) bool {
	return v != Unsafe
}

// ContentKind selects the writing prompt.
type ContentKind string

const (
	KindPost   ContentKind = "post"
	KindTask   ContentKind = "task"
	KindPoster ContentKind = "poster"
)

// Turn is one message of an assistant conversation.
type Turn struct {
	Role string // "user" or "model"
	Text string
}

// TextRequest is a single text completion call.
type TextRequest struct {
	System      string
	History     []Turn
	Prompt      string
	Temperature *float32
}

// ImageRequest generates a new image, or edits Source when it is set.
type ImageRequest struct {
	Prompt      string
	Source      []byte
	SourceMIME  string
	AspectRatio string
}

// Generator is the generative-content collaborator.
type Generator interface {
	Text(ctx context.Context, req TextRequest) (string, error)
	Image(ctx context.Context, req ImageRequest) ([]byte, error)
}

const assistantInstruction = "You are a helpful AI assistant for PARIVARTAN, a college NGO dedicated to teaching underprivileged students. " +
	"Be friendly, encouraging, and provide concise information about the group's activities, mission, and how to get involved. " +
	"Do not answer questions outside of this scope."

var writingPrompts = map[ContentKind]string{
	KindPost: "You are a content writer for a college NGO that teaches underprivileged students. " +
		"Write a social media post based on the following idea. Keep it positive, engaging, and under 100 words. Idea: %q",
	KindTask: "You help a college NGO plan its volunteer work. Turn the following idea into a short task description " +
		"with a clear goal and two or three concrete steps, under 80 words. Idea: %q",
	KindPoster: "You are a designer's copywriter for a college NGO that teaches underprivileged students. " +
		"Write poster content for the following event: a catchy headline, a one-line tagline, date/time/venue lines " +
		"and a short call to action, each on its own line. Details: %q",
}

const moderationPrompt = "Analyze the following text for a social platform of a college NGO. " +
	"Is it vulgar, abusive, hateful, or inappropriate? Respond with only one word: 'SAFE' or 'UNSAFE'. Text: %q"

// Bridge wraps the generator with the app's prompts and failure policy.
// A Bridge without a generator reports every feature as unavailable.
type Bridge struct {
	gen    Generator
	images filestorage.ImageStore
	logger zerolog.Logger
}

// NewBridge creates a Bridge. gen may be nil when no API key is configured.
func NewBridge(gen Generator, images filestorage.ImageStore, logger zerolog.Logger) *Bridge {
	return &Bridge{gen: gen, images: images, logger: logger}
}

// Enabled reports whether a generator is configured.
func (b *Bridge) Enabled() bool {
	return b != nil && b.gen != nil
}

func unavailable(msg string, cause error) error {
	e := apperrors.NewCustomError(apperrors.ErrAIUnavailable, msg)
	e.Cause = cause
	return e
}

// GenerateText writes content of the given kind from a short idea.
func (b *Bridge) GenerateText(ctx context.Context, kind ContentKind, idea string) (string, error) {
	tmpl, ok := writingPrompts[kind]
	if !ok {
		return "", apperrors.NewValidationError("kind", fmt.Sprintf("unknown content kind %q", kind))
	}
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return "", apperrors.NewValidationError("prompt", "prompt is required")
	}
	if !b.Enabled() {
		return "", unavailable("AI service is unavailable. Please configure the API key.", nil)
	}

	text, err := b.gen.Text(ctx, TextRequest{Prompt: fmt.Sprintf(tmpl, idea)})
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty response")
	}
	if err != nil {
		b.logger.Error().Err(err).Str("kind", string(kind)).Msg("Error generating content")
		return "", unavailable("An error occurred while generating content. Please try again.", err)
	}
	return strings.TrimSpace(text), nil
}

// GenerateImage creates an image (or edits source when given) and stores it,
// returning the public reference.
func (b *Bridge) GenerateImage(ctx context.Context, prompt string, source []byte, aspectRatio string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", apperrors.NewValidationError("prompt", "prompt is required")
	}
	req := ImageRequest{Prompt: prompt, AspectRatio: aspectRatio}
	if len(source) > 0 {
		mime := http.DetectContentType(source)
		if !strings.HasPrefix(mime, "image/") {
			return "", apperrors.NewValidationError("sourceImage", "The source image is not a supported image")
		}
		req.Source = source
		req.SourceMIME = mime
	}
	if !b.Enabled() {
		return "", unavailable("AI service is unavailable. Please configure the API key.", nil)
	}

	data, err := b.gen.Image(ctx, req)
	if err == nil && len(data) == 0 {
		err = errors.New("no image returned")
	}
	if err != nil {
		b.logger.Error().Err(err).Bool("edit", len(source) > 0).Msg("Error generating image")
		return "", unavailable("Failed to generate image. Please try a different prompt.", err)
	}

	ref, err := b.images.SaveImage(ctx, data, "ai")
	if err != nil {
		b.logger.Error().Err(err).Msg("Error storing generated image")
		return "", unavailable("The image was generated but could not be saved. Please try again.", err)
	}
	return ref, nil
}

// Moderate classifies text. It never returns an error: any failure is
// reported as CheckFailed and left to AllowPublication.
func (b *Bridge) Moderate(ctx context.Context, text string) Verdict {
	if !b.Enabled() {
		return CheckFailed
	}
	var zero float32
	answer, err := b.gen.Text(ctx, TextRequest{
		Prompt:      fmt.Sprintf(moderationPrompt, text),
		Temperature: &zero,
	})
	if err != nil {
		b.logger.Warn().Err(err).Msg("Moderation check failed")
		return CheckFailed
	}
	switch strings.Trim(strings.ToUpper(strings.TrimSpace(answer)), "'\".") {
	case "SAFE":
		return Safe
	case "UNSAFE":
		return Unsafe
	default:
		b.logger.Warn().Str("answer", answer).Msg("Unexpected moderation answer")
		return CheckFailed
	}
}

// AssistantReply answers a help-bot message given the prior conversation.
func (b *Bridge) AssistantReply(ctx context.Context, history []Turn, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperrors.NewValidationError("message", "message is required")
	}
	if !b.Enabled() {
		return "", unavailable("AI service is unavailable. Please configure the API key.", nil)
	}
	reply, err := b.gen.Text(ctx, TextRequest{
		System:  assistantInstruction,
		History: history,
		Prompt:  message,
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("Error getting assistant response")
		return "", unavailable("I'm sorry, I'm having a little trouble right now. Please try asking again in a moment.", err)
	}
	return strings.TrimSpace(reply), nil
}
