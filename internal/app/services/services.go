// Package services holds the mutation handlers. Every handler validates its
// input, checks the actor's capability, persists through a repository and
// then patches the session's store with the record the repository returned.
// A failed handler leaves the store untouched and is not retried.
package services

import (
	"context"

	"github.com/parivartan/hub/internal/app/badges"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/session"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	"github.com/parivartan/hub/internal/pkg/filestorage"
	"github.com/parivartan/hub/internal/pkg/genai"
	"github.com/rs/zerolog"
)

// Confirmer answers the yes/no question asked before a destructive operation.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// Confirmed is a fixed answer, e.g. taken from a confirm query parameter.
type Confirmed bool

func (c Confirmed) Confirm(context.Context, string) bool {
	return bool(c)
}

func confirm(ctx context.Context, c Confirmer, prompt string) error {
	if c == nil || !c.Confirm(ctx, prompt) {
		return apperrors.NewCustomError(apperrors.ErrNotConfirmed, prompt)
	}
	return nil
}

// Moderator classifies user text before it is published.
type Moderator interface {
	Moderate(ctx context.Context, text string) genai.Verdict
}

// Publisher announces inserted chat messages to the other sessions.
type Publisher interface {
	Publish(ctx context.Context, msg models.ChatMessage) error
}

// SessionTerminator ends the live session of a user.
type SessionTerminator interface {
	End(userID, reason string)
}

// ProfileListener is told about profile and role changes so the affected
// user's session picks them up.
type ProfileListener interface {
	NotifyProfileUpdated(u *models.User)
}

// Deps are the collaborators shared by the handlers.
type Deps struct {
	Badges    *badges.Engine
	Images    filestorage.ImageStore
	Moderator Moderator
	Logger    zerolog.Logger
}

func actorOf(sess *session.Session) *models.User {
	a := sess.Actor()
	return &a
}

// moderate blocks text only on an explicit Unsafe verdict.
func moderate(ctx context.Context, m Moderator, text, what string) error {
	if m == nil {
		return nil
	}
	if !genai.AllowPublication(m.Moderate(ctx, text)) {
		return apperrors.NewCustomError(apperrors.ErrContentRejected,
			"Your "+what+" was flagged as inappropriate and could not be published. Please revise it.")
	}
	return nil
}

// resolveImage stores value for a record whose image is currently current.
// Uploads the record did not make itself are copied, so discardImage never
// removes a file another record points at.
func resolveImage(ctx context.Context, images filestorage.ImageStore, value, current, subPath string) (*string, error) {
	if images == nil && filestorage.IsDataURL(value) {
		return nil, apperrors.NewValidationError("image", "Image uploads are not available")
	}
	ref, err := filestorage.ResolveImage(ctx, images, value, current, subPath)
	if err != nil {
		return nil, apperrors.NewValidationError("image", "The image could not be processed")
	}
	if ref == "" {
		return nil, nil
	}
	return &ref, nil
}

// discardImage removes a stored image once its record is gone. References
// that storage does not own are left alone.
func discardImage(images filestorage.ImageStore, ref string, logger zerolog.Logger) {
	if images == nil || ref == "" {
		return
	}
	if err := images.DeleteFile(ref); err != nil {
		logger.Debug().Err(err).Str("image", ref).Msg("Stored image not removed")
	}
}

// Services groups every handler for the composition root.
type Services struct {
	Posts         PostService
	Announcements AnnouncementService
	Events        EventService
	Campaigns     CampaignService
	Chat          ChatService
	Tasks         TaskService
	Homepage      HomepageService
	Members       MemberService
	AI            AIService
}
