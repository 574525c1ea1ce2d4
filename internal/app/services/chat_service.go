package services

import (
	"context"
	"strings"

	"github.com/parivartan/hub/internal/app/auth"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/session"
	"github.com/parivartan/hub/internal/pkg/apperrors"
)

// ChatRepository persists group chat messages.
type ChatRepository interface {
	Create(ctx context.Context, msg *models.ChatMessage) (*models.ChatMessage, error)
	MarkRead(ctx context.Context, userID string, ids []string) ([]models.ChatMessage, error)
}

// ChatService handles the group chat.
type ChatService interface {
	// SendMessage stores a message with text, an image or both and
	// publishes it to the other sessions.
	SendMessage(ctx context.Context, sess *session.Session, content, image string) (*models.ChatMessage, error)
	// MarkRead adds the actor to the read set of every unread message.
	MarkRead(ctx context.Context, sess *session.Session) (int, error)
}

type chatServiceImpl struct {
	repo ChatRepository
	feed Publisher
	Deps
}

// NewChatService creates a ChatService. feed may be nil.
func NewChatService(repo ChatRepository, feed Publisher, deps Deps) ChatService {
	return &chatServiceImpl{repo: repo, feed: feed, Deps: deps}
}

func (s *chatServiceImpl) SendMessage(ctx context.Context, sess *session.Session, content, image string) (*models.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" && strings.TrimSpace(image) == "" {
		return nil, apperrors.NewValidationError("content", "A message needs text or an image")
	}
	actor := actorOf(sess)
	if err := auth.Authorize(actor, models.CapSendChat); err != nil {
		return nil, err
	}
	imageURL, err := resolveImage(ctx, s.Images, image, "", "chat")
	if err != nil {
		return nil, err
	}

	msg, err := s.repo.Create(ctx, &models.ChatMessage{UserID: actor.ID, Content: content, ImageURL: imageURL})
	if err != nil {
		s.Logger.Error().Err(err).Str("userID", actor.ID).Msg("Failed to send chat message")
		return nil, err
	}

	sess.Store.AppendChat(*msg)
	if s.feed != nil {
		if err := s.feed.Publish(ctx, *msg); err != nil {
			// Stored already; the others see it on their next load.
			s.Logger.Warn().Err(err).Str("messageID", msg.ID).Msg("Failed to publish chat message")
		}
	}
	return msg, nil
}

func (s *chatServiceImpl) MarkRead(ctx context.Context, sess *session.Session) (int, error) {
	actor := actorOf(sess)
	ids := sess.Store.UnreadChatIDs(actor.ID)
	if len(ids) == 0 {
		return 0, nil
	}
	updated, err := s.repo.MarkRead(ctx, actor.ID, ids)
	if err != nil {
		s.Logger.Error().Err(err).Str("userID", actor.ID).Int("messages", len(ids)).Msg("Failed to mark chat read")
		return 0, err
	}
	for _, m := range updated {
		sess.Store.UpsertChat(m)
	}
	return len(updated), nil
}
