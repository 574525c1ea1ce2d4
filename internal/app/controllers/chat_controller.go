package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/parivartan/hub/internal/app/models/dto"
	"github.com/parivartan/hub/internal/app/services"
	"github.com/parivartan/hub/internal/app/views"
	"github.com/parivartan/hub/internal/middleware"
	"github.com/rs/zerolog"
)

// ClientAttacher registers websocket connections for push delivery.
type ClientAttacher interface {
	Attach(conn *websocket.Conn, userID string)
}

// ChatController handles the group chat and the push channel.
type ChatController struct {
	chat     services.ChatService
	clients  ClientAttacher
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewChatController creates a new ChatController
func NewChatController(chat services.ChatService, clients ClientAttacher, upgrader websocket.Upgrader, logger zerolog.Logger) *ChatController {
	return &ChatController{
		chat:     chat,
		clients:  clients,
		upgrader: upgrader,
		logger:   logger,
	}
}

func (c *ChatController) Messages(ctx *gin.Context) {
	sess := middleware.SessionFrom(ctx)
	messages := sess.Store.Snapshot().Chat
	respond(ctx, http.StatusOK, dto.ChatResponse{
		Messages: messages,
		Unread:   views.UnreadChatCount(messages, sess.UserID),
	}, "")
}

func (c *ChatController) Send(ctx *gin.Context) {
	var req dto.ChatMessageRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	msg, err := c.chat.SendMessage(ctx.Request.Context(), middleware.SessionFrom(ctx), req.Content, req.Image)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, msg, "")
}

// MarkRead marks every unread message as read by the actor.
func (c *ChatController) MarkRead(ctx *gin.Context) {
	n, err := c.chat.MarkRead(ctx.Request.Context(), middleware.SessionFrom(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, dto.MarkReadResponse{Marked: n}, "")
}

// Connect upgrades to a websocket that receives chat inserts,
// notifications and session end events.
func (c *ChatController) Connect(ctx *gin.Context) {
	sess := middleware.SessionFrom(ctx)
	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// The upgrader has already answered.
		c.logger.Warn().Err(err).Str("userID", sess.UserID).Msg("Websocket upgrade failed")
		return
	}
	c.clients.Attach(conn, sess.UserID)
}
