package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/models/dto"
	"github.com/parivartan/hub/internal/app/session"
	"github.com/parivartan/hub/internal/app/store"
	"github.com/parivartan/hub/internal/app/views"
	"github.com/parivartan/hub/internal/middleware"
	"github.com/rs/zerolog"
)

// Reloader repeats the bulk load of a session.
type Reloader interface {
	Reload(ctx context.Context, s *session.Session) (*store.LoadReport, error)
}

// ReadMarker moves notifications to read.
type ReadMarker interface {
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// SyncController exposes the session's store and notification center.
type SyncController struct {
	sessions      Reloader
	notifications ReadMarker
	logger        zerolog.Logger
}

// NewSyncController creates a new SyncController
func NewSyncController(sessions Reloader, notifications ReadMarker, logger zerolog.Logger) *SyncController {
	return &SyncController{sessions: sessions, notifications: notifications, logger: logger}
}

func snapshotResponse(sess *session.Session) dto.SnapshotResponse {
	snap := sess.Store.Snapshot()
	resp := dto.SnapshotResponse{
		Snapshot:      snap,
		UnreadChat:    views.UnreadChatCount(snap.Chat, sess.UserID),
		UnreadNotices: sess.Notifications.Unread(),
	}
	if report := sess.LoadReport(); report != nil {
		resp.FailedCollections = report.FailedCollections()
	}
	return resp
}

// Snapshot returns every collection of the session's store.
func (c *SyncController) Snapshot(ctx *gin.Context) {
	respond(ctx, http.StatusOK, snapshotResponse(middleware.SessionFrom(ctx)), "")
}

// Reload repeats the bulk load and returns the new snapshot.
func (c *SyncController) Reload(ctx *gin.Context) {
	sess := middleware.SessionFrom(ctx)
	if _, err := c.sessions.Reload(ctx.Request.Context(), sess); err != nil {
		c.logger.Error().Err(err).Str("userID", sess.UserID).Msg("Reload failed")
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, snapshotResponse(sess), "")
}

func (c *SyncController) Notifications(ctx *gin.Context) {
	center := middleware.SessionFrom(ctx).Notifications
	respond(ctx, http.StatusOK, dto.NotificationsResponse{
		Items:  center.List(),
		Unread: center.Unread(),
	}, "")
}

func (c *SyncController) MarkNotificationRead(ctx *gin.Context) {
	sess := middleware.SessionFrom(ctx)
	if err := c.notifications.MarkRead(ctx.Request.Context(), sess.UserID, ctx.Param("id")); err != nil {
		c.logger.Error().Err(err).Str("userID", sess.UserID).Msg("Failed to mark notification read")
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, nil, "")
}

func (c *SyncController) MarkAllNotificationsRead(ctx *gin.Context) {
	sess := middleware.SessionFrom(ctx)
	if err := c.notifications.MarkAllRead(ctx.Request.Context(), sess.UserID); err != nil {
		c.logger.Error().Err(err).Str("userID", sess.UserID).Msg("Failed to mark notifications read")
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, nil, "")
}

// BadgeCatalog lists every badge that can be earned.
func (c *SyncController) BadgeCatalog(ctx *gin.Context) {
	respond(ctx, http.StatusOK, models.BadgeCatalog, "")
}
