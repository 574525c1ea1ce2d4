package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/models/dto"
	"github.com/parivartan/hub/internal/app/session"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	jwtauth "github.com/parivartan/hub/internal/pkg/auth"
	"github.com/parivartan/hub/internal/pkg/revocation"
	"github.com/rs/zerolog"
)

// Context keys set by the auth chain.
const (
	ContextClaims  = "claims"
	ContextUser    = "user"
	ContextState   = "gateState"
	ContextSession = "session"
)

// UserLoader reads the signed-in user on every request.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// SessionOpener hands out the live session of a user.
type SessionOpener interface {
	Open(user models.User) *session.Session
}

// AuthMiddleware authenticates requests and applies the Session Gate.
type AuthMiddleware struct {
	jwtService *jwtauth.JWTService
	deny       revocation.DenyList
	users      UserLoader
	sessions   SessionOpener
	logger     zerolog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *jwtauth.JWTService, deny revocation.DenyList, users UserLoader, sessions SessionOpener, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		deny:       deny,
		users:      users,
		sessions:   sessions,
		logger:     logger,
	}
}

func tokenFrom(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		// Browsers cannot set headers on websocket upgrades.
		return strings.TrimSpace(c.Query("token"))
	}
	token, err := jwtauth.ExtractBearerToken(strings.Trim(header, "\"'"))
	if err != nil {
		return ""
	}
	return token
}

// JWTAuth validates the access token, rejects signed-out tokens and loads the
// user record. Guest tokens carry their viewer identity instead. The gate
// state is stored for RequireState.
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFrom(c)
		if token == "" {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			errorDetail = errorDetail.WithDetails("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		claims, err := m.jwtService.ValidateToken(token)
		if err != nil {
			AbortWithAPIError(c, err)
			return
		}

		if m.deny != nil {
			revoked, err := m.deny.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				m.logger.Error().Err(err).Str("userID", claims.UserID).Msg("Failed to check token revocation")
				AbortWithAPIError(c, apperrors.NewBackendError("Failed to check session", err))
				return
			}
			if revoked {
				AbortWithAPIError(c, apperrors.NewCustomError(apperrors.ErrTokenRevoked, "You have been signed out"))
				return
			}
		}

		var user *models.User
		if claims.Guest {
			if !strings.HasPrefix(claims.UserID, models.GuestIDPrefix) {
				AbortWithAPIError(c, jwtauth.ErrInvalidToken)
				return
			}
			// Guests have no users row; the token is the whole identity.
			user = models.NewGuest(claims.UserID)
		} else if user, err = m.users.GetByID(c.Request.Context(), claims.UserID); err != nil {
			if errors.Is(err, apperrors.ErrResourceNotFound) || errors.Is(err, apperrors.ErrUserNotFound) {
				AbortWithAPIError(c, apperrors.NewCustomError(apperrors.ErrUnauthenticated, "Your account no longer exists"))
				return
			}
			m.logger.Error().Err(err).Str("userID", claims.UserID).Msg("Failed to load signed-in user")
			AbortWithAPIError(c, err)
			return
		}

		c.Set(ContextClaims, claims)
		c.Set(ContextUser, user)
		c.Set(ContextState, session.Evaluate(user))
		c.Next()
	}
}

// RequireState lets the request through only in one of the given gate
// states.
func (m *AuthMiddleware) RequireState(allowed ...session.State) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := session.Unauthenticated
		if v, ok := c.Get(ContextState); ok {
			state = v.(session.State)
		}
		for _, s := range allowed {
			if s == state {
				c.Next()
				return
			}
		}
		if state == session.ProfileIncomplete {
			AbortWithAPIError(c, apperrors.NewCustomError(apperrors.ErrProfileIncomplete, "Choose a name and a handle to continue"))
			return
		}
		AbortWithAPIError(c, apperrors.ErrUnauthenticated)
	}
}

// Session opens the user's live session and waits for its initial load.
// A store that reported missing tables answers 503 SETUP_REQUIRED.
func (m *AuthMiddleware) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := UserFrom(c)
		if user == nil {
			AbortWithAPIError(c, apperrors.ErrUnauthenticated)
			return
		}

		sess := m.sessions.Open(*user)
		if err := sess.Wait(c.Request.Context()); err != nil {
			m.logger.Warn().Err(err).Str("userID", user.ID).Msg("Session load failed")
			AbortWithAPIError(c, err)
			return
		}
		if sess.Store.SetupNeeded() {
			AbortWithAPIError(c, apperrors.ErrSchemaMissing)
			return
		}

		c.Set(ContextSession, sess)
		c.Next()
	}
}

// Serialize runs mutating requests of one session one at a time, in arrival
// order.
func Serialize() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		sess := SessionFrom(c)
		if sess == nil {
			c.Next()
			return
		}
		release := sess.Serialize()
		defer release()
		c.Next()
	}
}

// ClaimsFrom returns the validated token claims.
func ClaimsFrom(c *gin.Context) *jwtauth.Claims {
	if v, ok := c.Get(ContextClaims); ok {
		return v.(*jwtauth.Claims)
	}
	return nil
}

// UserFrom returns the signed-in user as read at the start of the request.
func UserFrom(c *gin.Context) *models.User {
	if v, ok := c.Get(ContextUser); ok {
		return v.(*models.User)
	}
	return nil
}

// SessionFrom returns the live session.
func SessionFrom(c *gin.Context) *session.Session {
	if v, ok := c.Get(ContextSession); ok {
		return v.(*session.Session)
	}
	return nil
}
