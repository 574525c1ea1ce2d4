package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/parivartan/hub/internal/app/auth"
	"github.com/parivartan/hub/internal/app/models/dto"
	"github.com/parivartan/hub/internal/app/session"
	"github.com/parivartan/hub/internal/middleware"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	"github.com/parivartan/hub/internal/pkg/filestorage"
	"github.com/parivartan/hub/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// AuthController handles authentication related operations
type AuthController struct {
	authService *auth.Service
	images      filestorage.ImageStore
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService *auth.Service, images filestorage.ImageStore, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		images:      images,
		logger:      logger,
	}
}

// SignUp creates an account pending email confirmation.
func (c *AuthController) SignUp(ctx *gin.Context) {
	var req dto.SignUpRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.authService.SignUp(ctx.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		c.logger.Warn().Err(err).Str("email", req.Email).Msg("Sign up failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	respond(ctx, http.StatusCreated, dto.SignUpResponse{
		UserID:              user.ID,
		PendingConfirmation: true,
		ConfirmationEmailTo: user.Email,
	}, "Check your email to confirm your account")
}

func (c *AuthController) ConfirmEmail(ctx *gin.Context) {
	var req dto.ConfirmEmailRequest
	if token := ctx.Query("token"); token != "" {
		req.Token = token
	} else if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.authService.ConfirmEmail(ctx.Request.Context(), req.Token); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, nil, "Email confirmed. You can sign in now")
}

// Login handles user login
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	signed, err := c.authService.SignIn(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondSignedIn(ctx, signed)
}

// GuestLogin signs in a read-only viewer without an account.
func (c *AuthController) GuestLogin(ctx *gin.Context) {
	signed, err := c.authService.SignInGuest(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondSignedIn(ctx, signed)
}

func respondSignedIn(ctx *gin.Context, signed *auth.Session) {
	respond(ctx, http.StatusOK, dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: signed.Token.AccessToken,
			TokenType:   "Bearer",
			ExpiresIn:   signed.Token.ExpiresIn,
		},
		User:         signed.User,
		SessionState: session.Evaluate(signed.User).String(),
	}, "")
}

// Logout revokes the current token and ends the session.
func (c *AuthController) Logout(ctx *gin.Context) {
	if err := c.authService.SignOut(ctx.Request.Context(), middleware.ClaimsFrom(ctx)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to sign out")
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, nil, "Signed out")
}

// ForgotPassword always answers success so it cannot reveal which
// accounts exist.
func (c *AuthController) ForgotPassword(ctx *gin.Context) {
	var req dto.ForgotPasswordRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	_ = c.authService.RequestPasswordReset(ctx.Request.Context(), req.Email)
	respond(ctx, http.StatusOK, nil, "If the address is registered, a reset link is on its way")
}

func (c *AuthController) ResetPassword(ctx *gin.Context) {
	var req dto.ResetPasswordRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	if err := c.authService.ResetPassword(ctx.Request.Context(), req.Token, req.NewPassword); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, nil, "Password updated")
}

// Me returns the signed-in user and the gate state.
func (c *AuthController) Me(ctx *gin.Context) {
	user := middleware.UserFrom(ctx)
	respond(ctx, http.StatusOK, gin.H{
		"user":         user,
		"sessionState": session.Evaluate(user).String(),
	}, "")
}

// UpdateMyProfile edits the signed-in user's profile. It is open to
// incomplete profiles so the gate can be passed.
func (c *AuthController) UpdateMyProfile(ctx *gin.Context) {
	var req dto.UpdateProfileRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	user := middleware.UserFrom(ctx)
	if user.IsGuest() {
		middleware.HandleAPIError(ctx, apperrors.NewCustomError(apperrors.ErrPermissionDenied, "Guests cannot edit a profile"))
		return
	}

	patch := req.Patch()
	if req.Avatar != nil && strings.TrimSpace(*req.Avatar) != "" {
		url, err := filestorage.ResolveImage(ctx.Request.Context(), c.images, *req.Avatar, helpers.Deref(user.AvatarURL), "avatars")
		if err != nil {
			c.logger.Warn().Err(err).Str("userID", user.ID).Msg("Failed to store avatar")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "The image could not be processed").WithField("avatar")))
			return
		}
		patch.AvatarURL = &url
	}

	updated, err := c.authService.UpdateOwnProfile(ctx.Request.Context(), user.ID, patch)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, gin.H{
		"user":         updated,
		"sessionState": session.Evaluate(updated).String(),
	}, "Profile updated")
}
