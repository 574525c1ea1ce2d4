package dto

import "github.com/parivartan/hub/internal/app/models"

// SignUpRequest creates an account pending email confirmation.
type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents login credentials. Email also accepts a handle.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ConfirmEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType" example:"Bearer"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// SignUpResponse reports the pending-confirmation state.
type SignUpResponse struct {
	UserID              string `json:"userId"`
	PendingConfirmation bool   `json:"pendingConfirmation"`
	ConfirmationEmailTo string `json:"confirmationEmailTo"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token        TokenResponse `json:"token"`
	User         *models.User  `json:"user"`
	SessionState string        `json:"sessionState"`
}
