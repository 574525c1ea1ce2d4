package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parivartan/hub/internal/app/models/dto"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	jwtauth "github.com/parivartan/hub/internal/pkg/auth"
)

const genericBackendMessage = "Something went wrong while talking to the server. Please try again."

type errorMapping struct {
	kinds   []error
	status  int
	code    dto.ErrorCode
	message string // used when the error carries no message of its own
}

// errorTable is checked in order; the first matching kind wins.
var errorTable = []errorMapping{
	{[]error{apperrors.ErrSchemaMissing}, http.StatusServiceUnavailable, dto.ErrorCodeSetupRequired, "The database is not set up yet. Run the migrations and reload."},
	{[]error{apperrors.ErrValidationFailed, apperrors.ErrBadRequest, apperrors.ErrInvalidEmail, apperrors.ErrInvalidPassword}, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{[]error{apperrors.ErrInvalidEmailToken, apperrors.ErrInvalidPasswordResetToken}, http.StatusBadRequest, dto.ErrorCodeInvalidToken, "The link is invalid or has expired"},
	{[]error{apperrors.ErrInvalidCredentials}, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Incorrect email or password"},
	{[]error{jwtauth.ErrExpiredToken}, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{[]error{apperrors.ErrTokenInvalid, apperrors.ErrTokenRevoked, apperrors.ErrInvalidFormat, jwtauth.ErrInvalidToken, jwtauth.ErrInvalidFormat}, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{[]error{apperrors.ErrUnauthenticated}, http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "Authentication required"},
	{[]error{apperrors.ErrEmailNotVerified}, http.StatusForbidden, dto.ErrorCodeEmailNotVerified, "Please confirm your email address first"},
	{[]error{apperrors.ErrProfileIncomplete}, http.StatusForbidden, dto.ErrorCodeProfileIncomplete, "Complete your profile to continue"},
	{[]error{apperrors.ErrPermissionDenied}, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},
	{[]error{apperrors.ErrResourceNotFound, apperrors.ErrUserNotFound}, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},
	{[]error{apperrors.ErrNotConfirmed}, http.StatusConflict, dto.ErrorCodeNotConfirmed, "Please confirm this operation"},
	{[]error{apperrors.ErrResourceAlreadyExists, apperrors.ErrEmailAlreadyExists, apperrors.ErrHandleTaken, apperrors.ErrEmailAlreadyVerified}, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"},
	{[]error{apperrors.ErrConflict}, http.StatusConflict, dto.ErrorCodeConflict, "Conflict"},
	{[]error{apperrors.ErrContentRejected}, http.StatusUnprocessableEntity, dto.ErrorCodeResourceInvalid, "Content violates community guidelines"},
	{[]error{apperrors.ErrAIUnavailable}, http.StatusServiceUnavailable, dto.ErrorCodeAIUnavailable, "The AI assistant is unavailable right now. Please try again."},
}

// ErrorStatus returns the HTTP status, error code and user-facing message
// for err.
func ErrorStatus(err error) (int, *dto.ErrorDetail) {
	for _, m := range errorTable {
		if !apperrors.Is(err, m.kinds[0], m.kinds[1:]...) {
			continue
		}
		detail := dto.NewErrorDetail(m.code, messageOf(err, m.message))
		var ce *apperrors.CustomError
		if errors.As(err, &ce) {
			if field, ok := ce.Details["field"].(string); ok {
				detail = detail.WithField(field)
			}
		}
		return m.status, detail.WithSeverity(severityOf(m.status, err))
	}
	if errors.Is(err, apperrors.ErrBackend) {
		return http.StatusBadGateway, dto.NewErrorDetail(dto.ErrorCodeExternalServiceError, genericBackendMessage).
			WithSeverity(dto.ErrorSeverityCritical)
	}
	return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").
		WithSeverity(dto.ErrorSeverityCritical)
}

// severityOf tells clients how to present an error: a confirmation prompt
// is informational, input the user can fix is a warning.
func severityOf(status int, err error) dto.ErrorSeverity {
	switch {
	case status >= http.StatusInternalServerError:
		return dto.ErrorSeverityCritical
	case errors.Is(err, apperrors.ErrNotConfirmed):
		return dto.ErrorSeverityInfo
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity, status == http.StatusRequestEntityTooLarge:
		return dto.ErrorSeverityWarning
	default:
		return dto.ErrorSeverityError
	}
}

func messageOf(err error, fallback string) string {
	var ce *apperrors.CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return fallback
}

// HandleAPIError writes the error response for err.
func HandleAPIError(c *gin.Context, err error) {
	status, detail := ErrorStatus(err)
	c.JSON(status, dto.NewErrorResponse(detail))
}

// AbortWithAPIError writes the error response for err and stops the chain.
func AbortWithAPIError(c *gin.Context, err error) {
	status, detail := ErrorStatus(err)
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}
