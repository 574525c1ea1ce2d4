package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parivartan/hub/internal/app/models/dto"
)

// BodyLimit caps request bodies at maxBytes. Declared oversize bodies are
// refused up front; the rest fail while being read.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(payloadTooLarge()))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func payloadTooLarge() *dto.ErrorDetail {
	return dto.NewErrorDetail(dto.ErrorCodePayloadTooLarge, "The request is too large. Try a smaller image.").
		WithSeverity(dto.ErrorSeverityWarning)
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
