package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/parivartan/hub/internal/app/models/dto"
	"github.com/parivartan/hub/internal/pkg/validation"
)

// RegisterBindingRules adds the custom validation tags to gin's binding
// engine. Call it once before serving.
func RegisterBindingRules() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.RegisterRules(v)
	}
}

// BindJSON binds and validates the request body. On failure it writes the
// 400 (or 413 past the body limit) response and returns false.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		if isTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(payloadTooLarge()))
			return false
		}
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return false
	}
	return true
}
