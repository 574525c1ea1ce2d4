// Package controllers handles HTTP request handling
package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/parivartan/hub/internal/app/models/dto"
	"github.com/parivartan/hub/internal/app/services"
)

// confirmFrom reads the answer to the confirmation prompt of a destructive
// request from ?confirm=true.
func confirmFrom(c *gin.Context) services.Confirmer {
	return services.Confirmed(c.Query("confirm") == "true")
}

func respond(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, dto.NewSuccessResponse(data, message))
}
