package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/unrolled/secure"
)

// SecurityHeaders sets the browser hardening headers on every response.
// development disables the host and HTTPS-only checks.
func SecurityHeaders(development bool, logger zerolog.Logger) gin.HandlerFunc {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		STSSeconds:         31536000,
		IsDevelopment:      development,
	})

	return func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			logger.Warn().Err(err).Str("host", c.Request.Host).Msg("Request rejected by security middleware")
			c.Abort()
			return
		}
		// Process writes redirects itself.
		if status := c.Writer.Status(); status > 300 && status < 399 {
			c.Abort()
			return
		}
		c.Next()
	}
}
