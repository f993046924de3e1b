package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// IntakeAllowHeaders is the request-header allowlist advertised to browsers
// calling the public intake endpoint.
const IntakeAllowHeaders = "authorization, x-client-info, apikey, content-type"

// IntakeCORS sets the permissive CORS headers and the JSON content type on
// every response of the intake endpoint, errors included, and answers
// preflight OPTIONS requests with an empty 200 without running the rest of
// the chain.
//
// The admin API uses gin-contrib/cors with an origin allowlist instead.
func IntakeCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", IntakeAllowHeaders)
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		h.Set("Content-Type", "application/json; charset=utf-8")
		c.Next()
	}
}
