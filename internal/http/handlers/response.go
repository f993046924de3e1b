// Package handlers provides the HTTP handlers of the public intake endpoint
// and the admin review API.
//
// Intake responses follow the contract the existing web form already
// consumes: {"success":true,"message":...,"id":...} on success and
// {"error":...,"details":[...]} on failure. Admin responses use ErrorResponse,
// a stable machine-readable envelope:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "application not found"
//	}
//
// Both families log 5xx server-side through the request-scoped logger.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/agency-intake/internal/http/middleware"
)

// ErrorResponse is the error envelope of the admin API.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"application not found"`
}

// IntakeErrorResponse is the error body of the intake endpoint.
type IntakeErrorResponse struct {
	Error   string   `json:"error" example:"Validation failed"`
	Details []string `json:"details,omitempty" example:"Name is required,Please enter a valid email address"`
}

// fail aborts with an admin error envelope. 5xx are logged.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail, used by the router for NoRoute and
// NoMethod.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// intakeFail aborts with the intake error shape. cause, when non-nil, is
// logged for 5xx and never sent to the caller.
func intakeFail(c *gin.Context, status int, msg string, details []string, cause error) {
	if status >= http.StatusInternalServerError {
		ev := middleware.LoggerFrom(c).Error().Int("status", status)
		if cause != nil {
			ev = ev.Err(cause)
		}
		ev.Msg("intake error")
	}
	c.AbortWithStatusJSON(status, IntakeErrorResponse{Error: msg, Details: details})
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
