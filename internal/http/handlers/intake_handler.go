// Intake HTTP handler.
//
//   - OPTIONS /submit-application  (preflight, answered by middleware.IntakeCORS)
//   - POST    /submit-application  (submit)
//   - any other method             (405)
package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/agency-intake/internal/http/middleware"
	"github.com/tbourn/agency-intake/internal/intake"
)

// SubmitApplicationResponse is the success body of the intake endpoint.
type SubmitApplicationResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Application submitted successfully"`
	ID      string `json:"id" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
}

// HeaderReplayed marks a response served from an earlier submission with the
// same Idempotency-Key.
const HeaderReplayed = "Idempotent-Replayed"

// SubmitApplication godoc
// @ID          submitApplication
// @Summary     Submit a model application
// @Description Public intake endpoint used by the agency web form. The body is
// @Description sanitized and validated; valid applications are stored as
// @Description pending. Each client address may submit 5 applications per
// @Description 15 minutes. Failed submissions count towards that budget.
// @Tags        Intake
// @Accept      json
// @Produce     json
//
// @Param       X-Forwarded-For  header  string             false "Client address chain; the first entry keys the rate limit"
// @Param       Idempotency-Key  header  string             false "Retry key; a repeat returns the original id"  example(form-3f2a)
// @Param       body             body    intake.Submission  true  "Application"
//
// @Success     200  {object} handlers.SubmitApplicationResponse
// @Header      200  {string} Idempotent-Replayed "true when served from an earlier submission"
// @Failure     400  {object} handlers.IntakeErrorResponse "Validation failed or invalid JSON"
// @Failure     405  {object} handlers.IntakeErrorResponse "Method not allowed"
// @Failure     413  {object} handlers.IntakeErrorResponse "Request body too large"
// @Failure     429  {object} handlers.IntakeErrorResponse "Too many applications"
// @Header      429  {integer} Retry-After "Seconds until the window resets"
// @Failure     500  {object} handlers.IntakeErrorResponse "Internal error"
// @Router      /submit-application [post]
func (h *Handlers) SubmitApplication(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Header("Allow", "POST, OPTIONS")
		intakeFail(c, http.StatusMethodNotAllowed, MsgMethodNotAllowed, nil, nil)
		return
	}

	key, _ := middleware.GetIdempotencyKey(c)
	res, err := h.intakeSvc.Submit(c.Request.Context(), intake.Request{
		Body:           c.Request.Body,
		ClientKey:      intake.ClientKey(c.GetHeader("X-Forwarded-For")),
		IPAddress:      c.ClientIP(),
		UserAgent:      c.Request.UserAgent(),
		IdempotencyKey: key,
	})
	if err != nil {
		h.submitError(c, err)
		return
	}

	if res.Replayed {
		c.Header(HeaderReplayed, "true")
	}
	ok(c, http.StatusOK, SubmitApplicationResponse{Success: true, Message: MsgSubmitted, ID: res.ID})
}

func (h *Handlers) submitError(c *gin.Context, err error) {
	var (
		rl *intake.RateLimitError
		ve *intake.ValidationError
	)
	switch {
	case errors.As(err, &rl):
		c.Header("Retry-After", retryAfterSeconds(rl))
		intakeFail(c, http.StatusTooManyRequests, MsgRateLimited, nil, nil)
	case errors.Is(err, intake.ErrBodyTooLarge):
		intakeFail(c, http.StatusRequestEntityTooLarge, MsgBodyTooLarge, nil, nil)
	case errors.Is(err, intake.ErrMalformedJSON):
		intakeFail(c, http.StatusBadRequest, MsgInvalidJSON, nil, nil)
	case errors.As(err, &ve):
		intakeFail(c, http.StatusBadRequest, MsgValidationFailed, ve.Details(), nil)
	case errors.Is(err, intake.ErrPersistence):
		intakeFail(c, http.StatusInternalServerError, MsgPersistFailed, nil, err)
	default:
		intakeFail(c, http.StatusInternalServerError, MsgUnexpected, nil, err)
	}
}

func retryAfterSeconds(rl *intake.RateLimitError) string {
	secs := int(math.Ceil(rl.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
