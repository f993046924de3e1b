package intake

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrMalformedJSON means the body is not a JSON object.
	ErrMalformedJSON = errors.New("malformed JSON body")

	// ErrBodyTooLarge means the body exceeded the transport's size cap.
	ErrBodyTooLarge = errors.New("request body too large")

	// ErrPersistence means the application could not be stored. Details are
	// logged, never returned to the caller.
	ErrPersistence = errors.New("application could not be persisted")
)

// Violation is one failed field rule.
type Violation struct {
	Field   string
	Message string
}

// ValidationError carries every violated field rule of a submission.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Details(), "; ")
}

// Details returns the human-readable messages in field order.
func (e *ValidationError) Details() []string {
	out := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		out = append(out, v.Message)
	}
	return out
}

// RateLimitError is returned when the client's window is exhausted.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return "rate limit exceeded, retry after " + e.RetryAfter.Round(time.Second).String()
}
