package handlers

// Stable error codes of the admin API envelope. Clients branch on these, not
// on messages.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeInvalidStatus = "invalid_status"
	ErrCodeListFailed    = "list_failed"
	ErrCodeUpdateFailed  = "update_failed"
)

// Intake endpoint messages. These strings are part of the public contract.
const (
	MsgSubmitted        = "Application submitted successfully"
	MsgValidationFailed = "Validation failed"
	MsgInvalidJSON      = "Invalid JSON in request body"
	MsgMethodNotAllowed = "Method not allowed"
	MsgRateLimited      = "Too many applications submitted. Please wait 15 minutes before trying again."
	MsgPersistFailed    = "Failed to submit application. Please try again later."
	MsgUnexpected       = "An unexpected error occurred. Please try again later."
	MsgBodyTooLarge     = "Request body too large"
)
