// Package services defines the admin-review business logic for applications
// and the audit trail. This file centralizes service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrApplicationNotFound indicates that the requested application does
	// not exist.
	ErrApplicationNotFound = errors.New("application not found")

	// ErrInvalidStatus is returned when a status value is not one of the
	// known application statuses, or is not a valid review target.
	ErrInvalidStatus = errors.New("invalid application status")

	// ErrInvalidTransition is returned when a review decision is applied to
	// an application that is no longer pending.
	ErrInvalidTransition = errors.New("application is not pending")

	// ErrInvalidActor is returned when a state change has no actor id.
	ErrInvalidActor = errors.New("actor is required")
)
