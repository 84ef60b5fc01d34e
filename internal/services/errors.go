// Package services defines the business logic for the conversation store:
// conversation and message lifecycle, search, export/import, and the
// integrity repair pass. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

var (
	// ErrConversationNotFound indicates that the referenced conversation id
	// does not resolve to a stored conversation. Callers must create the
	// conversation before appending messages; the store never auto-creates.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrInvalidRole is returned when a message role is outside the allowed
	// set ("user" or "assistant").
	ErrInvalidRole = errors.New("role must be user or assistant")

	// ErrEmptyPrompt is returned when a chat turn is requested with an
	// empty prompt.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrMalformedPayload is returned when import data is missing its
	// required shape (nil payload, messages not an array, and so on).
	ErrMalformedPayload = errors.New("malformed import payload")
)
