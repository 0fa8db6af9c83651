// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrConfiguration is returned when static configuration (such as the
	// scoring table) is inconsistent. It is fatal at startup.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrValidation is returned when a request payload fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrMissingAnswers is returned when a submission carries no answers field.
	ErrMissingAnswers = errors.New("missing answers data")

	// ErrInvalidAnswers is returned when the answers field is not an object.
	ErrInvalidAnswers = errors.New("invalid answers format")

	// ErrExternalService is returned when the content generator or the
	// renderer fails in a way the caller cannot recover from.
	ErrExternalService = errors.New("external service failure")

	// ErrNotFound is the root of every "does not exist" outcome.
	ErrNotFound = errors.New("not found")
)
