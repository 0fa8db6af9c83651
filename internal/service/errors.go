package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/careerpath-api/internal/domain"
)

// ServiceError wraps an unexpected failure with the service and operation
// that produced it. Expected conditions are returned as sentinel errors
// instead, so callers can match them with errors.Is.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
	}
	return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err unless it is nil or one of the domain sentinels
// the API layer maps directly.
func NewServiceError(service, op string, err error) error {
	if err == nil {
		return nil
	}
	if isExpected(err) {
		return err
	}
	return &ServiceError{Service: service, Op: op, Err: err}
}

func isExpected(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrMissingAnswers) ||
		errors.Is(err, domain.ErrInvalidAnswers)
}
