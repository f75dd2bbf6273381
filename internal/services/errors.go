package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds surfaced by the engine. Every error returned from a
// StoryService or QueryService operation wraps exactly one of them.
var (
	// ErrValidation indicates malformed or incomplete input.
	ErrValidation = errors.New("validation")

	// ErrDuplicate indicates an already-seen item hash. Ingestion reports it as
	// a skip rather than returning it.
	ErrDuplicate = errors.New("duplicate")

	// ErrNotFound indicates an unknown story or item id.
	ErrNotFound = errors.New("not_found")

	// ErrConflict indicates a story is referenced by a finalized report.
	ErrConflict = errors.New("in_use")

	// ErrPermission indicates the access checker refused the requester.
	ErrPermission = errors.New("permission_denied")

	// ErrPersistence indicates the store failed; the transaction was rolled back.
	ErrPersistence = errors.New("persistence")
)

var errorKinds = []error{ErrValidation, ErrDuplicate, ErrNotFound, ErrConflict, ErrPermission, ErrPersistence}

// KindOf returns the name of the kind wrapped by err, or "" for nil
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, kind := range errorKinds {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return ErrPersistence.Error()
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func conflictError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func permissionError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPermission, fmt.Sprintf(format, args...))
}

// classify attaches a kind to errors coming out of the store. Errors that
// already carry a kind pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range errorKinds {
		if errors.Is(err, kind) {
			return err
		}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s: %w", ErrNotFound, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
